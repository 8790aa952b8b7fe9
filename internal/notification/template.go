package notification

import (
	"bytes"
	"strings"
	"text/template"

	apperrors "github.com/allisson/pubflow/internal/errors"
)

// Message is a rendered notification.
type Message struct {
	Subject string
	Body    string
}

type messageTemplate struct {
	subject *template.Template
	body    *template.Template
}

var funcs = template.FuncMap{
	"default": func(fallback, value any) any {
		if value == nil || value == "" {
			return fallback
		}
		return value
	},
}

func mustTemplate(name, subject, body string) messageTemplate {
	return messageTemplate{
		subject: template.Must(template.New(name + ".subject").Funcs(funcs).Parse(subject)),
		body:    template.Must(template.New(name + ".body").Funcs(funcs).Parse(body)),
	}
}

var templates = map[string]messageTemplate{
	"user_created": mustTemplate("user_created",
		`Welcome to pubflow`,
		`Hello {{default "there" .name}}, your account is ready.`),
	"email_verification_requested": mustTemplate("email_verification_requested",
		`Verify your email address`,
		`Use the code {{.code}} to verify your email address.`),
	"password_reset_requested": mustTemplate("password_reset_requested",
		`Reset your password`,
		`Use the code {{.code}} to reset your password. Ignore this message if you did not ask for it.`),
	"deposit_draft_reminder": mustTemplate("deposit_draft_reminder",
		`Your draft is waiting`,
		`Your draft "{{.deposit.title}}" has not been updated for a while. Submit it when you are ready.`),
	"deposit_published": mustTemplate("deposit_published",
		`Your deposit was published`,
		`"{{.deposit.title}}" is now public.`),
	"review_invitation_reminder": mustTemplate("review_invitation_reminder",
		`Pending review invitation`,
		`You still have a pending invitation to review "{{.deposit.title}}".`),
	"health_check": mustTemplate("health_check",
		`pubflow daily health check`,
		"pending events: {{.pending}}\nfailed events: {{.failed}}\ngenerated at: {{.generated_at}}"),
}

// Render renders the named template with data. Unknown names get a generic
// message derived from the name.
func Render(name string, data map[string]any) (Message, error) {
	tmpl, ok := templates[name]
	if !ok {
		return genericMessage(name), nil
	}

	var subject, body bytes.Buffer
	if err := tmpl.subject.Execute(&subject, data); err != nil {
		return Message{}, apperrors.Wrapf(err, "failed to render subject of %q", name)
	}
	if err := tmpl.body.Execute(&body, data); err != nil {
		return Message{}, apperrors.Wrapf(err, "failed to render body of %q", name)
	}
	return Message{Subject: subject.String(), Body: body.String()}, nil
}

func genericMessage(name string) Message {
	title := strings.ReplaceAll(name, "_", " ")
	if title != "" {
		title = strings.ToUpper(title[:1]) + title[1:]
	}
	return Message{
		Subject: title,
		Body:    "You have a new notification: " + title + ".",
	}
}
