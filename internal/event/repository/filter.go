// Package repository provides PostgreSQL, MySQL and in-memory event stores.
package repository

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"

	"github.com/allisson/pubflow/internal/event/domain"
)

const eventColumns = `id, type, payload, status, retry_count, last_error, created_on, scheduled_on, processed_on, updated_on`

// dialect captures the SQL differences between the supported databases.
type dialect struct {
	// placeholder renders the n-th (1-based) bind parameter.
	placeholder func(n int) string
	// payloadValue renders the text value of a payload path bound at ph.
	payloadValue func(ph string) string
	// payloadPath converts a dot separated path into its bind argument.
	payloadPath func(path string) any
}

var postgresDialect = dialect{
	placeholder: func(n int) string {
		return "$" + strconv.Itoa(n)
	},
	payloadValue: func(ph string) string {
		return fmt.Sprintf("payload #>> %s::text[]", ph)
	},
	payloadPath: func(path string) any {
		return pq.Array(strings.Split(path, "."))
	},
}

var mysqlDialect = dialect{
	placeholder: func(int) string {
		return "?"
	},
	payloadValue: func(ph string) string {
		return fmt.Sprintf("JSON_UNQUOTE(JSON_EXTRACT(payload, %s))", ph)
	},
	payloadPath: mysqlJSONPath,
}

// mysqlJSONPath converts "deposit.authors.0.id" into `$."deposit"."authors"[0]."id"`.
func mysqlJSONPath(path string) any {
	var b strings.Builder
	b.WriteString("$")
	for _, segment := range strings.Split(path, ".") {
		if _, err := strconv.Atoi(segment); err == nil {
			b.WriteString("[" + segment + "]")
			continue
		}
		b.WriteString(`."` + strings.ReplaceAll(segment, `"`, `\"`) + `"`)
	}
	return b.String()
}

// whereClause compiles the filter into a WHERE clause (empty when the filter
// has no conditions) and its arguments. Placeholders start after offset.
func (d dialect) whereClause(filter domain.EventFilter, offset int) (string, []any) {
	var conditions []string
	var args []any

	next := func(arg any) string {
		args = append(args, arg)
		return d.placeholder(offset + len(args))
	}

	if len(filter.Statuses) > 0 {
		phs := make([]string, 0, len(filter.Statuses))
		for _, status := range filter.Statuses {
			phs = append(phs, next(string(status)))
		}
		conditions = append(conditions, "status IN ("+strings.Join(phs, ", ")+")")
	}

	if len(filter.Types) > 0 {
		phs := make([]string, 0, len(filter.Types))
		for _, eventType := range filter.Types {
			phs = append(phs, next(string(eventType)))
		}
		conditions = append(conditions, "type IN ("+strings.Join(phs, ", ")+")")
	}

	if filter.RetryCountLessThan != nil {
		conditions = append(conditions, "retry_count < "+next(*filter.RetryCountLessThan))
	}

	if filter.ScheduledOnOrBefore != nil {
		conditions = append(conditions, "scheduled_on <= "+next(filter.ScheduledOnOrBefore.UTC()))
	}

	if filter.ScheduledAfter != nil {
		conditions = append(conditions, "scheduled_on > "+next(filter.ScheduledAfter.UTC()))
	}

	for _, cond := range filter.Payload {
		path := next(d.payloadPath(cond.Path))
		value := next(cond.Value)
		conditions = append(conditions, d.payloadValue(path)+" = "+value)
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// pagination renders LIMIT/OFFSET. A zero limit means no limit.
func (d dialect) pagination(filter domain.EventFilter, args []any) (string, []any) {
	if filter.Limit <= 0 {
		return "", args
	}
	args = append(args, filter.Limit)
	clause := " LIMIT " + d.placeholder(len(args))
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		clause += " OFFSET " + d.placeholder(len(args))
	}
	return clause, args
}
