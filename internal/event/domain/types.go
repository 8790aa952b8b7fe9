package domain

import "regexp"

// Type is the tag selecting the handler of an event.
type Type string

var typeRegex = regexp.MustCompile(`^[A-Za-z0-9]+$`)

// Valid reports whether t is a well-formed tag. A valid tag need not have a
// registered handler.
func (t Type) Valid() bool {
	return typeRegex.MatchString(string(t))
}

func (t Type) String() string {
	return string(t)
}

// Notification event types.
const (
	TypeUserCreated                 Type = "UserCreated"
	TypeEmailVerificationRequested  Type = "EmailVerificationRequested"
	TypePasswordResetRequested      Type = "PasswordResetRequested"
	TypeInviteCreated               Type = "InviteCreated"
	TypeInviteAccepted              Type = "InviteAccepted"
	TypeInviteRejected              Type = "InviteRejected"
	TypeReviewInvitationReminder    Type = "ReviewInvitationReminder"
	TypeDepositDraftReminder        Type = "DepositDraftReminder"
	TypeDepositSubmitted            Type = "DepositSubmitted"
	TypeDepositPendingApproval      Type = "DepositPendingApproval"
	TypeDepositAccepted             Type = "DepositAccepted"
	TypeDepositRejected             Type = "DepositRejected"
	TypeDepositPublished            Type = "DepositPublished"
	TypeDepositBackToDraft          Type = "DepositBackToDraft"
	TypeDepositNewVersion           Type = "DepositNewVersion"
	TypeDepositUpdated              Type = "DepositUpdated"
	TypeDepositDeleted              Type = "DepositDeleted"
	TypeCommentCreated              Type = "CommentCreated"
	TypeCommentReplied              Type = "CommentReplied"
	TypeReviewSubmitted             Type = "ReviewSubmitted"
	TypeReviewAccepted              Type = "ReviewAccepted"
	TypeReviewPublished             Type = "ReviewPublished"
	TypeReviewChangedToDraft        Type = "ReviewChangedToDraft"
	TypeCommunityCreated            Type = "CommunityCreated"
	TypeCommunityPendingApproval    Type = "CommunityPendingApproval"
	TypeCommunityAccepted           Type = "CommunityAccepted"
	TypeModeratorAdded              Type = "ModeratorAdded"
	TypeConversationMessageReceived Type = "ConversationMessageReceived"
	TypeFeedbackCreated             Type = "FeedbackCreated"
	TypePaymentSucceeded            Type = "PaymentSucceeded"
	TypeDOIRegistered               Type = "DOIRegistered"
	TypeAuthorInvited               Type = "AuthorInvited"
	TypeCallForPapersPublished      Type = "CallForPapersPublished"
)

// Batch event types. Their handlers do their work directly and never notify.
const (
	TypeHarvesterRun         Type = "HarvesterRun"
	TypeDepositViewsImport   Type = "DepositViewsImport"
	TypeCommunityViewsImport Type = "CommunityViewsImport"
	TypeReviewViewsImport    Type = "ReviewViewsImport"
	TypeDOIStatusRefresh     Type = "DOIStatusRefresh"
	TypeDraftReminderScan    Type = "DraftReminderScan"
	TypeDepositHarvested     Type = "DepositHarvested"
)
