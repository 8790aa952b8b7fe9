package handler

import (
	"github.com/allisson/pubflow/internal/event/domain"
	"github.com/allisson/pubflow/internal/notification"
)

var (
	email      = []notification.Channel{notification.ChannelEmail}
	inApp      = []notification.Channel{notification.ChannelInApp}
	emailInApp = []notification.Channel{notification.ChannelEmail, notification.ChannelInApp}
	inAppPush  = []notification.Channel{notification.ChannelInApp, notification.ChannelPush}
	everywhere = []notification.Channel{
		notification.ChannelEmail,
		notification.ChannelInApp,
		notification.ChannelPush,
	}
)

func users(paths ...string) []RecipientPath {
	out := make([]RecipientPath, len(paths))
	for i, p := range paths {
		out[i] = RecipientPath{Path: p, Kind: RecipientUser}
	}
	return out
}

func addresses(paths ...string) []RecipientPath {
	out := make([]RecipientPath, len(paths))
	for i, p := range paths {
		out[i] = RecipientPath{Path: p, Kind: RecipientAddress}
	}
	return out
}

// NotificationRoutes is the routing table of every notification event type.
var NotificationRoutes = []NotificationRoute{
	{domain.TypeUserCreated, "user_created", email, users("user")},
	{domain.TypeEmailVerificationRequested, "email_verification_requested", email, addresses("email")},
	{domain.TypePasswordResetRequested, "password_reset_requested", email, users("user")},
	{domain.TypeInviteCreated, "invite_created", email, addresses("invite.email")},
	{domain.TypeInviteAccepted, "invite_accepted", emailInApp, users("invite.inviter")},
	{domain.TypeInviteRejected, "invite_rejected", emailInApp, users("invite.inviter")},
	{domain.TypeReviewInvitationReminder, "review_invitation_reminder", email, users("reviewer")},
	{domain.TypeDepositDraftReminder, "deposit_draft_reminder", email, users("deposit.creator")},
	{domain.TypeDepositSubmitted, "deposit_submitted", emailInApp, users("deposit.creator")},
	{domain.TypeDepositPendingApproval, "deposit_pending_approval", emailInApp, users("community.moderators")},
	{domain.TypeDepositAccepted, "deposit_accepted", emailInApp, users("deposit.creator", "deposit.authors")},
	{domain.TypeDepositRejected, "deposit_rejected", emailInApp, users("deposit.creator", "deposit.authors")},
	{domain.TypeDepositPublished, "deposit_published", everywhere, users("deposit.creator", "deposit.authors")},
	{domain.TypeDepositBackToDraft, "deposit_back_to_draft", emailInApp, users("deposit.creator")},
	{domain.TypeDepositNewVersion, "deposit_new_version", inApp, users("followers")},
	{domain.TypeDepositUpdated, "deposit_updated", inApp, users("deposit.authors")},
	{domain.TypeDepositDeleted, "deposit_deleted", inApp, users("deposit.creator")},
	{domain.TypeCommentCreated, "comment_created", inAppPush, users("deposit.creator")},
	{domain.TypeCommentReplied, "comment_replied", inAppPush, users("parent.author")},
	{domain.TypeReviewSubmitted, "review_submitted", emailInApp, users("community.moderators")},
	{domain.TypeReviewAccepted, "review_accepted", emailInApp, users("review.reviewer")},
	{domain.TypeReviewPublished, "review_published", emailInApp, users("deposit.creator", "deposit.authors")},
	{domain.TypeReviewChangedToDraft, "review_changed_to_draft", emailInApp, users("review.reviewer")},
	{domain.TypeCommunityCreated, "community_created", email, users("community.owner")},
	{domain.TypeCommunityPendingApproval, "community_pending_approval", email, addresses("admins")},
	{domain.TypeCommunityAccepted, "community_accepted", emailInApp, users("community.owner")},
	{domain.TypeModeratorAdded, "moderator_added", emailInApp, users("moderator")},
	{domain.TypeConversationMessageReceived, "conversation_message_received", inAppPush,
		users("conversation.participants")},
	{domain.TypeFeedbackCreated, "feedback_created", email, addresses("admins")},
	{domain.TypePaymentSucceeded, "payment_succeeded", email, users("user")},
	{domain.TypeDOIRegistered, "doi_registered", emailInApp, users("deposit.creator")},
	{domain.TypeAuthorInvited, "author_invited", email, addresses("author.email")},
	{domain.TypeCallForPapersPublished, "call_for_papers_published", everywhere, users("community.followers")},
}
