// Package domain defines the platform aggregates the event engine reads and
// updates: deposits and communities.
package domain

import (
	"time"

	apperrors "github.com/allisson/pubflow/internal/errors"
)

// DepositStatusDraft is the status of a deposit that was never submitted.
const DepositStatusDraft = "draft"

// ErrDepositNotFound indicates no deposit exists with the given id.
var ErrDepositNotFound = apperrors.Wrap(apperrors.ErrNotFound, "deposit not found")

// Deposit is a submitted or draft manuscript.
type Deposit struct {
	ID          string
	Title       string
	CreatorID   string
	CommunityID *string
	Status      string
	OpenAIREID  *string
	UpdatedAt   time.Time
}

// Community groups deposits and their followers.
type Community struct {
	ID             string
	Name           string
	FollowersCount int
}
