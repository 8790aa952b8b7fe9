package repository

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/allisson/pubflow/internal/platform/domain"
)

// MemoryPlatformRepository keeps deposits and communities in process memory.
// It backs the memory database driver.
type MemoryPlatformRepository struct {
	mu          sync.Mutex
	deposits    map[string]domain.Deposit
	communities map[string]domain.Community
	followers   map[string]map[string]struct{}
}

// NewMemoryPlatformRepository creates an empty MemoryPlatformRepository.
func NewMemoryPlatformRepository() *MemoryPlatformRepository {
	return &MemoryPlatformRepository{
		deposits:    make(map[string]domain.Deposit),
		communities: make(map[string]domain.Community),
		followers:   make(map[string]map[string]struct{}),
	}
}

// SaveDeposit inserts or replaces a deposit.
func (r *MemoryPlatformRepository) SaveDeposit(deposit domain.Deposit) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deposits[deposit.ID] = deposit
}

// Deposit returns a copy of the stored deposit.
func (r *MemoryPlatformRepository) Deposit(id string) (domain.Deposit, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.deposits[id]
	return d, ok
}

// SaveCommunity inserts or replaces a community.
func (r *MemoryPlatformRepository) SaveCommunity(community domain.Community) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.communities[community.ID] = community
}

// Community returns a copy of the stored community.
func (r *MemoryPlatformRepository) Community(id string) (domain.Community, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.communities[id]
	return c, ok
}

// Follow records userID as a follower of communityID.
func (r *MemoryPlatformRepository) Follow(communityID, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.followers[communityID] == nil {
		r.followers[communityID] = make(map[string]struct{})
	}
	r.followers[communityID][userID] = struct{}{}
}

func (r *MemoryPlatformRepository) ListStaleDrafts(ctx context.Context, before time.Time) ([]*domain.Deposit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var drafts []*domain.Deposit
	for _, d := range r.deposits {
		if d.Status == domain.DepositStatusDraft && d.UpdatedAt.Before(before) {
			drafts = append(drafts, &d)
		}
	}
	slices.SortFunc(drafts, func(a, b *domain.Deposit) int {
		return cmp.Or(a.UpdatedAt.Compare(b.UpdatedAt), cmp.Compare(a.ID, b.ID))
	})
	return drafts, nil
}

func (r *MemoryPlatformRepository) SetOpenAIREIdentifier(ctx context.Context, depositID, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.deposits[depositID]
	if !ok {
		return domain.ErrDepositNotFound
	}
	d.OpenAIREID = &value
	r.deposits[depositID] = d
	return nil
}

func (r *MemoryPlatformRepository) RecomputeFollowerCounts(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, c := range r.communities {
		c.FollowersCount = len(r.followers[id])
		r.communities[id] = c
	}
	return int64(len(r.communities)), nil
}
