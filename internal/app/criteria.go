package app

import (
	"context"
	"fmt"
	"time"

	"sunset_storefront/internal/domain"
)

// CriteriaStore is the single source of truth for destination/dates/guests,
// shared by the search bar, the per-hotel booking form and the results
// screen. State is session-scoped and ephemeral (cache TTL = session TTL);
// nothing here survives a session and no network search is triggered by a
// save.
type CriteriaStore struct {
	cache domain.Cache
	ttl   time.Duration
	now   func() time.Time
}

func NewCriteriaStore(c domain.Cache, ttl time.Duration) *CriteriaStore {
	return &CriteriaStore{cache: c, ttl: ttl, now: time.Now}
}

func criteriaKey(sessionID string) string {
	return fmt.Sprintf("criteria:%s", sessionID)
}

// Read returns the session's criteria, or defaults if never set.
func (s *CriteriaStore) Read(ctx context.Context, sessionID string) (domain.SearchCriteria, error) {
	var c domain.SearchCriteria
	ok, err := s.cache.Get(ctx, criteriaKey(sessionID), &c)
	if err != nil {
		return domain.DefaultCriteria(s.now()), err
	}
	if !ok {
		return domain.DefaultCriteria(s.now()), nil
	}
	return c, nil
}

// Save replaces all fields atomically, applying the date coherence rule.
// Cross-field validity beyond date ordering is the caller's business.
func (s *CriteriaStore) Save(ctx context.Context, sessionID string, c domain.SearchCriteria) (domain.SearchCriteria, error) {
	if c.AdultCount < 1 {
		return c, &domain.ValidationError{Field: "adultCount", Reason: "at least one adult is required"}
	}
	if c.ChildrenCount < 0 {
		return c, &domain.ValidationError{Field: "childrenCount", Reason: "must not be negative"}
	}
	c = c.Coerced()
	return c, s.cache.Set(ctx, criteriaKey(sessionID), c, s.ttl)
}
