package service

import (
	"sync"
	"time"

	"github.com/noah-isme/course-planner-api/internal/dto"
)

// planStore keeps generated plans in memory until they expire.
type planStore struct {
	ttl   time.Duration
	now   func() time.Time
	mu    sync.RWMutex
	items map[string]dto.PlanResponse
}

func newPlanStore(ttl time.Duration, now func() time.Time) *planStore {
	if now == nil {
		now = time.Now
	}
	return &planStore{
		ttl:   ttl,
		now:   now,
		items: make(map[string]dto.PlanResponse),
	}
}

func (s *planStore) Save(plan dto.PlanResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[plan.PlanID] = plan
}

func (s *planStore) Get(id string) (dto.PlanResponse, bool) {
	s.mu.RLock()
	plan, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return dto.PlanResponse{}, false
	}
	if !s.now().Before(plan.ExpiresAt) {
		s.Delete(id)
		return dto.PlanResponse{}, false
	}
	return plan, true
}

func (s *planStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}

// Sweep drops expired plans and reports how many were removed.
func (s *planStore) Sweep() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, plan := range s.items {
		if !now.Before(plan.ExpiresAt) {
			delete(s.items, id)
			removed++
		}
	}
	return removed
}

func (s *planStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
