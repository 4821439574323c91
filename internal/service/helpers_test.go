package service

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/noah-isme/course-planner-api/internal/client"
	"github.com/noah-isme/course-planner-api/internal/models"
	"github.com/noah-isme/course-planner-api/pkg/jobs"
)

func weekly(days models.DaySet, start, end int) models.Meeting {
	return models.Meeting{Days: days, StartMinute: start, EndMinute: end}
}

func offering(id string, credits float64, sections ...models.Section) models.Course {
	for i := range sections {
		sections[i].CourseID = id
	}
	return models.Course{ID: id, Credits: credits, Sections: sections}
}

func sec(id string, meetings ...models.Meeting) models.Section {
	return models.Section{ID: id, Meetings: meetings}
}

func sampleCatalog() []models.Course {
	mwf := models.Monday | models.Wednesday | models.Friday
	tth := models.Tuesday | models.Thursday
	return []models.Course{
		offering("CS101", 4,
			sec("CS101-01", weekly(mwf, 9*60, 9*60+50)),
			sec("CS101-02", weekly(mwf, 11*60, 11*60+50)),
		),
		offering("MATH200", 3,
			sec("MATH200-01", weekly(mwf, 9*60, 9*60+50)),
			sec("MATH200-02", weekly(tth, 10*60+30, 11*60+45)),
		),
	}
}

type memoryCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	getErr  error
	setErr  error
	sets    int
	deleted []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string][]byte)}
}

func (m *memoryCache) GetMany(ctx context.Context, keys []string) (map[string][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	out := make(map[string][]byte)
	for _, k := range keys {
		if v, ok := m.data[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (m *memoryCache) SetMany(ctx context.Context, entries map[string]interface{}, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	if m.setErr != nil {
		return m.setErr
	}
	for k, v := range entries {
		raw, err := json.Marshal(v)
		if err != nil {
			return err
		}
		m.data[k] = raw
	}
	return nil
}

func (m *memoryCache) DeleteByPattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			delete(m.data, k)
		}
	}
	return nil
}

func (m *memoryCache) setCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sets
}

type catalogRepoStub struct {
	courses map[string]models.Course
	calls   [][]string
	err     error
}

func newCatalogRepoStub(courses ...models.Course) *catalogRepoStub {
	stub := &catalogRepoStub{courses: make(map[string]models.Course)}
	for _, c := range courses {
		stub.courses[c.ID] = c
	}
	return stub
}

func (s *catalogRepoStub) FindCourses(ctx context.Context, termID string, courseIDs []string) ([]models.Course, error) {
	s.calls = append(s.calls, append([]string(nil), courseIDs...))
	if s.err != nil {
		return nil, s.err
	}
	var out []models.Course
	for _, id := range courseIDs {
		if c, ok := s.courses[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

type enqueuerStub struct {
	jobs []jobs.Job
	err  error
}

func (e *enqueuerStub) TryEnqueue(job jobs.Job) error {
	if e.err != nil {
		return e.err
	}
	e.jobs = append(e.jobs, job)
	return nil
}

type suggesterStub struct {
	sets  [][]string
	err   error
	calls []client.SuggestionRequest
}

func (s *suggesterStub) Suggest(ctx context.Context, req client.SuggestionRequest) ([][]string, error) {
	s.calls = append(s.calls, req)
	return s.sets, s.err
}
