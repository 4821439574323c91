package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/course-planner-api/pkg/errors"
	"github.com/noah-isme/course-planner-api/pkg/jobs"
)

func TestCatalogServiceLoadsMissesAndFillsCache(t *testing.T) {
	repo := newCatalogRepoStub(sampleCatalog()...)
	cacheRepo := newMemoryCache()
	svc := NewCatalogService(repo, NewCacheService(cacheRepo, nil, 0, nil, true), nil, nil)
	ctx := context.Background()

	courses, err := svc.LoadCourses(ctx, "2025FA", []string{"MATH200", " CS101 "})
	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.Equal(t, "MATH200", courses[0].ID)
	assert.Equal(t, "CS101", courses[1].ID)
	assert.Equal(t, [][]string{{"MATH200", "CS101"}}, repo.calls)
	assert.Equal(t, 1, cacheRepo.setCount())

	_, err = svc.LoadCourses(ctx, "2025FA", []string{"CS101", "MATH200"})
	require.NoError(t, err)
	assert.Len(t, repo.calls, 1, "second load is served from cache")
}

func TestCatalogServiceQueuesCacheFill(t *testing.T) {
	repo := newCatalogRepoStub(sampleCatalog()...)
	cacheRepo := newMemoryCache()
	svc := NewCatalogService(repo, NewCacheService(cacheRepo, nil, 0, nil, true), nil, nil)
	queue := &enqueuerStub{}
	svc.UseFillQueue(queue)

	_, err := svc.LoadCourses(context.Background(), "2025FA", []string{"CS101"})
	require.NoError(t, err)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, JobTypeCacheFill, queue.jobs[0].Type)
	assert.Zero(t, cacheRepo.setCount(), "write deferred to the queue")

	require.NoError(t, svc.HandleCacheFill(context.Background(), queue.jobs[0]))
	assert.Equal(t, 1, cacheRepo.setCount())
}

func TestCatalogServiceWritesInlineWhenQueueIsFull(t *testing.T) {
	repo := newCatalogRepoStub(sampleCatalog()...)
	cacheRepo := newMemoryCache()
	svc := NewCatalogService(repo, NewCacheService(cacheRepo, nil, 0, nil, true), nil, nil)
	svc.UseFillQueue(&enqueuerStub{err: jobs.ErrQueueFull})

	_, err := svc.LoadCourses(context.Background(), "2025FA", []string{"CS101"})
	require.NoError(t, err)
	assert.Equal(t, 1, cacheRepo.setCount())
}

func TestCatalogServiceUnknownCourse(t *testing.T) {
	svc := NewCatalogService(newCatalogRepoStub(sampleCatalog()...), nil, nil, nil)

	_, err := svc.LoadCourses(context.Background(), "2025FA", []string{"CS101", "HIST999"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrNoSectionsForCourse))
	assert.Equal(t, "HIST999", appErrors.FromError(err).Details["courseId"])
}

func TestCatalogServiceRejectsBadRequests(t *testing.T) {
	svc := NewCatalogService(newCatalogRepoStub(), nil, nil, nil)
	ctx := context.Background()

	tests := []struct {
		name   string
		termID string
		ids    []string
	}{
		{name: "missing term", termID: " ", ids: []string{"CS101"}},
		{name: "no ids", termID: "2025FA"},
		{name: "blank id", termID: "2025FA", ids: []string{"CS101", ""}},
		{name: "duplicate id", termID: "2025FA", ids: []string{"CS101", "CS101"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.LoadCourses(ctx, tc.termID, tc.ids)
			assert.True(t, errors.Is(err, appErrors.ErrValidation))
		})
	}

	disabled := NewCatalogService(nil, nil, nil, nil)
	_, err := disabled.LoadCourses(ctx, "2025FA", []string{"CS101"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestCatalogServiceRepositoryFailure(t *testing.T) {
	repo := newCatalogRepoStub()
	repo.err = errors.New("db down")
	svc := NewCatalogService(repo, nil, NewMetricsService(), nil)

	_, err := svc.LoadCourses(context.Background(), "2025FA", []string{"CS101"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrInternal))
}
