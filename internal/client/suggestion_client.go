package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/course-planner-api/internal/models"
	appErrors "github.com/noah-isme/course-planner-api/pkg/errors"
)

const (
	apiKeyHeader     = "X-API-Key"
	maxResponseBytes = 1 << 20
	defaultTimeout   = 3 * time.Second
)

// SuggestionConfig points the client at the suggestion service.
type SuggestionConfig struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// SuggestionRequest is the payload sent to the suggestion service.
type SuggestionRequest struct {
	Query       string              `json:"query,omitempty"`
	Courses     []SuggestionCourse  `json:"courses"`
	Preferences *models.Preferences `json:"preferences,omitempty"`
	Constraints *models.Constraints `json:"constraints,omitempty"`
	MaxSets     int                 `json:"maxSets"`
}

// SuggestionCourse lists the section ids the service may pick from.
type SuggestionCourse struct {
	ID         string   `json:"id"`
	SectionIDs []string `json:"sectionIds"`
}

type suggestionResponse struct {
	SectionIDSets [][]string `json:"sectionIdSets"`
}

// SuggestionClient calls the external suggestion service over HTTP. Its output is untrusted.
type SuggestionClient struct {
	cfg    SuggestionConfig
	http   *http.Client
	logger *zap.Logger
}

// NewSuggestionClient constructs a client. A nil httpClient gets one with cfg.Timeout.
func NewSuggestionClient(cfg SuggestionConfig, httpClient *http.Client, logger *zap.Logger) *SuggestionClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SuggestionClient{cfg: cfg, http: httpClient, logger: logger}
}

// BuildSuggestionRequest lists every section of every course for the service.
func BuildSuggestionRequest(query string, courses []models.Course, prefs *models.Preferences, constraints *models.Constraints, maxSets int) SuggestionRequest {
	req := SuggestionRequest{
		Query:       strings.TrimSpace(query),
		Courses:     make([]SuggestionCourse, 0, len(courses)),
		Preferences: prefs,
		Constraints: constraints,
		MaxSets:     maxSets,
	}
	for _, c := range courses {
		ids := make([]string, 0, len(c.Sections))
		for _, s := range c.Sections {
			ids = append(ids, s.ID)
		}
		req.Courses = append(req.Courses, SuggestionCourse{ID: c.ID, SectionIDs: ids})
	}
	return req
}

// Suggest asks for section id sets. Every failure is reported as ErrSuggestionUnavailable.
func (c *SuggestionClient) Suggest(ctx context.Context, req SuggestionRequest) ([][]string, error) {
	if c == nil || c.cfg.URL == "" {
		return nil, appErrors.Clone(appErrors.ErrSuggestionUnavailable, "suggestion service not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	body, err := json.Marshal(req)
	if err != nil {
		return nil, unavailable(fmt.Errorf("marshal suggestion request: %w", err))
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return nil, unavailable(fmt.Errorf("build suggestion request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.cfg.APIKey != "" {
		httpReq.Header.Set(apiKeyHeader, c.cfg.APIKey)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, unavailable(fmt.Errorf("call suggestion service: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil, unavailable(fmt.Errorf("suggestion service returned %d", resp.StatusCode))
	}

	var payload suggestionResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&payload); err != nil {
		return nil, unavailable(fmt.Errorf("decode suggestion response: %w", err))
	}

	c.logger.Debug("suggestions received",
		zap.Int("sets", len(payload.SectionIDSets)),
		zap.Duration("latency", time.Since(start)),
	)
	return payload.SectionIDSets, nil
}

func unavailable(err error) error {
	return appErrors.Wrap(err, appErrors.ErrSuggestionUnavailable.Code, appErrors.ErrSuggestionUnavailable.Status, appErrors.ErrSuggestionUnavailable.Message)
}
