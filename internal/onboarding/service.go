package onboarding

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"shoppa-backend/internal/analyzer"
	"shoppa-backend/internal/events"
	"shoppa-backend/internal/faq"
	"shoppa-backend/internal/shared/telemetry"
	"shoppa-backend/internal/shared/util"
)

// QueryAnalyzer is the part of the analyzer the flow needs.
type QueryAnalyzer interface {
	AnalyzeOrAskAll(ctx context.Context, query string) (analyzer.QueryAnalysis, error)
}

// FollowUps stores follow-up questions for a topic the shopper named.
type FollowUps interface {
	Insert(patterns, answers []string, ttl time.Duration) error
}

type Service struct {
	Analyzer QueryAnalyzer
	Store    Store
	Events   events.Publisher
	// FAQ is optional. When set, the brand or model of each new flow is
	// registered as a topic.
	FAQ FollowUps
	Now func() time.Time

	locks flowLocks
}

func NewService(a QueryAnalyzer, store Store, pub events.Publisher) *Service {
	return &Service{Analyzer: a, Store: store, Events: pub, Now: time.Now}
}

// Start analyzes the first query and opens a flow for it.
func (s *Service) Start(ctx context.Context, principal, query string) (*Flow, error) {
	analysis, err := s.Analyzer.AnalyzeOrAskAll(ctx, query)
	if err != nil {
		return nil, err
	}
	f := NewFlow(uuid.NewString(), principal, analysis, s.now())
	if err := s.Store.Save(ctx, f); err != nil {
		return nil, err
	}
	events.Emit(ctx, s.Events, events.New(events.TypeSearchAnalyzed, f.ID, map[string]any{
		"missing":     analysis.Missing,
		"is_complete": analysis.IsComplete,
		"failed":      analysis.Failed,
		"query_hash":  util.HashKey(analysis.Query),
	}))
	s.learnTopic(f.ID, analysis.Detected)
	return f, nil
}

// learnTopic keys follow-up questions by the model when one was named, else
// by the brand.
func (s *Service) learnTopic(flowID string, d analyzer.Detected) {
	if s.FAQ == nil {
		return
	}
	brand, model := strings.TrimSpace(d.Brand), strings.TrimSpace(d.Model)
	pattern := model
	if pattern == "" {
		pattern = brand
	}
	if pattern == "" {
		return
	}
	subject := strings.TrimSpace(brand + " " + model)
	if err := s.FAQ.Insert([]string{pattern}, faq.FollowUps(subject), 0); err != nil {
		telemetry.Warn("faq.insert_failed", map[string]any{
			"flow_id": flowID,
			"error":   err.Error(),
		})
	}
}

// Get loads a flow owned by principal.
func (s *Service) Get(ctx context.Context, principal, id string) (*Flow, error) {
	id = strings.TrimSpace(id)
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	f, err := s.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if f.Principal != principal {
		return nil, ErrNotFound
	}
	return f, nil
}

func (s *Service) Select(ctx context.Context, principal, id string, options []string) (*Flow, error) {
	return s.update(ctx, principal, id, func(f *Flow) error { return f.Select(options) })
}

func (s *Service) Next(ctx context.Context, principal, id string) (*Flow, error) {
	return s.update(ctx, principal, id, (*Flow).Next)
}

func (s *Service) Back(ctx context.Context, principal, id string) (*Flow, error) {
	return s.update(ctx, principal, id, (*Flow).Back)
}

// Finish completes the flow and returns it with its assembled profile.
func (s *Service) Finish(ctx context.Context, principal, id, details string) (*Flow, error) {
	f, err := s.update(ctx, principal, id, func(f *Flow) error {
		_, err := f.Finish(details)
		return err
	})
	if err != nil {
		return nil, err
	}
	events.Emit(ctx, s.Events, events.New(events.TypeOnboardingCompleted, f.ID, map[string]any{
		"questions":    len(f.Steps),
		"has_details":  f.Details != "",
		"profile_hash": util.HashKey(f.Profile),
	}))
	return f, nil
}

// update holds the flow's lock across load, apply and save so concurrent
// transitions on one flow are applied in turn.
func (s *Service) update(ctx context.Context, principal, id string, apply func(*Flow) error) (*Flow, error) {
	unlock := s.locks.lock(strings.TrimSpace(id))
	defer unlock()

	f, err := s.Get(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	if err := apply(f); err != nil {
		return f, err
	}
	f.UpdatedAt = s.now()
	if err := s.Store.Save(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// flowLocks hands out one mutex per flow id and drops it once unused.
type flowLocks struct {
	mu    sync.Mutex
	locks map[string]*flowLock
}

type flowLock struct {
	sync.Mutex
	refs int
}

func (l *flowLocks) lock(id string) func() {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*flowLock)
	}
	fl, ok := l.locks[id]
	if !ok {
		fl = &flowLock{}
		l.locks[id] = fl
	}
	fl.refs++
	l.mu.Unlock()

	fl.Lock()
	return func() {
		fl.Unlock()
		l.mu.Lock()
		fl.refs--
		if fl.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

// IsUserError reports flow errors caused by the request rather than the server.
func IsUserError(err error) bool {
	for _, target := range []error{ErrNoSelection, ErrUnknownOption, ErrSingleSelect, ErrWrongStep, ErrNoPreviousStep, ErrFinished} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
