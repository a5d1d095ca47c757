package searches

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// Record is what a finished search contributes to history.
type Record struct {
	Principal       string
	Query           string
	Profile         string
	Provider        string
	Model           string
	FallbackUsed    bool
	Recommendations any
}

type Service struct {
	Repo Repo
	Now  func() time.Time
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo, Now: time.Now}
}

// Save persists a finished search and returns it with its new id.
func (s *Service) Save(ctx context.Context, rec Record) (Search, error) {
	if strings.TrimSpace(rec.Principal) == "" || strings.TrimSpace(rec.Profile) == "" {
		return Search{}, ErrInvalidInput
	}
	raw, err := json.Marshal(rec.Recommendations)
	if err != nil {
		return Search{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	search := Search{
		ID:              uuid.NewString(),
		Principal:       rec.Principal,
		Query:           rec.Query,
		Profile:         rec.Profile,
		Provider:        rec.Provider,
		Model:           rec.Model,
		FallbackUsed:    rec.FallbackUsed,
		Recommendations: raw,
		CreatedAt:       s.now(),
	}
	if err := s.Repo.Create(ctx, search); err != nil {
		return Search{}, err
	}
	return search, nil
}

func (s *Service) Get(ctx context.Context, principal, id string) (Search, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Search{}, ErrNotFound
	}
	return s.Repo.GetByID(ctx, principal, id)
}

func (s *Service) List(ctx context.Context, principal string, limit, offset int) ([]Search, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return s.Repo.ListByPrincipal(ctx, principal, limit, offset)
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}
