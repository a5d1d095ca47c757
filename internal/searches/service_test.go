package searches

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestServiceSaveAndList(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	svc.Now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	first, err := svc.Save(context.Background(), Record{Principal: "guest:a", Profile: "perfil 1", Provider: "gemini", Recommendations: []int{1, 2, 3}})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	second, err := svc.Save(context.Background(), Record{Principal: "guest:a", Profile: "perfil 2", Provider: "openai", FallbackUsed: true, Recommendations: []int{4}})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := svc.Save(context.Background(), Record{Principal: "guest:b", Profile: "otro", Recommendations: nil}); err != nil {
		t.Fatalf("save other principal: %v", err)
	}

	if string(first.Recommendations) != "[1,2,3]" {
		t.Fatalf("recommendations = %s", first.Recommendations)
	}

	items, err := svc.List(context.Background(), "guest:a", 0, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 || items[0].ID != second.ID || items[1].ID != first.ID {
		t.Fatalf("expected newest first, got %+v", items)
	}

	got, err := svc.Get(context.Background(), "guest:a", first.ID)
	if err != nil || got.Profile != "perfil 1" {
		t.Fatalf("get: %+v %v", got, err)
	}
	if _, err := svc.Get(context.Background(), "guest:b", first.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("other principal must not see the search, got %v", err)
	}
}

func TestServiceValidation(t *testing.T) {
	svc := NewService(NewMemoryRepo())

	if _, err := svc.Save(context.Background(), Record{Principal: "guest:a"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty profile, got %v", err)
	}
	if _, err := svc.Save(context.Background(), Record{Profile: "p"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty principal, got %v", err)
	}
	if _, err := svc.Get(context.Background(), "guest:a", "not-a-uuid"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for malformed id, got %v", err)
	}
}

func TestMemoryRepoPagination(t *testing.T) {
	repo := NewMemoryRepo()
	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		_ = repo.Create(context.Background(), Search{ID: string(rune('a' + i)), Principal: "p", CreatedAt: base.Add(time.Duration(i) * time.Second)})
	}

	page, err := repo.ListByPrincipal(context.Background(), "p", 2, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page) != 2 || page[0].ID != "d" || page[1].ID != "c" {
		t.Fatalf("unexpected page: %+v", page)
	}

	empty, err := repo.ListByPrincipal(context.Background(), "p", 10, 10)
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected empty page, got %+v %v", empty, err)
	}
}
