package drafts

import (
	"errors"
	"sync"
	"testing"
)

func TestBeginAndUpdateFields(t *testing.T) {
	s := NewStore()
	s.Begin(99)

	if err := s.SetTitle(99, "сдать отчет"); err != nil {
		t.Fatalf("SetTitle: %v", err)
	}
	if err := s.SetDeadline(99, "2026-09-15"); err != nil {
		t.Fatalf("SetDeadline: %v", err)
	}
	if err := s.SetDescription(99, "к понедельнику"); err != nil {
		t.Fatalf("SetDescription: %v", err)
	}

	d, err := s.Get(99)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if d.OwnerID != 99 || d.Title != "сдать отчет" || d.Deadline != "2026-09-15" || d.Description != "к понедельнику" {
		t.Fatalf("draft = %+v", d)
	}
	if !d.Complete() {
		t.Fatal("Complete() = false for fully populated draft")
	}
}

func TestGetMissingDraft(t *testing.T) {
	s := NewStore()
	if _, err := s.Get(1); !errors.Is(err, ErrNoActiveDraft) {
		t.Fatalf("err = %v, want ErrNoActiveDraft", err)
	}
	if err := s.SetTitle(1, "x"); !errors.Is(err, ErrNoActiveDraft) {
		t.Fatalf("SetTitle err = %v, want ErrNoActiveDraft", err)
	}
}

func TestBeginReplacesPriorDraft(t *testing.T) {
	s := NewStore()
	s.Begin(7)
	_ = s.SetTitle(7, "старая")
	s.Begin(7)

	d, err := s.Get(7)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if d.Title != "" {
		t.Fatalf("Title = %q, want empty after restart", d.Title)
	}
}

func TestDiscard(t *testing.T) {
	s := NewStore()
	s.Begin(7)
	s.Discard(7)
	if _, err := s.Get(7); !errors.Is(err, ErrNoActiveDraft) {
		t.Fatalf("err = %v, want ErrNoActiveDraft", err)
	}
	// Discarding again must not panic.
	s.Discard(7)
}

func TestOwnersAreIsolated(t *testing.T) {
	s := NewStore()
	s.Begin(1)
	s.Begin(2)
	_ = s.SetTitle(1, "первая")
	_ = s.SetTitle(2, "вторая")
	s.Discard(1)

	if _, err := s.Get(1); !errors.Is(err, ErrNoActiveDraft) {
		t.Fatal("owner 1 draft should be gone")
	}
	d, err := s.Get(2)
	if err != nil || d.Title != "вторая" {
		t.Fatalf("owner 2 draft = %+v, err = %v", d, err)
	}
}

func TestConcurrentOwners(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := int64(0); i < 50; i++ {
		wg.Add(1)
		go func(owner int64) {
			defer wg.Done()
			s.Begin(owner)
			_ = s.SetTitle(owner, "t")
			_ = s.SetDeadline(owner, "2026-09-15")
			_ = s.SetDescription(owner, "d")
		}(i)
	}
	wg.Wait()

	for i := int64(0); i < 50; i++ {
		d, err := s.Get(i)
		if err != nil {
			t.Fatalf("owner %d: %v", i, err)
		}
		if !d.Complete() {
			t.Fatalf("owner %d: incomplete draft %+v", i, d)
		}
	}
}
