// Package drafts holds in-progress task drafts, one per owner.
//
// Drafts live only in memory: a restart drops every active dialogue, which
// the engine treats as a benign re-sync rather than an error.
package drafts

import (
	"errors"
	"sync"
)

// ErrNoActiveDraft is returned when an owner has no draft in the store.
var ErrNoActiveDraft = errors.New("drafts: no active draft")

// Draft is an in-progress, not yet submitted task.
type Draft struct {
	OwnerID     int64
	Title       string
	Deadline    string
	Description string
}

// Complete reports whether all three user-supplied fields are populated.
func (d Draft) Complete() bool {
	return d.Title != "" && d.Deadline != "" && d.Description != ""
}

// Store keeps at most one draft per owner. Access for different owners
// never contends on a shared lock.
type Store struct {
	drafts sync.Map // int64 -> Draft
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{}
}

// Begin creates a fresh empty draft for the owner, replacing any prior one.
func (s *Store) Begin(ownerID int64) {
	s.drafts.Store(ownerID, Draft{OwnerID: ownerID})
}

// Get returns the owner's draft or ErrNoActiveDraft.
func (s *Store) Get(ownerID int64) (Draft, error) {
	v, ok := s.drafts.Load(ownerID)
	if !ok {
		return Draft{}, ErrNoActiveDraft
	}
	return v.(Draft), nil
}

// SetTitle records the draft title.
func (s *Store) SetTitle(ownerID int64, title string) error {
	return s.update(ownerID, func(d *Draft) { d.Title = title })
}

// SetDeadline records the draft deadline in YYYY-MM-DD form.
func (s *Store) SetDeadline(ownerID int64, deadline string) error {
	return s.update(ownerID, func(d *Draft) { d.Deadline = deadline })
}

// SetDescription records the draft description.
func (s *Store) SetDescription(ownerID int64, description string) error {
	return s.update(ownerID, func(d *Draft) { d.Description = description })
}

// Discard removes the owner's draft. Removing an absent draft is a no-op.
func (s *Store) Discard(ownerID int64) {
	s.drafts.Delete(ownerID)
}

func (s *Store) update(ownerID int64, mutate func(*Draft)) error {
	v, ok := s.drafts.Load(ownerID)
	if !ok {
		return ErrNoActiveDraft
	}
	d := v.(Draft)
	mutate(&d)
	s.drafts.Store(ownerID, d)
	return nil
}
