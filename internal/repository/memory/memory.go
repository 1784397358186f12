// Package memory is an in-process implementation of the repository
// interfaces. It backs the service tests and the STORAGE=memory mode.
package memory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/Shivanand-hulikatti/explore-events/internal/apperr"
	"github.com/Shivanand-hulikatti/explore-events/internal/model"
	"github.com/Shivanand-hulikatti/explore-events/internal/repository"
)

// Store keeps every record in maps guarded by mu. Admission and lifecycle
// writes additionally hold a mutex keyed by event id for the whole
// transaction, mirroring the row lock of the PostgreSQL store.
type Store struct {
	mu         sync.RWMutex
	events     map[string]model.Event
	requests   map[string]model.Request
	order      []string
	users      map[string]model.User
	emails     map[string]string
	categories map[string]model.Category
	catNames   map[string]string

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

var (
	_ repository.EventStore   = (*Store)(nil)
	_ repository.RequestStore = (*Store)(nil)
	_ repository.Directory    = (*Store)(nil)
)

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		events:     make(map[string]model.Event),
		requests:   make(map[string]model.Request),
		users:      make(map[string]model.User),
		emails:     make(map[string]string),
		categories: make(map[string]model.Category),
		catNames:   make(map[string]string),
		locks:      make(map[string]*sync.Mutex),
	}
}

func cloneEvent(e model.Event) model.Event {
	if e.PublishedOn != nil {
		p := *e.PublishedOn
		e.PublishedOn = &p
	}
	return e
}

func (s *Store) eventLock(id string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

// CreateEvent stores e.
func (s *Store) CreateEvent(_ context.Context, e *model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[e.ID]; ok {
		return apperr.Conflict("event %s already exists", e.ID)
	}
	s.events[e.ID] = cloneEvent(*e)
	return nil
}

// Event returns a copy of the event.
func (s *Store) Event(_ context.Context, id string) (*model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.events[id]
	if !ok {
		return nil, apperr.NotFound("event %s", id)
	}
	c := cloneEvent(e)
	return &c, nil
}

// FindEvents filters in memory with the same semantics as the SQL store.
func (s *Store) FindEvents(_ context.Context, q model.EventQuery) ([]model.Event, error) {
	s.mu.RLock()
	out := make([]model.Event, 0, len(s.events))
	for _, e := range s.events {
		if matches(&e, q) {
			out = append(out, cloneEvent(e))
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].EventDate.Equal(out[j].EventDate) {
			return out[i].EventDate.Before(out[j].EventDate)
		}
		return out[i].ID < out[j].ID
	})
	if q.Page != nil {
		out = model.Apply(out, *q.Page)
	}
	return out, nil
}

func matches(e *model.Event, q model.EventQuery) bool {
	if len(q.Initiators) > 0 && !slices.Contains(q.Initiators, e.InitiatorID) {
		return false
	}
	if len(q.States) > 0 && !slices.Contains(q.States, e.State) {
		return false
	}
	if len(q.Categories) > 0 && !slices.Contains(q.Categories, e.CategoryID) {
		return false
	}
	if q.Text != "" {
		text := strings.ToLower(q.Text)
		if !strings.Contains(strings.ToLower(e.Title), text) &&
			!strings.Contains(strings.ToLower(e.Description), text) {
			return false
		}
	}
	if q.Paid != nil && e.Paid != *q.Paid {
		return false
	}
	if !q.Start.IsZero() && e.EventDate.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && e.EventDate.After(q.End) {
		return false
	}
	return true
}

// InTx serialises transactions per event and applies staged writes only
// when fn succeeds.
func (s *Store) InTx(ctx context.Context, eventID string, fn func(tx repository.EventTx) error) error {
	l := s.eventLock(eventID)
	l.Lock()
	defer l.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	e, ok := s.events[eventID]
	if !ok {
		s.mu.RUnlock()
		return apperr.NotFound("event %s", eventID)
	}
	tx := &memTx{event: cloneEvent(e)}
	for _, id := range s.order {
		if r := s.requests[id]; r.EventID == eventID {
			tx.reqs = append(tx.reqs, stagedRequest{Request: r})
		}
	}
	s.mu.RUnlock()

	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tx.eventDirty {
		s.events[eventID] = cloneEvent(tx.event)
	}
	for _, r := range tx.reqs {
		if !r.dirty {
			continue
		}
		if r.inserted {
			s.order = append(s.order, r.ID)
		}
		s.requests[r.ID] = r.Request
	}
	return nil
}

type stagedRequest struct {
	model.Request
	dirty    bool
	inserted bool
}

// memTx holds a private copy of the event and its requests.
type memTx struct {
	event      model.Event
	eventDirty bool
	reqs       []stagedRequest
}

func (t *memTx) Event() *model.Event {
	e := cloneEvent(t.event)
	return &e
}

func (t *memTx) SaveEvent(_ context.Context, e *model.Event) error {
	t.event = cloneEvent(*e)
	t.eventDirty = true
	return nil
}

func (t *memTx) find(id string) *stagedRequest {
	for i := range t.reqs {
		if t.reqs[i].ID == id {
			return &t.reqs[i]
		}
	}
	return nil
}

func (t *memTx) Request(_ context.Context, id string) (*model.Request, error) {
	r := t.find(id)
	if r == nil {
		return nil, apperr.NotFound("request %s on event %s", id, t.event.ID)
	}
	c := r.Request
	return &c, nil
}

func (t *memTx) ActiveRequest(_ context.Context, requesterID string) (*model.Request, error) {
	for _, r := range t.reqs {
		if r.RequesterID == requesterID && r.Status != model.RequestCanceled {
			c := r.Request
			return &c, nil
		}
	}
	return nil, apperr.NotFound("no active request from %s", requesterID)
}

func (t *memTx) CountConfirmed(_ context.Context) (int, error) {
	n := 0
	for _, r := range t.reqs {
		if r.Status == model.RequestConfirmed {
			n++
		}
	}
	return n, nil
}

func (t *memTx) InsertRequest(_ context.Context, r *model.Request) error {
	for _, existing := range t.reqs {
		if existing.RequesterID == r.RequesterID && existing.Status != model.RequestCanceled {
			return apperr.Conflict("requester %s already has an active request on event %s", r.RequesterID, r.EventID)
		}
	}
	t.reqs = append(t.reqs, stagedRequest{Request: *r, dirty: true, inserted: true})
	return nil
}

func (t *memTx) SetStatus(_ context.Context, requestID string, status model.RequestStatus) error {
	r := t.find(requestID)
	if r == nil {
		return apperr.NotFound("request %s on event %s", requestID, t.event.ID)
	}
	r.Status = status
	r.dirty = true
	return nil
}

func (t *memTx) RejectPending(_ context.Context) ([]string, error) {
	var ids []string
	for i := range t.reqs {
		if t.reqs[i].Status == model.RequestPending {
			t.reqs[i].Status = model.RequestRejected
			t.reqs[i].dirty = true
			ids = append(ids, t.reqs[i].ID)
		}
	}
	return ids, nil
}

// Request returns a copy of the request.
func (s *Store) Request(_ context.Context, id string) (*model.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.requests[id]
	if !ok {
		return nil, apperr.NotFound("request %s", id)
	}
	return &r, nil
}

// RequestsByEvent returns the event's requests in creation order.
func (s *Store) RequestsByEvent(_ context.Context, eventID string) ([]model.Request, error) {
	return s.collect(func(r model.Request) bool { return r.EventID == eventID }), nil
}

// RequestsByRequester returns the user's requests in creation order.
func (s *Store) RequestsByRequester(_ context.Context, requesterID string) ([]model.Request, error) {
	return s.collect(func(r model.Request) bool { return r.RequesterID == requesterID }), nil
}

func (s *Store) collect(keep func(model.Request) bool) []model.Request {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Request
	for _, id := range s.order {
		if r := s.requests[id]; keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// CountConfirmed counts CONFIRMED requests per event.
func (s *Store) CountConfirmed(_ context.Context, eventIDs []string) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[string]int, len(eventIDs))
	for _, r := range s.requests {
		if r.Status == model.RequestConfirmed && slices.Contains(eventIDs, r.EventID) {
			counts[r.EventID]++
		}
	}
	return counts, nil
}

// CreateUser stores u; emails are unique.
func (s *Store) CreateUser(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.emails[u.Email]; ok {
		return apperr.Conflict("email %s is already registered", u.Email)
	}
	s.users[u.ID] = *u
	s.emails[u.Email] = u.ID
	return nil
}

// User returns a user.
func (s *Store) User(_ context.Context, id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, apperr.NotFound("user %s", id)
	}
	return &u, nil
}

// CreateCategory stores c; names are unique.
func (s *Store) CreateCategory(_ context.Context, c *model.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.catNames[c.Name]; ok {
		return apperr.Conflict("category %q already exists", c.Name)
	}
	s.categories[c.ID] = *c
	s.catNames[c.Name] = c.ID
	return nil
}

// Category returns a category.
func (s *Store) Category(_ context.Context, id string) (*model.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.categories[id]
	if !ok {
		return nil, apperr.NotFound("category %s", id)
	}
	return &c, nil
}
