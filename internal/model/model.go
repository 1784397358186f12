// Package model defines the core domain types for the event participation system.
package model

import "time"

// EventState is the lifecycle state of an event.
type EventState string

const (
	StatePending   EventState = "PENDING"
	StatePublished EventState = "PUBLISHED"
	StateCanceled  EventState = "CANCELED"
)

// Valid reports whether s is a known state.
func (s EventState) Valid() bool {
	switch s {
	case StatePending, StatePublished, StateCanceled:
		return true
	}
	return false
}

// RequestStatus is the status of a participation request.
type RequestStatus string

const (
	RequestPending   RequestStatus = "PENDING"
	RequestConfirmed RequestStatus = "CONFIRMED"
	RequestRejected  RequestStatus = "REJECTED"
	RequestCanceled  RequestStatus = "CANCELED"
)

// Location is the place an event happens at.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Event is a scheduled activity published by its initiator.
type Event struct {
	ID                string
	Title             string
	Annotation        string
	Description       string
	CategoryID        string
	InitiatorID       string
	Location          Location
	EventDate         time.Time
	Paid              bool
	ParticipantLimit  int
	RequestModeration bool
	CreatedOn         time.Time
	PublishedOn       *time.Time
	State             EventState
}

// Limited reports whether the event caps the number of confirmed participants.
func (e *Event) Limited() bool {
	return e.ParticipantLimit > 0
}

// HasRoom reports whether one more request can be confirmed given the
// current confirmed count.
func (e *Event) HasRoom(confirmed int) bool {
	return !e.Limited() || confirmed < e.ParticipantLimit
}

// Request is a user's application to participate in an event.
type Request struct {
	ID          string
	EventID     string
	RequesterID string
	Status      RequestStatus
	Created     time.Time
}

// User is an event initiator or participant.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Category groups events.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Page is an offset/limit window.
type Page struct {
	From int
	Size int
}

// Apply returns the window of items selected by p.
func Apply[T any](items []T, p Page) []T {
	if p.From >= len(items) {
		return []T{}
	}
	end := len(items)
	if p.Size > 0 && p.Size < end-p.From {
		end = p.From + p.Size
	}
	return items[p.From:end]
}

// EventQuery is the store-level event filter. Empty slices and nil
// pointers mean "no restriction".
type EventQuery struct {
	Initiators []string
	States     []EventState
	Categories []string
	Text       string
	Paid       *bool
	Start      time.Time
	End        time.Time
	// Page is nil when the caller wants every matching event.
	Page *Page
}

// SortOrder selects the ordering of the public listing.
type SortOrder string

const (
	SortEventDate SortOrder = "EVENT_DATE"
	SortViews     SortOrder = "VIEWS"
)

// PublicFilter holds the parameters of GET /events.
type PublicFilter struct {
	Text          string
	Categories    []string
	Paid          *bool
	RangeStart    *time.Time
	RangeEnd      *time.Time
	OnlyAvailable bool
	Sort          SortOrder
	Page          Page
}

// AdminFilter holds the parameters of GET /admin/events.
type AdminFilter struct {
	Users      []string
	States     []EventState
	Categories []string
	RangeStart *time.Time
	RangeEnd   *time.Time
	Page       Page
}
