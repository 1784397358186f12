package model

import (
	"fmt"
	"time"
)

// DateTimeLayout is the textual date format used on the wire, both by the
// REST API and by the stats collector.
const DateTimeLayout = "2006-01-02 15:04:05"

// FormatDateTime renders t in DateTimeLayout (UTC).
func FormatDateTime(t time.Time) string {
	return t.UTC().Format(DateTimeLayout)
}

// ParseDateTime parses s as DateTimeLayout in UTC.
func ParseDateTime(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateTimeLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q must match %q", s, DateTimeLayout)
	}
	return t, nil
}

// NewEventRequest is the payload for creating an event.
type NewEventRequest struct {
	Annotation        string   `json:"annotation"`
	Category          string   `json:"category"`
	Description       string   `json:"description"`
	EventDate         string   `json:"eventDate"`
	Location          Location `json:"location"`
	Paid              bool     `json:"paid"`
	ParticipantLimit  int      `json:"participantLimit"`
	RequestModeration *bool    `json:"requestModeration"`
	Title             string   `json:"title"`
}

// UpdateEventRequest is the owner's patch. Nil fields are left untouched.
type UpdateEventRequest struct {
	EventID          string  `json:"eventId"`
	Annotation       *string `json:"annotation"`
	Category         *string `json:"category"`
	Description      *string `json:"description"`
	EventDate        *string `json:"eventDate"`
	Paid             *bool   `json:"paid"`
	ParticipantLimit *int    `json:"participantLimit"`
	Title            *string `json:"title"`
}

// AdminUpdateEventRequest is the administrator's patch.
type AdminUpdateEventRequest struct {
	Annotation        *string   `json:"annotation"`
	Category          *string   `json:"category"`
	Description       *string   `json:"description"`
	EventDate         *string   `json:"eventDate"`
	Location          *Location `json:"location"`
	Paid              *bool     `json:"paid"`
	ParticipantLimit  *int      `json:"participantLimit"`
	RequestModeration *bool     `json:"requestModeration"`
	Title             *string   `json:"title"`
}

// NewUserRequest is the payload for registering a user.
type NewUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// NewCategoryRequest is the payload for creating a category.
type NewCategoryRequest struct {
	Name string `json:"name"`
}

// EventFull is the detailed event representation returned to owners,
// administrators and the public detail endpoint.
type EventFull struct {
	ID                string     `json:"id"`
	Annotation        string     `json:"annotation"`
	Category          string     `json:"category"`
	ConfirmedRequests int        `json:"confirmedRequests"`
	CreatedOn         string     `json:"createdOn"`
	Description       string     `json:"description"`
	EventDate         string     `json:"eventDate"`
	Initiator         string     `json:"initiator"`
	Location          Location   `json:"location"`
	Paid              bool       `json:"paid"`
	ParticipantLimit  int        `json:"participantLimit"`
	PublishedOn       *string    `json:"publishedOn"`
	RequestModeration bool       `json:"requestModeration"`
	State             EventState `json:"state"`
	Title             string     `json:"title"`
	Views             int        `json:"views"`
}

// EventShort is the compact representation used by the public listing.
type EventShort struct {
	ID                string `json:"id"`
	Annotation        string `json:"annotation"`
	Category          string `json:"category"`
	ConfirmedRequests int    `json:"confirmedRequests"`
	EventDate         string `json:"eventDate"`
	Initiator         string `json:"initiator"`
	Paid              bool   `json:"paid"`
	Title             string `json:"title"`
	Views             int    `json:"views"`
}

// ParticipationRequest is the wire form of a Request.
type ParticipationRequest struct {
	ID        string        `json:"id"`
	Event     string        `json:"event"`
	Requester string        `json:"requester"`
	Status    RequestStatus `json:"status"`
	Created   string        `json:"created"`
}

// ConfirmResult is returned by a confirmation: the confirmed request plus
// the ids of requests rejected by the cascade in the same transaction.
type ConfirmResult struct {
	Request  ParticipationRequest `json:"request"`
	Rejected []string             `json:"rejected"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

// Full renders e with the derived aggregate.
func (e *Event) Full(confirmed, views int) EventFull {
	full := EventFull{
		ID:                e.ID,
		Annotation:        e.Annotation,
		Category:          e.CategoryID,
		ConfirmedRequests: confirmed,
		CreatedOn:         FormatDateTime(e.CreatedOn),
		Description:       e.Description,
		EventDate:         FormatDateTime(e.EventDate),
		Initiator:         e.InitiatorID,
		Location:          e.Location,
		Paid:              e.Paid,
		ParticipantLimit:  e.ParticipantLimit,
		RequestModeration: e.RequestModeration,
		State:             e.State,
		Title:             e.Title,
		Views:             views,
	}
	if e.PublishedOn != nil {
		s := FormatDateTime(*e.PublishedOn)
		full.PublishedOn = &s
	}
	return full
}

// Short renders e in the compact listing form.
func (e *Event) Short(confirmed, views int) EventShort {
	return EventShort{
		ID:                e.ID,
		Annotation:        e.Annotation,
		Category:          e.CategoryID,
		ConfirmedRequests: confirmed,
		EventDate:         FormatDateTime(e.EventDate),
		Initiator:         e.InitiatorID,
		Paid:              e.Paid,
		Title:             e.Title,
		Views:             views,
	}
}

// DTO renders r for the wire.
func (r *Request) DTO() ParticipationRequest {
	return ParticipationRequest{
		ID:        r.ID,
		Event:     r.EventID,
		Requester: r.RequesterID,
		Status:    r.Status,
		Created:   FormatDateTime(r.Created),
	}
}
