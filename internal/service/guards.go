package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/explore-events/internal/apperr"
	"github.com/Shivanand-hulikatti/explore-events/internal/model"
	"github.com/Shivanand-hulikatti/explore-events/internal/repository"
)

const (
	// An event must start at least this long after it is created or its
	// date is changed by the owner.
	createLead = 2 * time.Hour
	// An event must start strictly later than this after publication.
	publishLead = time.Hour
)

func parseEventDate(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, apperr.Validation("eventDate is required")
	}
	t, err := model.ParseDateTime(s)
	if err != nil {
		return time.Time{}, apperr.Validation("%v", err)
	}
	return t, nil
}

func checkCreateLead(date, now time.Time) error {
	if date.Before(now.Add(createLead)) {
		return apperr.Validation("eventDate %s must be at least %s after now (%s)",
			model.FormatDateTime(date), createLead, model.FormatDateTime(now))
	}
	return nil
}

func checkPublishLead(date, publishedOn time.Time) error {
	if !date.After(publishedOn.Add(publishLead)) {
		return apperr.Validation("eventDate %s must be more than %s after publication (%s)",
			model.FormatDateTime(date), publishLead, model.FormatDateTime(publishedOn))
	}
	return nil
}

func checkOwner(e *model.Event, userID string) error {
	if e.InitiatorID != userID {
		return apperr.Forbidden("user %s is not the initiator of event %s", userID, e.ID)
	}
	return nil
}

func requireText(field, v string) error {
	if strings.TrimSpace(v) == "" {
		return apperr.Validation("%s is required", field)
	}
	return nil
}

func checkLimit(n int) error {
	if n < 0 {
		return apperr.Validation("participantLimit must not be negative, got %d", n)
	}
	return nil
}

// checkLimitFits rejects a new limit below the confirmed count of the
// locked event. Zero means unlimited and always fits.
func checkLimitFits(ctx context.Context, tx repository.EventTx, limit int) error {
	if limit == 0 {
		return nil
	}
	n, err := tx.CountConfirmed(ctx)
	if err != nil {
		return fmt.Errorf("count confirmed requests: %w", err)
	}
	if limit < n {
		return apperr.Conflict("participantLimit %d is below the %d confirmed requests of event %s", limit, n, tx.Event().ID)
	}
	return nil
}

func validateNewEvent(req model.NewEventRequest) error {
	for _, f := range []struct{ name, value string }{
		{"title", req.Title},
		{"annotation", req.Annotation},
		{"description", req.Description},
		{"category", req.Category},
	} {
		if err := requireText(f.name, f.value); err != nil {
			return err
		}
	}
	return checkLimit(req.ParticipantLimit)
}

func validatePatch(title, annotation, description *string, limit *int) error {
	for _, f := range []struct {
		name  string
		value *string
	}{
		{"title", title},
		{"annotation", annotation},
		{"description", description},
	} {
		if f.value != nil {
			if err := requireText(f.name, *f.value); err != nil {
				return err
			}
		}
	}
	if limit != nil {
		return checkLimit(*limit)
	}
	return nil
}

func validatePage(p model.Page) error {
	if p.From < 0 {
		return apperr.Validation("from must not be negative, got %d", p.From)
	}
	if p.Size <= 0 {
		return apperr.Validation("size must be positive, got %d", p.Size)
	}
	return nil
}

// isValidEmail does a basic structural check.
func isValidEmail(email string) bool {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return false
	}
	return len(parts[0]) > 0 && strings.Contains(parts[1], ".")
}
