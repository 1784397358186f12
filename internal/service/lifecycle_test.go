package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/explore-events/internal/apperr"
	"github.com/Shivanand-hulikatti/explore-events/internal/model"
)

func TestCreate_StartTimeGuard(t *testing.T) {
	tests := []struct {
		name    string
		lead    time.Duration
		wantErr error
	}{
		{"1h59m is too soon", time.Hour + 59*time.Minute, apperr.ErrValidation},
		{"exactly 2h is accepted", 2 * time.Hour, nil},
		{"2h00m01s is accepted", 2*time.Hour + time.Second, nil},
		{"in the past", -time.Hour, apperr.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			owner := f.user(t, "owner")
			cat := f.category(t, "Music")

			got, err := f.lifecycle.Create(context.Background(), owner, newEvent(cat, func(r *model.NewEventRequest) {
				r.EventDate = date(epoch.Add(tt.lead))
			}))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, model.StatePending, got.State)
			assert.Nil(t, got.PublishedOn)
			assert.Equal(t, date(epoch), got.CreatedOn)
			assert.Equal(t, owner, got.Initiator)
		})
	}
}

func TestCreate_Failures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner")
	cat := f.category(t, "Music")

	_, err := f.lifecycle.Create(ctx, "ghost", newEvent(cat, nil))
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.lifecycle.Create(ctx, owner, newEvent("no-such-category", nil))
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.lifecycle.Create(ctx, owner, newEvent(cat, func(r *model.NewEventRequest) { r.Title = "  " }))
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.lifecycle.Create(ctx, owner, newEvent(cat, func(r *model.NewEventRequest) { r.ParticipantLimit = -1 }))
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.lifecycle.Create(ctx, owner, newEvent(cat, func(r *model.NewEventRequest) { r.EventDate = "2030-01-12T10:00:00Z" }))
	assert.ErrorIs(t, err, apperr.ErrValidation)

	// The date guard is evaluated before the initiator lookup.
	_, err = f.lifecycle.Create(ctx, "ghost", newEvent(cat, func(r *model.NewEventRequest) { r.EventDate = date(epoch) }))
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestCreate_ModerationDefaultsOn(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner")
	cat := f.category(t, "Music")

	got, err := f.lifecycle.Create(context.Background(), owner, newEvent(cat, nil))
	require.NoError(t, err)
	assert.True(t, got.RequestModeration)

	got, err = f.lifecycle.Create(context.Background(), owner, newEvent(cat, func(r *model.NewEventRequest) {
		r.RequestModeration = boolPtr(false)
	}))
	require.NoError(t, err)
	assert.False(t, got.RequestModeration)
}

func TestPublish_StrictOneHourGuard(t *testing.T) {
	start := epoch.Add(3 * time.Hour)

	t.Run("exactly one hour before start fails", func(t *testing.T) {
		f := newFixture(t)
		owner := f.user(t, "owner")
		e, err := f.lifecycle.Create(context.Background(), owner, newEvent(f.category(t, "Music"), func(r *model.NewEventRequest) {
			r.EventDate = date(start)
		}))
		require.NoError(t, err)

		f.setClock(start.Add(-time.Hour))
		_, err = f.lifecycle.PublishByAdmin(context.Background(), e.ID)
		assert.ErrorIs(t, err, apperr.ErrValidation)

		stored, err := f.store.Event(context.Background(), e.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StatePending, stored.State)
		assert.Nil(t, stored.PublishedOn)
	})

	t.Run("one hour and one second before start succeeds", func(t *testing.T) {
		f := newFixture(t)
		owner := f.user(t, "owner")
		e, err := f.lifecycle.Create(context.Background(), owner, newEvent(f.category(t, "Music"), func(r *model.NewEventRequest) {
			r.EventDate = date(start)
		}))
		require.NoError(t, err)

		publishAt := start.Add(-time.Hour - time.Second)
		f.setClock(publishAt)
		got, err := f.lifecycle.PublishByAdmin(context.Background(), e.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StatePublished, got.State)
		require.NotNil(t, got.PublishedOn)
		assert.Equal(t, date(publishAt), *got.PublishedOn)
	})
}

func TestAdminTransitions_RequirePending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner")
	e := f.published(t, owner, f.category(t, "Music"), nil)

	_, err := f.lifecycle.PublishByAdmin(ctx, e.ID)
	assert.ErrorIs(t, err, apperr.ErrConflict)
	_, err = f.lifecycle.RejectByAdmin(ctx, e.ID)
	assert.ErrorIs(t, err, apperr.ErrConflict)
	_, err = f.lifecycle.CancelByOwner(ctx, owner, e.ID)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	_, err = f.lifecycle.PublishByAdmin(ctx, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRejectByAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner")
	e, err := f.lifecycle.Create(ctx, owner, newEvent(f.category(t, "Music"), nil))
	require.NoError(t, err)

	got, err := f.lifecycle.RejectByAdmin(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StateCanceled, got.State)

	_, err = f.lifecycle.PublishByAdmin(ctx, e.ID)
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestEditByOwner_StateRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner")
	cat := f.category(t, "Music")
	patch := func(id string) model.UpdateEventRequest {
		return model.UpdateEventRequest{EventID: id, Title: strPtr("Rooftop jazz, second set")}
	}

	published := f.published(t, owner, cat, nil)
	_, err := f.lifecycle.EditByOwner(ctx, owner, patch(published.ID))
	assert.ErrorIs(t, err, apperr.ErrConflict)

	pending, err := f.lifecycle.Create(ctx, owner, newEvent(cat, nil))
	require.NoError(t, err)
	got, err := f.lifecycle.EditByOwner(ctx, owner, patch(pending.ID))
	require.NoError(t, err)
	assert.Equal(t, "Rooftop jazz, second set", got.Title)
	assert.Equal(t, model.StatePending, got.State)

	_, err = f.lifecycle.CancelByOwner(ctx, owner, pending.ID)
	require.NoError(t, err)
	got, err = f.lifecycle.EditByOwner(ctx, owner, patch(pending.ID))
	require.NoError(t, err)
	assert.Equal(t, model.StatePending, got.State, "editing a canceled event sends it back to review")
}

func TestEditByOwner_Guards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner")
	other := f.user(t, "other")
	cat := f.category(t, "Music")
	e, err := f.lifecycle.Create(ctx, owner, newEvent(cat, nil))
	require.NoError(t, err)

	_, err = f.lifecycle.EditByOwner(ctx, other, model.UpdateEventRequest{EventID: e.ID, Paid: boolPtr(true)})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = f.lifecycle.EditByOwner(ctx, "ghost", model.UpdateEventRequest{EventID: e.ID})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.lifecycle.EditByOwner(ctx, owner, model.UpdateEventRequest{EventID: "missing"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.lifecycle.EditByOwner(ctx, other, model.UpdateEventRequest{EventID: e.ID, EventDate: datePtr(epoch.Add(time.Hour))})
	assert.ErrorIs(t, err, apperr.ErrValidation, "date guard runs before the ownership check")

	_, err = f.lifecycle.EditByOwner(ctx, owner, model.UpdateEventRequest{EventID: e.ID, Category: strPtr("nope")})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.lifecycle.EditByOwner(ctx, owner, model.UpdateEventRequest{EventID: e.ID, ParticipantLimit: intPtr(-5)})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	newCat := f.category(t, "Theatre")
	got, err := f.lifecycle.EditByOwner(ctx, owner, model.UpdateEventRequest{
		EventID:          e.ID,
		Category:         strPtr(newCat),
		EventDate:        datePtr(epoch.Add(72 * time.Hour)),
		ParticipantLimit: intPtr(10),
	})
	require.NoError(t, err)
	assert.Equal(t, newCat, got.Category)
	assert.Equal(t, date(epoch.Add(72*time.Hour)), got.EventDate)
	assert.Equal(t, 10, got.ParticipantLimit)
}

func TestEditByOwner_FailedGuardLeavesEventUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner")
	e, err := f.lifecycle.Create(ctx, owner, newEvent(f.category(t, "Music"), nil))
	require.NoError(t, err)

	_, err = f.lifecycle.EditByOwner(ctx, owner, model.UpdateEventRequest{
		EventID:  e.ID,
		Title:    strPtr("changed"),
		Category: strPtr("nope"),
	})
	require.ErrorIs(t, err, apperr.ErrNotFound)

	stored, err := f.store.Event(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.Title, stored.Title)
}

func TestCancelByOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner")
	other := f.user(t, "other")
	e, err := f.lifecycle.Create(ctx, owner, newEvent(f.category(t, "Music"), nil))
	require.NoError(t, err)

	_, err = f.lifecycle.CancelByOwner(ctx, other, e.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	got, err := f.lifecycle.CancelByOwner(ctx, owner, e.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StateCanceled, got.State)

	_, err = f.lifecycle.CancelByOwner(ctx, owner, e.ID)
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestEditByAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner")
	e := f.published(t, owner, f.category(t, "Music"), nil)

	got, err := f.lifecycle.EditByAdmin(ctx, e.ID, model.AdminUpdateEventRequest{
		EventDate:         datePtr(epoch.Add(30 * time.Minute)),
		Location:          &model.Location{Lat: 1, Lon: 2},
		RequestModeration: boolPtr(false),
	})
	require.NoError(t, err, "admin edits bypass date and state guards")
	assert.Equal(t, model.StatePublished, got.State)
	assert.Equal(t, date(epoch.Add(30*time.Minute)), got.EventDate)
	assert.Equal(t, model.Location{Lat: 1, Lon: 2}, got.Location)
	assert.False(t, got.RequestModeration)
	assert.NotNil(t, got.PublishedOn)

	_, err = f.lifecycle.EditByAdmin(ctx, e.ID, model.AdminUpdateEventRequest{Category: strPtr("nope")})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = f.lifecycle.EditByAdmin(ctx, "missing", model.AdminUpdateEventRequest{})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = f.lifecycle.EditByAdmin(ctx, e.ID, model.AdminUpdateEventRequest{EventDate: strPtr("tomorrow")})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestEditByAdmin_LimitBelowConfirmed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner")
	e := f.published(t, owner, f.category(t, "Music"), limited(3, false))
	for _, g := range f.requesters(t, 3) {
		_, err := f.admission.CreateRequest(ctx, g, e.ID)
		require.NoError(t, err)
	}

	_, err := f.lifecycle.EditByAdmin(ctx, e.ID, model.AdminUpdateEventRequest{ParticipantLimit: intPtr(1)})
	require.ErrorIs(t, err, apperr.ErrConflict)

	got, err := f.lifecycle.EditByAdmin(ctx, e.ID, model.AdminUpdateEventRequest{ParticipantLimit: intPtr(3)})
	require.NoError(t, err, "a limit equal to the confirmed count fits")
	assert.Equal(t, 3, got.ParticipantLimit)
	assert.Equal(t, 3, got.ConfirmedRequests)

	got, err = f.lifecycle.EditByAdmin(ctx, e.ID, model.AdminUpdateEventRequest{ParticipantLimit: intPtr(0)})
	require.NoError(t, err, "removing the limit always fits")
	assert.Equal(t, 0, got.ParticipantLimit)
}

func TestOwnerReads(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner")
	other := f.user(t, "other")
	cat := f.category(t, "Music")
	first := f.published(t, owner, cat, nil)
	_, err := f.lifecycle.Create(ctx, owner, newEvent(cat, func(r *model.NewEventRequest) {
		r.EventDate = date(epoch.Add(96 * time.Hour))
	}))
	require.NoError(t, err)
	_, err = f.lifecycle.Create(ctx, other, newEvent(cat, nil))
	require.NoError(t, err)

	list, err := f.lifecycle.OwnerEvents(ctx, owner, model.Page{From: 0, Size: 10})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID, "ordered by event date")

	list, err = f.lifecycle.OwnerEvents(ctx, owner, model.Page{From: 1, Size: 10})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = f.lifecycle.OwnerEvents(ctx, owner, model.Page{From: 0, Size: 0})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	got, err := f.lifecycle.OwnerEvent(ctx, owner, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	_, err = f.lifecycle.OwnerEvent(ctx, other, first.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}
