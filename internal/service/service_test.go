package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/explore-events/internal/apperr"
	"github.com/Shivanand-hulikatti/explore-events/internal/model"
	"github.com/Shivanand-hulikatti/explore-events/internal/repository/memory"
	"github.com/Shivanand-hulikatti/explore-events/internal/stats"
)

var epoch = time.Date(2030, 1, 10, 12, 0, 0, 0, time.UTC)

// fakeViews is a scripted ViewSource.
type fakeViews struct {
	mu      sync.Mutex
	result  []stats.ViewStats
	err     error
	block   bool
	calls   int
	queries []stats.Query
}

func (f *fakeViews) Stats(ctx context.Context, q stats.Query) ([]stats.ViewStats, error) {
	f.mu.Lock()
	f.calls++
	f.queries = append(f.queries, q)
	result, err, block := f.result, f.err, f.block
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, apperr.Upstream(ctx.Err(), "get stats")
	}
	return result, err
}

// set scripts the next answers and forgets earlier calls.
func (f *fakeViews) set(result []stats.ViewStats, err error, block bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.result, f.err, f.block = result, err, block
	f.calls, f.queries = 0, nil
}

type fixture struct {
	store     *memory.Store
	views     *fakeViews
	listing   *Listing
	lifecycle *Lifecycle
	admission *Admission
	directory *Directory

	clockMu sync.Mutex
	now     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{store: memory.NewStore(), views: &fakeViews{}, now: epoch}
	opts := []Option{
		WithClock(f.clock),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	f.listing = NewListing(f.store, f.store, f.views, 50*time.Millisecond, opts...)
	f.lifecycle = NewLifecycle(f.store, f.store, f.listing, opts...)
	f.admission = NewAdmission(f.store, f.store, f.store, opts...)
	f.directory = NewDirectory(f.store, opts...)
	return f
}

func (f *fixture) clock() time.Time {
	f.clockMu.Lock()
	defer f.clockMu.Unlock()
	return f.now
}

func (f *fixture) setClock(t time.Time) {
	f.clockMu.Lock()
	defer f.clockMu.Unlock()
	f.now = t
}

func (f *fixture) user(t *testing.T, name string) string {
	t.Helper()
	u, err := f.directory.CreateUser(context.Background(), model.NewUserRequest{
		Name:  name,
		Email: name + "@example.com",
	})
	require.NoError(t, err)
	return u.ID
}

func (f *fixture) category(t *testing.T, name string) string {
	t.Helper()
	c, err := f.directory.CreateCategory(context.Background(), model.NewCategoryRequest{Name: name})
	require.NoError(t, err)
	return c.ID
}

func boolPtr(b bool) *bool       { return &b }
func strPtr(s string) *string    { return &s }
func intPtr(n int) *int          { return &n }
func date(t time.Time) string    { return model.FormatDateTime(t) }
func datePtr(t time.Time) *string { return strPtr(date(t)) }

func newEvent(category string, mutate func(*model.NewEventRequest)) model.NewEventRequest {
	req := model.NewEventRequest{
		Title:       "Rooftop jazz",
		Annotation:  "An evening of live jazz on the roof",
		Description: "Bring a blanket, drinks are on sale at the bar",
		Category:    category,
		EventDate:   date(epoch.Add(48 * time.Hour)),
		Location:    model.Location{Lat: 55.75, Lon: 37.62},
	}
	if mutate != nil {
		mutate(&req)
	}
	return req
}

// published creates and publishes an event owned by owner.
func (f *fixture) published(t *testing.T, owner, category string, mutate func(*model.NewEventRequest)) model.EventFull {
	t.Helper()
	ctx := context.Background()
	e, err := f.lifecycle.Create(ctx, owner, newEvent(category, mutate))
	require.NoError(t, err)
	e, err = f.lifecycle.PublishByAdmin(ctx, e.ID)
	require.NoError(t, err)
	return e
}

// requesters registers n users and returns their ids.
func (f *fixture) requesters(t *testing.T, n int) []string {
	t.Helper()
	ids := make([]string, n)
	for i := range ids {
		ids[i] = f.user(t, fmt.Sprintf("guest%02d", i))
	}
	return ids
}

func (f *fixture) statusOf(t *testing.T, requestID string) model.RequestStatus {
	t.Helper()
	r, err := f.store.Request(context.Background(), requestID)
	require.NoError(t, err)
	return r.Status
}
