package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/Shivanand-hulikatti/explore-events/internal/apperr"
	"github.com/Shivanand-hulikatti/explore-events/internal/model"
	"github.com/Shivanand-hulikatti/explore-events/internal/repository"
	"github.com/Shivanand-hulikatti/explore-events/internal/stats"
)

var (
	// statsEpoch is the lower bound of every view count query.
	statsEpoch = time.Date(2021, 12, 31, 23, 59, 59, 0, time.UTC)
	// farFuture is the default upper bound of a date range.
	farFuture = time.Date(9998, 12, 31, 23, 59, 59, 0, time.UTC)
)

// ViewSource answers view counts. *stats.Client implements it.
type ViewSource interface {
	Stats(ctx context.Context, q stats.Query) ([]stats.ViewStats, error)
}

// EventURI is the public detail path of an event, as recorded by the
// stats collector.
func EventURI(id string) string {
	return "/events/" + id
}

// Enriched is an event joined with its derived aggregate.
type Enriched struct {
	Event     model.Event
	Confirmed int
	Views     int
}

// Listing builds read views of events. It never mutates stored state.
type Listing struct {
	events   repository.EventStore
	requests repository.RequestStore
	views    ViewSource
	timeout  time.Duration
	opts     options
}

// NewListing constructs a Listing. views may be nil, in which case every
// event has zero views. timeout bounds each stats query.
func NewListing(
	events repository.EventStore,
	requests repository.RequestStore,
	views ViewSource,
	timeout time.Duration,
	opts ...Option,
) *Listing {
	return &Listing{
		events:   events,
		requests: requests,
		views:    views,
		timeout:  timeout,
		opts:     buildOptions(opts),
	}
}

// Enrich joins events with their confirmed count and view count. Views
// degrade to zero when the collector fails; only a canceled caller context
// is returned as an error.
func (l *Listing) Enrich(ctx context.Context, events []model.Event) ([]Enriched, error) {
	out := make([]Enriched, len(events))
	if len(events) == 0 {
		return out, nil
	}

	ids := make([]string, len(events))
	for i := range events {
		ids[i] = events[i].ID
	}

	confirmed, err := l.requests.CountConfirmed(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("count confirmed requests: %w", err)
	}
	views, err := l.viewCounts(ctx, ids)
	if err != nil {
		return nil, err
	}

	for i := range events {
		out[i] = Enriched{
			Event:     events[i],
			Confirmed: confirmed[events[i].ID],
			Views:     views[events[i].ID],
		}
	}
	return out, nil
}

func (l *Listing) viewCounts(ctx context.Context, ids []string) (map[string]int, error) {
	counts := make(map[string]int, len(ids))
	if l.views == nil {
		return counts, nil
	}

	byURI := make(map[string]string, len(ids))
	uris := make([]string, len(ids))
	for i, id := range ids {
		uris[i] = EventURI(id)
		byURI[uris[i]] = id
	}

	callCtx := ctx
	if l.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	res, err := l.views.Stats(callCtx, stats.Query{
		Start:  statsEpoch,
		End:    l.opts.now(),
		URIs:   uris,
		Unique: false,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		l.opts.logger.WarnContext(ctx, "view counts unavailable, serving zero views",
			slog.Int("events", len(ids)),
			slog.String("error", err.Error()),
		)
		l.opts.metrics.ViewsDegraded(ctx, len(ids))
		return counts, nil
	}

	for _, v := range res {
		if id, ok := byURI[v.URI]; ok {
			counts[id] += int(v.Hits)
		}
	}
	return counts, nil
}

func (l *Listing) enrichOne(ctx context.Context, e *model.Event) (model.EventFull, error) {
	res, err := l.Enrich(ctx, []model.Event{*e})
	if err != nil {
		return model.EventFull{}, err
	}
	return res[0].Event.Full(res[0].Confirmed, res[0].Views), nil
}

func (l *Listing) dateRange(start, end *time.Time) (time.Time, time.Time, error) {
	from, to := l.opts.now(), farFuture
	if start != nil {
		from = *start
	}
	if end != nil {
		to = *end
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, apperr.Validation("rangeEnd %s is before rangeStart %s",
			model.FormatDateTime(to), model.FormatDateTime(from))
	}
	return from, to, nil
}

// ListPublic returns published events matching f. An empty match set is
// reported as apperr.ErrNotFound rather than an empty page.
func (l *Listing) ListPublic(ctx context.Context, f model.PublicFilter) ([]model.EventShort, error) {
	if err := validatePage(f.Page); err != nil {
		return nil, err
	}
	switch f.Sort {
	case "":
		f.Sort = model.SortEventDate
	case model.SortEventDate, model.SortViews:
	default:
		return nil, apperr.Validation("unknown sort %q", f.Sort)
	}
	start, end, err := l.dateRange(f.RangeStart, f.RangeEnd)
	if err != nil {
		return nil, err
	}

	events, err := l.events.FindEvents(ctx, model.EventQuery{
		States:     []model.EventState{model.StatePublished},
		Categories: f.Categories,
		Text:       f.Text,
		Paid:       f.Paid,
		Start:      start,
		End:        end,
	})
	if err != nil {
		return nil, fmt.Errorf("find public events: %w", err)
	}

	enriched, err := l.Enrich(ctx, events)
	if err != nil {
		return nil, err
	}

	if f.OnlyAvailable {
		kept := enriched[:0]
		for _, e := range enriched {
			if e.Event.HasRoom(e.Confirmed) {
				kept = append(kept, e)
			}
		}
		enriched = kept
	}
	if len(enriched) == 0 {
		return nil, apperr.NotFound("no published events match the filter")
	}

	if f.Sort == model.SortViews {
		sort.SliceStable(enriched, func(i, j int) bool {
			return enriched[i].Views < enriched[j].Views
		})
	}

	page := model.Apply(enriched, f.Page)
	out := make([]model.EventShort, len(page))
	for i, e := range page {
		out[i] = e.Event.Short(e.Confirmed, e.Views)
	}
	return out, nil
}

// SearchAdmin returns events in any state matching f. No match yields an
// empty slice.
func (l *Listing) SearchAdmin(ctx context.Context, f model.AdminFilter) ([]model.EventFull, error) {
	if err := validatePage(f.Page); err != nil {
		return nil, err
	}
	for _, s := range f.States {
		if !s.Valid() {
			return nil, apperr.Validation("unknown state %q", s)
		}
	}
	start, end, err := l.dateRange(f.RangeStart, f.RangeEnd)
	if err != nil {
		return nil, err
	}

	page := f.Page
	events, err := l.events.FindEvents(ctx, model.EventQuery{
		Initiators: f.Users,
		States:     f.States,
		Categories: f.Categories,
		Start:      start,
		End:        end,
		Page:       &page,
	})
	if err != nil {
		return nil, fmt.Errorf("search events: %w", err)
	}

	enriched, err := l.Enrich(ctx, events)
	if err != nil {
		return nil, err
	}
	out := make([]model.EventFull, len(enriched))
	for i, e := range enriched {
		out[i] = e.Event.Full(e.Confirmed, e.Views)
	}
	return out, nil
}

// PublicEvent returns one published event. Events in any other state are
// reported as not found.
func (l *Listing) PublicEvent(ctx context.Context, eventID string) (model.EventFull, error) {
	e, err := l.events.Event(ctx, eventID)
	if err != nil {
		return model.EventFull{}, err
	}
	if e.State != model.StatePublished {
		return model.EventFull{}, apperr.NotFound("event %s is not published", eventID)
	}
	return l.enrichOne(ctx, e)
}
