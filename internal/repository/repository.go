// Package repository implements all database queries for the event participation system.
// It uses pgx directly (no ORM) for transparency and performance.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Shivanand-hulikatti/explore-events/internal/apperr"
	"github.com/Shivanand-hulikatti/explore-events/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

const eventColumns = `id, title, annotation, description, category_id, initiator_id,
	lat, lon, event_date, paid, participant_limit, request_moderation,
	created_on, published_on, state`

const requestColumns = `id, event_id, requester_id, status, created`

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func scanEvent(row pgx.Row) (*model.Event, error) {
	var e model.Event
	err := row.Scan(&e.ID, &e.Title, &e.Annotation, &e.Description, &e.CategoryID, &e.InitiatorID,
		&e.Location.Lat, &e.Location.Lon, &e.EventDate, &e.Paid, &e.ParticipantLimit, &e.RequestModeration,
		&e.CreatedOn, &e.PublishedOn, &e.State)
	if err != nil {
		return nil, err
	}
	e.EventDate = e.EventDate.UTC()
	e.CreatedOn = e.CreatedOn.UTC()
	if e.PublishedOn != nil {
		p := e.PublishedOn.UTC()
		e.PublishedOn = &p
	}
	return &e, nil
}

func scanRequest(row pgx.Row) (*model.Request, error) {
	var r model.Request
	if err := row.Scan(&r.ID, &r.EventID, &r.RequesterID, &r.Status, &r.Created); err != nil {
		return nil, err
	}
	r.Created = r.Created.UTC()
	return &r, nil
}

func collectRequests(rows pgx.Rows) ([]model.Request, error) {
	defer rows.Close()
	var out []model.Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// EventRepository handles persistence for events.
type EventRepository struct {
	db *pgxpool.Pool
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

// CreateEvent inserts a new event. The caller assigns the id.
func (r *EventRepository) CreateEvent(ctx context.Context, e *model.Event) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO events (`+eventColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		e.ID, e.Title, e.Annotation, e.Description, e.CategoryID, e.InitiatorID,
		e.Location.Lat, e.Location.Lon, e.EventDate, e.Paid, e.ParticipantLimit, e.RequestModeration,
		e.CreatedOn, e.PublishedOn, e.State,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// Event returns a single event or an apperr.ErrNotFound error.
func (r *EventRepository) Event(ctx context.Context, id string) (*model.Event, error) {
	e, err := scanEvent(r.db.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("event %s", id)
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern matches text as a case-insensitive literal substring.
func likePattern(text string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(text)) + "%"
}

// FindEvents builds the WHERE clause from q with positional arguments only.
func (r *EventRepository) FindEvents(ctx context.Context, q model.EventQuery) ([]model.Event, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(q.Initiators) > 0 {
		conds = append(conds, "initiator_id = ANY("+arg(q.Initiators)+")")
	}
	if len(q.States) > 0 {
		states := make([]string, len(q.States))
		for i, s := range q.States {
			states[i] = string(s)
		}
		conds = append(conds, "state = ANY("+arg(states)+")")
	}
	if len(q.Categories) > 0 {
		conds = append(conds, "category_id = ANY("+arg(q.Categories)+")")
	}
	if q.Text != "" {
		p := arg(likePattern(q.Text))
		conds = append(conds, "(LOWER(title) LIKE "+p+` ESCAPE '\' OR LOWER(description) LIKE `+p+` ESCAPE '\')`)
	}
	if q.Paid != nil {
		conds = append(conds, "paid = "+arg(*q.Paid))
	}
	if !q.Start.IsZero() {
		conds = append(conds, "event_date >= "+arg(q.Start))
	}
	if !q.End.IsZero() {
		conds = append(conds, "event_date <= "+arg(q.End))
	}

	query := `SELECT ` + eventColumns + ` FROM events`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY event_date ASC, id ASC"
	if q.Page != nil {
		query += " OFFSET " + arg(q.Page.From)
		if q.Page.Size > 0 {
			query += " LIMIT " + arg(q.Page.Size)
		}
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// InTx opens a transaction holding a row-level lock on the event.
//
// SELECT … FOR UPDATE blocks every other InTx on the same event until this
// transaction commits or rolls back, so the confirmed-count read and the
// status writes that depend on it cannot interleave with another admission
// decision. Transactions on different events do not contend.
func (r *EventRepository) InTx(ctx context.Context, eventID string, fn func(tx EventTx) error) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	e, err := scanEvent(tx.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1 FOR UPDATE`, eventID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound("event %s", eventID)
		}
		return fmt.Errorf("lock event row: %w", err)
	}

	if err = fn(&pgEventTx{tx: tx, event: e}); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// pgEventTx implements EventTx on top of an open pgx transaction.
type pgEventTx struct {
	tx    pgx.Tx
	event *model.Event
}

func (t *pgEventTx) Event() *model.Event {
	return t.event
}

func (t *pgEventTx) SaveEvent(ctx context.Context, e *model.Event) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE events SET title = $2, annotation = $3, description = $4, category_id = $5,
		        lat = $6, lon = $7, event_date = $8, paid = $9, participant_limit = $10,
		        request_moderation = $11, published_on = $12, state = $13
		 WHERE id = $1`,
		e.ID, e.Title, e.Annotation, e.Description, e.CategoryID,
		e.Location.Lat, e.Location.Lon, e.EventDate, e.Paid, e.ParticipantLimit,
		e.RequestModeration, e.PublishedOn, e.State,
	)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	t.event = e
	return nil
}

func (t *pgEventTx) Request(ctx context.Context, id string) (*model.Request, error) {
	r, err := scanRequest(t.tx.QueryRow(ctx,
		`SELECT `+requestColumns+` FROM requests WHERE id = $1 AND event_id = $2`, id, t.event.ID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("request %s on event %s", id, t.event.ID)
		}
		return nil, fmt.Errorf("get request: %w", err)
	}
	return r, nil
}

func (t *pgEventTx) ActiveRequest(ctx context.Context, requesterID string) (*model.Request, error) {
	r, err := scanRequest(t.tx.QueryRow(ctx,
		`SELECT `+requestColumns+` FROM requests
		 WHERE event_id = $1 AND requester_id = $2 AND status <> $3`,
		t.event.ID, requesterID, model.RequestCanceled))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("no active request from %s", requesterID)
		}
		return nil, fmt.Errorf("find active request: %w", err)
	}
	return r, nil
}

func (t *pgEventTx) CountConfirmed(ctx context.Context) (int, error) {
	var n int
	err := t.tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM requests WHERE event_id = $1 AND status = $2`,
		t.event.ID, model.RequestConfirmed,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count confirmed: %w", err)
	}
	return n, nil
}

func (t *pgEventTx) InsertRequest(ctx context.Context, r *model.Request) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO requests (`+requestColumns+`) VALUES ($1, $2, $3, $4, $5)`,
		r.ID, r.EventID, r.RequesterID, r.Status, r.Created,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflict("requester %s already has an active request on event %s", r.RequesterID, r.EventID)
		}
		return fmt.Errorf("insert request: %w", err)
	}
	return nil
}

func (t *pgEventTx) SetStatus(ctx context.Context, requestID string, status model.RequestStatus) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE requests SET status = $3 WHERE id = $1 AND event_id = $2`,
		requestID, t.event.ID, status,
	)
	if err != nil {
		return fmt.Errorf("update request status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("request %s on event %s", requestID, t.event.ID)
	}
	return nil
}

func (t *pgEventTx) RejectPending(ctx context.Context) ([]string, error) {
	rows, err := t.tx.Query(ctx,
		`WITH rejected AS (
		     UPDATE requests SET status = $3
		     WHERE event_id = $1 AND status = $2
		     RETURNING id, created
		 )
		 SELECT id FROM rejected ORDER BY created ASC, id ASC`,
		t.event.ID, model.RequestPending, model.RequestRejected,
	)
	if err != nil {
		return nil, fmt.Errorf("reject pending requests: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collect rejected ids: %w", err)
	}
	return ids, nil
}

// RequestRepository handles read-side queries for requests.
type RequestRepository struct {
	db *pgxpool.Pool
}

// NewRequestRepository constructs a RequestRepository.
func NewRequestRepository(db *pgxpool.Pool) *RequestRepository {
	return &RequestRepository{db: db}
}

// Request returns a single request or an apperr.ErrNotFound error.
func (r *RequestRepository) Request(ctx context.Context, id string) (*model.Request, error) {
	req, err := scanRequest(r.db.QueryRow(ctx, `SELECT `+requestColumns+` FROM requests WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("request %s", id)
		}
		return nil, fmt.Errorf("get request: %w", err)
	}
	return req, nil
}

// RequestsByEvent returns all requests for a given event.
func (r *RequestRepository) RequestsByEvent(ctx context.Context, eventID string) ([]model.Request, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+requestColumns+` FROM requests WHERE event_id = $1 ORDER BY created ASC, id ASC`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("list requests by event: %w", err)
	}
	return collectRequests(rows)
}

// RequestsByRequester returns all requests made by a user.
func (r *RequestRepository) RequestsByRequester(ctx context.Context, requesterID string) ([]model.Request, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+requestColumns+` FROM requests WHERE requester_id = $1 ORDER BY created ASC, id ASC`,
		requesterID,
	)
	if err != nil {
		return nil, fmt.Errorf("list requests by requester: %w", err)
	}
	return collectRequests(rows)
}

// CountConfirmed runs one grouped count over the given events.
func (r *RequestRepository) CountConfirmed(ctx context.Context, eventIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(eventIDs))
	if len(eventIDs) == 0 {
		return counts, nil
	}
	rows, err := r.db.Query(ctx,
		`SELECT event_id, COUNT(*) FROM requests
		 WHERE event_id = ANY($1) AND status = $2
		 GROUP BY event_id`,
		eventIDs, model.RequestConfirmed,
	)
	if err != nil {
		return nil, fmt.Errorf("count confirmed requests: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			id string
			n  int
		)
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("scan confirmed count: %w", err)
		}
		counts[id] = n
	}
	return counts, rows.Err()
}
