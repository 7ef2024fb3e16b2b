package training

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/2beens/trainlog/internal/telemetry/tracing"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

const (
	CollectionSessions = "sessions"
	CollectionWellness = "wellness"
)

// Publisher announces that a collection of a user changed. The store
// adapters listen on the other end and re-load their snapshots.
type Publisher interface {
	Publish(ctx context.Context, userID, collection string) error
}

type Repo struct {
	db   *pgxpool.Pool
	feed Publisher
}

func NewRepo(db *pgxpool.Pool, feed Publisher) *Repo {
	return &Repo{
		db:   db,
		feed: feed,
	}
}

// AddSession stores a new session for the user and announces the change.
// The session gets a fresh ID and creation timestamp.
func (r *Repo) AddSession(ctx context.Context, userID string, session *Session) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.training.addSession")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := session.Validate(); err != nil {
		return err
	}

	session.ID = uuid.NewString()
	session.CreatedAt = time.Now()

	detailsJson, err := json.Marshal(session.Details)
	if err != nil {
		return fmt.Errorf("marshal details: %w", err)
	}

	_, err = r.db.Exec(
		ctx,
		`INSERT INTO training_session
				(id, user_id, date, category, subcategory, rating, notes, details, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);`,
		session.ID, userID, session.Date.String(), session.Category,
		session.Subcategory, session.Rating, session.Notes, detailsJson, session.CreatedAt,
	)
	if err != nil {
		return err
	}

	return r.feed.Publish(ctx, userID, CollectionSessions)
}

// UpdateSession replaces the stored session with the given one.
func (r *Repo) UpdateSession(ctx context.Context, userID string, session *Session) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.training.updateSession")
	span.SetAttributes(attribute.String("sessionID", session.ID))
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := session.Validate(); err != nil {
		return err
	}

	detailsJson, err := json.Marshal(session.Details)
	if err != nil {
		return fmt.Errorf("marshal details: %w", err)
	}

	tag, err := r.db.Exec(
		ctx,
		`UPDATE training_session
			SET date = $1, category = $2, subcategory = $3, rating = $4, notes = $5, details = $6
			WHERE id = $7 AND user_id = $8;`,
		session.Date.String(), session.Category, session.Subcategory,
		session.Rating, session.Notes, detailsJson, session.ID, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}

	return r.feed.Publish(ctx, userID, CollectionSessions)
}

func (r *Repo) GetSession(ctx context.Context, userID, sessionID string) (*Session, error) {
	rows, err := r.db.Query(
		ctx,
		`
			SELECT
				id, date, category, subcategory, rating, notes, details, created_at
			FROM training_session
			WHERE id = $1 AND user_id = $2;`,
		sessionID, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	sessions, err := r.rows2sessions(rows)
	if err != nil {
		return nil, err
	}

	if len(sessions) != 1 {
		return nil, ErrSessionNotFound
	}

	return &sessions[0], nil
}

// ListSessions returns all sessions of the user, newest date first.
// Sessions sharing a date keep their creation order.
func (r *Repo) ListSessions(ctx context.Context, userID string) (_ []Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.training.listSessions")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`
			SELECT
				id, date, category, subcategory, rating, notes, details, created_at
			FROM training_session
			WHERE user_id = $1
			ORDER BY date DESC, created_at ASC;`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return r.rows2sessions(rows)
}

// SaveWellness merges the non-nil fields of the entry into the user's
// row for that date, creating it when missing.
func (r *Repo) SaveWellness(ctx context.Context, userID string, entry WellnessEntry) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.training.saveWellness")
	span.SetAttributes(attribute.String("date", entry.Date.String()))
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := entry.Validate(); err != nil {
		return err
	}

	_, err = r.db.Exec(
		ctx,
		`INSERT INTO wellness_entry
				(user_id, date, sleep, weight, calories)
				VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (user_id, date) DO UPDATE SET
				sleep = COALESCE(EXCLUDED.sleep, wellness_entry.sleep),
				weight = COALESCE(EXCLUDED.weight, wellness_entry.weight),
				calories = COALESCE(EXCLUDED.calories, wellness_entry.calories);`,
		userID, entry.Date.String(), entry.Sleep, entry.Weight, entry.Calories,
	)
	if err != nil {
		return err
	}

	return r.feed.Publish(ctx, userID, CollectionWellness)
}

func (r *Repo) ListWellness(ctx context.Context, userID string) (_ []WellnessEntry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.training.listWellness")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`
			SELECT date, sleep, weight, calories
			FROM wellness_entry
			WHERE user_id = $1
			ORDER BY date DESC;`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	entries := make([]WellnessEntry, 0)
	for rows.Next() {
		var e WellnessEntry
		var date string
		if err := rows.Scan(&date, &e.Sleep, &e.Weight, &e.Calories); err != nil {
			return nil, err
		}
		e.Date = DateKey(date)
		entries = append(entries, e)
	}

	return entries, nil
}

func (r *Repo) rows2sessions(rows pgx.Rows) ([]Session, error) {
	sessions := make([]Session, 0)
	for rows.Next() {
		var id string
		var date string
		var category Category
		var subcategory string
		var rating *int
		var notes string
		var detailsBytes []byte
		var createdAt time.Time
		if err := rows.Scan(&id, &date, &category, &subcategory, &rating, &notes, &detailsBytes, &createdAt); err != nil {
			return nil, err
		}

		fieldType, ok := DefaultConfig().FieldTypeFor(category, subcategory)
		if !ok {
			return nil, fmt.Errorf("session %s: unknown category/subcategory pair %q/%q", id, category, subcategory)
		}

		details, err := UnmarshalDetails(fieldType, category == CategoryClimbing, detailsBytes)
		if err != nil {
			return nil, fmt.Errorf("session %s: %w", id, err)
		}

		sessions = append(sessions, Session{
			ID:          id,
			Date:        DateKey(date),
			Category:    category,
			Subcategory: subcategory,
			Rating:      rating,
			Notes:       notes,
			Details:     details,
			CreatedAt:   createdAt,
		})
	}

	return sessions, nil
}
