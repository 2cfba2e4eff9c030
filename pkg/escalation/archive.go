// Package escalation builds and durably records the admin review record for
// any request the engine could not bring to completion. This is not the
// long-term client memory the overview rules out: it is a write-once audit
// trail of engine outcomes, scoped to escalated requests only, queryable by
// request_id or stop_reason for the human review queue.
package escalation

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // pure-Go SQLite driver, grounded on the teacher's pkg/persistence

	"rcve/pkg/proto"
)

// Record is one escalated request's admin review record, per §4.8: the raw
// request, the classification, the final missing-questions list, the
// iteration history, the stop reason, and the accumulated dynamic context.
type Record struct {
	RequestID        string
	RawRequest       string
	Category         proto.Category
	Subcategories    []proto.Category
	StopReason       proto.StopReason
	MissingQuestions []string
	EnrichedContext  []proto.EnrichedContextEntry
	History          []proto.IterationRecord
	TokensUsed       int
	Iterations       int
	CreatedAt        time.Time
}

// BuildRecord constructs the admin record from a non-complete Outcome. The
// caller supplies the original raw request text since EscalationOutcome
// itself does not carry it (it is Category/stop-reason/context only).
func BuildRecord(rawRequest string, out proto.EscalationOutcome, createdAt time.Time) Record {
	return Record{
		RequestID:        out.RequestID,
		RawRequest:       rawRequest,
		Category:         out.Category,
		Subcategories:    out.Subcategories,
		StopReason:       out.StopReason,
		MissingQuestions: out.MissingQuestions,
		EnrichedContext:  out.EnrichedContext,
		History:          out.History,
		TokensUsed:       out.TokensUsed,
		Iterations:       out.Iterations,
		CreatedAt:        createdAt,
	}
}

// Archive is the durable escalation store, one row per escalated request.
// Grounded on the teacher's pkg/persistence (db.go's WAL-mode singleton
// connection, schema.go's idempotent CREATE TABLE pattern), adapted from a
// multi-table spec/story schema to a single write-once escalations table —
// RCVE has no cross-request relational data to model.
type Archive struct {
	db *sql.DB
}

// NewArchive opens (creating if needed) the SQLite-backed escalation store.
func NewArchive(dbPath string) (*Archive, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf(
		"file:%s?_pragma=foreign_keys(ON)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)",
		dbPath,
	))
	if err != nil {
		return nil, fmt.Errorf("open escalation archive: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping escalation archive: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite supports a single writer

	if err := createSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create escalation schema: %w", err)
	}

	return &Archive{db: db}, nil
}

func createSchema(db *sql.DB) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS escalations (
		request_id        TEXT PRIMARY KEY,
		raw_request       TEXT NOT NULL,
		category          TEXT NOT NULL,
		subcategories     TEXT NOT NULL DEFAULT '[]',
		stop_reason       TEXT NOT NULL,
		missing_questions TEXT NOT NULL DEFAULT '[]',
		enriched_context  TEXT NOT NULL DEFAULT '[]',
		history           TEXT NOT NULL DEFAULT '[]',
		tokens_used       INTEGER NOT NULL,
		iterations        INTEGER NOT NULL,
		created_at        TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_escalations_stop_reason ON escalations(stop_reason);
	`
	_, err := db.Exec(schema)
	return err
}

// Save upserts one escalation record: a repeated request_id (the client
// retried the same escalated request) replaces the prior row rather than
// accumulating history indefinitely.
func (a *Archive) Save(ctx context.Context, rec Record) error {
	subcats, err := json.Marshal(rec.Subcategories)
	if err != nil {
		return fmt.Errorf("marshal subcategories: %w", err)
	}
	missing, err := json.Marshal(rec.MissingQuestions)
	if err != nil {
		return fmt.Errorf("marshal missing questions: %w", err)
	}
	enriched, err := json.Marshal(rec.EnrichedContext)
	if err != nil {
		return fmt.Errorf("marshal enriched context: %w", err)
	}
	history, err := json.Marshal(rec.History)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}

	const query = `
	INSERT INTO escalations (request_id, raw_request, category, subcategories, stop_reason, missing_questions, enriched_context, history, tokens_used, iterations, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(request_id) DO UPDATE SET
		raw_request       = excluded.raw_request,
		category          = excluded.category,
		subcategories     = excluded.subcategories,
		stop_reason       = excluded.stop_reason,
		missing_questions = excluded.missing_questions,
		enriched_context  = excluded.enriched_context,
		history           = excluded.history,
		tokens_used       = excluded.tokens_used,
		iterations        = excluded.iterations,
		created_at        = excluded.created_at
	`

	_, err = a.db.ExecContext(ctx, query,
		rec.RequestID, rec.RawRequest, string(rec.Category), string(subcats), string(rec.StopReason),
		string(missing), string(enriched), string(history), rec.TokensUsed, rec.Iterations,
		rec.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("save escalation %s: %w", rec.RequestID, err)
	}
	return nil
}

// GetByRequestID looks up one escalation record by request id.
func (a *Archive) GetByRequestID(ctx context.Context, requestID string) (*Record, error) {
	const query = `
	SELECT request_id, raw_request, category, subcategories, stop_reason, missing_questions, enriched_context, history, tokens_used, iterations, created_at
	FROM escalations WHERE request_id = ?
	`
	row := a.db.QueryRowContext(ctx, query, requestID)
	rec, err := scanRecord(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get escalation %s: %w", requestID, err)
	}
	return rec, nil
}

// ListByStopReason returns every escalation record for a given stop reason,
// most recent first — the admin queue's usual triage view.
func (a *Archive) ListByStopReason(ctx context.Context, reason proto.StopReason) ([]Record, error) {
	const query = `
	SELECT request_id, raw_request, category, subcategories, stop_reason, missing_questions, enriched_context, history, tokens_used, iterations, created_at
	FROM escalations WHERE stop_reason = ? ORDER BY created_at DESC
	`
	rows, err := a.db.QueryContext(ctx, query, string(reason))
	if err != nil {
		return nil, fmt.Errorf("list escalations for %s: %w", reason, err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecordRows(rows)
		if err != nil {
			return nil, fmt.Errorf("scan escalation row: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// rowScanner covers both *sql.Row and *sql.Rows, which share a Scan method
// but no common interface in database/sql.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row *sql.Row) (*Record, error) {
	return scan(row)
}

func scanRecordRows(rows *sql.Rows) (*Record, error) {
	return scan(rows)
}

func scan(s rowScanner) (*Record, error) {
	var (
		rec                                            Record
		category, stopReason                           string
		subcats, missing, enriched, history, createdAt string
	)

	if err := s.Scan(&rec.RequestID, &rec.RawRequest, &category, &subcats, &stopReason,
		&missing, &enriched, &history, &rec.TokensUsed, &rec.Iterations, &createdAt); err != nil {
		return nil, err
	}

	rec.Category = proto.Category(category)
	rec.StopReason = proto.StopReason(stopReason)

	if err := json.Unmarshal([]byte(subcats), &rec.Subcategories); err != nil {
		return nil, fmt.Errorf("unmarshal subcategories: %w", err)
	}
	if err := json.Unmarshal([]byte(missing), &rec.MissingQuestions); err != nil {
		return nil, fmt.Errorf("unmarshal missing questions: %w", err)
	}
	if err := json.Unmarshal([]byte(enriched), &rec.EnrichedContext); err != nil {
		return nil, fmt.Errorf("unmarshal enriched context: %w", err)
	}
	if err := json.Unmarshal([]byte(history), &rec.History); err != nil {
		return nil, fmt.Errorf("unmarshal history: %w", err)
	}

	parsed, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	rec.CreatedAt = parsed

	return &rec, nil
}

// Close closes the underlying database connection.
func (a *Archive) Close() error {
	return a.db.Close()
}
