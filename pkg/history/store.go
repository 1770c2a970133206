package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS question_log (
	id TEXT PRIMARY KEY,
	asked_at TEXT NOT NULL,
	question TEXT NOT NULL,
	template_id TEXT NOT NULL,
	entities TEXT NOT NULL,
	outcome TEXT NOT NULL,
	duration_ms INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_question_log_asked_at ON question_log (asked_at DESC);
`

// Entry is one processed question.
type Entry struct {
	ID         string         `json:"id"`
	AskedAt    time.Time      `json:"askedAt"`
	Question   string         `json:"question"`
	TemplateID string         `json:"templateId"`
	Entities   map[string]any `json:"entities"`
	Outcome    string         `json:"outcome"`
	Duration   time.Duration  `json:"-"`
}

// Outcome values recorded per question.
const (
	OutcomeAnswered   = "answered"
	OutcomeNoTemplate = "no_template"
	OutcomeIncomplete = "incomplete"
	OutcomeFailed     = "failed"
)

// Store persists processed questions in SQLite.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open creates (or opens) the history database and applies the schema.
func Open(path string, logger *zap.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply history schema: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts one entry. A zero ID or AskedAt is filled in.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.AskedAt.IsZero() {
		e.AskedAt = time.Now().UTC()
	}
	entities, err := json.Marshal(e.Entities)
	if err != nil {
		return fmt.Errorf("marshal entities: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO question_log (id, asked_at, question, template_id, entities, outcome, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.AskedAt.Format(time.RFC3339Nano), e.Question, e.TemplateID,
		string(entities), e.Outcome, e.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("record question: %w", err)
	}

	s.logger.Debug("question recorded",
		zap.String("id", e.ID),
		zap.String("template", e.TemplateID),
		zap.String("outcome", e.Outcome),
	)
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, asked_at, question, template_id, entities, outcome, duration_ms
		 FROM question_log ORDER BY asked_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e        Entry
			askedAt  string
			entities string
			ms       int64
		)
		if err := rows.Scan(&e.ID, &askedAt, &e.Question, &e.TemplateID, &entities, &e.Outcome, &ms); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		if e.AskedAt, err = time.Parse(time.RFC3339Nano, askedAt); err != nil {
			return nil, fmt.Errorf("parse asked_at: %w", err)
		}
		if err := json.Unmarshal([]byte(entities), &e.Entities); err != nil {
			return nil, fmt.Errorf("unmarshal entities: %w", err)
		}
		e.Duration = time.Duration(ms) * time.Millisecond
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
