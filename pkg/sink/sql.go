package sink

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/goliatone/go-formcollect/pkg/collect"
)

const (
	schemaSubmissions = `
		CREATE TABLE IF NOT EXISTS %s (
			id           varchar(64) not null,
			form_id      varchar(255) not null,
			received_at  varchar(64) not null,
			payload      text,

			PRIMARY KEY(id)
		);`
	queryInsertSubmission = `
		INSERT INTO %s (id, form_id, received_at, payload)
		VALUES ($1, $2, $3, $4)`
	querySubmissionsByForm = `
		SELECT id, form_id, received_at, payload FROM %s
		WHERE form_id = $1`
)

// DefaultTable is the table SQL sinks write to unless configured otherwise.
const DefaultTable = "submissions"

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// DB is the subset of *sql.DB used by the SQL sink.
type DB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

var _ DB = (*sql.DB)(nil)

// SQL stores submissions as JSON rows. Secret fields are redacted before they
// are written.
type SQL struct {
	db      DB
	table   string
	secrets collect.Names
}

// NewSQL returns a SQL sink writing to table. An empty table uses
// DefaultTable; secrets nil masks the password pair.
func NewSQL(db DB, table string, secrets collect.Names) (*SQL, error) {
	if db == nil {
		return nil, fmt.Errorf("sink: sql database is required")
	}
	if table == "" {
		table = DefaultTable
	}
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("sink: invalid table name %q", table)
	}
	if secrets == nil {
		secrets = collect.NewNames("password", "confirm-password")
	}
	return &SQL{db: db, table: table, secrets: secrets}, nil
}

// Migrate creates the submissions table when it does not exist.
func (s *SQL) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(schemaSubmissions, s.table)); err != nil {
		return fmt.Errorf("sink: migrate %s: %w", s.table, err)
	}
	return nil
}

// Deliver inserts one row per submission.
func (s *SQL) Deliver(ctx context.Context, submission Submission) error {
	payload, err := json.Marshal(Redact(submission.Record, s.secrets))
	if err != nil {
		return fmt.Errorf("sink: encode record: %w", err)
	}
	_, err = s.db.ExecContext(ctx, fmt.Sprintf(queryInsertSubmission, s.table),
		submission.ID,
		submission.Form,
		submission.ReceivedAt.UTC().Format(time.RFC3339Nano),
		string(payload),
	)
	if err != nil {
		return fmt.Errorf("sink: insert submission %s: %w", submission.ID, err)
	}
	return nil
}

// ByForm returns the stored submissions of form.
func (s *SQL) ByForm(ctx context.Context, form string) (submissions []Submission, err error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(querySubmissionsByForm, s.table), form)
	if err != nil {
		return nil, fmt.Errorf("sink: query submissions: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	for rows.Next() {
		var (
			row        Submission
			receivedAt string
			payload    string
		)
		if err := rows.Scan(&row.ID, &row.Form, &receivedAt, &payload); err != nil {
			return nil, fmt.Errorf("sink: scan submission: %w", err)
		}
		if row.ReceivedAt, err = time.Parse(time.RFC3339Nano, receivedAt); err != nil {
			return nil, fmt.Errorf("sink: parse received_at of %s: %w", row.ID, err)
		}
		if err := json.Unmarshal([]byte(payload), &row.Record); err != nil {
			return nil, fmt.Errorf("sink: decode payload of %s: %w", row.ID, err)
		}
		submissions = append(submissions, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sink: iterate submissions: %w", err)
	}
	return submissions, nil
}
