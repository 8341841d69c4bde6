// Package store records resource operations in Postgres so asynchronous
// requests can be audited and their outcomes replayed later.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
)

type Store struct {
	db *sql.DB
}

func Open(dsn string) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("missing database dsn")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return &Store{db: db}, nil
}

func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type OperationRecord struct {
	ID            string
	RequestToken  string
	Operation     string
	TypeName      string
	Identifier    string
	Status        string
	ErrorCode     string
	StatusMessage string
	RequestText   string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (s *Store) RecordOperation(ctx context.Context, rec OperationRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO operations (id, request_token, operation, type_name, identifier, status, error_code, status_message, request_text)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		rec.ID, rec.RequestToken, rec.Operation, rec.TypeName, rec.Identifier, rec.Status, rec.ErrorCode, rec.StatusMessage, rec.RequestText)
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (s *Store) UpdateOperationStatus(ctx context.Context, requestToken string, status string, errorCode string, statusMessage string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE operations SET status = $2, error_code = $3, status_message = $4, updated_at = now()
		WHERE request_token = $1`, requestToken, status, errorCode, statusMessage)
	return err
}

func (s *Store) GetOperation(ctx context.Context, requestToken string) (OperationRecord, error) {
	var rec OperationRecord
	row := s.db.QueryRowContext(ctx, `SELECT id, request_token, operation, type_name, identifier, status, error_code, status_message, request_text, created_at, updated_at
		FROM operations WHERE request_token = $1`, requestToken)
	err := row.Scan(&rec.ID, &rec.RequestToken, &rec.Operation, &rec.TypeName, &rec.Identifier, &rec.Status, &rec.ErrorCode, &rec.StatusMessage, &rec.RequestText, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, fmt.Errorf("operation not found: %s", requestToken)
	}
	return rec, err
}

func (s *Store) ListOperations(ctx context.Context, typeName string, limit int) ([]OperationRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id, request_token, operation, type_name, identifier, status, error_code, status_message, request_text, created_at, updated_at
		FROM operations`
	args := []any{}
	if typeName != "" {
		query += " WHERE type_name = $1"
		args = append(args, typeName)
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args)+1)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []OperationRecord
	for rows.Next() {
		var rec OperationRecord
		if err := rows.Scan(&rec.ID, &rec.RequestToken, &rec.Operation, &rec.TypeName, &rec.Identifier, &rec.Status, &rec.ErrorCode, &rec.StatusMessage, &rec.RequestText, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *Store) HealthSummary(ctx context.Context) (map[string]string, error) {
	if err := s.db.PingContext(ctx); err != nil {
		return nil, err
	}
	return map[string]string{"database": "ok"}, nil
}
