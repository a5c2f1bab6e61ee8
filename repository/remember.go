package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	auth "github.com/terraworkdynamics/skenterprises"
	"github.com/uptrace/bun"
)

// RememberStore is the persisted remember-me store; it survives restarts
// where the in-memory one does not.
type RememberStore struct {
	db  *bun.DB
	key string
}

var _ auth.RememberStore = (*RememberStore)(nil)

// NewRememberStore builds a store keyed under auth.RememberKey.
func NewRememberStore(db *bun.DB) *RememberStore {
	return &RememberStore{db: db, key: auth.RememberKey}
}

func (s *RememberStore) Read(ctx context.Context) (string, error) {
	record := &RememberedLogin{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.key = ?", s.key).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return record.Identifier, nil
}

func (s *RememberStore) Write(ctx context.Context, identifier string) error {
	now := time.Now()
	record := &RememberedLogin{
		Key:        s.key,
		Identifier: identifier,
		UpdatedAt:  &now,
	}

	_, err := s.db.NewInsert().
		Model(record).
		On("CONFLICT (key) DO UPDATE").
		Set("identifier = EXCLUDED.identifier").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (s *RememberStore) Clear(ctx context.Context) error {
	_, err := s.db.NewDelete().
		Model((*RememberedLogin)(nil)).
		Where("?TableAlias.key = ?", s.key).
		Exec(ctx)
	return err
}
