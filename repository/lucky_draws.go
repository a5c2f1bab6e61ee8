package repository

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// LuckyDraws manages storewide draw entries.
type LuckyDraws interface {
	repository.Repository[*LuckyDrawEntry]

	Enter(ctx context.Context, record *LuckyDrawEntry) (*LuckyDrawEntry, error)
	EnterTx(ctx context.Context, tx bun.IDB, record *LuckyDrawEntry) (*LuckyDrawEntry, error)
	MarkWinner(ctx context.Context, id uuid.UUID, prize string) (*LuckyDrawEntry, error)
	ListWinners(ctx context.Context) ([]*LuckyDrawEntry, error)
}

type luckyDraws struct {
	repository.Repository[*LuckyDrawEntry]
	db *bun.DB
}

var (
	_ LuckyDraws                             = (*luckyDraws)(nil)
	_ repository.Repository[*LuckyDrawEntry] = (*luckyDraws)(nil)
)

// NewLuckyDraws builds the draw entry repository.
func NewLuckyDraws(db *bun.DB) LuckyDraws {
	repo := repository.NewRepository[*LuckyDrawEntry](db, repository.ModelHandlers[*LuckyDrawEntry]{
		NewRecord: func() *LuckyDrawEntry { return &LuckyDrawEntry{} },
		GetID: func(e *LuckyDrawEntry) uuid.UUID {
			if e == nil {
				return uuid.Nil
			}
			return e.ID
		},
		SetID: func(e *LuckyDrawEntry, id uuid.UUID) {
			if e != nil {
				e.ID = id
			}
		},
	})

	return &luckyDraws{
		Repository: repo,
		db:         db,
	}
}

func (l *luckyDraws) Enter(ctx context.Context, record *LuckyDrawEntry) (*LuckyDrawEntry, error) {
	return l.EnterTx(ctx, l.db, record)
}

func (l *luckyDraws) EnterTx(ctx context.Context, tx bun.IDB, record *LuckyDrawEntry) (*LuckyDrawEntry, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return l.Repository.CreateTx(ctx, tx, record)
}

func (l *luckyDraws) MarkWinner(ctx context.Context, id uuid.UUID, prize string) (*LuckyDrawEntry, error) {
	now := time.Now()
	record := &LuckyDrawEntry{
		ID:      id,
		Prize:   prize,
		DrawnAt: &now,
	}

	return l.Repository.UpdateTx(ctx, l.db, record, repository.UpdateByID(id.String()))
}

func (l *luckyDraws) ListWinners(ctx context.Context) ([]*LuckyDrawEntry, error) {
	var records []*LuckyDrawEntry
	err := l.db.NewSelect().
		Model(&records).
		Where("?TableAlias.drawn_at IS NOT NULL").
		Order("ld.drawn_at DESC").
		Scan(ctx)
	return records, err
}
