package repository

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/uptrace/bun"
)

// Manager exposes all stores, one registration/payment pair per category
// plus the storewide ones.
type Manager interface {
	Validate() error
	MustValidate()
	RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error

	Registrations(category Category) (Registrations, error)
	Payments(category Category) (Payments, error)
	LuckyDraws() LuckyDraws
	Remember() *RememberStore
}

type mngr struct {
	db            *bun.DB
	registrations map[Category]Registrations
	payments      map[Category]Payments
	luckyDraws    LuckyDraws
	remember      *RememberStore
}

func NewManager(db *bun.DB) (Manager, error) {
	m := &mngr{
		db:            db,
		registrations: map[Category]Registrations{},
		payments:      map[Category]Payments{},
		luckyDraws:    NewLuckyDraws(db),
		remember:      NewRememberStore(db),
	}

	for _, category := range Categories() {
		regs, err := NewRegistrations(db, category)
		if err != nil {
			return nil, err
		}
		m.registrations[category] = regs

		pays, err := NewPayments(db, category)
		if err != nil {
			return nil, err
		}
		m.payments[category] = pays
	}

	return m, nil
}

func (m *mngr) Validate() error {
	if len(m.registrations) == 0 {
		return errors.New("repository registrations should be initialized")
	}

	if len(m.payments) == 0 {
		return errors.New("repository payments should be initialized")
	}

	if m.luckyDraws == nil {
		return errors.New("repository luckyDraws should be initialized")
	}

	return nil
}

func (m *mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m *mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m *mngr) Registrations(category Category) (Registrations, error) {
	store, ok := m.registrations[category]
	if !ok {
		return nil, validateCategory(category)
	}
	return store, nil
}

func (m *mngr) Payments(category Category) (Payments, error) {
	store, ok := m.payments[category]
	if !ok {
		return nil, validateCategory(category)
	}
	return store, nil
}

func (m *mngr) LuckyDraws() LuckyDraws {
	return m.luckyDraws
}

func (m *mngr) Remember() *RememberStore {
	return m.remember
}
