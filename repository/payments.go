package repository

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Payments is the per-category payment ledger.
type Payments interface {
	Category() Category
	Create(ctx context.Context, record *Payment) (*Payment, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Payment) (*Payment, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	ListByRegistration(ctx context.Context, registrationID uuid.UUID) ([]*Payment, error)
	ListByMonth(ctx context.Context, dueMonth string) ([]*Payment, error)
	TotalForMonth(ctx context.Context, dueMonth string) (float64, error)
}

type payments struct {
	db       *bun.DB
	category Category
}

// NewPayments builds a payment store bound to one category's tables.
func NewPayments(db *bun.DB, category Category) (Payments, error) {
	if err := validateCategory(category); err != nil {
		return nil, err
	}
	return &payments{db: db, category: category}, nil
}

func (p *payments) Category() Category {
	return p.category
}

func (p *payments) table() string {
	return p.category.paymentsTable() + " AS pay"
}

func (p *payments) Create(ctx context.Context, record *Payment) (*Payment, error) {
	return p.CreateTx(ctx, p.db, record)
}

func (p *payments) CreateTx(ctx context.Context, tx bun.IDB, record *Payment) (*Payment, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	if record.PaidAt == nil {
		now := time.Now()
		record.PaidAt = &now
	}

	if record.DueMonth == "" {
		record.DueMonth = record.PaidAt.Format("2006-01")
	}

	_, err := tx.NewInsert().
		Model(record).
		ModelTableExpr(p.table()).
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	return record, nil
}

func (p *payments) GetByID(ctx context.Context, id uuid.UUID) (*Payment, error) {
	record := &Payment{}
	err := p.db.NewSelect().
		Model(record).
		ModelTableExpr(p.table()).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, notFound(id.String())
		}
		return nil, err
	}
	return record, nil
}

func (p *payments) ListByRegistration(ctx context.Context, registrationID uuid.UUID) ([]*Payment, error) {
	var records []*Payment
	err := p.db.NewSelect().
		Model(&records).
		ModelTableExpr(p.table()).
		Where("?TableAlias.registration_id = ?", registrationID).
		Order("pay.paid_at DESC").
		Scan(ctx)
	return records, err
}

func (p *payments) ListByMonth(ctx context.Context, dueMonth string) ([]*Payment, error) {
	var records []*Payment
	err := p.db.NewSelect().
		Model(&records).
		ModelTableExpr(p.table()).
		Where("?TableAlias.due_month = ?", dueMonth).
		Order("pay.paid_at DESC").
		Scan(ctx)
	return records, err
}

func (p *payments) TotalForMonth(ctx context.Context, dueMonth string) (float64, error) {
	var total float64
	err := p.db.NewSelect().
		TableExpr(p.table()).
		ColumnExpr("COALESCE(SUM(pay.amount), 0)").
		Where("pay.due_month = ?", dueMonth).
		Scan(ctx, &total)
	return total, err
}
