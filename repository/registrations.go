package repository

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Registrations is the per-category registration store.
type Registrations interface {
	Category() Category
	Create(ctx context.Context, record *Registration) (*Registration, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Registration) (*Registration, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Registration, error)
	GetByPhone(ctx context.Context, phone string) ([]*Registration, error)
	List(ctx context.Context) ([]*Registration, error)
	ListDue(ctx context.Context) ([]*Registration, error)
	MonthwiseDue(ctx context.Context) ([]MonthDue, error)
	RecordPayment(ctx context.Context, id uuid.UUID, amount float64) (*Registration, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type registrations struct {
	db       *bun.DB
	category Category
}

// NewRegistrations builds a registration store bound to one category's
// tables.
func NewRegistrations(db *bun.DB, category Category) (Registrations, error) {
	if err := validateCategory(category); err != nil {
		return nil, err
	}
	return &registrations{db: db, category: category}, nil
}

func (r *registrations) Category() Category {
	return r.category
}

func (r *registrations) table() string {
	return r.category.registrationsTable() + " AS reg"
}

func (r *registrations) Create(ctx context.Context, record *Registration) (*Registration, error) {
	return r.CreateTx(ctx, r.db, record)
}

func (r *registrations) CreateTx(ctx context.Context, tx bun.IDB, record *Registration) (*Registration, error) {
	prepareRegistrationDefaults(record)

	_, err := tx.NewInsert().
		Model(record).
		ModelTableExpr(r.table()).
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	return record, nil
}

func (r *registrations) GetByID(ctx context.Context, id uuid.UUID) (*Registration, error) {
	record := &Registration{}
	err := r.db.NewSelect().
		Model(record).
		ModelTableExpr(r.table()).
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

func (r *registrations) GetByPhone(ctx context.Context, phone string) ([]*Registration, error) {
	var records []*Registration
	err := r.db.NewSelect().
		Model(&records).
		ModelTableExpr(r.table()).
		Where("?TableAlias.phone = ?", phone).
		Order("reg.registered_at DESC").
		Scan(ctx)
	return records, err
}

func (r *registrations) List(ctx context.Context) ([]*Registration, error) {
	var records []*Registration
	err := r.db.NewSelect().
		Model(&records).
		ModelTableExpr(r.table()).
		Order("reg.registered_at DESC").
		Scan(ctx)
	return records, err
}

func (r *registrations) ListDue(ctx context.Context) ([]*Registration, error) {
	var records []*Registration
	err := r.db.NewSelect().
		Model(&records).
		ModelTableExpr(r.table()).
		Where("?TableAlias.due_amount > 0").
		Order("reg.due_month ASC").
		Scan(ctx)
	return records, err
}

// MonthwiseDue aggregates outstanding dues per month.
func (r *registrations) MonthwiseDue(ctx context.Context) ([]MonthDue, error) {
	var rows []MonthDue
	err := r.db.NewSelect().
		TableExpr(r.table()).
		ColumnExpr("reg.due_month AS due_month").
		ColumnExpr("SUM(reg.due_amount) AS total_due").
		ColumnExpr("COUNT(*) AS registrations").
		Where("reg.due_amount > 0").
		Where("reg.deleted_at IS NULL").
		GroupExpr("reg.due_month").
		OrderExpr("reg.due_month ASC").
		Scan(ctx, &rows)
	return rows, err
}

// RecordPayment moves an amount from due to paid on the registration row.
func (r *registrations) RecordPayment(ctx context.Context, id uuid.UUID, amount float64) (*Registration, error) {
	record, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if amount > record.DueAmount {
		amount = record.DueAmount
	}

	record.PaidAmount += amount
	record.DueAmount -= amount
	now := time.Now()
	record.UpdatedAt = &now

	_, err = r.db.NewUpdate().
		Model(record).
		ModelTableExpr(r.category.registrationsTable() + " AS reg").
		Column("paid_amount", "due_amount", "updated_at").
		Where("reg.id = ?", id).
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	return record, nil
}

func (r *registrations) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.NewDelete().
		Model((*Registration)(nil)).
		ModelTableExpr(r.category.registrationsTable() + " AS reg").
		Where("reg.id = ?", id).
		Exec(ctx)
	return err
}

func prepareRegistrationDefaults(record *Registration) {
	if record == nil {
		return
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	if record.RegisteredAt == nil {
		now := time.Now()
		record.RegisteredAt = &now
	}

	if record.DueMonth == "" && record.RegisteredAt != nil {
		record.DueMonth = record.RegisteredAt.Format("2006-01")
	}
}

func notFound(id string) error {
	return goerrors.Wrap(repository.ErrRecordNotFound, goerrors.CategoryNotFound, "record not found").
		WithCode(goerrors.CodeNotFound).
		WithMetadata(map[string]any{
			"id": id,
		})
}
