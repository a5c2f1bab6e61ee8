package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Registration is a customer purchase registration. Each product category
// stores registrations in its own table; the table tag here is the default
// and gets swapped per category with ModelTableExpr.
type Registration struct {
	bun.BaseModel `bun:"table:registrations,alias:reg"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	CustomerName  string     `bun:"customer_name,notnull" json:"customer_name"`
	Phone         string     `bun:"phone,notnull" json:"phone"`
	Product       string     `bun:"product" json:"product,omitempty"`
	TotalAmount   float64    `bun:"total_amount" json:"total_amount"`
	PaidAmount    float64    `bun:"paid_amount" json:"paid_amount"`
	DueAmount     float64    `bun:"due_amount" json:"due_amount"`
	DueMonth      string     `bun:"due_month" json:"due_month,omitempty"`
	RegisteredAt  *time.Time `bun:"registered_at,nullzero,default:current_timestamp" json:"registered_at,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// Payment records money received against a registration.
type Payment struct {
	bun.BaseModel  `bun:"table:payments,alias:pay"`
	ID             uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	RegistrationID uuid.UUID  `bun:"registration_id,notnull,type:uuid" json:"registration_id"`
	Amount         float64    `bun:"amount,notnull" json:"amount"`
	DueMonth       string     `bun:"due_month" json:"due_month,omitempty"`
	PaidAt         *time.Time `bun:"paid_at,nullzero,default:current_timestamp" json:"paid_at,omitempty"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// LuckyDrawEntry is a storewide draw entry; unlike registrations and
// payments it is not category scoped.
type LuckyDrawEntry struct {
	bun.BaseModel `bun:"table:lucky_draws,alias:ld"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	CustomerName  string     `bun:"customer_name,notnull" json:"customer_name"`
	Phone         string     `bun:"phone,notnull" json:"phone"`
	Prize         string     `bun:"prize" json:"prize,omitempty"`
	DrawnAt       *time.Time `bun:"drawn_at,nullzero" json:"drawn_at,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// RememberedLogin persists the remember-me identifier under a fixed key.
type RememberedLogin struct {
	bun.BaseModel `bun:"table:remembered_logins,alias:rl"`
	Key           string     `bun:"key,pk" json:"key"`
	Identifier    string     `bun:"identifier,notnull" json:"identifier"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// MonthDue is the monthwise aggregation row for outstanding dues.
type MonthDue struct {
	DueMonth      string  `bun:"due_month" json:"due_month"`
	TotalDue      float64 `bun:"total_due" json:"total_due"`
	Registrations int     `bun:"registrations" json:"registrations"`
}
