// Package relay sends payment confirmations to customers over the
// store's WhatsApp vendor API.
package relay

import (
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is the region used to parse numbers without a country
// code. Store customers are local, so bare 10 digit numbers resolve
// against it.
const DefaultRegion = "IN"

// Message is one payment confirmation request.
type Message struct {
	Phone         string  `json:"phone" form:"phone"`
	CustomerName  string  `json:"customer_name" form:"customer_name"`
	Amount        float64 `json:"amount" form:"amount"`
	PaymentMethod string  `json:"payment_method" form:"payment_method"`
	TransactionID string  `json:"transaction_id,omitempty" form:"transaction_id"`
	Category      string  `json:"category,omitempty" form:"category"`
}

// Validate will run validation rules
func (m Message) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Phone, validation.Required),
		validation.Field(&m.CustomerName, validation.Required, validation.Length(1, 200)),
		validation.Field(&m.Amount, validation.Required, validation.Min(0.01)),
		validation.Field(&m.PaymentMethod, validation.Required, validation.Length(1, 100)),
	)
}

// NormalizePhone resolves a raw customer phone entry to digits with a
// country code, the shape the vendor API expects. Entries without a
// country code parse against region.
func NormalizePhone(raw, region string) (string, error) {
	if region == "" {
		region = DefaultRegion
	}

	num, err := phonenumbers.Parse(raw, region)
	if err != nil {
		return "", goerrors.New(
			fmt.Sprintf("invalid phone number: %v", err),
			goerrors.CategoryValidation,
		).WithCode(goerrors.CodeBadRequest)
	}

	if !phonenumbers.IsValidNumber(num) {
		return "", goerrors.New(
			"invalid phone number",
			goerrors.CategoryValidation,
		).WithCode(goerrors.CodeBadRequest)
	}

	return strings.TrimPrefix(phonenumbers.Format(num, phonenumbers.E164), "+"), nil
}

// FormatAmount renders a rupee amount the way the message template
// expects it, e.g. 12500 becomes "₹12,500.00".
func FormatAmount(amount float64) string {
	s := fmt.Sprintf("%.2f", amount)

	whole, frac, _ := strings.Cut(s, ".")

	neg := strings.HasPrefix(whole, "-")
	whole = strings.TrimPrefix(whole, "-")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	out := "₹" + b.String() + "." + frac
	if neg {
		out = "-" + out
	}
	return out
}
