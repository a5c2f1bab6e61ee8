package config

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

func (b BaseConfig) Validate() error {
	return validation.ValidateStruct(&b,
		validation.Field(&b.Auth),
		validation.Field(&b.Supabase),
		validation.Field(&b.Relay),
	)
}

func (a Auth) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.MaxLoginAttempts, validation.Min(0)),
		validation.Field(&a.LockoutExpression, validation.By(durationExpression)),
		validation.Field(&a.SessionTimeoutExpression, validation.By(durationExpression)),
	)
}

func (s Supabase) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.URL, is.URL),
		validation.Field(&s.JWKSUrl, is.URL),
	)
}

func (r Relay) Validate() error {
	if !r.Enabled {
		return nil
	}
	return validation.ValidateStruct(&r,
		validation.Field(&r.Endpoint, validation.Required, is.URL),
		validation.Field(&r.Token, validation.Required),
	)
}

func durationExpression(value any) error {
	expr, _ := value.(string)
	if expr == "" {
		return nil
	}
	if _, err := time.ParseDuration(expr); err != nil {
		return fmt.Errorf("invalid duration expression %q", expr)
	}
	return nil
}

// GetLockoutDuration parses the lockout window expression. Zero means use
// the built-in default.
func (a Auth) GetLockoutDuration() time.Duration {
	return parseDurationExpression(a.LockoutExpression)
}

// GetSessionTimeout parses the idle timeout expression. Zero means use the
// built-in default.
func (a Auth) GetSessionTimeout() time.Duration {
	return parseDurationExpression(a.SessionTimeoutExpression)
}

func parseDurationExpression(expr string) time.Duration {
	if expr == "" {
		return 0
	}
	dur, err := time.ParseDuration(expr)
	if err != nil {
		panic(
			fmt.Sprintf("unable to parse time: expr %s", expr),
		)
	}
	return dur
}

func (p Persistence) GetPingTimeout() time.Duration {
	if p.PingTimeoutExpression == "" {
		return 5 * time.Second
	}
	dur, err := time.ParseDuration(p.PingTimeoutExpression)
	if err != nil {
		panic(
			fmt.Sprintf("unable to parse time: expr %s", p.PingTimeoutExpression),
		)
	}
	return dur
}
