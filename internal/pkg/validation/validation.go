// Package validation holds the form-level checks applied before user input
// reaches the session or data layers.
package validation

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// Error is a user-facing validation failure
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IsValidationError reports whether err is a validation failure
func IsValidationError(err error) bool {
	var v *Error
	return errors.As(err, &v)
}

func invalid(field, format string, args ...any) error {
	return &Error{Field: field, Message: fmt.Sprintf(format, args...)}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report fields by their JSON names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Struct checks the `validate` tags of a request body. The first failing
// field is returned as an *Error.
func Struct(v any) error {
	if err := validate.Struct(v); err != nil {
		return fromValidator(err)
	}
	return nil
}

func fromValidator(err error) error {
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) || len(fields) == 0 {
		return err
	}
	fe := fields[0]
	name := fe.Field()
	switch fe.Tag() {
	case "required":
		return invalid(name, "%s is required", name)
	case "email":
		return invalid(name, "%s is not valid", name)
	case "min":
		return invalid(name, "%s must be at least %s characters", name, fe.Param())
	case "max":
		return invalid(name, "%s must be at most %s characters", name, fe.Param())
	case "eqfield":
		return invalid(name, "%s does not match", name)
	}
	return invalid(name, "%s is not valid", name)
}

// MinPasswordLength is the minimum password length
const MinPasswordLength = 8

// Email checks an email address
func Email(email string) error {
	err := validate.Var(strings.TrimSpace(email), "required,email")
	if err == nil {
		return nil
	}
	var fields validator.ValidationErrors
	if errors.As(err, &fields) && len(fields) > 0 && fields[0].Tag() == "required" {
		return invalid("email", "email is required")
	}
	return invalid("email", "email is not valid")
}

// Password checks password requirements
func Password(password string) error {
	if password == "" {
		return invalid("password", "password is required")
	}
	if len(password) < MinPasswordLength {
		return invalid("password", "password must be at least %d characters", MinPasswordLength)
	}
	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return invalid("password", "password must contain letters and digits")
	}
	return nil
}

// Range is an inclusive accepted interval for a metric value
type Range struct {
	Min  float64
	Max  float64
	Unit string
}

// MetricRanges are the accepted values per health metric type
var MetricRanges = map[string]Range{
	"heart_rate":        {Min: 30, Max: 220, Unit: "bpm"},
	"blood_pressure":    {Min: 40, Max: 250, Unit: "mmHg"},
	"blood_glucose":     {Min: 20, Max: 600, Unit: "mg/dL"},
	"weight":            {Min: 1, Max: 500, Unit: "kg"},
	"temperature":       {Min: 30, Max: 45, Unit: "°C"},
	"oxygen_saturation": {Min: 50, Max: 100, Unit: "%"},
	"steps":             {Min: 0, Max: 100000, Unit: "steps"},
	"sleep":             {Min: 0, Max: 24, Unit: "hours"},
}

// HealthMetric validates a metric document: its type must be known and its
// value(s) inside the accepted range. Blood pressure values are "120/80".
func HealthMetric(doc map[string]any) error {
	metricType, _ := doc["metric_type"].(string)
	if metricType == "" {
		metricType, _ = doc["type"].(string)
	}
	if metricType == "" {
		return invalid("metric_type", "metric type is required")
	}
	r, ok := MetricRanges[metricType]
	if !ok {
		return invalid("metric_type", "unknown metric type %q", metricType)
	}

	raw, ok := doc["value"]
	if !ok || raw == nil {
		return invalid("value", "value is required")
	}

	values, err := metricValues(metricType, raw)
	if err != nil {
		return err
	}
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return invalid("value", "value must be a finite number")
		}
		if v < r.Min || v > r.Max {
			return invalid("value", "%s must be between %g and %g %s", metricType, r.Min, r.Max, r.Unit)
		}
	}
	return nil
}

func metricValues(metricType string, raw any) ([]float64, error) {
	switch v := raw.(type) {
	case float64:
		return []float64{v}, nil
	case int:
		return []float64{float64(v)}, nil
	case string:
		parts := []string{v}
		if metricType == "blood_pressure" {
			parts = strings.Split(v, "/")
			if len(parts) != 2 {
				return nil, invalid("value", "blood pressure must look like 120/80")
			}
		}
		out := make([]float64, 0, len(parts))
		for _, p := range parts {
			f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
			if err != nil {
				return nil, invalid("value", "value must be numeric")
			}
			out = append(out, f)
		}
		return out, nil
	default:
		return nil, invalid("value", "value must be numeric")
	}
}

// Alert validates a locally stored reminder
func Alert(title, clock string, days []int, minutesBefore int) error {
	if strings.TrimSpace(title) == "" {
		return invalid("title", "title is required")
	}
	if _, err := time.Parse("15:04", clock); err != nil {
		return invalid("time", "time must be HH:MM")
	}
	seen := make(map[int]bool, len(days))
	for _, d := range days {
		if d < 0 || d > 6 {
			return invalid("days", "day %d is not a weekday (0-6)", d)
		}
		if seen[d] {
			return invalid("days", "day %d listed twice", d)
		}
		seen[d] = true
	}
	if minutesBefore < 0 || minutesBefore > 24*60 {
		return invalid("minutes_before", "minutes before must be between 0 and 1440")
	}
	return nil
}
