package rules

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pulsecrm/backend/domain"
)

// Predicate is a pure boolean test over one customer record.
type Predicate func(*domain.Customer) bool

// FieldType classifies a registry field for operator dispatch.
type FieldType int

const (
	FieldNumeric FieldType = iota
	FieldDate
	FieldString
)

// fieldSpec is a typed accessor into the customer record. The registry is
// closed: conditions may only reference enumerated fields, never arbitrary
// record keys.
type fieldSpec struct {
	kind   FieldType
	number func(*domain.Customer) float64
	date   func(*domain.Customer) time.Time
	str    func(*domain.Customer) string
}

var fieldRegistry = map[string]fieldSpec{
	"totalSpend": {kind: FieldNumeric, number: func(c *domain.Customer) float64 { return c.TotalSpend }},
	"visitCount": {kind: FieldNumeric, number: func(c *domain.Customer) float64 { return float64(c.VisitCount) }},
	"lastVisit":  {kind: FieldDate, date: func(c *domain.Customer) time.Time { return c.LastVisit }},
	"createdAt":  {kind: FieldDate, date: func(c *domain.Customer) time.Time { return c.CreatedAt }},
	"email":      {kind: FieldString, str: func(c *domain.Customer) string { return c.Email }},
	"name":       {kind: FieldString, str: func(c *domain.Customer) string { return c.Name }},
	"phone":      {kind: FieldString, str: func(c *domain.Customer) string { return c.Phone }},
	"location":   {kind: FieldString, str: func(c *domain.Customer) string { return c.Location }},
}

var (
	numericOps = map[string]bool{"gt": true, "gte": true, "lt": true, "lte": true, "eq": true}
	dateOps    = map[string]bool{"before": true, "after": true, "between": true, "daysAgo": true}
	stringOps  = map[string]bool{"contains": true, "startsWith": true, "endsWith": true, "equals": true}
)

// Fields returns the registered field names, for API discovery and translator
// prompts.
func Fields() map[string]FieldType {
	out := make(map[string]FieldType, len(fieldRegistry))
	for name, spec := range fieldRegistry {
		out[name] = spec.kind
	}
	return out
}

// BuildCondition compiles one condition into an executable predicate. All
// field/operator/value incompatibilities surface here, before any customer is
// scanned, so a malformed rule never yields a partial match set. The supplied
// reference time anchors relative date operators for the whole evaluation.
func BuildCondition(cond Condition, now time.Time) (Predicate, error) {
	spec, ok := fieldRegistry[cond.Field]
	if !ok {
		return nil, &UnsupportedFieldError{Field: cond.Field}
	}
	switch spec.kind {
	case FieldNumeric:
		return buildNumeric(cond, spec)
	case FieldDate:
		return buildDate(cond, spec, now)
	default:
		return buildString(cond, spec)
	}
}

func buildNumeric(cond Condition, spec fieldSpec) (Predicate, error) {
	if !numericOps[cond.Operator] {
		return nil, operatorMismatch(cond)
	}
	want, err := coerceNumber(cond.Value)
	if err != nil {
		return nil, &InvalidValueError{Field: cond.Field, Operator: cond.Operator, Reason: err.Error()}
	}
	get := spec.number
	switch cond.Operator {
	case "gt":
		return func(c *domain.Customer) bool { return get(c) > want }, nil
	case "gte":
		return func(c *domain.Customer) bool { return get(c) >= want }, nil
	case "lt":
		return func(c *domain.Customer) bool { return get(c) < want }, nil
	case "lte":
		return func(c *domain.Customer) bool { return get(c) <= want }, nil
	default: // eq
		return func(c *domain.Customer) bool { return get(c) == want }, nil
	}
}

func buildDate(cond Condition, spec fieldSpec, now time.Time) (Predicate, error) {
	if !dateOps[cond.Operator] {
		return nil, operatorMismatch(cond)
	}
	get := spec.date

	switch cond.Operator {
	case "before":
		at, err := coerceTime(cond)
		if err != nil {
			return nil, err
		}
		return func(c *domain.Customer) bool { return get(c).Before(at) }, nil

	case "after":
		at, err := coerceTime(cond)
		if err != nil {
			return nil, err
		}
		return func(c *domain.Customer) bool { return get(c).After(at) }, nil

	case "between":
		from, until, err := coerceTimeRange(cond)
		if err != nil {
			return nil, err
		}
		return func(c *domain.Customer) bool {
			v := get(c)
			return !v.Before(from) && !v.After(until)
		}, nil

	default: // daysAgo
		days, err := coerceDays(cond)
		if err != nil {
			return nil, err
		}
		// Cutoff is bound once here, not re-derived per customer: the
		// condition answers "as of now".
		cutoff := now.AddDate(0, 0, -days)
		return func(c *domain.Customer) bool { return get(c).Before(cutoff) }, nil
	}
}

func buildString(cond Condition, spec fieldSpec) (Predicate, error) {
	if !stringOps[cond.Operator] {
		return nil, operatorMismatch(cond)
	}
	want, ok := cond.Value.(string)
	if !ok {
		return nil, &InvalidValueError{Field: cond.Field, Operator: cond.Operator, Reason: "value must be a string"}
	}
	get := spec.str
	switch cond.Operator {
	case "contains":
		return func(c *domain.Customer) bool { return strings.Contains(get(c), want) }, nil
	case "startsWith":
		return func(c *domain.Customer) bool { return strings.HasPrefix(get(c), want) }, nil
	case "endsWith":
		return func(c *domain.Customer) bool { return strings.HasSuffix(get(c), want) }, nil
	default: // equals
		return func(c *domain.Customer) bool { return get(c) == want }, nil
	}
}

// operatorMismatch distinguishes an operator that belongs to another field
// type from one that is unknown everywhere.
func operatorMismatch(cond Condition) error {
	if numericOps[cond.Operator] || dateOps[cond.Operator] || stringOps[cond.Operator] {
		return &InvalidFieldTypeError{Field: cond.Field, Operator: cond.Operator}
	}
	return &UnsupportedOperatorError{Field: cond.Field, Operator: cond.Operator}
}

func coerceNumber(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not a number", n)
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("value %v is not a number", v)
	}
}

var timeLayouts = []string{time.RFC3339, "2006-01-02"}

func parseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func coerceTime(cond Condition) (time.Time, error) {
	s, ok := cond.Value.(string)
	if !ok {
		return time.Time{}, &InvalidValueError{Field: cond.Field, Operator: cond.Operator, Reason: "value must be a timestamp string"}
	}
	t, ok := parseTime(s)
	if !ok {
		return time.Time{}, &InvalidValueError{Field: cond.Field, Operator: cond.Operator, Reason: fmt.Sprintf("%q is not a timestamp", s)}
	}
	return t, nil
}

// coerceTimeRange parses a comma-separated pair of timestamps. Exactly two
// parseable endpoints are required; the range is inclusive on both bounds.
func coerceTimeRange(cond Condition) (time.Time, time.Time, error) {
	s, ok := cond.Value.(string)
	if !ok {
		return time.Time{}, time.Time{}, &InvalidValueError{Field: cond.Field, Operator: cond.Operator, Reason: "value must be a comma-separated timestamp pair"}
	}
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return time.Time{}, time.Time{}, &InvalidValueError{Field: cond.Field, Operator: cond.Operator, Reason: "between requires exactly two endpoints"}
	}
	from, okFrom := parseTime(parts[0])
	until, okUntil := parseTime(parts[1])
	if !okFrom || !okUntil {
		return time.Time{}, time.Time{}, &InvalidValueError{Field: cond.Field, Operator: cond.Operator, Reason: fmt.Sprintf("%q is not a timestamp pair", s)}
	}
	return from, until, nil
}

func coerceDays(cond Condition) (int, error) {
	n, err := coerceNumber(cond.Value)
	if err != nil {
		return 0, &InvalidValueError{Field: cond.Field, Operator: cond.Operator, Reason: err.Error()}
	}
	if n != float64(int(n)) || n < 0 {
		return 0, &InvalidValueError{Field: cond.Field, Operator: cond.Operator, Reason: "daysAgo requires a non-negative whole number"}
	}
	return int(n), nil
}
