package rules

import (
	"errors"
	"testing"
	"time"

	"github.com/pulsecrm/backend/domain"
)

func mustBuild(t *testing.T, cond Condition, now time.Time) Predicate {
	t.Helper()
	pred, err := BuildCondition(cond, now)
	if err != nil {
		t.Fatalf("BuildCondition(%+v): %v", cond, err)
	}
	return pred
}

func TestBuildConditionErrors(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		cond Condition
		want interface{}
	}{
		{
			name: "unknown field",
			cond: Condition{Field: "loyaltyTier", Operator: "eq", Value: 1.0},
			want: &UnsupportedFieldError{},
		},
		{
			name: "numeric operator on string field",
			cond: Condition{Field: "email", Operator: "gt", Value: "a"},
			want: &InvalidFieldTypeError{},
		},
		{
			name: "string operator on numeric field",
			cond: Condition{Field: "totalSpend", Operator: "contains", Value: "5"},
			want: &InvalidFieldTypeError{},
		},
		{
			name: "date operator on numeric field",
			cond: Condition{Field: "visitCount", Operator: "before", Value: "2024-01-01"},
			want: &InvalidFieldTypeError{},
		},
		{
			name: "operator unknown everywhere",
			cond: Condition{Field: "totalSpend", Operator: "approximately", Value: 5.0},
			want: &UnsupportedOperatorError{},
		},
		{
			name: "non numeric value",
			cond: Condition{Field: "totalSpend", Operator: "gt", Value: "plenty"},
			want: &InvalidValueError{},
		},
		{
			name: "non string value for string operator",
			cond: Condition{Field: "name", Operator: "contains", Value: 42.0},
			want: &InvalidValueError{},
		},
		{
			name: "unparseable timestamp",
			cond: Condition{Field: "lastVisit", Operator: "before", Value: "yesterday"},
			want: &InvalidValueError{},
		},
		{
			name: "between with one endpoint",
			cond: Condition{Field: "lastVisit", Operator: "between", Value: "2024-01-01"},
			want: &InvalidValueError{},
		},
		{
			name: "between with three endpoints",
			cond: Condition{Field: "lastVisit", Operator: "between", Value: "2024-01-01,2024-02-01,2024-03-01"},
			want: &InvalidValueError{},
		},
		{
			name: "negative daysAgo",
			cond: Condition{Field: "lastVisit", Operator: "daysAgo", Value: -3.0},
			want: &InvalidValueError{},
		},
		{
			name: "fractional daysAgo",
			cond: Condition{Field: "lastVisit", Operator: "daysAgo", Value: 2.5},
			want: &InvalidValueError{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := BuildCondition(tc.cond, now)
			if err == nil {
				t.Fatalf("expected error, got none")
			}
			if !IsRuleError(err) {
				t.Fatalf("IsRuleError(%v) = false", err)
			}
			matched := false
			switch tc.want.(type) {
			case *UnsupportedFieldError:
				var target *UnsupportedFieldError
				matched = errors.As(err, &target)
			case *UnsupportedOperatorError:
				var target *UnsupportedOperatorError
				matched = errors.As(err, &target)
			case *InvalidValueError:
				var target *InvalidValueError
				matched = errors.As(err, &target)
			case *InvalidFieldTypeError:
				var target *InvalidFieldTypeError
				matched = errors.As(err, &target)
			}
			if !matched {
				t.Fatalf("error %v (%T) is not the expected kind %T", err, err, tc.want)
			}
		})
	}
}

func TestNumericBoundaries(t *testing.T) {
	now := time.Now()
	customer := &domain.Customer{ID: "c1", TotalSpend: 500}

	tests := []struct {
		operator string
		value    float64
		match    bool
	}{
		{"gt", 500, false},
		{"gt", 499.99, true},
		{"gte", 500, true},
		{"gte", 500.01, false},
		{"lt", 500, false},
		{"lt", 500.01, true},
		{"lte", 500, true},
		{"lte", 499.99, false},
		{"eq", 500, true},
		{"eq", 499, false},
	}

	for _, tc := range tests {
		pred := mustBuild(t, Condition{Field: "totalSpend", Operator: tc.operator, Value: tc.value}, now)
		if got := pred(customer); got != tc.match {
			t.Fatalf("totalSpend %s %v on spend=500: got %v, want %v", tc.operator, tc.value, got, tc.match)
		}
	}
}

func TestNumericValueCoercion(t *testing.T) {
	now := time.Now()
	customer := &domain.Customer{ID: "c1", VisitCount: 7}

	for _, value := range []interface{}{7.0, 7, int64(7), "7"} {
		pred := mustBuild(t, Condition{Field: "visitCount", Operator: "eq", Value: value}, now)
		if !pred(customer) {
			t.Fatalf("visitCount eq %v (%T) did not match count 7", value, value)
		}
	}
}

func TestDateOperators(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	pivot := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	visited := func(at time.Time) *domain.Customer {
		return &domain.Customer{ID: "c1", LastVisit: at}
	}

	before := mustBuild(t, Condition{Field: "lastVisit", Operator: "before", Value: "2024-06-01"}, now)
	if !before(visited(pivot.Add(-time.Hour))) {
		t.Fatalf("before: earlier visit should match")
	}
	if before(visited(pivot)) {
		t.Fatalf("before is exclusive, boundary must not match")
	}

	after := mustBuild(t, Condition{Field: "lastVisit", Operator: "after", Value: "2024-06-01"}, now)
	if !after(visited(pivot.Add(time.Hour))) {
		t.Fatalf("after: later visit should match")
	}
	if after(visited(pivot)) {
		t.Fatalf("after is exclusive, boundary must not match")
	}

	between := mustBuild(t, Condition{Field: "lastVisit", Operator: "between", Value: "2024-06-01,2024-06-10"}, now)
	for _, at := range []time.Time{
		time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
	} {
		if !between(visited(at)) {
			t.Fatalf("between is inclusive, %v should match", at)
		}
	}
	if between(visited(time.Date(2024, 6, 10, 0, 0, 1, 0, time.UTC))) {
		t.Fatalf("between: visit past the upper bound must not match")
	}
}

func TestDaysAgoAnchoredToReferenceTime(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	pred := mustBuild(t, Condition{Field: "lastVisit", Operator: "daysAgo", Value: 30.0}, now)

	stale := &domain.Customer{ID: "stale", LastVisit: now.AddDate(0, 0, -31)}
	fresh := &domain.Customer{ID: "fresh", LastVisit: now.AddDate(0, 0, -29)}

	if !pred(stale) {
		t.Fatalf("visit 31 days before reference time should match daysAgo 30")
	}
	if pred(fresh) {
		t.Fatalf("visit 29 days before reference time must not match daysAgo 30")
	}
}

func TestStringOperators(t *testing.T) {
	now := time.Now()
	customer := &domain.Customer{ID: "c1", Email: "ada@lovelace.dev", Name: "Ada Lovelace"}

	tests := []struct {
		field    string
		operator string
		value    string
		match    bool
	}{
		{"email", "contains", "lovelace", true},
		{"email", "contains", "turing", false},
		{"email", "startsWith", "ada@", true},
		{"email", "startsWith", "@ada", false},
		{"email", "endsWith", ".dev", true},
		{"email", "endsWith", ".io", false},
		{"name", "equals", "Ada Lovelace", true},
		{"name", "equals", "ada lovelace", false},
	}

	for _, tc := range tests {
		pred := mustBuild(t, Condition{Field: tc.field, Operator: tc.operator, Value: tc.value}, now)
		if got := pred(customer); got != tc.match {
			t.Fatalf("%s %s %q: got %v, want %v", tc.field, tc.operator, tc.value, got, tc.match)
		}
	}
}

func TestFieldsExposesRegistry(t *testing.T) {
	fields := Fields()
	expect := map[string]FieldType{
		"totalSpend": FieldNumeric,
		"visitCount": FieldNumeric,
		"lastVisit":  FieldDate,
		"createdAt":  FieldDate,
		"email":      FieldString,
		"name":       FieldString,
		"phone":      FieldString,
		"location":   FieldString,
	}
	if len(fields) != len(expect) {
		t.Fatalf("registry size: got %d, want %d", len(fields), len(expect))
	}
	for name, kind := range expect {
		got, ok := fields[name]
		if !ok {
			t.Fatalf("field %q missing from registry", name)
		}
		if got != kind {
			t.Fatalf("field %q: got kind %v, want %v", name, got, kind)
		}
	}
}
