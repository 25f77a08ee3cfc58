package rules

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/pulsecrm/backend/domain"
)

func fixtureCustomers() []domain.Customer {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	return []domain.Customer{
		{ID: "c1", Name: "Ada", Email: "ada@example.com", Location: "Berlin", TotalSpend: 1200, VisitCount: 3, LastVisit: base},
		{ID: "c2", Name: "Grace", Email: "grace@example.com", Location: "Paris", TotalSpend: 50, VisitCount: 1, LastVisit: base.AddDate(0, 0, -90)},
		{ID: "c3", Name: "Linus", Email: "linus@example.com", Location: "Berlin", TotalSpend: 800, VisitCount: 5, LastVisit: base.AddDate(0, 0, -10)},
		{ID: "c4", Name: "Margaret", Email: "margaret@example.com", Location: "Oslo", TotalSpend: 2000, VisitCount: 1, LastVisit: base.AddDate(0, 0, -200)},
		{ID: "c5", Name: "Dennis", Email: "dennis@example.com", Location: "Paris", TotalSpend: 300, VisitCount: 8, LastVisit: base.AddDate(0, 0, -2)},
	}
}

func matchedIDs(t *testing.T, tree *Tree, customers []domain.Customer) []string {
	t.Helper()
	set, err := Evaluate(tree, customers)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	return SortedIDs(set)
}

func TestEvaluateAndIntersection(t *testing.T) {
	customers := fixtureCustomers()
	tree := &Tree{Type: TypeAnd, Conditions: []Tree{
		{Field: "totalSpend", Operator: "gt", Value: 500.0},
		{Field: "visitCount", Operator: "gte", Value: 3.0},
	}}

	got := matchedIDs(t, tree, customers)
	want := []string{"c1", "c3"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("AND match set: got %v, want %v", got, want)
	}
}

func TestEvaluateOrUnion(t *testing.T) {
	customers := fixtureCustomers()
	tree := &Tree{Type: TypeOr, Conditions: []Tree{
		{Field: "totalSpend", Operator: "gt", Value: 1000.0},
		{Field: "location", Operator: "equals", Value: "Paris"},
	}}

	got := matchedIDs(t, tree, customers)
	want := []string{"c1", "c2", "c4", "c5"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("OR match set: got %v, want %v", got, want)
	}
}

func TestSingleConditionEqualsWrappedCondition(t *testing.T) {
	customers := fixtureCustomers()
	leaf := &Tree{Field: "visitCount", Operator: "gte", Value: 3.0}
	wrapped := &Tree{Type: TypeAnd, Conditions: []Tree{*leaf}}

	if got, want := matchedIDs(t, wrapped, customers), matchedIDs(t, leaf, customers); !reflect.DeepEqual(got, want) {
		t.Fatalf("AND of one condition diverged from bare condition: %v vs %v", got, want)
	}
}

func TestAndResultIsSubsetOfEachBranch(t *testing.T) {
	customers := fixtureCustomers()
	left := &Tree{Field: "totalSpend", Operator: "gt", Value: 500.0}
	right := &Tree{Field: "location", Operator: "equals", Value: "Berlin"}
	both := &Tree{Type: TypeAnd, Conditions: []Tree{*left, *right}}

	conj, err := Evaluate(both, customers)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	for _, branch := range []*Tree{left, right} {
		branchSet, err := Evaluate(branch, customers)
		if err != nil {
			t.Fatalf("Evaluate branch: %v", err)
		}
		for id := range conj {
			if _, ok := branchSet[id]; !ok {
				t.Fatalf("id %s in conjunction but not in branch %+v", id, branch)
			}
		}
	}
}

func TestEvaluateIsDeterministic(t *testing.T) {
	customers := fixtureCustomers()
	tree := &Tree{Type: TypeOr, Conditions: []Tree{
		{Field: "totalSpend", Operator: "gte", Value: 300.0},
		{Field: "name", Operator: "startsWith", Value: "G"},
	}}

	first := matchedIDs(t, tree, customers)
	for i := 0; i < 5; i++ {
		if got := matchedIDs(t, tree, customers); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d diverged: got %v, want %v", i, got, first)
		}
	}
}

func TestEvaluateNestedComposition(t *testing.T) {
	customers := fixtureCustomers()
	// Big spenders anywhere, or any Paris customer with several visits.
	tree := &Tree{Type: TypeOr, Conditions: []Tree{
		{Field: "totalSpend", Operator: "gte", Value: 1200.0},
		{Type: TypeAnd, Conditions: []Tree{
			{Field: "location", Operator: "equals", Value: "Paris"},
			{Field: "visitCount", Operator: "gt", Value: 2.0},
		}},
	}}

	got := matchedIDs(t, tree, customers)
	want := []string{"c1", "c4", "c5"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("nested match set: got %v, want %v", got, want)
	}
}

func TestEvaluateAbortsOnInvalidBranch(t *testing.T) {
	customers := fixtureCustomers()
	tree := &Tree{Type: TypeOr, Conditions: []Tree{
		{Field: "totalSpend", Operator: "gt", Value: 0.0},
		{Field: "loyaltyTier", Operator: "eq", Value: 1.0},
	}}

	set, err := Evaluate(tree, customers)
	if err == nil {
		t.Fatalf("expected error for unknown field in second branch")
	}
	if set != nil {
		t.Fatalf("no partial match set may be returned, got %v", set)
	}
	var target *UnsupportedFieldError
	if !errors.As(err, &target) {
		t.Fatalf("expected UnsupportedFieldError, got %T: %v", err, err)
	}
}

func TestEvaluateEmptyCollection(t *testing.T) {
	tree := &Tree{Field: "totalSpend", Operator: "gt", Value: 0.0}
	set, err := Evaluate(tree, nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(set) != 0 {
		t.Fatalf("empty collection must yield empty set, got %v", set)
	}
}

func TestValidateRejectsMalformedTrees(t *testing.T) {
	deep := Tree{Field: "totalSpend", Operator: "gt", Value: 1.0}
	for i := 0; i <= MaxDepth; i++ {
		deep = Tree{Type: TypeAnd, Conditions: []Tree{deep}}
	}

	tests := []struct {
		name string
		tree *Tree
	}{
		{"nil tree", nil},
		{"empty composite", &Tree{Type: TypeAnd}},
		{"unknown connective", &Tree{Type: "XOR", Conditions: []Tree{{Field: "name", Operator: "equals", Value: "x"}}}},
		{"leaf without operator", &Tree{Field: "name"}},
		{"nesting beyond limit", &deep},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.tree.Validate()
			if err == nil {
				t.Fatalf("expected validation error")
			}
			var target *ValidationError
			if !errors.As(err, &target) {
				t.Fatalf("expected ValidationError, got %T: %v", err, err)
			}
		})
	}
}

func TestParseRoundTrip(t *testing.T) {
	raw := []byte(`{
		"type": "AND",
		"conditions": [
			{"field": "totalSpend", "operator": "gt", "value": 500},
			{"type": "OR", "conditions": [
				{"field": "location", "operator": "equals", "value": "Berlin"},
				{"field": "visitCount", "operator": "gte", "value": 3}
			]}
		]
	}`)

	tree, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if tree.Type != TypeAnd || len(tree.Conditions) != 2 {
		t.Fatalf("unexpected root: %+v", tree)
	}
	inner := tree.Conditions[1]
	if inner.Type != TypeOr || len(inner.Conditions) != 2 {
		t.Fatalf("unexpected inner node: %+v", inner)
	}

	got := matchedIDs(t, tree, fixtureCustomers())
	want := []string{"c1", "c3"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("parsed tree match set: got %v, want %v", got, want)
	}
}

func TestParseRejectsEmptyAndMalformed(t *testing.T) {
	if _, err := Parse(nil); !errors.Is(err, ErrEmptyRule) {
		t.Fatalf("Parse(nil): got %v, want ErrEmptyRule", err)
	}
	if _, err := Parse([]byte(`{"type": "AND", "conditions": [`)); err == nil {
		t.Fatalf("expected error for truncated JSON")
	}
}
