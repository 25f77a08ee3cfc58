package rules

import (
	"sort"
	"time"

	"github.com/pulsecrm/backend/domain"
)

// Compile fuses the whole tree into a single predicate so the customer
// collection is scanned once regardless of condition count. Every condition is
// validated during compilation; no customer is tested until the entire rule is
// known to be well formed. The reference time anchors relative date operators
// for the lifetime of the compiled predicate.
func Compile(t *Tree, now time.Time) (Predicate, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return compile(t, now)
}

func compile(t *Tree, now time.Time) (Predicate, error) {
	if t.IsLeaf() {
		return BuildCondition(t.Leaf(), now)
	}

	children := make([]Predicate, len(t.Conditions))
	for i := range t.Conditions {
		p, err := compile(&t.Conditions[i], now)
		if err != nil {
			return nil, err
		}
		children[i] = p
	}

	if t.Type == TypeAnd {
		return func(c *domain.Customer) bool {
			for _, p := range children {
				if !p(c) {
					return false
				}
			}
			return true
		}, nil
	}
	return func(c *domain.Customer) bool {
		for _, p := range children {
			if p(c) {
				return true
			}
		}
		return false
	}, nil
}

// Evaluate returns the ids of customers matching the rule tree. The result is
// an unordered set; callers needing a stable sample must sort separately. For
// a fixed collection and wall-clock moment the result is deterministic.
func Evaluate(t *Tree, customers []domain.Customer) (map[string]struct{}, error) {
	pred, err := Compile(t, time.Now())
	if err != nil {
		return nil, err
	}

	matched := make(map[string]struct{})
	for i := range customers {
		if pred(&customers[i]) {
			matched[customers[i].ID] = struct{}{}
		}
	}
	return matched, nil
}

// SortedIDs flattens a match set into a deterministic slice.
func SortedIDs(set map[string]struct{}) []string {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
