package rules

import (
	"encoding/json"
	"fmt"
)

// Connective types for composite nodes.
const (
	TypeAnd = "AND"
	TypeOr  = "OR"
)

// MaxDepth bounds rule nesting so hostile input cannot exhaust the stack.
const MaxDepth = 64

// Condition is a single field/operator/value predicate leaf.
type Condition struct {
	Field    string      `json:"field"`
	Operator string      `json:"operator"`
	Value    interface{} `json:"value"`
}

// Tree is either a bare condition (Type empty) or an AND/OR composition of
// sub-trees. The JSON shape mirrors the persisted representation exactly.
type Tree struct {
	Type       string      `json:"type,omitempty"`
	Field      string      `json:"field,omitempty"`
	Operator   string      `json:"operator,omitempty"`
	Value      interface{} `json:"value,omitempty"`
	Conditions []Tree      `json:"conditions,omitempty"`
}

// IsLeaf reports whether the node is a bare condition.
func (t *Tree) IsLeaf() bool {
	return t != nil && t.Type == ""
}

// Leaf returns the node's condition. Only meaningful when IsLeaf is true.
func (t *Tree) Leaf() Condition {
	return Condition{Field: t.Field, Operator: t.Operator, Value: t.Value}
}

// Parse decodes a rule document and validates its structure.
func Parse(raw []byte) (*Tree, error) {
	if len(raw) == 0 {
		return nil, ErrEmptyRule
	}
	var t Tree
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, &ValidationError{Reason: fmt.Sprintf("malformed rule document: %v", err)}
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Validate checks structural invariants: at least one condition, known
// connectives, bounded nesting. Field/operator/value compatibility is checked
// separately at predicate build time.
func (t *Tree) Validate() error {
	if t == nil {
		return ErrEmptyRule
	}
	return t.validate(0)
}

func (t *Tree) validate(depth int) error {
	if depth > MaxDepth {
		return ErrTooDeep
	}
	if t.IsLeaf() {
		if t.Field == "" || t.Operator == "" {
			return ErrEmptyRule
		}
		return nil
	}
	if t.Type != TypeAnd && t.Type != TypeOr {
		return &ValidationError{Reason: fmt.Sprintf("unknown rule type %q", t.Type)}
	}
	if len(t.Conditions) == 0 {
		return ErrEmptyRule
	}
	for i := range t.Conditions {
		if err := t.Conditions[i].validate(depth + 1); err != nil {
			return err
		}
	}
	return nil
}
