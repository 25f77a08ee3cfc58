package segment

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pulsecrm/backend/domain"
	"github.com/pulsecrm/backend/rules"
)

type fakeGenerator struct {
	reply  string
	err    error
	prompt string
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.prompt = prompt
	return g.reply, g.err
}

func TestTranslateValidOutput(t *testing.T) {
	gen := &fakeGenerator{reply: `{"type":"AND","conditions":[{"field":"totalSpend","operator":"gt","value":500}]}`}
	tr := NewTranslator(gen, time.Second, nil)

	raw, err := tr.Translate(context.Background(), "customers who spent over 500")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}

	tree, err := rules.Parse(raw)
	if err != nil {
		t.Fatalf("translated document does not parse: %v", err)
	}
	if tree.Type != rules.TypeAnd || len(tree.Conditions) != 1 {
		t.Fatalf("unexpected tree: %+v", tree)
	}
	if gen.prompt == "" {
		t.Fatalf("generator was not prompted")
	}
}

func TestTranslateStripsCodeFence(t *testing.T) {
	gen := &fakeGenerator{reply: "```json\n{\"field\":\"location\",\"operator\":\"equals\",\"value\":\"Berlin\"}\n```"}
	tr := NewTranslator(gen, time.Second, nil)

	raw, err := tr.Translate(context.Background(), "customers in Berlin")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if _, err := rules.Parse(raw); err != nil {
		t.Fatalf("fenced output did not survive extraction: %v", err)
	}
}

func TestTranslateRejectsInvalidOutput(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"prose instead of JSON", "I would suggest targeting big spenders."},
		{"unknown field", `{"field":"loyaltyTier","operator":"eq","value":1}`},
		{"operator of wrong type", `{"field":"email","operator":"gt","value":"a"}`},
		{"empty composite", `{"type":"AND","conditions":[]}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tr := NewTranslator(&fakeGenerator{reply: tc.reply}, time.Second, nil)
			_, err := tr.Translate(context.Background(), "objective")
			if !domain.IsDomainError(err, domain.ErrCodeInvalid) {
				t.Fatalf("expected INVALID, got %v", err)
			}
		})
	}
}

func TestTranslatePromptIsStable(t *testing.T) {
	gen := &fakeGenerator{reply: `{"field":"totalSpend","operator":"gt","value":1}`}
	tr := NewTranslator(gen, time.Second, nil)

	if _, err := tr.Translate(context.Background(), "big spenders"); err != nil {
		t.Fatalf("Translate: %v", err)
	}
	first := gen.prompt

	for i := 0; i < 5; i++ {
		if _, err := tr.Translate(context.Background(), "big spenders"); err != nil {
			t.Fatalf("Translate: %v", err)
		}
		if gen.prompt != first {
			t.Fatalf("prompt changed between identical calls:\n%s\nvs\n%s", gen.prompt, first)
		}
	}

	// Field names appear in lexical order.
	order := []string{"createdAt", "email", "lastVisit", "location", "name", "phone", "totalSpend", "visitCount"}
	pos := -1
	for _, name := range order {
		idx := strings.Index(first, name+" (")
		if idx < 0 {
			t.Fatalf("prompt missing field %q:\n%s", name, first)
		}
		if idx < pos {
			t.Fatalf("field %q out of order in prompt:\n%s", name, first)
		}
		pos = idx
	}
}

func TestTranslateGeneratorFailure(t *testing.T) {
	tr := NewTranslator(&fakeGenerator{err: errors.New("upstream unavailable")}, time.Second, nil)
	_, err := tr.Translate(context.Background(), "objective")
	if !domain.IsDomainError(err, domain.ErrCodeInternal) {
		t.Fatalf("expected INTERNAL, got %v", err)
	}
}

func TestTranslateEmptyObjective(t *testing.T) {
	tr := NewTranslator(&fakeGenerator{}, time.Second, nil)
	_, err := tr.Translate(context.Background(), "   ")
	if !domain.IsDomainError(err, domain.ErrCodeInvalid) {
		t.Fatalf("expected INVALID for blank objective, got %v", err)
	}
}
