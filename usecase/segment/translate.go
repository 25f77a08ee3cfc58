package segment

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pulsecrm/backend/domain"
	"github.com/pulsecrm/backend/internal/infrastructure/textgen"
	"github.com/pulsecrm/backend/rules"
)

// Translator turns a free-text audience objective into a structured rule tree
// using the external text generator. Generator output is untrusted: it must
// parse as a rule document and compile through the predicate builder before it
// is returned, exactly like a hand-written rule.
type Translator struct {
	generator textgen.Generator
	timeout   time.Duration
	logger    *zap.Logger
}

func NewTranslator(generator textgen.Generator, timeout time.Duration, logger *zap.Logger) *Translator {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Translator{
		generator: generator,
		timeout:   timeout,
		logger:    logger,
	}
}

func (t *Translator) Translate(ctx context.Context, objective string) (json.RawMessage, error) {
	objective = strings.TrimSpace(objective)
	if objective == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "objective is required")
	}

	genCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	text, err := t.generator.Generate(genCtx, buildPrompt(objective))
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "rule translation failed", err)
	}

	raw := extractJSON(text)
	tree, err := rules.Parse([]byte(raw))
	if err != nil {
		t.logger.Warn("translator produced invalid rule", zap.String("objective", objective), zap.Error(err))
		return nil, domain.WrapError(domain.ErrCodeInvalid, "translated rule is invalid", err)
	}
	if _, err := rules.Compile(tree, time.Now()); err != nil {
		t.logger.Warn("translator produced uncompilable rule", zap.String("objective", objective), zap.Error(err))
		return nil, domain.WrapError(domain.ErrCodeInvalid, "translated rule is invalid", err)
	}

	// Re-marshal so callers get the canonical document, not the raw output.
	canonical, err := json.Marshal(tree)
	if err != nil {
		return nil, err
	}
	return canonical, nil
}

func buildPrompt(objective string) string {
	registry := rules.Fields()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]string, 0, len(names))
	for _, name := range names {
		switch registry[name] {
		case rules.FieldNumeric:
			fields = append(fields, name+" (numeric: gt/gte/lt/lte/eq)")
		case rules.FieldDate:
			fields = append(fields, name+" (date: before/after/between/daysAgo)")
		default:
			fields = append(fields, name+" (string: contains/startsWith/endsWith/equals)")
		}
	}

	return fmt.Sprintf(`Convert the marketing objective into a customer segmentation rule.
Respond with JSON only, no prose. The document is either a single condition
{"field":...,"operator":...,"value":...} or a composite
{"type":"AND"|"OR","conditions":[...]} with nested sub-rules.
Available fields: %s.
Objective: %s`, strings.Join(fields, ", "), objective)
}

// extractJSON tolerates generators that wrap their answer in a code fence.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	if start := strings.Index(text, "```"); start >= 0 {
		text = text[start+3:]
		text = strings.TrimPrefix(text, "json")
		if end := strings.Index(text, "```"); end >= 0 {
			text = text[:end]
		}
	}
	return strings.TrimSpace(text)
}
