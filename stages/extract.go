package stages

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
)

// ParseError means a model's output could not be coerced into the required
// schema even after the repair call. It names the stage that produced it.
type ParseError struct {
	Stage string
	Raw   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("stage %s: failed to extract valid JSON from model response", e.Stage)
}

// GenerateSchema reflects a JSON schema for structured outputs. The flags are
// required for the structured-output subset of JSON schema.
func GenerateSchema[T any]() interface{} {
	reflector := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

// schemaText renders the reflected schema of T for embedding in repair
// prompts, so the fixer model sees the exact target shape.
func schemaText[T any]() string {
	b, err := json.Marshal(GenerateSchema[T]())
	if err != nil {
		return "{}"
	}
	return string(b)
}

// stripWrappers removes the non-data markers models commonly wrap JSON in:
// code fences, leading commentary before the first brace, trailing prose
// after the matching close.
func stripWrappers(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	s = strings.TrimSpace(s)

	start := strings.IndexAny(s, "[{")
	if start < 0 {
		return s
	}
	s = s[start:]

	end := strings.LastIndexAny(s, "]}")
	if end >= 0 {
		s = s[:end+1]
	}
	return strings.TrimSpace(s)
}

// decode parses raw into T, retrying once after stripping wrapper markers.
// valid is the stage's minimum-required-keys check.
func decode[T any](raw string, valid func(*T) bool) (*T, bool) {
	try := func(s string) (*T, bool) {
		var v T
		if err := json.Unmarshal([]byte(s), &v); err != nil {
			return nil, false
		}
		if valid != nil && !valid(&v) {
			return nil, false
		}
		return &v, true
	}

	if v, ok := try(raw); ok {
		return v, true
	}
	return try(stripWrappers(raw))
}

// extract parses the primary model response, tolerating fences and
// commentary. It never issues a repair call.
func extract[T any](stage, raw string, valid func(*T) bool) (*T, error) {
	if v, ok := decode(raw, valid); ok {
		return v, nil
	}
	return nil, &ParseError{Stage: stage, Raw: raw}
}

// extractWithRepair asks the fixer model to coerce the primary response into
// the target schema, falling back to re-parsing the original output when the
// repaired one also fails.
func extractWithRepair[T any](ctx context.Context, fixer TextGenerator, stage, raw string, valid func(*T) bool) (*T, error) {
	fixPrompt := fmt.Sprintf(
		"Fix this JSON so it strictly matches the following schema. Return only the JSON object, no commentary.\n\nSCHEMA:\n%s\n\nJSON:\n%s",
		schemaText[T](), raw,
	)

	repaired, err := fixer.Generate(ctx, fixPrompt)
	if err == nil {
		if v, ok := decode(repaired, valid); ok {
			return v, nil
		}
	}

	// Repair failed to parse or lost a required key: the original response
	// may still be usable as-is.
	if v, ok := decode(raw, valid); ok {
		return v, nil
	}
	return nil, &ParseError{Stage: stage, Raw: raw}
}
