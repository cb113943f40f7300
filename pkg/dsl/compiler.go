package dsl

import (
	"fmt"
	"strings"

	"github.com/getmockd/oasmock/internal/jsonvalue"
	"github.com/getmockd/oasmock/pkg/oas"
)

// Reserved state keys.
const (
	KeyCode  = "$code"
	KeyTimes = "$times"
	KeySize  = "$size"
)

// TimesProperty is the sentinel property carrying $times inside response schemas.
const TimesProperty = "x-unmock-times"

// Mode controls how malformed directives are handled.
type Mode int

const (
	// Relaxed ignores malformed directives.
	Relaxed Mode = iota
	// Strict reports malformed directives as *DirectiveError.
	Strict
)

func (m Mode) String() string {
	if m == Strict {
		return "strict"
	}
	return "relaxed"
}

// ParseMode parses "strict" or "relaxed" (case-insensitive). The empty string is Relaxed.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "relaxed":
		return Relaxed, nil
	case "strict":
		return Strict, nil
	default:
		return Relaxed, fmt.Errorf("unknown DSL mode %q (expected strict or relaxed)", s)
	}
}

// ModeFor returns Strict when strict is true.
func ModeFor(strict bool) Mode {
	if strict {
		return Strict
	}
	return Relaxed
}

// IsReserved reports whether key is a directive rather than a property constraint.
func IsReserved(key string) bool {
	return key == KeyCode || key == KeyTimes || key == KeySize
}

// Compiler translates directives. The zero value compiles in Relaxed mode.
type Compiler struct {
	Mode Mode
}

// Translation is the result of TranslateDSLToOAS.
type Translation struct {
	// Translated holds the schema keywords produced by the directives. It is never nil.
	Translated *oas.Schema
	// Cleaned is a copy of the state without the translated directives.
	Cleaned map[string]any
}

// Action is the result of ActTopLevelFromOAS.
type Action struct {
	// Parsed is the responses map to serve now, without sentinels.
	Parsed oas.CodeToMedia
	// NewState is the responses map to keep for the next call, with every counter decremented.
	// Entries whose counter ran out are removed.
	NewState oas.CodeToMedia
}

// TranslateTopLevelToOAS applies the top-level directives of a state to responses. A valid
// $times adds the sentinel property to every content-type schema of every status code. The
// input is not modified; nil responses yield nil.
func (c Compiler) TranslateTopLevelToOAS(top map[string]any, responses oas.CodeToMedia) (oas.CodeToMedia, error) {
	if responses == nil {
		return nil, nil
	}
	out := responses.Clone()

	value, ok := top[KeyTimes]
	if !ok || value == nil {
		return out, nil
	}
	times, err := parsePositive(KeyTimes, value)
	if err != nil {
		if c.Mode == Strict {
			return nil, err
		}
		return out, nil
	}

	for _, media := range out {
		for contentType, schema := range media {
			if schema == nil {
				schema = &oas.Schema{}
				media[contentType] = schema
			}
			if schema.Properties == nil {
				schema.Properties = make(map[string]*oas.Schema, 1)
			}
			schema.Properties[TimesProperty] = newSentinel(Active(times))
		}
	}
	return out, nil
}

// TranslateDSLToOAS translates the $size directive of state against schema. $size must be
// numeric, round to a positive integer and target an array schema, checked in that order.
// Relaxed mode leaves a failing $size in Cleaned and translates nothing. The input state is not
// modified.
func (c Compiler) TranslateDSLToOAS(state map[string]any, schema *oas.Schema) (*Translation, error) {
	result := &Translation{
		Translated: &oas.Schema{},
		Cleaned:    cloneState(state),
	}

	value, ok := state[KeySize]
	if !ok {
		return result, nil
	}
	size, err := parsePositive(KeySize, value)
	if err == nil && schema.Kind() != oas.KindArray {
		err = &DirectiveError{Directive: KeySize, Check: CheckNonArray, Value: value}
	}
	if err != nil {
		if c.Mode == Strict {
			return nil, err
		}
		return result, nil
	}

	delete(result.Cleaned, KeySize)
	result.Translated.MinItems = oas.Ptr(size)
	result.Translated.MaxItems = oas.Ptr(size)
	return result, nil
}

// ActTopLevelFromOAS consumes one use of every $times counter in responses. Schemas without
// the sentinel are copied unchanged into both views. The input is not modified.
func ActTopLevelFromOAS(responses oas.CodeToMedia) *Action {
	action := &Action{
		Parsed:   make(oas.CodeToMedia, len(responses)),
		NewState: make(oas.CodeToMedia, len(responses)),
	}
	for code, media := range responses {
		parsed := make(map[string]*oas.Schema, len(media))
		next := make(map[string]*oas.Schema, len(media))
		for contentType, schema := range media {
			sentinel := schema.Property(TimesProperty)
			if sentinel == nil {
				parsed[contentType] = schema.Clone()
				next[contentType] = schema.Clone()
				continue
			}

			served := schema.Clone()
			delete(served.Properties, TimesProperty)
			if len(served.Properties) == 0 {
				served.Properties = nil
			}
			parsed[contentType] = served

			if remaining := sentinelTimes(sentinel).Consume(); remaining.IsActive() {
				kept := schema.Clone()
				kept.Properties[TimesProperty] = newSentinel(remaining)
				next[contentType] = kept
			}
		}
		action.Parsed[code] = parsed
		action.NewState[code] = next
	}
	return action
}

func parsePositive(directive string, value any) (int, error) {
	n, ok := jsonvalue.Round(value)
	if !ok {
		return 0, &DirectiveError{Directive: directive, Check: CheckNonNumeric, Value: value}
	}
	if n <= 0 {
		return 0, &DirectiveError{Directive: directive, Check: CheckNonPositive, Value: value}
	}
	return n, nil
}

func cloneState(state map[string]any) map[string]any {
	out := make(map[string]any, len(state))
	for k, v := range state {
		out[k] = oas.CloneValue(v)
	}
	return out
}
