package generator

import (
	"math"
	"math/rand/v2"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/getmockd/oasmock/pkg/oas"
)

// Defaults for Generator.
const (
	// DefaultMaxItems caps arrays without a lower bound.
	DefaultMaxItems = 3
	// MaxDepth bounds recursion into cyclic schemas.
	MaxDepth = 8
)

// Generator produces example values from schemas.
type Generator struct {
	rng *rand.Rand
	now func() time.Time
}

// New creates a generator. Generators created with the same seed produce the same values for
// the same schemas.
func New(seed uint64) *Generator {
	return &Generator{
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		now: func() time.Time { return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC) },
	}
}

// Generate produces a value for schema. The priority is: const, example, enum, default,
// composition, then type-specific generation.
func (g *Generator) Generate(schema *oas.Schema) any {
	return g.generate(schema, "", 0)
}

func (g *Generator) generate(schema *oas.Schema, name string, depth int) any {
	if schema == nil || depth > MaxDepth {
		return nil
	}

	switch {
	case schema.Const != nil:
		return oas.CloneValue(schema.Const)
	case schema.Example != nil:
		return oas.CloneValue(schema.Example)
	case len(schema.Enum) > 0:
		return oas.CloneValue(schema.Enum[g.rng.IntN(len(schema.Enum))])
	case schema.Default != nil:
		return oas.CloneValue(schema.Default)
	}

	if len(schema.OneOf) > 0 {
		return g.generate(schema.OneOf[0], name, depth+1)
	}
	if len(schema.AnyOf) > 0 {
		return g.generate(schema.AnyOf[0], name, depth+1)
	}

	switch schema.Kind() {
	case oas.KindObject:
		return g.generateObject(schema, depth)
	case oas.KindArray:
		return g.generateArray(schema, depth)
	case oas.KindSentinel:
		return nil
	}

	switch schema.Type {
	case oas.TypeString:
		return g.generateString(schema, name)
	case oas.TypeInteger:
		return g.generateInteger(schema)
	case oas.TypeNumber:
		return g.generateNumber(schema)
	case oas.TypeBoolean:
		return g.rng.IntN(2) == 0
	}
	if len(schema.AllOf) > 0 {
		return g.generate(schema.AllOf[0], name, depth+1)
	}
	return nil
}

func (g *Generator) generateObject(schema *oas.Schema, depth int) any {
	props := schema.AllProperties()
	obj := make(map[string]any, len(props))
	// Sorted so the random stream is consumed in a stable order.
	for _, name := range oas.SortedKeys(props) {
		prop := props[name]
		if prop.Kind() == oas.KindSentinel {
			continue
		}
		if depth >= MaxDepth && !isRequired(schema, name) {
			continue
		}
		obj[name] = g.generate(prop, name, depth+1)
	}
	return obj
}

func (g *Generator) generateArray(schema *oas.Schema, depth int) any {
	count := 1
	if schema.MinItems != nil {
		count = *schema.MinItems
	} else if schema.MaxItems == nil || *schema.MaxItems > 0 {
		count = 1 + g.rng.IntN(DefaultMaxItems)
	}
	if schema.MaxItems != nil && *schema.MaxItems < count {
		count = *schema.MaxItems
	}
	if depth >= MaxDepth {
		count = 0
	}

	items := make([]any, count)
	for i := range items {
		items[i] = g.generate(schema.Items, "", depth+1)
	}
	return items
}

func (g *Generator) generateString(schema *oas.Schema, name string) any {
	value := g.stringByFormat(schema.Format)
	if value == "" {
		value = g.stringByName(name)
	}
	if value == "" {
		value = g.word()
	}
	if schema.MinLength != nil && len(value) < *schema.MinLength {
		value += g.letters(*schema.MinLength - len(value))
	}
	if schema.MaxLength != nil && len(value) > *schema.MaxLength {
		value = value[:*schema.MaxLength]
	}
	return value
}

func (g *Generator) generateInteger(schema *oas.Schema) any {
	lo, hi := 0, 100
	if schema.Minimum != nil {
		lo = int(math.Ceil(*schema.Minimum))
	}
	if schema.Maximum != nil {
		hi = int(math.Floor(*schema.Maximum))
	}
	if schema.Minimum != nil && schema.Maximum == nil && hi < lo {
		hi = lo + 100
	}
	if schema.Maximum != nil && schema.Minimum == nil && lo > hi {
		lo = hi - 100
	}
	if lo >= hi {
		return lo
	}
	return lo + g.rng.IntN(hi-lo+1)
}

func (g *Generator) generateNumber(schema *oas.Schema) any {
	lo, hi := 0.0, 100.0
	if schema.Minimum != nil {
		lo = *schema.Minimum
	}
	if schema.Maximum != nil {
		hi = *schema.Maximum
	}
	if schema.Minimum != nil && schema.Maximum == nil && hi < lo {
		hi = lo + 100
	}
	if schema.Maximum != nil && schema.Minimum == nil && lo > hi {
		lo = hi - 100
	}
	if lo >= hi {
		return lo
	}
	v := lo + g.rng.Float64()*(hi-lo)
	return math.Max(lo, math.Floor(v*100)/100)
}

func (g *Generator) stringByFormat(format string) string {
	switch format {
	case "uuid":
		return g.uuid()
	case "date-time":
		return g.now().Add(-time.Duration(g.rng.IntN(86400)) * time.Second).Format(time.RFC3339)
	case "date":
		return g.now().AddDate(0, 0, -g.rng.IntN(365)).Format(time.DateOnly)
	case "email":
		return g.word() + "." + g.word() + "@example.com"
	case "uri", "url":
		return "https://example.com/" + g.word() + "-" + g.word()
	case "hostname":
		return g.word() + ".example.com"
	case "ipv4":
		return "192.0.2." + strconv.Itoa(1+g.rng.IntN(254))
	case "byte":
		return "dGVzdA=="
	default:
		return ""
	}
}

func (g *Generator) stringByName(name string) string {
	lower := strings.ToLower(name)
	switch {
	case lower == "id" || lower == "uuid":
		return g.uuid()
	case strings.HasSuffix(lower, "email"):
		return g.stringByFormat("email")
	case lower == "url" || lower == "href" || lower == "website":
		return g.stringByFormat("uri")
	case lower == "name" || lower == "username":
		return names[g.rng.IntN(len(names))]
	case strings.HasSuffix(lower, "_at") || lower == "timestamp":
		return g.stringByFormat("date-time")
	default:
		return ""
	}
}

// uuid draws a version 4 UUID from the generator's random stream.
func (g *Generator) uuid() string {
	id, err := uuid.NewRandomFromReader(rngReader{g.rng})
	if err != nil {
		return uuid.Nil.String()
	}
	return id.String()
}

func (g *Generator) word() string {
	return words[g.rng.IntN(len(words))]
}

func (g *Generator) letters(n int) string {
	const chars = "abcdefghijklmnopqrstuvwxyz"
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = chars[g.rng.IntN(len(chars))]
	}
	return string(buf)
}

type rngReader struct {
	rng *rand.Rand
}

func (r rngReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = byte(r.rng.UintN(256))
	}
	return len(p), nil
}

func isRequired(schema *oas.Schema, name string) bool {
	return slices.Contains(schema.Required, name)
}

var (
	words = []string{"alpha", "beta", "gamma", "delta", "epsilon", "zeta", "theta", "omega"}
	names = []string{"Rex", "Luna", "Milo", "Bella", "Charlie", "Daisy", "Max", "Coco"}
)
