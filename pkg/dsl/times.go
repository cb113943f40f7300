package dsl

import (
	"strconv"

	"github.com/getmockd/oasmock/internal/jsonvalue"
	"github.com/getmockd/oasmock/pkg/oas"
)

// Times is the $times counter. It is either Active with a positive number of remaining uses or
// Absent.
type Times struct {
	remaining int
}

// Absent is the exhausted or unset counter.
var Absent = Times{}

// Active returns a counter with n remaining uses. Non-positive n yields Absent.
func Active(n int) Times {
	if n <= 0 {
		return Absent
	}
	return Times{remaining: n}
}

// Remaining returns the number of uses left; zero when Absent.
func (t Times) Remaining() int {
	return t.remaining
}

// IsActive reports whether uses remain.
func (t Times) IsActive() bool {
	return t.remaining > 0
}

// Consume uses up one call: Active(n) becomes Active(n-1), or Absent when nothing is left.
func (t Times) Consume() Times {
	return Active(t.remaining - 1)
}

func (t Times) String() string {
	if !t.IsActive() {
		return "absent"
	}
	return "active(" + strconv.Itoa(t.remaining) + ")"
}

// TimesOf returns the counter carried by the sentinel property of responses. The boolean is
// false when no schema carries the sentinel.
func TimesOf(responses oas.CodeToMedia) (Times, bool) {
	for _, code := range responses.Codes() {
		media := responses[code]
		for _, contentType := range oas.SortedKeys(media) {
			if sentinel := media[contentType].Property(TimesProperty); sentinel != nil {
				return sentinelTimes(sentinel), true
			}
		}
	}
	return Absent, false
}

func sentinelTimes(sentinel *oas.Schema) Times {
	n, ok := jsonvalue.Round(sentinel.Default)
	if !ok {
		return Absent
	}
	return Active(n)
}

func newSentinel(t Times) *oas.Schema {
	return &oas.Schema{Type: oas.TypeSentinel, Default: t.Remaining()}
}

// TimesFrom interprets a raw $times value. Malformed or non-positive values are Absent.
func TimesFrom(value any) Times {
	n, err := parsePositive(KeyTimes, value)
	if err != nil {
		return Absent
	}
	return Active(n)
}
