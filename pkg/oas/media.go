package oas

import (
	"sort"
	"strconv"
	"strings"
)

// CodeToMedia maps a response status code ("200", "4XX", "default") to content type to schema.
type CodeToMedia map[string]map[string]*Schema

// Clone deep-copies every schema in the map.
func (c CodeToMedia) Clone() CodeToMedia {
	if c == nil {
		return nil
	}
	out := make(CodeToMedia, len(c))
	for code, media := range c {
		m := make(map[string]*Schema, len(media))
		for contentType, schema := range media {
			m[contentType] = schema.Clone()
		}
		out[code] = m
	}
	return out
}

// Codes returns the status codes in resolution order.
func (c CodeToMedia) Codes() []string {
	codes := make([]string, 0, len(c))
	for code := range c {
		codes = append(codes, code)
	}
	SortCodes(codes)
	return codes
}

// SortedKeys returns the keys of m in lexical order.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SortCodes orders status codes: numeric codes ascending, then ranges like "2XX", then
// "default", then anything else lexically.
func SortCodes(codes []string) {
	sort.SliceStable(codes, func(i, j int) bool {
		ri, vi := codeRank(codes[i])
		rj, vj := codeRank(codes[j])
		if ri != rj {
			return ri < rj
		}
		if vi != vj {
			return vi < vj
		}
		return codes[i] < codes[j]
	})
}

func codeRank(code string) (rank, value int) {
	if n, err := strconv.Atoi(code); err == nil {
		return 0, n
	}
	upper := strings.ToUpper(code)
	if len(upper) == 3 && strings.HasSuffix(upper, "XX") && upper[0] >= '1' && upper[0] <= '5' {
		return 1, int(upper[0] - '0')
	}
	if strings.EqualFold(code, "default") {
		return 2, 0
	}
	return 3, 0
}
