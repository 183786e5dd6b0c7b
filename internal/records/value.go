// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package records

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/segmentio/encoding/json"
)

// FormatValue renders a JSON value in the literal syntax the dashboard
// parses: null as None, booleans as True and False, strings quoted like
// QuoteString, floats in shortest form with a fractional part, arrays as
// lists, and objects as dicts with their keys in source order.
func FormatValue(raw []byte) (string, error) {
	raw = bytes.TrimSpace(raw)
	if !json.Valid(raw) {
		return "", fmt.Errorf("invalid JSON value %q", raw)
	}
	var b strings.Builder
	if err := writeValue(&b, raw); err != nil {
		return "", err
	}
	return b.String(), nil
}

func writeValue(b *strings.Builder, raw []byte) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return fmt.Errorf("empty JSON value")
	}

	switch raw[0] {
	case 'n':
		b.WriteString("None")
	case 't':
		b.WriteString("True")
	case 'f':
		b.WriteString("False")
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		b.WriteString(QuoteString(s))
	case '[':
		b.WriteByte('[')
		for i, elem := range splitTopLevel(raw[1:len(raw)-1], ',') {
			if i > 0 {
				b.WriteString(", ")
			}
			if err := writeValue(b, elem); err != nil {
				return err
			}
		}
		b.WriteByte(']')
	case '{':
		b.WriteByte('{')
		for i, member := range splitTopLevel(raw[1:len(raw)-1], ',') {
			kv := splitTopLevel(member, ':')
			if len(kv) != 2 {
				return fmt.Errorf("malformed object member %q", member)
			}
			if i > 0 {
				b.WriteString(", ")
			}
			if err := writeValue(b, kv[0]); err != nil {
				return err
			}
			b.WriteString(": ")
			if err := writeValue(b, kv[1]); err != nil {
				return err
			}
		}
		b.WriteByte('}')
	default:
		b.WriteString(formatNumber(string(raw)))
	}
	return nil
}

// formatNumber keeps integers as written and renders other numbers the way
// a float repr does: "1.0", "1e-05", "1e+16".
func formatNumber(n string) string {
	if !strings.ContainsAny(n, ".eE") {
		return n
	}
	f, err := strconv.ParseFloat(n, 64)
	if err != nil {
		return n
	}
	if abs := math.Abs(f); abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// splitTopLevel splits the body of a JSON array or object at sep, ignoring
// separators inside strings and nested values. An empty body has no parts.
func splitTopLevel(body []byte, sep byte) [][]byte {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	var (
		parts    [][]byte
		depth    int
		inString bool
		escaped  bool
		start    int
	)
	for i, c := range body {
		switch {
		case escaped:
			escaped = false
		case inString:
			switch c {
			case '\\':
				escaped = true
			case '"':
				inString = false
			}
		case c == '"':
			inString = true
		case c == '[' || c == '{':
			depth++
		case c == ']' || c == '}':
			depth--
		case c == sep && depth == 0:
			parts = append(parts, body[start:i])
			start = i + 1
		}
	}
	return append(parts, body[start:])
}
