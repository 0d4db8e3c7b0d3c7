package canon

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Marker prefixes keep value kinds disjoint: the number 1, the boolean
// true and the string "1" must never normalize to the same output.
const (
	nullMarker = "__NULL__"
	boolPrefix = "__BOOL__"
	numPrefix  = "__NUM__"
	strPrefix  = "__STR__"
	jsonPrefix = "__JSON__"
)

var (
	numPattern  = regexp.MustCompile(`^-?\d+(?:\.\d+)?$`)
	datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)
)

// Normalize renders a decoded JSON value into a comparison-stable string.
// Records must be decoded with json.Number enabled so numeric precision
// survives the trip through the decoder.
func Normalize(v any) string {
	switch t := v.(type) {
	case nil:
		return nullMarker
	case bool:
		if t {
			return boolPrefix + "1"
		}
		return boolPrefix + "0"
	case json.Number:
		return numPrefix + canonNumber(t.String())
	case int:
		return numPrefix + canonNumber(fmt.Sprintf("%d", t))
	case int64:
		return numPrefix + canonNumber(fmt.Sprintf("%d", t))
	case float64:
		return numPrefix + canonNumber(decimal.NewFromFloat(t).String())
	case string:
		s := strings.TrimSpace(t)
		if numPattern.MatchString(s) {
			return numPrefix + canonNumber(s)
		}
		return strPrefix + canonTimestamp(s)
	default:
		return jsonPrefix + canonJSON(v)
	}
}

// canonNumber parses s as an arbitrary-precision decimal and renders it
// without trailing fractional zeros. "1.50", "1.5" and "1.500000" all
// canonicalize to "1.5"; "-0" collapses to "0". Unparseable input is
// returned verbatim.
func canonNumber(s string) string {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return s
	}
	out := d.String()
	if strings.Contains(out, ".") {
		out = strings.TrimRight(out, "0")
		out = strings.TrimRight(out, ".")
	}
	if out == "" || out == "-" || out == "-0" {
		return "0"
	}
	return out
}

// tsLayout pairs an accepted input layout with whether it carries an
// explicit UTC offset. Offset-aware values render through RFC 3339, which
// folds "+00:00" into "Z"; naive values render without a zone.
type tsLayout struct {
	layout string
	zoned  bool
}

var tsLayouts = []tsLayout{
	{time.RFC3339Nano, true},
	{"2006-01-02T15:04:05.999999999", false},
	{"2006-01-02 15:04:05.999999999Z07:00", true},
	{"2006-01-02 15:04:05.999999999", false},
	{"2006-01-02", false},
}

// canonTimestamp re-renders strings with a leading YYYY-MM-DD date prefix
// canonically. Parse failures fall back to the trimmed raw string.
func canonTimestamp(s string) string {
	if !datePattern.MatchString(s) {
		return s
	}
	for _, l := range tsLayouts {
		t, err := time.Parse(l.layout, s)
		if err != nil {
			continue
		}
		if l.zoned {
			if t.Nanosecond() == 0 {
				return t.Format(time.RFC3339)
			}
			return t.Format(time.RFC3339Nano)
		}
		if t.Nanosecond() == 0 {
			return t.Format("2006-01-02T15:04:05")
		}
		return t.Format("2006-01-02T15:04:05.999999999")
	}
	return s
}

// canonJSON serializes nested structures with sorted keys and no HTML
// escaping. encoding/json already sorts map keys, which gives us the
// deterministic form for free.
func canonJSON(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		// Unexpected structural issue: degrade to an opaque leaf instead
		// of failing the whole comparison.
		return fmt.Sprintf("%v", v)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// Safe renders a value for key construction. Nil and blank values collapse
// to the "NULL" placeholder so every attribute contributes a stable token.
func Safe(v any) string {
	if v == nil {
		return "NULL"
	}
	s := strings.TrimSpace(stringify(v))
	if s == "" {
		return "NULL"
	}
	return s
}

// Short truncates a rendered value to at most n characters for diagnostic
// samples and error messages.
func Short(v any, n int) string {
	s := stringify(v)
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case nil:
		return "<nil>"
	default:
		return fmt.Sprintf("%v", t)
	}
}
