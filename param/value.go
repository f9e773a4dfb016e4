package param

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/hhkbp2/go-strftime"
)

// Kind enumerates the recognised parameter specifier types.
type Kind string

const (
	KindInt     Kind = "int"
	KindLong    Kind = "long"
	KindString  Kind = "string"
	KindBoolean Kind = "boolean"
	KindDate    Kind = "date"
	KindValue   Kind = "value"
)

const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// defaultDateLayout and defaultDateTimeLayout are the fallback date parse
// formats: yyyy/MM/dd, or yyyy/MM/dd HH:mm:ss when the source string
// contains a space.
const (
	defaultDateLayout     = "2006/01/02"
	defaultDateTimeLayout = "2006/01/02 15:04:05"
)

// Generator produces a typed random value on each call to NextValue,
// governed by a parsed specifier. Each Generator owns its own
// random source so that concurrent workers never share RNG state.
type Generator struct {
	kind   Kind
	format string // printf-style template, or "" for none
	rnd    *rand.Rand

	// numeric/date bounds
	first int64
	delta int64

	// string bounds
	minLen int
	maxLen int

	// boolean
	percentTrue float64

	// date
	parseLayout string

	// value (table lookup)
	table  *DataTable
	column int
}

// NewGenerator parses a raw specifier, with or without surrounding braces,
// of the form "{type, format?, X?, Y?, parseFormat?}" and
// returns a Generator ready to produce values. table is required (and must
// be non-empty) for the "value" type; it is ignored for all other types.
func NewGenerator(spec string, table *DataTable, seed int64) (*Generator, error) {
	body := strings.TrimSpace(spec)
	body = strings.TrimPrefix(body, "{")
	body = strings.TrimSuffix(body, "}")

	tokens := splitSpecTokens(body)
	if len(tokens) == 0 {
		return nil, fmt.Errorf("empty parameter specifier %q", spec)
	}

	g := &Generator{
		kind:  Kind(strings.TrimSpace(tokens[0])),
		rnd:   rand.New(rand.NewSource(seed)),
		table: table,
	}

	rest := tokens[1:]
	if len(rest) > 0 && !startsWithDigit(rest[0]) {
		g.format = rest[0]
		rest = rest[1:]
	}

	var x, y string
	if len(rest) > 0 {
		x = rest[0]
	}
	if len(rest) > 1 {
		y = rest[1]
	}
	if len(rest) > 2 {
		g.parseLayout = translateDateLayout(rest[2])
	}

	switch g.kind {
	case KindInt, KindLong:
		first, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parameter spec %q: bad X: %w", spec, err)
		}
		last, err := strconv.ParseInt(strings.TrimSpace(y), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parameter spec %q: bad Y: %w", spec, err)
		}
		g.first = first
		g.delta = last - first

	case KindDate:
		layout := defaultDateLayout
		if strings.Contains(x, " ") {
			layout = defaultDateTimeLayout
		}
		if g.parseLayout != "" {
			layout = g.parseLayout
		}
		first, err := time.Parse(layout, strings.TrimSpace(x))
		if err != nil {
			return nil, fmt.Errorf("parameter spec %q: bad date X %q: %w", spec, x, err)
		}
		last, err := time.Parse(layout, strings.TrimSpace(y))
		if err != nil {
			return nil, fmt.Errorf("parameter spec %q: bad date Y %q: %w", spec, y, err)
		}
		g.first = first.UnixNano()
		g.delta = last.UnixNano() - g.first

	case KindString:
		minLen, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return nil, fmt.Errorf("parameter spec %q: bad min length: %w", spec, err)
		}
		maxLen, err := strconv.Atoi(strings.TrimSpace(y))
		if err != nil {
			return nil, fmt.Errorf("parameter spec %q: bad max length: %w", spec, err)
		}
		g.minLen = minLen
		g.maxLen = maxLen

	case KindBoolean:
		g.percentTrue = 50
		if strings.TrimSpace(x) != "" {
			pct, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
			if err != nil {
				return nil, fmt.Errorf("parameter spec %q: bad percent-true: %w", spec, err)
			}
			g.percentTrue = pct
		}

	case KindValue:
		if table == nil || table.Len() == 0 {
			return nil, fmt.Errorf("parameter spec %q: value type requires a non-empty data table", spec)
		}
		first, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return nil, fmt.Errorf("parameter spec %q: bad row index: %w", spec, err)
		}
		col, err := strconv.Atoi(strings.TrimSpace(y))
		if err != nil {
			return nil, fmt.Errorf("parameter spec %q: bad column index: %w", spec, err)
		}
		g.first = int64(first)
		g.delta = int64(table.Len()) - int64(first)
		g.column = col

	default:
		return nil, fmt.Errorf("parameter spec %q: unknown type %q", spec, g.kind)
	}

	return g, nil
}

// splitSpecTokens splits on a comma surrounded by optional whitespace.
func splitSpecTokens(body string) []string {
	parts := strings.Split(body, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}

func startsWithDigit(s string) bool {
	if s == "" {
		return false
	}
	return s[0] >= '0' && s[0] <= '9'
}

// translateDateLayout is a best-effort translation of common
// year/month/day/hour/minute/second pattern letters (yyyy, MM, dd, HH, mm,
// ss) to Go's reference time layout, covering the patterns parseFormat
// actually uses.
func translateDateLayout(pattern string) string {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return ""
	}
	replacer := strings.NewReplacer(
		"yyyy", "2006", "yy", "06",
		"MM", "01", "dd", "02",
		"HH", "15", "mm", "04", "ss", "05",
	)
	return replacer.Replace(pattern)
}

// NextValue draws one value per the generator's kind. The
// returned value's concrete Go type is one of int64, string, bool, or
// time.Time, matching the generator's Kind (Kind value always yields a
// string, the cell's raw text); a generator with a format always yields
// the formatted string.
func (g *Generator) NextValue() (interface{}, error) {
	r := g.rnd.Float64()

	switch g.kind {
	case KindInt, KindLong:
		v := g.first + int64(r*float64(g.delta))
		return g.applyFormat(v), nil

	case KindDate:
		nanos := g.first + int64(r*float64(g.delta))
		t := time.Unix(0, nanos).UTC()
		if g.format != "" {
			return strftime.Format(g.format, t), nil
		}
		return t, nil

	case KindString:
		length := g.minLen + int(r*float64(g.maxLen-g.minLen))
		var sb strings.Builder
		sb.Grow(length)
		for i := 0; i < length; i++ {
			sb.WriteByte(alphabet[g.rnd.Intn(len(alphabet))])
		}
		return g.applyFormat(sb.String()), nil

	case KindBoolean:
		v := (r * 100) < g.percentTrue
		return g.applyFormat(v), nil

	case KindValue:
		row := g.first + int64(r*float64(g.delta))
		v := g.table.Cell(int(row), g.column)
		return g.applyFormat(v), nil

	default:
		return nil, fmt.Errorf("generator has unknown kind %q", g.kind)
	}
}

// applyFormat renders v through the generator's printf-style template if
// one was configured, otherwise returns v unchanged.
func (g *Generator) applyFormat(v interface{}) interface{} {
	if g.format == "" {
		return v
	}
	return fmt.Sprintf(g.format, v)
}

// Kind exposes the generator's parsed type, mainly for tests.
func (g *Generator) Kind() Kind { return g.kind }
