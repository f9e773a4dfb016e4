package param

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Verb identifies the statement's leading SQL keyword, used to dispatch the
// worker's execution path.
type Verb string

const (
	VerbSelect  Verb = "SELECT"
	VerbInsert  Verb = "INSERT"
	VerbUpdate  Verb = "UPDATE"
	VerbDelete  Verb = "DELETE"
	VerbExecute Verb = "EXECUTE"
)

var validVerbs = map[Verb]bool{
	VerbSelect: true, VerbInsert: true, VerbUpdate: true, VerbDelete: true, VerbExecute: true,
}

// paramSite matches a parameter placeholder: a bare "?" or a "?{...}" whose
// body contains no nested "{".
var paramSite = regexp.MustCompile(`\?(\{[^{]+\})?`)

// Template is the immutable result of parsing a raw SQL statement: the
// rewritten, placeholder-only SQL, its verb, and the ordered list of
// generators that supply each placeholder's value.
type Template struct {
	SQL        string
	Verb       Verb
	Generators []*Generator
}

// NewTemplate parses sql, replacing each parameter site with a bare "?" and
// building one Generator per site in order. paramsOverride, if non-empty, is
// the semicolon-separated list of specifiers from the "params" option; the
// k-th override, when present, takes precedence over the k-th site's inline
// {...} body. table backs any "value"-typed generator.
func NewTemplate(sql, paramsOverride string, table *DataTable, seed int64) (*Template, error) {
	verb, err := extractVerb(sql)
	if err != nil {
		return nil, err
	}

	var overrides []string
	if paramsOverride != "" {
		overrides = strings.Split(paramsOverride, ";")
	}

	var gens []*Generator
	var siteErr error
	k := 0
	rewritten := paramSite.ReplaceAllStringFunc(sql, func(match string) string {
		if siteErr != nil {
			return match
		}
		var specBody string
		if k < len(overrides) {
			specBody = overrides[k]
		} else if len(match) > 1 {
			specBody = match[1:] // strip the leading "?", keep "{...}"
		} else {
			siteErr = fmt.Errorf("parameter site %d has no inline specifier and no params override", k)
			return match
		}
		g, err := NewGenerator(specBody, table, seed+int64(k))
		if err != nil {
			siteErr = err
			return match
		}
		gens = append(gens, g)
		k++
		return "?"
	})
	if siteErr != nil {
		return nil, siteErr
	}

	return &Template{SQL: rewritten, Verb: verb, Generators: gens}, nil
}

// extractVerb returns the upper-cased first whitespace-delimited token of
// sql, validated against the recognised verb set. sql must not start with
// whitespace: the verb has to lead the statement with nothing before it,
// so a leading space, tab, or newline is a fatal input error rather than
// something to trim away.
func extractVerb(sql string) (Verb, error) {
	if r, _ := utf8.DecodeRuneInString(sql); unicode.IsSpace(r) {
		return "", fmt.Errorf("SQL statement %q starts with whitespace before its verb", sql)
	}
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return "", fmt.Errorf("empty SQL statement")
	}
	verb := Verb(strings.ToUpper(fields[0]))
	if !validVerbs[verb] {
		return "", fmt.Errorf("unrecognised SQL verb %q", fields[0])
	}
	return verb, nil
}
