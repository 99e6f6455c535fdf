// Package textcall implements the plain-text tool calling convention used by
// backends without native tool support:
//
//	TOOL_CALL: tool_name(arg1="value1", arg2="value2")
//
// Values are double quoted; a quote inside a value must be escaped as \".
// Calls with unbalanced parentheses or unquoted values are not recognized.
package textcall

import (
	"regexp"
	"sort"
	"strings"
	"sync"
)

// Well-known prefixes.
const (
	ToolCallPrefix = "TOOL_CALL"
	ActionPrefix   = "Action"
)

const (
	ident = `[A-Za-z_]\w*`
	value = `"(?:[^"\\]|\\.)*"`
	pair  = ident + `\s*=\s*` + value
)

var wordStart = regexp.MustCompile(`^\w`)

var argPattern = regexp.MustCompile(`(` + ident + `)\s*=\s*"((?:[^"\\]|\\.)*)"`)

var (
	callPatternsMu sync.Mutex
	callPatterns   = map[string]*regexp.Regexp{}
)

func callPattern(prefix string) *regexp.Regexp {
	callPatternsMu.Lock()
	defer callPatternsMu.Unlock()

	if re, ok := callPatterns[prefix]; ok {
		return re
	}

	// A word-character prefix must not continue a word: NO_TOOL_CALL is not
	// TOOL_CALL. Group 1 spans the call itself.
	boundary := ""
	if wordStart.MatchString(prefix) {
		boundary = `\b`
	}
	re := regexp.MustCompile(boundary + `(` + regexp.QuoteMeta(prefix) +
		`:\s*(` + ident + `)\(\s*((?:` + pair + `\s*(?:,\s*` + pair + `\s*)*)?)\))`)
	callPatterns[prefix] = re

	return re
}

// Match is one call found in a text.
type Match struct {
	Name  string
	Args  map[string]string
	Start int
	End   int
}

// Parse returns every well-formed call introduced by prefix, scanning left to
// right. Matches never overlap.
func Parse(text, prefix string) []Match {
	locs := callPattern(prefix).FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}

	matches := make([]Match, 0, len(locs))
	for _, loc := range locs {
		args := map[string]string{}
		if loc[6] >= 0 {
			for _, a := range argPattern.FindAllStringSubmatch(text[loc[6]:loc[7]], -1) {
				args[a[1]] = unescape(a[2])
			}
		}

		matches = append(matches, Match{
			Name:  text[loc[4]:loc[5]],
			Args:  args,
			Start: loc[2],
			End:   loc[3],
		})
	}

	return matches
}

// Strip removes the matched spans from text and trims surrounding space.
func Strip(text string, matches []Match) string {
	if len(matches) == 0 {
		return strings.TrimSpace(text)
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		if m.Start < last || m.End > len(text) {
			continue
		}
		b.WriteString(text[last:m.Start])
		last = m.End
	}
	b.WriteString(text[last:])

	return strings.TrimSpace(b.String())
}

// Format renders a call in the textual convention. Keys are sorted so the
// output is stable; Parse(Format(...)) yields the same name and args.
func Format(prefix, name string, args map[string]string) string {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(prefix)
	b.WriteString(": ")
	b.WriteString(name)
	b.WriteByte('(')
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(k)
		b.WriteString(`="`)
		b.WriteString(escape(args[k]))
		b.WriteByte('"')
	}
	b.WriteByte(')')

	return b.String()
}

var (
	escaper   = strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	unescaper = strings.NewReplacer(`\\`, `\`, `\"`, `"`)
)

func escape(s string) string   { return escaper.Replace(s) }
func unescape(s string) string { return unescaper.Replace(s) }
