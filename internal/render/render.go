// Package render implements the line-oriented conditional template renderer
// used for every generated text file.
//
// Templates contain {{ name }} placeholders. A placeholder embedded in other
// text is substituted inline. A placeholder alone on its line (ignoring
// surrounding whitespace) is a line conditional: a falsy value deletes the
// whole line including its newline, a string value replaces the token.
package render

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Context maps placeholder names to string or bool values.
type Context map[string]any

// Merge returns a new Context with the entries of others layered over c.
func (c Context) Merge(others ...Context) Context {
	out := make(Context, len(c))
	for k, v := range c {
		out[k] = v
	}
	for _, o := range others {
		for k, v := range o {
			out[k] = v
		}
	}
	return out
}

// Keys returns the context keys in sorted order.
func (c Context) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// When returns value when cond holds and an empty string otherwise. It is
// the usual way to build line-conditional values.
func When(cond bool, value string) string {
	if cond {
		return value
	}
	return ""
}

var (
	tokenPattern   = regexp.MustCompile(`\{\{\s*([^{}\s]+)\s*\}\}`)
	ownLinePattern = regexp.MustCompile(`^[ \t]*\{\{\s*([^{}\s]+)\s*\}\}[ \t]*\r?$`)
)

// Render substitutes ctx into tmpl in a single pass over the template's
// lines. Inserted values are never scanned for placeholders. An own-line
// placeholder that is unknown or falsy deletes its line; an unknown inline
// placeholder is left as written.
func Render(tmpl string, ctx Context) string {
	var b strings.Builder
	b.Grow(len(tmpl))
	rest := tmpl
	for rest != "" {
		line, nl := rest, ""
		if i := strings.IndexByte(rest, '\n'); i >= 0 {
			line, nl, rest = rest[:i], "\n", rest[i+1:]
		} else {
			rest = ""
		}
		if m := ownLinePattern.FindStringSubmatchIndex(line); m != nil {
			str, truthy := classify(ctx[line[m[2]:m[3]]])
			if str == "" && !truthy {
				continue
			}
			tok := tokenPattern.FindStringIndex(line)
			line = line[:tok[0]] + str + line[tok[1]:]
		} else {
			line = substitute(line, ctx)
		}
		b.WriteString(line)
		b.WriteString(nl)
	}
	return b.String()
}

func substitute(line string, ctx Context) string {
	if !strings.Contains(line, "{{") {
		return line
	}
	return tokenPattern.ReplaceAllStringFunc(line, func(tok string) string {
		name := tokenPattern.FindStringSubmatch(tok)[1]
		value, ok := ctx[name]
		if !ok {
			return tok
		}
		str, _ := classify(value)
		return str
	})
}

// classify returns the inline text of value and whether it is truthy.
// Booleans never render as text.
func classify(value any) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", false
	case string:
		return v, v != ""
	case bool:
		return "", v
	case fmt.Stringer:
		s := v.String()
		return s, s != ""
	default:
		s := fmt.Sprint(v)
		return s, s != ""
	}
}

// Placeholders returns the sorted, unique placeholder names referenced by tmpl.
func Placeholders(tmpl string) []string {
	seen := make(map[string]struct{})
	for _, m := range tokenPattern.FindAllStringSubmatch(tmpl, -1) {
		seen[m[1]] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Missing returns the placeholder names of tmpl that ctx does not define.
func Missing(tmpl string, ctx Context) []string {
	var out []string
	for _, name := range Placeholders(tmpl) {
		if _, ok := ctx[name]; !ok {
			out = append(out, name)
		}
	}
	return out
}

// HasPlaceholders reports whether s still contains placeholder syntax.
func HasPlaceholders(s string) bool {
	return strings.Contains(s, "{{") && tokenPattern.MatchString(s)
}
