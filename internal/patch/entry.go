// Package patch rewrites seed source files: the application bootstrap file
// and the build-tool config.
//
// The bootstrap file must contain exactly one construct-and-mount statement,
// written on a single line:
//
//	createApp(App).mount('#app')
//
// A trailing semicolon and a trailing // comment are allowed. A chain split
// across lines, or nested inside another expression, is not recognized and
// yields a PatternError.
package patch

import (
	"regexp"
	"strings"
)

// AppVar is the variable the expanded bootstrap sequence assigns the app to.
const AppVar = "app"

const mountPattern = "construct-and-mount statement ctor(Root).mount(selector)"

var mountRe = regexp.MustCompile(`(?m)^([ \t]*)(\w+)\(([\w.]+)\)\.mount\(([^()\n]*)\);?[ \t]*(//[^\r\n]*)?\r?$`)

// EntryFile is the minimal structure of a bootstrap file: the text before
// the mount statement, the statement's parts and the text after it.
// Newline is the line ending used for inserted lines.
type EntryFile struct {
	Head     string
	Indent   string
	Ctor     string
	Root     string
	Selector string
	// Comment is a trailing line comment of the mount statement, if any.
	Comment  string
	Tail     string
	Newline  string
}

// ParseEntry splits content around its single construct-and-mount statement.
func ParseEntry(target, content string) (EntryFile, error) {
	matches := mountRe.FindAllStringSubmatchIndex(content, -1)
	if len(matches) != 1 {
		return EntryFile{}, &PatternError{Target: target, Pattern: mountPattern, Matches: len(matches)}
	}
	m := matches[0]
	newline := "\n"
	if strings.Contains(content, "\r\n") {
		newline = "\r\n"
	}
	var comment string
	if m[10] >= 0 {
		comment = strings.TrimRight(content[m[10]:m[11]], " \t")
	}
	end := m[1]
	if end > 0 && content[end-1] == '\r' {
		end--
	}
	return EntryFile{
		Head:     content[:m[0]],
		Indent:   content[m[2]:m[3]],
		Ctor:     content[m[4]:m[5]],
		Root:     content[m[6]:m[7]],
		Selector: strings.TrimSpace(content[m[8]:m[9]]),
		Comment:  comment,
		Tail:     content[end:],
		Newline:  newline,
	}, nil
}

// Render prepends imports and replaces the mount statement with the
// assignment, one statement per use call and the mount call.
func (e EntryFile) Render(imports, uses []string) string {
	var b strings.Builder
	nl := e.Newline
	if nl == "" {
		nl = "\n"
	}
	for _, imp := range imports {
		b.WriteString(imp + nl)
	}
	b.WriteString(e.Head)
	b.WriteString(e.Indent + "const " + AppVar + " = " + e.Ctor + "(" + e.Root + ");" + nl)
	for _, use := range uses {
		b.WriteString(e.Indent + AppVar + "." + UseCall(use) + ";" + nl)
	}
	b.WriteString(e.Indent + AppVar + ".mount(" + e.Selector + ");")
	if e.Comment != "" {
		b.WriteString(" " + e.Comment)
	}
	b.WriteString(e.Tail)
	return b.String()
}

// UseCall normalizes a use fragment: "use(x)", ".use(x)" and "use(x);" all
// become "use(x)".
func UseCall(fragment string) string {
	fragment = strings.TrimSpace(fragment)
	fragment = strings.TrimPrefix(fragment, ".")
	return strings.TrimRight(fragment, "; ")
}

// Bootstrap rewrites an entry file so its imports and initialization chain
// reflect the given imports and use calls, in order.
func Bootstrap(target, content string, imports, uses []string) (string, error) {
	entry, err := ParseEntry(target, content)
	if err != nil {
		return "", err
	}
	return entry.Render(imports, uses), nil
}
