package patch

import (
	"regexp"
	"strings"
)

var (
	importLineRe = regexp.MustCompile(`(?m)^import[\s{'"].*$`)
	pluginsRe    = regexp.MustCompile(`plugins\s*:\s*\[`)
)

// BuildPlugin adds importLine after the last import of a build-tool config
// and appends call to its single `plugins: [...]` array. Running it twice
// leaves the content unchanged.
func BuildPlugin(target, content, importLine, call string) (string, error) {
	out, err := insertPlugin(target, content, call)
	if err != nil {
		return "", err
	}
	return insertImport(out, importLine), nil
}

func insertPlugin(target, content, call string) (string, error) {
	locs := pluginsRe.FindAllStringIndex(content, -1)
	if len(locs) != 1 {
		return "", &PatternError{Target: target, Pattern: "plugins: [ array", Matches: len(locs)}
	}
	open := locs[0][1] - 1
	end := closingBracket(content, open)
	if end < 0 {
		return "", &PatternError{Target: target, Pattern: "closing ] of plugins array", Matches: 0}
	}
	inner := content[open+1 : end]
	if strings.Contains(inner, call) {
		return content, nil
	}

	trimmed := strings.TrimRight(inner, " \t\r\n")
	var insert string
	switch {
	case strings.TrimSpace(inner) == "":
		return content[:open+1] + call + content[end:], nil
	case strings.Contains(inner, "\n"):
		insert = "\n" + elementIndent(inner) + call + ","
		if !strings.HasSuffix(trimmed, ",") {
			insert = "," + insert
		}
	default:
		insert = ", " + call
		if strings.HasSuffix(trimmed, ",") {
			insert = " " + call
		}
	}
	at := open + 1 + len(trimmed)
	return content[:at] + insert + content[at:], nil
}

func insertImport(content, importLine string) string {
	if strings.Contains(content, importLine) {
		return content
	}
	locs := importLineRe.FindAllStringIndex(content, -1)
	if len(locs) == 0 {
		return importLine + "\n" + content
	}
	at := locs[len(locs)-1][1]
	return content[:at] + "\n" + importLine + content[at:]
}

// closingBracket returns the index of the ] matching the [ at open,
// skipping nested brackets and quoted strings, or -1.
func closingBracket(content string, open int) int {
	depth := 0
	var quote byte
	for i := open; i < len(content); i++ {
		c := content[i]
		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"', '`':
			quote = c
		case '[', '(', '{':
			depth++
		case ']', ')', '}':
			depth--
			if depth == 0 {
				if c != ']' {
					return -1
				}
				return i
			}
		}
	}
	return -1
}

// elementIndent returns the indentation of the first element line of a
// multi-line array body.
func elementIndent(inner string) string {
	for _, line := range strings.Split(inner, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
	}
	return "    "
}
