package config

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// assignmentPattern matches one shell-style variable assignment.
// An optional "export " prefix is tolerated so existing shell snippets
// can be reused as config files.
var assignmentPattern = regexp.MustCompile(`^(?:export\s+)?([A-Za-z_][A-Za-z0-9_]*)=(.*)$`)

// ParseVars parses shell-style NAME=value assignments from r.
//
// Blank lines and lines starting with '#' are skipped. Values may be
// wrapped in one level of matching single or double quotes. Anything that
// is neither a comment nor an assignment is an error, so typos in config
// files fail loudly instead of silently dropping a profile variable.
func ParseVars(r io.Reader) (map[string]string, error) {
	vars := make(map[string]string)
	scanner := bufio.NewScanner(r)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		m := assignmentPattern.FindStringSubmatch(line)
		if m == nil {
			return nil, fmt.Errorf("line %d: not a variable assignment: %q", lineno, line)
		}
		vars[m[1]] = unquote(m[2])
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return vars, nil
}

// unquote strips one level of matching single or double quotes.
func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
