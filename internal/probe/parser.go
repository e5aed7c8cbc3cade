package probe

import (
	"bufio"
	"fmt"
	"strings"
)

// Section is one bracket-delimited block of probe output: a name and
// the KEY=VALUE pairs between its markers.
type Section struct {
	Name   string
	Fields map[string]string
}

// ParseSections parses the bracket-sectioned output of the probe tool.
// A section opens with a line exactly matching "[NAME]" and closes with
// "[/NAME]"; between the markers every non-empty line must be a
// KEY=VALUE pair split on the first '='. Empty lines are skipped.
// Anything else, including a truncated final section or a mismatched
// closing tag, is a parse error.
func ParseSections(output string) ([]Section, error) {
	var (
		sections []Section
		current  *Section
		lineNo   int
	)

	scanner := bufio.NewScanner(strings.NewReader(output))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}

		if current == nil {
			name, ok := sectionMarker(line)
			if !ok || strings.HasPrefix(name, "/") {
				return nil, fmt.Errorf("line %d: expected section start, got %q", lineNo, line)
			}
			current = &Section{Name: name, Fields: make(map[string]string)}
			continue
		}

		if name, ok := sectionMarker(line); ok {
			if name != "/"+current.Name {
				return nil, fmt.Errorf("line %d: section %q closed by %q", lineNo, current.Name, line)
			}
			sections = append(sections, *current)
			current = nil
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			return nil, fmt.Errorf("line %d: expected KEY=VALUE in section %q, got %q", lineNo, current.Name, line)
		}
		current.Fields[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading probe output: %w", err)
	}

	if current != nil {
		return nil, fmt.Errorf("probe output truncated: section %q never closed", current.Name)
	}
	return sections, nil
}

// sectionMarker reports whether line is a "[NAME]" marker and returns
// the name, which may carry a leading '/' for closing markers.
func sectionMarker(line string) (string, bool) {
	if len(line) < 3 || line[0] != '[' || line[len(line)-1] != ']' {
		return "", false
	}
	name := line[1 : len(line)-1]
	if strings.ContainsAny(name, "[]") {
		return "", false
	}
	return name, true
}
