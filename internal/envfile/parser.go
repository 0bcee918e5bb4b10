// Package envfile implements the parser for per-directory configuration
// files. The grammar is a restricted KEY=VALUE form: comments, blank lines,
// an optional "export " prefix, one stripped layer of quoting, and ${VAR}
// interpolation against the same file's mapping. Parsing never executes
// anything.
package envfile

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
)

const exportPrefix = "export "

var (
	// variableNamePattern matches valid variable names.
	variableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

	// referencePattern matches ${NAME} interpolation references.
	referencePattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)
)

// Parser parses configuration file text into a variable mapping.
// Parsing is pure and deterministic: identical input yields identical output,
// with no dependency on external state beyond the fixed denylist.
type Parser struct {
	maxDepth int
}

// NewParser creates a parser with the given maximum interpolation depth.
func NewParser(maxDepth int) *Parser {
	return &Parser{maxDepth: maxDepth}
}

// Parse converts configuration file text into a variable mapping, applying
// the line grammar, the dangerous-variable filter, and interpolation.
func (p *Parser) Parse(content string) (map[string]string, error) {
	vars := make(map[string]string)
	var dropped []string

	for _, line := range strings.Split(content, "\n") {
		key, value, ok := parseLine(line)
		if !ok {
			continue
		}
		if IsDangerousVariable(key) {
			dropped = append(dropped, key)
			continue
		}
		// Later lines with the same key overwrite earlier ones.
		vars[key] = value
	}

	if len(dropped) > 0 {
		sort.Strings(dropped)
		slog.Warn("dangerous variables removed", "variables", dropped)
	}

	if err := p.interpolate(vars); err != nil {
		return nil, err
	}
	return vars, nil
}

// parseLine applies the line grammar and returns the key/value pair.
// ok is false for blank lines, comments, and lines with an invalid key.
func parseLine(line string) (key, value string, ok bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", "", false
	}
	line = strings.TrimPrefix(line, exportPrefix)

	key, value, found := strings.Cut(line, "=")
	if !found {
		return "", "", false
	}
	key = strings.TrimSpace(key)
	value = stripQuotes(strings.TrimSpace(value))

	if !variableNamePattern.MatchString(key) {
		return "", "", false
	}
	return key, value, true
}

// stripQuotes removes exactly one layer of matching single or double quotes.
// No escape processing happens inside the quotes.
func stripQuotes(value string) string {
	if len(value) < 2 {
		return value
	}
	first, last := value[0], value[len(value)-1]
	if first == last && (first == '"' || first == '\'') {
		return value[1 : len(value)-1]
	}
	return value
}

// interpolate resolves ${NAME} references in every value, in place.
// Every value is expanded against a snapshot of the raw mapping, and names
// are processed in sorted order, so neither the results nor which error
// fires first depends on map iteration order.
func (p *Parser) interpolate(vars map[string]string) error {
	raw := make(map[string]string, len(vars))
	names := make([]string, 0, len(vars))
	for name, value := range vars {
		raw[name] = value
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		expanded, err := p.expand(raw[name], raw, []string{name})
		if err != nil {
			return err
		}
		vars[name] = expanded
	}
	return nil
}

// expand substitutes ${NAME} references in value. chain is the ordered
// sequence of names on the active resolution path, used both for cycle
// detection and for rendering the chain in error messages. References to
// unknown names are left verbatim. The cycle check runs before the depth
// check so a true cycle always reports as one.
func (p *Parser) expand(value string, vars map[string]string, chain []string) (string, error) {
	var expandErr error

	result := referencePattern.ReplaceAllStringFunc(value, func(match string) string {
		if expandErr != nil {
			return match
		}
		name := match[2 : len(match)-1]

		referenced, ok := vars[name]
		if !ok {
			return match // unknown reference stays verbatim
		}

		for _, seen := range chain {
			if seen == name {
				expandErr = fmt.Errorf("%w: %s", ErrCircularReference,
					strings.Join(append(chain, name), " -> "))
				return match
			}
		}
		if len(chain) >= p.maxDepth {
			expandErr = fmt.Errorf("%w: %s exceeds %d levels", ErrExpansionDepthExceeded,
				strings.Join(append(chain, name), " -> "), p.maxDepth)
			return match
		}

		expanded, err := p.expand(referenced, vars, append(chain, name))
		if err != nil {
			expandErr = err
			return match
		}
		return expanded
	})

	if expandErr != nil {
		return "", expandErr
	}
	return result, nil
}
