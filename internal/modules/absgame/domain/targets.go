package domain

import (
	_ "embed"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed targets.yaml
var defaultTargets []byte

// Point is a pixel position on the arena diagram.
type Point struct {
	X int
	Y int
}

// Target is one selectable aberration position.
type Target struct {
	Name     string
	Label    string
	Position Point

	pattern     *regexp.Regexp
	sibling     string
	basePattern *regexp.Regexp
}

// String returns the target name.
func (t Target) String() string {
	return t.Name
}

// Sibling returns the name of the target sharing this one's base name, if any.
func (t Target) Sibling() string {
	return t.sibling
}

// Table is the ordered set of targets a game draws from.
type Table struct {
	targets []Target
	byName  map[string]int
}

type tableDocument struct {
	Targets []struct {
		Name        string `yaml:"name"`
		Label       string `yaml:"label"`
		Position    []int  `yaml:"position"`
		Pattern     string `yaml:"pattern"`
		Sibling     string `yaml:"sibling"`
		BasePattern string `yaml:"base_pattern"`
	} `yaml:"targets"`
}

// DefaultTable returns the built-in target table.
func DefaultTable() *Table {
	table, err := ParseTable(defaultTargets)
	if err != nil {
		panic(fmt.Sprintf("invalid built-in target table: %v", err))
	}
	return table
}

// ParseTable parses a YAML target table.
func ParseTable(data []byte) (*Table, error) {
	var doc tableDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse target table: %w", err)
	}
	if len(doc.Targets) == 0 {
		return nil, errors.New("target table is empty")
	}

	table := &Table{byName: make(map[string]int, len(doc.Targets))}
	for _, raw := range doc.Targets {
		if raw.Name == "" {
			return nil, errors.New("target without a name")
		}
		if _, dup := table.byName[raw.Name]; dup {
			return nil, fmt.Errorf("duplicate target %s", raw.Name)
		}
		if len(raw.Position) != 2 {
			return nil, fmt.Errorf("target %s: position needs two coordinates", raw.Name)
		}
		pattern, err := compileGuessPattern(raw.Pattern)
		if err != nil {
			return nil, fmt.Errorf("target %s: %w", raw.Name, err)
		}

		target := Target{
			Name:     raw.Name,
			Label:    raw.Label,
			Position: Point{X: raw.Position[0], Y: raw.Position[1]},
			pattern:  pattern,
			sibling:  raw.Sibling,
		}
		if raw.Sibling != "" {
			if target.basePattern, err = compileGuessPattern(raw.BasePattern); err != nil {
				return nil, fmt.Errorf("target %s base: %w", raw.Name, err)
			}
		}

		table.byName[raw.Name] = len(table.targets)
		table.targets = append(table.targets, target)
	}

	for _, t := range table.targets {
		if t.sibling == "" {
			continue
		}
		sibling, ok := table.Lookup(t.sibling)
		if !ok || sibling.sibling != t.Name {
			return nil, fmt.Errorf("target %s: sibling %s must name it back", t.Name, t.sibling)
		}
	}
	return table, nil
}

func compileGuessPattern(pattern string) (*regexp.Regexp, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, errors.New("pattern is required")
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern: %w", err)
	}
	return re, nil
}

// All returns the targets in table order.
func (t *Table) All() []Target {
	out := make([]Target, len(t.targets))
	copy(out, t.targets)
	return out
}

// Len returns the number of targets.
func (t *Table) Len() int {
	return len(t.targets)
}

// Lookup returns the target with the given name.
func (t *Table) Lookup(name string) (Target, bool) {
	i, ok := t.byName[name]
	if !ok {
		return Target{}, false
	}
	return t.targets[i], true
}

// Match reports whether guess names target. When target has a sibling that
// is not among selected, the unqualified base name is accepted as well.
func Match(guess string, target Target, selected []Target) bool {
	guess = strings.TrimSpace(guess)
	if target.pattern == nil {
		return false
	}
	if target.pattern.MatchString(guess) {
		return true
	}
	if target.sibling == "" || target.basePattern == nil {
		return false
	}
	for _, s := range selected {
		if s.Name == target.sibling {
			return false
		}
	}
	return target.basePattern.MatchString(guess)
}
