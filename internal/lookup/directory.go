package lookup

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/croptalk/internal/domain/facet"
)

//go:embed directory.yaml
var defaultDirectory []byte

// State is a canonical state entry.
type State struct {
	Code         string   `yaml:"code"`
	Name         string   `yaml:"name"`
	Abbreviation string   `yaml:"abbreviation"`
	Aliases      []string `yaml:"aliases,omitempty"`
}

// County is a canonical county entry scoped to a state code.
type County struct {
	Code    string   `yaml:"code"`
	Name    string   `yaml:"name"`
	State   string   `yaml:"state"`
	Aliases []string `yaml:"aliases,omitempty"`
}

// Commodity is a canonical commodity entry.
type Commodity struct {
	Code    string   `yaml:"code"`
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases,omitempty"`
}

type file struct {
	States      []State     `yaml:"states"`
	Counties    []County    `yaml:"counties"`
	Commodities []Commodity `yaml:"commodities"`
}

type countyKey struct {
	state string
	name  string
}

// Directory resolves free-text facet names to canonical codes.
// It is immutable after construction and safe for concurrent use.
type Directory struct {
	states      map[string]State
	counties    map[countyKey]County
	commodities map[string]Commodity
}

// Default returns the directory bundled with the binary.
func Default() (*Directory, error) {
	return Parse(defaultDirectory)
}

// Load reads a directory file; an empty path yields the bundled directory.
func Load(path string) (*Directory, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lookup directory: %w", err)
	}
	return Parse(data)
}

// Parse builds a directory from YAML.
func Parse(data []byte) (*Directory, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse lookup directory: %w", err)
	}
	return New(f.States, f.Counties, f.Commodities)
}

// New indexes the given entries by every name they answer to.
func New(states []State, counties []County, commodities []Commodity) (*Directory, error) {
	d := &Directory{
		states:      make(map[string]State),
		counties:    make(map[countyKey]County),
		commodities: make(map[string]Commodity),
	}

	for _, s := range states {
		if s.Code == "" || s.Name == "" {
			return nil, fmt.Errorf("state entry %q: code and name are required", s.Name)
		}
		for _, k := range append([]string{s.Code, s.Name, s.Abbreviation}, s.Aliases...) {
			if err := put(d.states, k, s, "state"); err != nil {
				return nil, err
			}
		}
	}

	for _, c := range counties {
		if c.Code == "" || c.Name == "" || c.State == "" {
			return nil, fmt.Errorf("county entry %q: code, name and state are required", c.Name)
		}
		for _, k := range append([]string{c.Code, c.Name}, c.Aliases...) {
			if k == "" {
				continue
			}
			key := countyKey{state: c.State, name: fold(k)}
			if prev, ok := d.counties[key]; ok && prev.Code != c.Code {
				return nil, fmt.Errorf("county %q in state %s: conflicting codes %s and %s", k, c.State, prev.Code, c.Code)
			}
			d.counties[key] = c
		}
	}

	for _, c := range commodities {
		if c.Code == "" || c.Name == "" {
			return nil, fmt.Errorf("commodity entry %q: code and name are required", c.Name)
		}
		for _, k := range append([]string{c.Code, c.Name}, c.Aliases...) {
			if err := put(d.commodities, k, c, "commodity"); err != nil {
				return nil, err
			}
		}
	}

	return d, nil
}

type coded interface {
	State | Commodity
}

func codeOf[T coded](v T) string {
	switch e := any(v).(type) {
	case State:
		return e.Code
	case Commodity:
		return e.Code
	}
	return ""
}

func put[T coded](m map[string]T, name string, v T, kind string) error {
	if name == "" {
		return nil
	}
	k := fold(name)
	if prev, ok := m[k]; ok && codeOf(prev) != codeOf(v) {
		return fmt.Errorf("%s %q: conflicting codes %s and %s", kind, name, codeOf(prev), codeOf(v))
	}
	m[k] = v
	return nil
}

// State resolves a state name, abbreviation, alias or code.
func (d *Directory) State(name string) facet.Resolution {
	if !facet.IsRequested(name) {
		return facet.NotRequested(facet.State)
	}
	s, ok := d.states[fold(name)]
	if !ok {
		return facet.NotFound(facet.State, name)
	}
	return facet.Resolved(facet.State, name, s.Code)
}

// County resolves a county name within the given state. The state is resolved first;
// a county without a resolvable state is a miss.
func (d *Directory) County(name, state string) facet.Resolution {
	if !facet.IsRequested(name) {
		return facet.NotRequested(facet.County)
	}
	s, ok := d.states[fold(state)]
	if !ok {
		return facet.NotFound(facet.County, name)
	}
	key := fold(name)
	c, ok := d.counties[countyKey{state: s.Code, name: key}]
	if !ok {
		c, ok = d.counties[countyKey{state: s.Code, name: strings.TrimSuffix(key, " county")}]
	}
	if !ok {
		return facet.NotFound(facet.County, name)
	}
	return facet.Resolved(facet.County, name, c.Code)
}

// Commodity resolves a commodity name, alias or code.
func (d *Directory) Commodity(name string) facet.Resolution {
	if !facet.IsRequested(name) {
		return facet.NotRequested(facet.Commodity)
	}
	c, ok := d.commodities[fold(name)]
	if !ok {
		return facet.NotFound(facet.Commodity, name)
	}
	return facet.Resolved(facet.Commodity, name, c.Code)
}

// fold canonicalizes case and inner whitespace. A Caser is stateful, so each call gets its own.
func fold(s string) string {
	return cases.Fold().String(strings.Join(strings.Fields(s), " "))
}
