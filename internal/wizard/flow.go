package wizard

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"skincare-backend/internal/profile"
)

//go:embed flows.yaml
var defaultFlowsYAML []byte

var ErrUnknownFlow = errors.New("unknown flow")

// Requirement is satisfied when any of its fields holds an answer.
type Requirement []profile.Field

func (r *Requirement) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	var out Requirement
	for _, part := range strings.Split(raw, "|") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, profile.Field(part))
		}
	}
	if len(out) == 0 {
		return fmt.Errorf("line %d: empty requirement", value.Line)
	}
	*r = out
	return nil
}

func (r Requirement) satisfiedBy(store *profile.Store) bool {
	for _, f := range r {
		if store.Has(f) {
			return true
		}
	}
	return false
}

func (r Requirement) String() string {
	parts := make([]string, len(r))
	for i, f := range r {
		parts[i] = string(f)
	}
	return strings.Join(parts, "|")
}

type Step struct {
	Title    string          `yaml:"title"`
	Fields   []profile.Field `yaml:"fields"`
	Required []Requirement   `yaml:"required"`
}

// Flow is an ordered list of steps; the last one displays results.
type Flow struct {
	Name  string `yaml:"name"`
	Steps []Step `yaml:"steps"`
}

func (f Flow) TotalSteps() int {
	return len(f.Steps)
}

// Step returns the 1-based step n.
func (f Flow) Step(n int) (Step, bool) {
	if n < 1 || n > len(f.Steps) {
		return Step{}, false
	}
	return f.Steps[n-1], true
}

func (f Flow) validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return errors.New("flow name is required")
	}
	if len(f.Steps) < 2 {
		return fmt.Errorf("flow %q needs at least two steps", f.Name)
	}
	for i, step := range f.Steps {
		collected := make(map[profile.Field]bool, len(step.Fields))
		for _, field := range step.Fields {
			if !field.Known() {
				return fmt.Errorf("flow %q step %d: unknown field %q", f.Name, i+1, field)
			}
			collected[field] = true
		}
		if i == len(f.Steps)-1 && len(step.Required) > 0 {
			return fmt.Errorf("flow %q: results step cannot require answers", f.Name)
		}
		for _, req := range step.Required {
			for _, field := range req {
				if !collected[field] {
					return fmt.Errorf("flow %q step %d: required field %q is not collected by the step", f.Name, i+1, field)
				}
			}
		}
	}
	return nil
}

// Catalog holds the named flows a session can follow.
type Catalog struct {
	defaultName string
	flows       map[string]Flow
	names       []string
}

type catalogFile struct {
	Default string `yaml:"default"`
	Flows   []Flow `yaml:"flows"`
}

// LoadCatalog parses and validates a flow definition document.
func LoadCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse flows: %w", err)
	}
	if len(file.Flows) == 0 {
		return nil, errors.New("no flows defined")
	}
	c := &Catalog{flows: make(map[string]Flow, len(file.Flows))}
	for _, f := range file.Flows {
		f.Name = strings.ToLower(strings.TrimSpace(f.Name))
		if err := f.validate(); err != nil {
			return nil, err
		}
		if _, dup := c.flows[f.Name]; dup {
			return nil, fmt.Errorf("duplicate flow %q", f.Name)
		}
		c.flows[f.Name] = f
		c.names = append(c.names, f.Name)
	}
	c.defaultName = strings.ToLower(strings.TrimSpace(file.Default))
	if c.defaultName == "" {
		c.defaultName = c.names[0]
	}
	if _, ok := c.flows[c.defaultName]; !ok {
		return nil, fmt.Errorf("default flow %q is not defined", c.defaultName)
	}
	return c, nil
}

// LoadCatalogFile reads flows from path, or the built-in flows when path
// is empty.
func LoadCatalogFile(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultCatalog()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read flows: %w", err)
	}
	return LoadCatalog(data)
}

var (
	defaultCatalogOnce sync.Once
	defaultCatalog     *Catalog
	defaultCatalogErr  error
)

// DefaultCatalog returns the built-in guided and quick flows.
func DefaultCatalog() (*Catalog, error) {
	defaultCatalogOnce.Do(func() {
		defaultCatalog, defaultCatalogErr = LoadCatalog(defaultFlowsYAML)
	})
	return defaultCatalog, defaultCatalogErr
}

// Get returns the named flow; a blank name selects the default.
func (c *Catalog) Get(name string) (Flow, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = c.defaultName
	}
	f, ok := c.flows[name]
	if !ok {
		return Flow{}, fmt.Errorf("%w: %s", ErrUnknownFlow, name)
	}
	return f, nil
}

func (c *Catalog) DefaultName() string {
	return c.defaultName
}

func (c *Catalog) Names() []string {
	return append([]string(nil), c.names...)
}
