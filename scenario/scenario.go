package scenario

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/lixenwraith/dockbridge/config"
	"github.com/lixenwraith/dockbridge/core"
	"github.com/lixenwraith/dockbridge/network"
)

// ErrInvalidScenario wraps structural and reference errors in a scenario file
var ErrInvalidScenario = errors.New("invalid scenario")

var validate = validator.New()

// Scenario is a scripted world: grids, docks and node-bearing entities followed by steps
type Scenario struct {
	Name     string        `yaml:"name" validate:"required"`
	Config   config.Config `yaml:"config"`
	Grids    []Grid        `yaml:"grids" validate:"required,min=1,dive"`
	Docks    []Dock        `yaml:"docks" validate:"dive"`
	Entities []Entity      `yaml:"entities" validate:"dive"`
	Steps    []Step        `yaml:"steps" validate:"dive"`
}

// Grid is a movable grid, rotation in degrees
type Grid struct {
	Name     string  `yaml:"name" validate:"required"`
	Rotation float64 `yaml:"rotation"`
}

// Dock is a dock port anchored on a grid
type Dock struct {
	Name   string  `yaml:"name" validate:"required"`
	Grid   string  `yaml:"grid" validate:"required"`
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Facing string  `yaml:"facing" validate:"required,oneof=North East South West north east south west"`
}

// Entity carries network nodes, anchored unless Loose is set
type Entity struct {
	Name  string  `yaml:"name" validate:"required"`
	Grid  string  `yaml:"grid" validate:"required"`
	X     float64 `yaml:"x"`
	Y     float64 `yaml:"y"`
	Loose bool    `yaml:"loose"`
	Nodes []Node  `yaml:"nodes" validate:"dive"`
}

// Node describes one network node of an entity
type Node struct {
	Name  string `yaml:"name" validate:"required"`
	Kind  string `yaml:"kind" validate:"required,oneof=pipe cable"`
	Group string `yaml:"group" validate:"required"`
	Layer int    `yaml:"layer" validate:"min=0"`
	Net   uint64 `yaml:"net"`
	Dirs  string `yaml:"dirs"`
}

// Step is one scripted action
// A and B name docks or entities depending on the action
type Step struct {
	Action    string  `yaml:"action" validate:"required,oneof=dock undock anchor unanchor destroy rotate refresh emit tick sweep expect"`
	A         string  `yaml:"a"`
	B         string  `yaml:"b"`
	Grid      string  `yaml:"grid"`
	Degrees   float64 `yaml:"degrees"`
	Event     string  `yaml:"event"`
	Reason    string  `yaml:"reason"`
	Count     int     `yaml:"count" validate:"min=0"`
	Connected *bool   `yaml:"connected"`
	Edges     *int    `yaml:"edges"`
}

// Load reads and validates a scenario file
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario %s: %w", path, err)
	}
	sc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return sc, nil
}

// Parse decodes a scenario, the config block overlays the defaults
func Parse(data []byte) (*Scenario, error) {
	sc := &Scenario{Config: config.Default()}
	if err := yaml.Unmarshal(data, sc); err != nil {
		return nil, fmt.Errorf("unmarshaling scenario: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return sc, nil
}

// Validate checks field constraints and that every name a step uses is declared
func (sc *Scenario) Validate() error {
	if err := validate.Struct(sc); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s failed %s", ErrInvalidScenario, fe.Namespace(), fe.Tag())
		}
		return fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}
	grids := make(map[string]bool, len(sc.Grids))
	for _, g := range sc.Grids {
		if grids[g.Name] {
			return fmt.Errorf("%w: duplicate grid %q", ErrInvalidScenario, g.Name)
		}
		grids[g.Name] = true
	}

	docks := make(map[string]bool, len(sc.Docks))
	entities := make(map[string]bool, len(sc.Entities))
	for _, d := range sc.Docks {
		if !grids[d.Grid] {
			return fmt.Errorf("%w: dock %q on unknown grid %q", ErrInvalidScenario, d.Name, d.Grid)
		}
		if docks[d.Name] || grids[d.Name] {
			return fmt.Errorf("%w: duplicate name %q", ErrInvalidScenario, d.Name)
		}
		docks[d.Name] = true
	}
	for _, e := range sc.Entities {
		if !grids[e.Grid] {
			return fmt.Errorf("%w: entity %q on unknown grid %q", ErrInvalidScenario, e.Name, e.Grid)
		}
		if entities[e.Name] || docks[e.Name] || grids[e.Name] {
			return fmt.Errorf("%w: duplicate name %q", ErrInvalidScenario, e.Name)
		}
		entities[e.Name] = true
		for _, n := range e.Nodes {
			if _, ok := network.ParseKind(n.Kind); !ok {
				return fmt.Errorf("%w: entity %q node %q has kind %q", ErrInvalidScenario, e.Name, n.Name, n.Kind)
			}
		}
	}

	known := func(name string) bool { return docks[name] || entities[name] || grids[name] }
	for i, st := range sc.Steps {
		var missing string
		switch st.Action {
		case "dock", "expect":
			if st.A != "" && !known(st.A) {
				missing = st.A
			} else if st.B != "" && !known(st.B) {
				missing = st.B
			}
			if st.Action == "dock" && (st.A == "" || st.B == "") {
				return fmt.Errorf("%w: step %d: dock needs a and b", ErrInvalidScenario, i)
			}
		case "undock", "anchor", "unanchor", "destroy":
			if st.A == "" {
				return fmt.Errorf("%w: step %d: %s needs a", ErrInvalidScenario, i, st.Action)
			}
			if !known(st.A) {
				missing = st.A
			}
		case "rotate":
			if !grids[st.Grid] {
				missing = st.Grid
			}
		case "emit":
			if st.Event == "" {
				return fmt.Errorf("%w: step %d: emit needs an event", ErrInvalidScenario, i)
			}
			if st.A != "" && !known(st.A) {
				missing = st.A
			} else if st.B != "" && !known(st.B) {
				missing = st.B
			}
		}
		if missing != "" {
			return fmt.Errorf("%w: step %d (%s) references unknown %q", ErrInvalidScenario, i, st.Action, missing)
		}
	}
	return nil
}

// parseFacing resolves a cardinal name, case-insensitive
func parseFacing(s string) core.Direction {
	for _, d := range core.Cardinals {
		if strings.EqualFold(d.String(), s) {
			return d
		}
	}
	return core.DirNone
}
