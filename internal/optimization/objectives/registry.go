package objectives

import (
	"errors"
	"fmt"
	"sort"

	"github.com/copyleftdev/hypercube/internal/optimization"
)

// ErrUnknownObjective is returned by Lookup for names that are not registered.
var ErrUnknownObjective = errors.New("unknown objective")

// Objective describes a registered benchmark function.
type Objective struct {
	Name        string                         `json:"name"`
	Description string                         `json:"description"`
	Function    optimization.ObjectiveFunction `json:"-"`
	// Dimension is the only dimension the function accepts, 0 for any.
	Dimension int `json:"dimension,omitempty"`
	// MinDimension is the smallest dimension the function accepts.
	MinDimension int `json:"min_dimension,omitempty"`
	// Suggested search bounds.
	LowerBound float64 `json:"lower_bound"`
	UpperBound float64 `json:"upper_bound"`
	// Known maximum value, when there is one.
	Maximum *float64 `json:"maximum,omitempty"`
}

// Accepts reports whether the objective is defined in dim dimensions.
func (o Objective) Accepts(dim int) bool {
	if dim < 1 || dim < o.MinDimension {
		return false
	}
	return o.Dimension == 0 || o.Dimension == dim
}

// Registry maps names to objectives.
type Registry struct {
	objectives map[string]Objective
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{objectives: make(map[string]Objective)}
}

// Register adds o, replacing any objective with the same name.
func (r *Registry) Register(o Objective) {
	if o.Name == "" || o.Function == nil {
		panic("objectives: objective needs a name and a function")
	}
	r.objectives[o.Name] = o
}

// Lookup returns the objective registered under name.
func (r *Registry) Lookup(name string) (Objective, error) {
	o, ok := r.objectives[name]
	if !ok {
		return Objective{}, fmt.Errorf("%w: %q", ErrUnknownObjective, name)
	}
	return o, nil
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.objectives))
	for name := range r.objectives {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List returns the registered objectives sorted by name.
func (r *Registry) List() []Objective {
	names := r.Names()
	out := make([]Objective, len(names))
	for i, name := range names {
		out[i] = r.objectives[name]
	}
	return out
}

func ptr(v float64) *float64 { return &v }

// Default returns a registry holding every benchmark in this package.
func Default() *Registry {
	r := NewRegistry()
	r.Register(Objective{
		Name:         "sphere",
		Description:  "sum of squares, unbounded above",
		Function:     Sphere,
		MinDimension: 1,
		LowerBound:   -5.12,
		UpperBound:   5.12,
	})
	r.Register(Objective{
		Name:         "neg_sphere",
		Description:  "negated sum of squares, maximal at the origin",
		Function:     NegSphere,
		MinDimension: 1,
		LowerBound:   -5.12,
		UpperBound:   5.12,
		Maximum:      ptr(0),
	})
	r.Register(Objective{
		Name:         "rastrigin",
		Description:  "Rastrigin function, highly multimodal",
		Function:     Rastrigin,
		MinDimension: 1,
		LowerBound:   -5.12,
		UpperBound:   5.12,
	})
	r.Register(Objective{
		Name:         "neg_rastrigin",
		Description:  "negated Rastrigin function, maximal at the origin",
		Function:     NegRastrigin,
		MinDimension: 1,
		LowerBound:   -5.12,
		UpperBound:   5.12,
		Maximum:      ptr(0),
	})
	r.Register(Objective{
		Name:         "neg_rosenbrock",
		Description:  "negated Rosenbrock valley, maximal at (1, ..., 1)",
		Function:     NegRosenbrock,
		MinDimension: 2,
		LowerBound:   -5,
		UpperBound:   10,
		Maximum:      ptr(0),
	})
	r.Register(Objective{
		Name:         "neg_ackley",
		Description:  "negated Ackley function, maximal at the origin",
		Function:     NegAckley,
		MinDimension: 1,
		LowerBound:   -32.768,
		UpperBound:   32.768,
		Maximum:      ptr(0),
	})
	r.Register(Objective{
		Name:        "neg_eggholder",
		Description: "negated Eggholder function, two dimensional",
		Function:    NegEggholder,
		Dimension:   2,
		LowerBound:  -512,
		UpperBound:  512,
		Maximum:     ptr(959.6407),
	})
	return r
}
