package analysis

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ElodielAirea/WoWAnalyzer/internal/combatant"
	"github.com/ElodielAirea/WoWAnalyzer/internal/combatlog"
	"go.uber.org/zap"
)

var (
	// ErrCyclicDependency is returned when module dependencies form a cycle.
	ErrCyclicDependency = errors.New("cyclic module dependency")

	// ErrUnknownDependency is returned when a module depends on an undeclared module.
	ErrUnknownDependency = errors.New("unknown module dependency")

	// ErrDuplicateModule is returned when two descriptors share an id.
	ErrDuplicateModule = errors.New("duplicate module id")

	// ErrInvalidDescriptor is returned for descriptors without id or factory.
	ErrInvalidDescriptor = errors.New("invalid module descriptor")

	// ErrDependencyType is returned by Dependency when the module has another type.
	ErrDependencyType = errors.New("dependency has unexpected type")
)

// CyclicDependencyError reports one cycle found in the dependency graph.
type CyclicDependencyError struct {
	Cycle []string
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("cyclic module dependency: %s", strings.Join(e.Cycle, " -> "))
}

func (e *CyclicDependencyError) Unwrap() error {
	return ErrCyclicDependency
}

// Precondition decides once, before replay, whether a module applies to the session.
type Precondition func(c *combatant.Combatant) bool

// Factory constructs a module. It must register subscriptions through the
// BaseModule built from opts so that inactive modules stay inert.
type Factory func(opts Options) (Module, error)

// Descriptor declares a module as data: id, dependencies, activation and constructor.
type Descriptor struct {
	ID           string
	Dependencies []string
	Precondition Precondition
	New          Factory
}

// Deps gives a factory access to its already constructed dependencies.
type Deps map[string]Module

// Dependency returns the dependency id as type T.
func Dependency[T Module](deps Deps, id string) (T, error) {
	var zero T
	m, ok := deps[id]
	if !ok {
		return zero, fmt.Errorf("dependency %q: %w", id, ErrUnknownDependency)
	}
	typed, ok := m.(T)
	if !ok {
		return zero, fmt.Errorf("dependency %q is %T: %w", id, m, ErrDependencyType)
	}
	return typed, nil
}

// Environment is the per-session context modules are built against.
type Environment struct {
	Combatant *combatant.Combatant
	Registry  *combatlog.Registry
	Fight     Fight
}

// Host owns the modules of one session.
type Host struct {
	logger  *zap.Logger
	modules map[string]Module
	order   []string
}

// Instantiate resolves descriptor dependencies, decides activation and
// constructs every module in dependency order. A module is active only when
// its precondition holds and all of its dependencies are active.
func Instantiate(env Environment, descriptors []Descriptor, logger *zap.Logger) (*Host, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	order, err := resolveOrder(descriptors)
	if err != nil {
		return nil, err
	}

	h := &Host{
		logger:  logger,
		modules: make(map[string]Module, len(descriptors)),
		order:   make([]string, 0, len(descriptors)),
	}

	for _, d := range order {
		deps := make(Deps, len(d.Dependencies))
		active := d.Precondition == nil || d.Precondition(env.Combatant)
		for _, depID := range d.Dependencies {
			dep := h.modules[depID]
			deps[depID] = dep
			if !dep.Active() {
				active = false
			}
		}

		m, err := d.New(Options{
			ID:        d.ID,
			Active:    active,
			Combatant: env.Combatant,
			Registry:  env.Registry,
			Fight:     env.Fight,
			Deps:      deps,
			Logger:    logger,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to construct module %s: %w", d.ID, err)
		}
		if m == nil {
			return nil, fmt.Errorf("module %s factory returned nil: %w", d.ID, ErrInvalidDescriptor)
		}

		h.modules[d.ID] = m
		h.order = append(h.order, d.ID)

		logger.Debug("module constructed",
			zap.String("module", d.ID),
			zap.Bool("active", m.Active()),
		)
	}

	return h, nil
}

// resolveOrder sorts descriptors so that dependencies come first. Among
// modules whose dependencies are satisfied, declaration order wins.
func resolveOrder(descriptors []Descriptor) ([]Descriptor, error) {
	byID := make(map[string]int, len(descriptors))
	for i, d := range descriptors {
		if d.ID == "" || d.New == nil {
			return nil, fmt.Errorf("descriptor %d (%q): %w", i, d.ID, ErrInvalidDescriptor)
		}
		if _, dup := byID[d.ID]; dup {
			return nil, fmt.Errorf("module %s: %w", d.ID, ErrDuplicateModule)
		}
		byID[d.ID] = i
	}

	pending := make([]int, len(descriptors))
	for i, d := range descriptors {
		for _, dep := range d.Dependencies {
			if _, ok := byID[dep]; !ok {
				return nil, fmt.Errorf("module %s depends on %s: %w", d.ID, dep, ErrUnknownDependency)
			}
		}
		pending[i] = len(d.Dependencies)
	}

	placed := make([]bool, len(descriptors))
	ordered := make([]Descriptor, 0, len(descriptors))
	for len(ordered) < len(descriptors) {
		progressed := false
		for i, d := range descriptors {
			if placed[i] || pending[i] > 0 {
				continue
			}
			placed[i] = true
			ordered = append(ordered, d)
			progressed = true
			for j, other := range descriptors {
				if placed[j] {
					continue
				}
				for _, dep := range other.Dependencies {
					if dep == d.ID {
						pending[j]--
					}
				}
			}
			// Restart from the top so earlier declarations keep priority.
			break
		}
		if !progressed {
			return nil, &CyclicDependencyError{Cycle: findCycle(descriptors, byID, placed)}
		}
	}
	return ordered, nil
}

// findCycle walks unplaced descriptors until a module repeats.
func findCycle(descriptors []Descriptor, byID map[string]int, placed []bool) []string {
	start := -1
	for i := range descriptors {
		if !placed[i] {
			start = i
			break
		}
	}
	if start < 0 {
		return nil
	}

	seenAt := make(map[int]int)
	var path []string
	current := start
	for {
		if pos, ok := seenAt[current]; ok {
			cycle := append([]string(nil), path[pos:]...)
			return append(cycle, descriptors[current].ID)
		}
		seenAt[current] = len(path)
		path = append(path, descriptors[current].ID)

		next := -1
		for _, dep := range descriptors[current].Dependencies {
			if j := byID[dep]; !placed[j] {
				next = j
				break
			}
		}
		if next < 0 {
			return path
		}
		current = next
	}
}

// Module returns the module with the given id.
func (h *Host) Module(id string) (Module, bool) {
	m, ok := h.modules[id]
	return m, ok
}

// Modules returns every module in construction order.
func (h *Host) Modules() []Module {
	out := make([]Module, 0, len(h.order))
	for _, id := range h.order {
		out = append(out, h.modules[id])
	}
	return out
}

// ActiveModules returns the active modules in construction order.
func (h *Host) ActiveModules() []Module {
	out := make([]Module, 0, len(h.order))
	for _, id := range h.order {
		if m := h.modules[id]; m.Active() {
			out = append(out, m)
		}
	}
	return out
}

// Len returns the number of constructed modules.
func (h *Host) Len() int {
	return len(h.order)
}
