package workflow

import (
	"fmt"
	"sort"
)

// Table lists, per status, the actions permitted from it and the statuses each
// action may lead to. An action usually has several possible targets because the
// outcome depends on the case data, e.g. assessing a condition lands in any of
// the three assessed statuses.
type Table interface {
	// Permits reports whether action may be taken from status
	Permits(from Status, action Action) bool

	// Targets returns the statuses action may lead to from status
	Targets(from Status, action Action) []Status

	// Permitted returns the actions permitted from status in a stable order
	Permitted(from Status) []Action

	// Check verifies that moving from one status to another through action is listed
	Check(from Status, action Action, to Status) error
}

// TableBuilder collects permitted transitions before compiling them into a Table
type TableBuilder interface {
	// From returns the configuration for transitions leaving status
	From(status Status) StatusConfiguration

	// Build compiles the configuration into an immutable Table
	Build() Table
}

// StatusConfiguration configures transitions leaving one status
type StatusConfiguration interface {
	// Permit allows action to lead to any of the given statuses
	Permit(action Action, to ...Status) StatusConfiguration
}

type statusConfig struct {
	targets map[Action][]Status
}

type tableBuilder struct {
	configurations map[Status]*statusConfig
}

type table struct {
	targets map[Status]map[Action][]Status
}

// NewTableBuilder creates a new table builder
func NewTableBuilder() TableBuilder {
	return &tableBuilder{configurations: make(map[Status]*statusConfig)}
}

// From returns the configuration for transitions leaving status. Panics on an
// unknown status since tables are built from constants at init time.
func (b *tableBuilder) From(status Status) StatusConfiguration {
	if !status.IsValid() {
		panic(fmt.Sprintf("invalid status: %s", status))
	}
	config, exists := b.configurations[status]
	if !exists {
		config = &statusConfig{targets: make(map[Action][]Status)}
		b.configurations[status] = config
	}
	return config
}

// Build compiles the configuration into an immutable Table
func (b *tableBuilder) Build() Table {
	compiled := make(map[Status]map[Action][]Status, len(b.configurations))
	for status, config := range b.configurations {
		actions := make(map[Action][]Status, len(config.targets))
		for action, targets := range config.targets {
			actions[action] = append([]Status(nil), targets...)
		}
		compiled[status] = actions
	}
	return &table{targets: compiled}
}

// Permit allows action to lead to any of the given statuses
func (c *statusConfig) Permit(action Action, to ...Status) StatusConfiguration {
	if !action.IsValid() {
		panic(fmt.Sprintf("invalid action: %s", action))
	}
	for _, status := range to {
		if !status.IsValid() {
			panic(fmt.Sprintf("invalid target status: %s", status))
		}
		c.targets[action] = append(c.targets[action], status)
	}
	return c
}

func (t *table) Permits(from Status, action Action) bool {
	return len(t.targets[from][action]) > 0
}

func (t *table) Targets(from Status, action Action) []Status {
	return append([]Status(nil), t.targets[from][action]...)
}

func (t *table) Permitted(from Status) []Action {
	actions := make([]Action, 0, len(t.targets[from]))
	for action := range t.targets[from] {
		actions = append(actions, action)
	}
	sort.Slice(actions, func(i, j int) bool { return actions[i] < actions[j] })
	return actions
}

func (t *table) Check(from Status, action Action, to Status) error {
	if !from.IsValid() {
		return fmt.Errorf("%w: %s", ErrInvalidStatus, from)
	}
	targets, ok := t.targets[from][action]
	if !ok || len(targets) == 0 {
		return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, action, from)
	}
	for _, target := range targets {
		if target == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s from %s landed in %s", ErrUnexpectedTarget, action, from, to)
}
