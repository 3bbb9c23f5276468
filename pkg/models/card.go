package models

// CardCategory is the binary classification assigned upstream.
type CardCategory string

const (
	CategoryOperational CardCategory = "operational"
	CategoryPromotional CardCategory = "promotional"
)

// CardPriority orders cards for display. Higher rank sorts first.
type CardPriority string

const (
	PriorityCritical CardPriority = "critical"
	PriorityHigh     CardPriority = "high"
	PriorityMedium   CardPriority = "medium"
	PriorityLow      CardPriority = "low"
)

// Rank returns a comparable weight for a priority (critical > high > medium > low).
// Unknown values rank below low.
func (p CardPriority) Rank() int {
	switch p {
	case PriorityCritical:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// ActionKind distinguishes external-link actions from in-app ones.
type ActionKind string

const (
	KindGoTo  ActionKind = "go_to"
	KindInApp ActionKind = "in_app"
)

// Card is a single actionable item produced by the upstream classifier.
// It is read-only to the engine except for the Handled flag, which is set
// after an execution completes successfully.
type Card struct {
	ID       string            `yaml:"id" json:"id"`
	Title    string            `yaml:"title" json:"title"`
	Category CardCategory      `yaml:"category" json:"category"`
	Priority CardPriority      `yaml:"priority" json:"priority"`
	Intent   string            `yaml:"intent" json:"intent"` // dot-delimited taxonomy path
	Actions  []Action          `yaml:"actions" json:"actions"`
	Extra    map[string]string `yaml:"extra,omitempty" json:"extra,omitempty"` // not owned by this engine
	Handled  bool              `yaml:"-" json:"handled"`
}

// Action is one concrete thing the user can do about a card. Actions are
// immutable snapshots; they do not change once attached to a card.
type Action struct {
	ID      string            `yaml:"id" json:"id"`
	Label   string            `yaml:"label" json:"label"`
	Kind    ActionKind        `yaml:"kind" json:"kind"`
	Primary bool              `yaml:"primary,omitempty" json:"primary,omitempty"`
	Steps   []string          `yaml:"steps,omitempty" json:"steps,omitempty"` // compound step ids, in order
	Context map[string]string `yaml:"context,omitempty" json:"context,omitempty"`
	Rank    int               `yaml:"rank,omitempty" json:"rank,omitempty"` // display tie-break only, never used for resolution
}

// IsCompound reports whether the action carries an ordered step list.
func (a *Action) IsCompound() bool {
	return len(a.Steps) > 0
}

// ActionByID returns the suggested action with the given id, if present.
func (c *Card) ActionByID(id string) *Action {
	for i := range c.Actions {
		if c.Actions[i].ID == id {
			return &c.Actions[i]
		}
	}
	return nil
}
