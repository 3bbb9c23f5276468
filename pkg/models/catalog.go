package models

// HandlerCategory is the closed set of handler families. Many action ids map
// to one category (e.g. track_package and track_delivery share "tracking").
type HandlerCategory string

const (
	HandlerComposer    HandlerCategory = "composer"
	HandlerCalendar    HandlerCategory = "calendar"
	HandlerDocuments   HandlerCategory = "documents"
	HandlerPayments    HandlerCategory = "payments"
	HandlerReminders   HandlerCategory = "reminders"
	HandlerAttachments HandlerCategory = "attachments"
	HandlerTracking    HandlerCategory = "tracking"
	HandlerFallback    HandlerCategory = "fallback"
)

// RequiredKey names a context key a handler cannot run without, plus the
// ordered aliases upstream data is known to use for the same concept.
type RequiredKey struct {
	Key     string   `yaml:"key" json:"key"`
	Aliases []string `yaml:"aliases,omitempty" json:"aliases,omitempty"`
}

// CatalogEntry describes one action identifier in the static catalog.
type CatalogEntry struct {
	ID       string          `yaml:"id" json:"id"`
	Handler  HandlerCategory `yaml:"handler" json:"handler"`
	Required []RequiredKey   `yaml:"required,omitempty" json:"required,omitempty"`
	Optional []string        `yaml:"optional,omitempty" json:"optional,omitempty"`
	Compound bool            `yaml:"compound,omitempty" json:"compound,omitempty"` // id is a compound-only marker
}

// EndBehavior dictates the final handoff when a compound flow completes.
type EndBehavior string

const (
	EndOpenFallbackComposer EndBehavior = "open_fallback_composer"
	EndDismissWithSuccess   EndBehavior = "dismiss_with_success"
	EndReturnToHost         EndBehavior = "return_to_host"
)

// CompoundDefinition maps a compound action id to its ordered step ids and
// the behavior to apply once the last step succeeds. Every step id must
// itself resolve to a single-step (non-compound) catalog entry.
type CompoundDefinition struct {
	ID    string      `yaml:"id" json:"id"`
	Steps []string    `yaml:"steps" json:"steps"`
	End   EndBehavior `yaml:"end" json:"end"`
}

// CatalogFile is the on-disk (or embedded) catalog definition.
type CatalogFile struct {
	Actions   []CatalogEntry       `yaml:"actions"`
	Compounds []CompoundDefinition `yaml:"compounds,omitempty"`
}
