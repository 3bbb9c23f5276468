// Package catalog holds the static registry mapping action identifiers to
// handler categories, required context keys, and compound definitions.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"sync"

	yaml "gopkg.in/yaml.v3"

	"github.com/zeroinbox/cardactions/internal/interfaces"
	"github.com/zeroinbox/cardactions/pkg/models"
)

//go:embed actions.yaml
var embeddedCatalogData []byte

// Catalog is the parsed, indexed action catalog. Read-only after Parse.
type Catalog struct {
	entries   map[string]*models.CatalogEntry
	compounds map[string]*models.CompoundDefinition
}

var _ interfaces.Catalog = (*Catalog)(nil)

var (
	defaultCatalog *Catalog
	defaultErr     error
	defaultOnce    sync.Once
)

// Default returns the catalog built from the embedded definition,
// initializing it on first use.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		if len(embeddedCatalogData) == 0 {
			defaultErr = fmt.Errorf("embedded catalog data is empty")
			return
		}
		defaultCatalog, defaultErr = Parse(embeddedCatalogData)
	})
	return defaultCatalog, defaultErr
}

// Parse builds and validates a catalog from YAML data.
func Parse(data []byte) (*Catalog, error) {
	var file models.CatalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog YAML: %w", err)
	}

	c := &Catalog{
		entries:   make(map[string]*models.CatalogEntry, len(file.Actions)),
		compounds: make(map[string]*models.CompoundDefinition, len(file.Compounds)),
	}
	for i := range file.Actions {
		entry := &file.Actions[i]
		if entry.ID == "" {
			return nil, fmt.Errorf("catalog entry %d has no id", i)
		}
		if _, dup := c.entries[entry.ID]; dup {
			return nil, fmt.Errorf("duplicate catalog entry: %s", entry.ID)
		}
		c.entries[entry.ID] = entry
	}
	for i := range file.Compounds {
		def := &file.Compounds[i]
		if _, dup := c.compounds[def.ID]; dup {
			return nil, fmt.Errorf("duplicate compound definition: %s", def.ID)
		}
		c.compounds[def.ID] = def
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadFile reads and parses a catalog override file.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return Parse(data)
}

// Lookup returns the entry for an action id. The second return is false for
// ids this catalog has never heard of.
func (c *Catalog) Lookup(actionID string) (*models.CatalogEntry, bool) {
	entry, ok := c.entries[actionID]
	return entry, ok
}

// Compound returns the compound definition for an action id.
func (c *Catalog) Compound(actionID string) (*models.CompoundDefinition, bool) {
	def, ok := c.compounds[actionID]
	return def, ok
}

// Len returns the number of catalog entries.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Validate enforces the catalog invariants: compound markers have a
// definition with at least one step, every step id resolves to a
// non-compound entry (no nesting), and end behaviors are known.
func (c *Catalog) Validate() error {
	for id, entry := range c.entries {
		if entry.Compound {
			if _, ok := c.compounds[id]; !ok {
				return fmt.Errorf("compound marker %s has no compound definition", id)
			}
		}
	}
	for id, def := range c.compounds {
		entry, ok := c.entries[id]
		if !ok {
			return fmt.Errorf("compound definition %s has no catalog entry", id)
		}
		if !entry.Compound {
			return fmt.Errorf("compound definition %s: entry is not marked compound", id)
		}
		if len(def.Steps) == 0 {
			return fmt.Errorf("compound definition %s has no steps", id)
		}
		switch def.End {
		case models.EndOpenFallbackComposer, models.EndDismissWithSuccess, models.EndReturnToHost:
		default:
			return fmt.Errorf("compound definition %s: unknown end behavior %q", id, def.End)
		}
		for _, stepID := range def.Steps {
			stepEntry, ok := c.entries[stepID]
			if !ok {
				return fmt.Errorf("compound definition %s: step %s not in catalog", id, stepID)
			}
			if stepEntry.Compound {
				return fmt.Errorf("compound definition %s: step %s is itself compound", id, stepID)
			}
		}
	}
	return nil
}
