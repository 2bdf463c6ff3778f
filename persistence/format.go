// Package persistence owns the on-disk representation of a lattice database:
// the single-file JSON schema, the atomic-replace commit protocol, the
// crash-recovery rules, and compressed backups.
//
// The central guarantee is that the database path always names either the
// previous committed state or the new one, never a torn intermediate. The
// writer stages the full serialized state in a sibling ".tmp" file, forces it
// to durable storage, then publishes it with a single rename.
package persistence

import (
	"fmt"
	"time"

	"github.com/hupe1980/lattice/index"
)

const (
	// FormatName identifies a lattice database file.
	FormatName = "lattice"
	// FormatVersion is bumped on incompatible schema changes.
	FormatVersion = 1

	// TempSuffix is appended to the database path for the commit staging file.
	TempSuffix = ".tmp"
)

// Meta carries database-level metadata.
type Meta struct {
	Dimensions       int                `json:"dimensions"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
	IndexDefinitions []index.Definition `json:"index_definitions"`
}

// State is the complete committed contents of a database file.
type State struct {
	Format        string         `json:"format"`
	FormatVersion int            `json:"format_version"`
	Meta          Meta           `json:"meta"`
	Data          map[string]any `json:"data"`
	Index         index.Index    `json:"index"`
}

// NewState returns the state of a freshly created database.
func NewState(dimensions int, defs []index.Definition, now time.Time) *State {
	now = now.UTC().Truncate(time.Second)
	return &State{
		Format:        FormatName,
		FormatVersion: FormatVersion,
		Meta: Meta{
			Dimensions:       dimensions,
			CreatedAt:        now,
			UpdatedAt:        now,
			IndexDefinitions: defs,
		},
		Data:  map[string]any{},
		Index: index.Index{Prefix: []string{}, Fields: map[string]map[string][]string{}},
	}
}

// Validate checks the structural invariants a parsed state must satisfy
// before the engine will touch it.
func (s *State) Validate() error {
	if s.Format != FormatName {
		return fmt.Errorf("unexpected format %q, want %q", s.Format, FormatName)
	}
	if s.FormatVersion != FormatVersion {
		return fmt.Errorf("unsupported format version %d, want %d", s.FormatVersion, FormatVersion)
	}
	if s.Meta.Dimensions < 1 {
		return fmt.Errorf("invalid dimensions %d", s.Meta.Dimensions)
	}
	if s.Data == nil {
		return fmt.Errorf("missing data section")
	}
	return nil
}
