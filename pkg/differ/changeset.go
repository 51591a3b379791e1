// Package differ compares the alignment records of two runs.
package differ

import (
	"fmt"
	"strings"

	"github.com/agentstation/placemap/pkg/alignment"
)

// ChangeType represents the type of change.
type ChangeType string

const (
	// ChangeTypeAdd indicates an item was added.
	ChangeTypeAdd ChangeType = "add"
	// ChangeTypeUpdate indicates an item was updated.
	ChangeTypeUpdate ChangeType = "update"
	// ChangeTypeRemove indicates an item was removed.
	ChangeTypeRemove ChangeType = "remove"
)

// Compared record fields.
const (
	FieldAuthorities = "authorities"
	FieldModes       = "modes"
	FieldProximity   = "proximity"
	FieldDistance    = "centroid_distance_m"
)

// FieldChange represents a change to a specific field.
type FieldChange struct {
	Path     string     `json:"path" yaml:"path"`
	OldValue string     `json:"old_value" yaml:"old_value"`
	NewValue string     `json:"new_value" yaml:"new_value"`
	Type     ChangeType `json:"type" yaml:"type"`
}

// AlignmentUpdate represents an alignment present in both runs whose
// record differs.
type AlignmentUpdate struct {
	Key      alignment.Key    `json:"-" yaml:"-"`
	Existing alignment.Record `json:"existing" yaml:"existing"`
	New      alignment.Record `json:"new" yaml:"new"`
	Changes  []FieldChange    `json:"changes" yaml:"changes"`
}

// Changeset represents all changes between two runs.
type Changeset struct {
	Added   []alignment.Record `json:"added" yaml:"added"`
	Updated []AlignmentUpdate  `json:"updated" yaml:"updated"`
	Removed []alignment.Record `json:"removed" yaml:"removed"`
	Summary ChangesetSummary   `json:"summary" yaml:"summary"`
}

// ChangesetSummary provides summary statistics for a changeset.
type ChangesetSummary struct {
	Added        int `json:"added" yaml:"added"`
	Updated      int `json:"updated" yaml:"updated"`
	Removed      int `json:"removed" yaml:"removed"`
	TotalChanges int `json:"total_changes" yaml:"total_changes"`
}

// HasChanges returns true if the changeset contains any changes.
func (c *Changeset) HasChanges() bool {
	return c.Summary.TotalChanges > 0
}

// String summarizes the changeset in one line.
func (c *Changeset) String() string {
	if !c.HasChanges() {
		return "no changes"
	}
	var parts []string
	if c.Summary.Added > 0 {
		parts = append(parts, fmt.Sprintf("%d added", c.Summary.Added))
	}
	if c.Summary.Updated > 0 {
		parts = append(parts, fmt.Sprintf("%d updated", c.Summary.Updated))
	}
	if c.Summary.Removed > 0 {
		parts = append(parts, fmt.Sprintf("%d removed", c.Summary.Removed))
	}
	return strings.Join(parts, ", ")
}

func calculateSummary(c *Changeset) ChangesetSummary {
	return ChangesetSummary{
		Added:        len(c.Added),
		Updated:      len(c.Updated),
		Removed:      len(c.Removed),
		TotalChanges: len(c.Added) + len(c.Updated) + len(c.Removed),
	}
}
