package alignment

import (
	"github.com/agentstation/placemap/pkg/errors"
)

// Mode names the method that detected or corroborated an alignment.
type Mode string

const (
	// ModeAssertion marks alignments declared by a source record.
	ModeAssertion Mode = "assertion"
	// ModeProximity marks alignments found by geometric distance.
	ModeProximity Mode = "proximity"
	// ModeInference marks alignments chained through a bridge id.
	ModeInference Mode = "inference"
	// ModeToponymy marks alignments whose places share a name.
	ModeToponymy Mode = "toponymy"
	// ModeTypology marks alignments whose places share a feature type.
	ModeTypology Mode = "typology"
)

// Modes lists the full vocabulary in canonical order.
var Modes = []Mode{ModeAssertion, ModeProximity, ModeInference, ModeToponymy, ModeTypology}

// String returns the string representation of a mode.
func (m Mode) String() string {
	return string(m)
}

// Valid reports whether m is part of the vocabulary.
func (m Mode) Valid() bool {
	switch m {
	case ModeAssertion, ModeProximity, ModeInference, ModeToponymy, ModeTypology:
		return true
	}
	return false
}

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	if !m.Valid() {
		return "", unsupported(s)
	}
	return m, nil
}

func unsupported(s string) error {
	names := make([]string, len(Modes))
	for i, m := range Modes {
		names[i] = string(m)
	}
	return errors.NewUnsupportedModeError(s, names)
}
