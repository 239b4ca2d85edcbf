package settings

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/BurntSushi/toml"
)

// Quick builds a Manager for spec and resolves the settings file, if present.
func Quick(spec Spec, file string) (*Manager, error) {
	return NewBuilder().WithSpec(spec).WithFile(file).Build()
}

// MustQuick is like Quick but panics on error other than ErrFileNotFound.
func MustQuick(spec Spec, file string) *Manager {
	m, err := Quick(spec, file)
	if err != nil && !errors.Is(err, ErrFileNotFound) {
		panic(fmt.Sprintf("settings initialization failed: %v", err))
	}
	return m
}

// Debug returns every leaf with its current value, initial value and origin.
func (m *Manager) Debug() string {
	var b strings.Builder
	b.WriteString("Settings Debug Info:\n")
	fmt.Fprintf(&b, "Generation: %d (%s)\n", m.generation, m.snapshotID)

	m.metadata.walkLeaves(nil, func(path []string, e *Entry) {
		fmt.Fprintf(&b, "  %s:\n", strings.Join(path, "."))
		fmt.Fprintf(&b, "    Current: %v\n", e.Value)
		fmt.Fprintf(&b, "    Initial: %v\n", e.Initial)
		fmt.Fprintf(&b, "    From: %s\n", e.From)
	})
	return b.String()
}

// Dump writes the current settings to w in TOML format.
func (m *Manager) Dump(w io.Writer) error {
	return toml.NewEncoder(w).Encode(m.data)
}
