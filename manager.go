package settings

import (
	"context"
	"log/slog"
	"os"

	"github.com/google/uuid"
)

// ModeEnvVar selects production mode when set to "production". In
// production the spec is not statically validated at construction.
const ModeEnvVar = "GO_ENV"

// Option configures a Manager.
type Option func(*managerConfig)

type managerConfig struct {
	onFixup    OnFixupFunc
	logger     Logger
	production *bool
}

// WithOnFixup routes fixup events to fn instead of the default warning log.
func WithOnFixup(fn OnFixupFunc) Option {
	return func(cfg *managerConfig) {
		cfg.onFixup = fn
	}
}

// WithLogger sets the logging collaborator. A nil logger discards events.
func WithLogger(logger Logger) Option {
	return func(cfg *managerConfig) {
		if logger == nil {
			cfg.logger = noopLogger{}
			return
		}
		cfg.logger = logger
	}
}

// WithProduction overrides the mode derived from ModeEnvVar.
func WithProduction(production bool) Option {
	return func(cfg *managerConfig) {
		cfg.production = &production
	}
}

func applyOptions(opts []Option) managerConfig {
	cfg := managerConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	if cfg.production == nil {
		production := os.Getenv(ModeEnvVar) == "production"
		cfg.production = &production
	}
	return cfg
}

// Manager owns a resolved settings tree and its provenance metadata.
// It is not safe for concurrent use, and hooks must not call back into the
// Manager that invoked them.
type Manager struct {
	spec     Spec
	cfg      managerConfig
	data     map[string]any
	metadata Metadata

	original   map[string]any
	generation uint64
	snapshotID string
}

// New validates spec (outside production mode) and initializes the settings.
func New(spec Spec, opts ...Option) (*Manager, error) {
	cfg := applyOptions(opts)
	if spec == nil {
		spec = Spec{}
	}

	if !*cfg.production {
		if err := validateSpec(spec); err != nil {
			return nil, err
		}
	}

	m := &Manager{spec: spec, cfg: cfg}
	if err := m.initialize(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manager) initialize() error {
	data := map[string]any{}
	metadata := Metadata{}
	m.data = data
	m.metadata = metadata
	m.snapshotID = uuid.NewString()
	return initialize(m.spec, data, metadata, m.cfg.logger)
}

// Data returns the live settings tree. The returned map is replaced by Reset.
func (m *Manager) Data() map[string]any {
	return m.data
}

// Metadata returns the live provenance tree. The returned map is replaced by Reset.
func (m *Manager) Metadata() Metadata {
	return m.metadata
}

// Spec returns the spec the manager resolves against.
func (m *Manager) Spec() Spec {
	return m.spec
}

// Production reports whether the manager runs in production mode.
func (m *Manager) Production() bool {
	return *m.cfg.production
}

// Change resolves input into the current settings and returns m.
func (m *Manager) Change(input map[string]any) (*Manager, error) {
	opts := resolveOptions{onFixup: m.cfg.onFixup, logger: m.cfg.logger}
	if err := resolve(opts, m.spec, input, m.data, m.metadata); err != nil {
		return m, err
	}
	return m, nil
}

// Reset rebinds the manager to freshly initialized trees and returns m.
// References obtained from Data or Metadata before the reset are stale.
func (m *Manager) Reset() (*Manager, error) {
	m.generation++
	if err := m.initialize(); err != nil {
		return m, err
	}
	m.cfg.logger.Log(context.Background(), slog.LevelDebug, "settings reset",
		"generation", m.generation,
		"snapshot_id", m.snapshotID,
	)
	return m, nil
}

// Original returns the settings as they stood right after initialization,
// regardless of later changes. It is computed once and copied on each call.
func (m *Manager) Original() map[string]any {
	if m.original == nil {
		m.original = metadataToData(m.metadata)
	}
	return cloneTree(m.original)
}

// Generation counts the resets performed on the manager.
func (m *Manager) Generation() uint64 {
	return m.generation
}

// SnapshotID identifies the current generation of the settings trees.
func (m *Manager) SnapshotID() string {
	return m.snapshotID
}

// View returns a handle bound to the current generation.
func (m *Manager) View() *View {
	return &View{manager: m, generation: m.generation}
}

// View guards access to the settings trees of one generation.
type View struct {
	manager    *Manager
	generation uint64
}

// Stale reports whether the manager has been reset since the view was taken.
func (v *View) Stale() bool {
	return v.manager.generation != v.generation
}

// Data returns the settings tree of the view's generation.
func (v *View) Data() (map[string]any, error) {
	if v.Stale() {
		return nil, ErrStaleView
	}
	return v.manager.data, nil
}

// Metadata returns the provenance tree of the view's generation.
func (v *View) Metadata() (Metadata, error) {
	if v.Stale() {
		return nil, ErrStaleView
	}
	return v.manager.metadata, nil
}
