package settings

import (
	"errors"
	"fmt"
)

// ValidatorFunc checks a fully built Manager. It runs at the end of Build.
type ValidatorFunc func(m *Manager) error

// Builder provides a fluent interface for building a Manager.
type Builder struct {
	spec       Spec
	opts       []Option
	file       string
	args       []string
	discovery  *FileDiscoveryOptions
	err        error
	validators []ValidatorFunc
}

// NewBuilder creates a new Manager builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// WithSpec sets the spec tree.
func (b *Builder) WithSpec(spec Spec) *Builder {
	b.spec = spec
	return b
}

// WithSpecFile loads the spec tree from a declarative TOML, JSON or YAML file.
func (b *Builder) WithSpecFile(path string) *Builder {
	spec, err := LoadSpecFile(path)
	if err != nil {
		b.err = errors.Join(b.err, err)
		return b
	}
	b.spec = spec
	return b
}

// WithOnFixup sets the fixup event handler.
func (b *Builder) WithOnFixup(fn OnFixupFunc) *Builder {
	b.opts = append(b.opts, WithOnFixup(fn))
	return b
}

// WithLogger sets the logging collaborator.
func (b *Builder) WithLogger(logger Logger) *Builder {
	b.opts = append(b.opts, WithLogger(logger))
	return b
}

// WithProduction overrides the mode derived from the environment.
func (b *Builder) WithProduction(production bool) *Builder {
	b.opts = append(b.opts, WithProduction(production))
	return b
}

// WithFile sets a settings file resolved after initialization.
func (b *Builder) WithFile(path string) *Builder {
	b.file = path
	return b
}

// WithArgs sets command-line arguments resolved after the file.
func (b *Builder) WithArgs(args []string) *Builder {
	b.args = args
	return b
}

// WithFileDiscovery locates the settings file at Build time when none was set.
func (b *Builder) WithFileDiscovery(opts FileDiscoveryOptions) *Builder {
	b.discovery = &opts
	return b
}

// WithValidator adds a check run after the Manager is built. Validators run
// in the order they are added.
func (b *Builder) WithValidator(fn ValidatorFunc) *Builder {
	if fn != nil {
		b.validators = append(b.validators, fn)
	}
	return b
}

// Build creates the Manager, then resolves the settings file and arguments.
// A missing file is reported as ErrFileNotFound alongside a usable Manager.
func (b *Builder) Build() (*Manager, error) {
	if b.err != nil {
		return nil, b.err
	}

	m, err := New(b.spec, b.opts...)
	if err != nil {
		return nil, err
	}

	file, args := b.file, b.args
	if b.discovery != nil {
		discovered, rest := discoverFile(*b.discovery, args)
		if file == "" {
			file = discovered
		}
		args = rest
	}

	var loadErr error
	if file != "" {
		if err := m.LoadFile(file); err != nil {
			if !errors.Is(err, ErrFileNotFound) {
				return nil, err
			}
			loadErr = err
		}
	}

	if err := m.LoadCLI(args); err != nil {
		return nil, err
	}

	for _, validator := range b.validators {
		if err := validator(m); err != nil {
			return nil, fmt.Errorf("settings validation failed: %w", err)
		}
	}

	// ErrFileNotFound or nil
	return m, loadErr
}

// MustBuild is like Build but panics on error. A missing settings file is
// not an error for MustBuild.
func (b *Builder) MustBuild() *Manager {
	m, err := b.Build()
	if err != nil && !errors.Is(err, ErrFileNotFound) {
		panic(fmt.Sprintf("settings build failed: %v", err))
	}
	return m
}
