package settings

import "fmt"

// Get retrieves the value at a dot-separated path of the current settings.
// The second return value reports whether the path exists.
func (m *Manager) Get(path string) (any, bool) {
	if path == "" {
		return nil, false
	}
	return navigateToPath(m.data, path)
}

// String retrieves a string setting, converting numbers and booleans.
func (m *Manager) String(path string) (string, error) {
	var out string
	err := m.typed(path, &out)
	return out, err
}

// Int64 retrieves an int64 setting, converting parsable strings, floats and booleans.
func (m *Manager) Int64(path string) (int64, error) {
	var out int64
	err := m.typed(path, &out)
	return out, err
}

// Bool retrieves a boolean setting, converting "true"/"1" strings and numbers.
func (m *Manager) Bool(path string) (bool, error) {
	var out bool
	err := m.typed(path, &out)
	return out, err
}

// Float64 retrieves a float64 setting, converting parsable strings, integers and booleans.
func (m *Manager) Float64(path string) (float64, error) {
	var out float64
	err := m.typed(path, &out)
	return out, err
}

func (m *Manager) typed(path string, target any) error {
	val, found := m.Get(path)
	if !found {
		return fmt.Errorf("setting not found: %s", path)
	}
	if val == nil {
		return fmt.Errorf("value for path %s is nil, cannot convert to %T", path, target)
	}
	if err := weakDecode(val, target); err != nil {
		return fmt.Errorf("cannot convert %T for path %s: %w", val, path, err)
	}
	return nil
}
