package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const serverSpecTOML = `
[port]
initial = "3000"
map_type = "int(value)"
validate = 'int(value) > 65535 ? "port out of range" : nil'

[host]
initial = '"localhost"'

[log]
shorthand = '{"level": value}'

[log.fields.level]
initial = '"info"'
fixup = 'value == "warning" ? {"value": "warn", "messages": ["normalized"]} : nil'
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadSpecFileTOML(t *testing.T) {
	spec, err := LoadSpecFile(writeFile(t, "spec.toml", serverSpecTOML))
	require.NoError(t, err)

	var events []FixupInfo
	m := newTestManager(t, spec, WithOnFixup(func(info FixupInfo, _ FixupHandler) error {
		events = append(events, info)
		return nil
	}))

	assert.Equal(t, map[string]any{
		"port": 3000,
		"host": "localhost",
		"log":  map[string]any{"level": "info"},
	}, m.Data())

	t.Run("MapType", func(t *testing.T) {
		_, err := m.Change(map[string]any{"port": "8080"})
		require.NoError(t, err)
		assert.Equal(t, 8080, m.Data()["port"])
	})

	t.Run("Validate", func(t *testing.T) {
		_, err := m.Change(map[string]any{"port": "70000"})
		require.ErrorIs(t, err, ErrValidationFailure)

		var settingErr *Error
		require.ErrorAs(t, err, &settingErr)
		assert.Equal(t, []string{"port out of range"}, settingErr.Messages)
		assert.Equal(t, 8080, m.Data()["port"])
	})

	t.Run("ExpressionRuntimeError", func(t *testing.T) {
		_, err := m.Change(map[string]any{"port": "not-a-number"})
		assert.ErrorIs(t, err, ErrValidationUnexpectedFailure)
	})

	t.Run("Shorthand", func(t *testing.T) {
		_, err := m.Change(map[string]any{"log": "debug"})
		require.NoError(t, err)
		assert.Equal(t, "debug", m.Data()["log"].(map[string]any)["level"])
	})

	t.Run("Fixup", func(t *testing.T) {
		_, err := m.Change(map[string]any{"log": map[string]any{"level": "warning"}})
		require.NoError(t, err)
		assert.Equal(t, "warn", m.Data()["log"].(map[string]any)["level"])
		require.Len(t, events, 1)
		assert.Equal(t, FixupInfo{
			Name:     "level",
			Before:   "warning",
			After:    "warn",
			Messages: []string{"normalized"},
		}, events[0])
	})
}

func TestLoadSpecFileYAML(t *testing.T) {
	path := writeFile(t, "spec.yaml", `
db:
  initial: '{"host": "db.local", "pool": 4}'
  fields:
    host: {}
    pool:
      map_type: int(value)
routes:
  entry_fields:
    home:
      initial: '"/"'
`)
	spec, err := LoadSpecFile(path)
	require.NoError(t, err)
	assert.Equal(t, KindNamespace, spec["db"].Kind())
	assert.Equal(t, KindEntries, spec["routes"].Kind())

	m := newTestManager(t, spec)
	assert.Equal(t, map[string]any{"host": "db.local", "pool": 4}, m.Data()["db"])
	assert.Equal(t, map[string]any{"home": "/"}, m.Data()["routes"])

	_, err = m.Change(map[string]any{"db": map[string]any{"pool": "16"}})
	require.NoError(t, err)
	assert.Equal(t, 16, m.Data()["db"].(map[string]any)["pool"])
}

func TestDecodeSpecGoHooks(t *testing.T) {
	spec, err := DecodeSpec(map[string]any{
		"retries": map[string]any{
			"initial":  func() any { return 3 },
			"map_type": func(v any) (any, error) { return v, nil },
			"validate": func(v any) (*Violation, error) { return nil, nil },
		},
	})
	require.NoError(t, err)

	m := newTestManager(t, spec)
	assert.Equal(t, 3, m.Data()["retries"])
}

func TestDecodeSpecRejects(t *testing.T) {
	tests := []struct {
		name   string
		raw    map[string]any
		detail string
	}{
		{
			name:   "NotATable",
			raw:    map[string]any{"a": 5},
			detail: "specifier must be a table",
		},
		{
			name:   "UnknownKey",
			raw:    map[string]any{"a": map[string]any{"default": 1}},
			detail: `unknown specifier key "default"`,
		},
		{
			name: "FieldsAndEntries",
			raw: map[string]any{"a": map[string]any{
				"fields":       map[string]any{},
				"entry_fields": map[string]any{},
			}},
			detail: "fields and entry_fields are exclusive",
		},
		{
			name: "FixupOnNamespace",
			raw: map[string]any{"a": map[string]any{
				"fields": map[string]any{},
				"fixup":  "nil",
			}},
			detail: "fixup is not allowed on a namespace",
		},
		{
			name:   "ShorthandOnLeaf",
			raw:    map[string]any{"a": map[string]any{"shorthand": "{}"}},
			detail: "shorthand is only allowed on a namespace",
		},
		{
			name:   "FieldsNotATable",
			raw:    map[string]any{"a": map[string]any{"fields": "x"}},
			detail: "fields must be a table",
		},
		{
			name:   "BadExpression",
			raw:    map[string]any{"a": map[string]any{"validate": "value >"}},
			detail: "validate expression does not compile",
		},
		{
			name:   "FixupNotInvocable",
			raw:    map[string]any{"a": map[string]any{"fixup": 7}},
			detail: "fixup must be a function or expression",
		},
		{
			name: "NamespaceInitialNotInvocable",
			raw: map[string]any{"a": map[string]any{
				"fields":  map[string]any{},
				"initial": 7,
			}},
			detail: "namespace initial must be a function or expression",
		},
		{
			name: "NestedFailure",
			raw: map[string]any{"a": map[string]any{
				"fields": map[string]any{"b": map[string]any{"bogus": true}},
			}},
			detail: `unknown specifier key "bogus"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeSpec(tt.raw)
			require.ErrorIs(t, err, ErrBadSpecConfiguration)

			var settingErr *Error
			require.ErrorAs(t, err, &settingErr)
			assert.Equal(t, tt.detail, settingErr.Detail)
		})
	}
}

func TestDecodeSpecKeepsRawMapType(t *testing.T) {
	spec, err := DecodeSpec(map[string]any{"a": map[string]any{"map_type": true}})
	require.NoError(t, err)
	assert.Equal(t, true, spec["a"].mapType)
}

func TestLoadSpecFileMissing(t *testing.T) {
	_, err := LoadSpecFile(filepath.Join(t.TempDir(), "absent.toml"))
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestHookResultInterpretation(t *testing.T) {
	t.Run("Fixup", func(t *testing.T) {
		fixed, err := fixupResult(nil)
		require.NoError(t, err)
		assert.Nil(t, fixed)

		fixed, err = fixupResult(false)
		require.NoError(t, err)
		assert.Nil(t, fixed)

		fixed, err = fixupResult(map[string]any{"value": 1, "messages": "one"})
		require.NoError(t, err)
		assert.Equal(t, &Fixup{Value: 1, Messages: []string{"one"}}, fixed)

		_, err = fixupResult(map[string]any{"messages": "no value"})
		assert.Error(t, err)

		_, err = fixupResult(42)
		assert.Error(t, err)
	})

	t.Run("Violation", func(t *testing.T) {
		for _, valid := range []any{nil, false, "", []any{}} {
			violation, err := violationResult(1, valid)
			require.NoError(t, err)
			assert.Nil(t, violation, "%#v", valid)
		}

		violation, err := violationResult(7, true)
		require.NoError(t, err)
		assert.Equal(t, []string{"invalid value 7"}, violation.Messages)

		violation, err = violationResult(7, []any{"a", "b"})
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, violation.Messages)

		_, err = violationResult(7, []any{1})
		assert.Error(t, err)
	})
}

func TestDecodeSpecRejectsUnknownIdentifiers(t *testing.T) {
	tests := []struct {
		name   string
		raw    map[string]any
		field  string
		detail string
	}{
		{
			name:   "UnquotedStringInitial",
			raw:    map[string]any{"host": map[string]any{"initial": "localhost"}},
			field:  "host",
			detail: "initial expression does not compile",
		},
		{
			name: "MisspelledVariable",
			raw: map[string]any{"port": map[string]any{
				"initial":  "3000",
				"validate": "vaule > 10",
			}},
			field:  "port",
			detail: "validate expression does not compile",
		},
		{
			name: "ShorthandUnknownName",
			raw: map[string]any{"log": map[string]any{
				"fields":    map[string]any{"level": map[string]any{}},
				"shorthand": `{"level": level}`,
			}},
			field:  "log",
			detail: "shorthand expression does not compile",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeSpec(tt.raw)
			require.ErrorIs(t, err, ErrBadSpecConfiguration)

			var settingErr *Error
			require.ErrorAs(t, err, &settingErr)
			assert.Equal(t, tt.field, settingErr.Field)
			assert.Equal(t, tt.detail, settingErr.Detail)
			assert.Error(t, settingErr.Err)
		})
	}

	t.Run("QuotedStringInitial", func(t *testing.T) {
		spec, err := DecodeSpec(map[string]any{"host": map[string]any{"initial": `"localhost"`}})
		require.NoError(t, err)
		m := newTestManager(t, spec)
		assert.Equal(t, "localhost", m.Data()["host"])
	})
}
