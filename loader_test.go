package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func appSpec() Spec {
	return Spec{
		"server": Namespace(Spec{
			"host": Leaf(WithInitial(constant("localhost"))),
			"port": Leaf(WithInitial(constant(8080)), WithMapType(MapTo[int]())),
		}),
		"debug": Leaf(WithInitial(constant(false)), WithMapType(MapTo[bool]())),
	}
}

func TestLoadFileFormats(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "TOML",
			file: "app.toml",
			content: `
debug = true
[server]
port = 9090
`,
		},
		{
			name:    "JSON",
			file:    "app.json",
			content: `{"debug": true, "server": {"port": 9090}}`,
		},
		{
			name: "YAML",
			file: "app.yaml",
			content: `
debug: true
server:
  port: 9090
`,
		},
		{
			name:    "DetectedFromContent",
			file:    "app.conf",
			content: `{"debug": "true", "server": {"port": "9090"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestManager(t, appSpec())
			require.NoError(t, m.LoadFile(writeFile(t, tt.file, tt.content)))

			assert.Equal(t, true, m.Data()["debug"])
			server := m.Data()["server"].(map[string]any)
			assert.Equal(t, 9090, server["port"])
			assert.Equal(t, "localhost", server["host"])

			entry, ok := m.Metadata().Lookup("server", "port")
			require.True(t, ok)
			assert.Equal(t, OriginSet, entry.From)
			hostEntry, _ := m.Metadata().Lookup("server", "host")
			assert.Equal(t, OriginInitial, hostEntry.From)
		})
	}
}

func TestLoadFileErrors(t *testing.T) {
	m := newTestManager(t, appSpec())

	t.Run("Missing", func(t *testing.T) {
		err := m.LoadFile(filepath.Join(t.TempDir(), "missing.toml"))
		assert.ErrorIs(t, err, ErrFileNotFound)
	})

	t.Run("Malformed", func(t *testing.T) {
		err := m.LoadFile(writeFile(t, "bad.toml", "debug = = true"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse TOML")
	})

	t.Run("UnknownSetting", func(t *testing.T) {
		err := m.LoadFile(writeFile(t, "extra.toml", "verbose = true"))
		require.ErrorIs(t, err, ErrUnknownSetting)
		assert.Contains(t, err.Error(), "failed to apply settings file")
	})
}

func TestLoadCLI(t *testing.T) {
	m := newTestManager(t, appSpec())

	err := m.LoadCLI([]string{"serve", "--server.port=7000", "--server.host", "example.com", "--debug"})
	require.NoError(t, err)

	server := m.Data()["server"].(map[string]any)
	assert.Equal(t, 7000, server["port"])
	assert.Equal(t, "example.com", server["host"])
	assert.Equal(t, true, m.Data()["debug"])

	t.Run("Empty", func(t *testing.T) {
		assert.NoError(t, m.LoadCLI(nil))
	})

	t.Run("InvalidSegment", func(t *testing.T) {
		err := m.LoadCLI([]string{"--server..port=1"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid command-line key segment")
	})

	t.Run("UnknownSetting", func(t *testing.T) {
		assert.ErrorIs(t, m.LoadCLI([]string{"--nope=1"}), ErrUnknownSetting)
	})
}

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want map[string]any
	}{
		{
			name: "EqualsForm",
			args: []string{"--a.b=1"},
			want: map[string]any{"a": map[string]any{"b": "1"}},
		},
		{
			name: "SpaceForm",
			args: []string{"--a", "x y"},
			want: map[string]any{"a": "x y"},
		},
		{
			name: "BareFlags",
			args: []string{"--a", "--b"},
			want: map[string]any{"a": "true", "b": "true"},
		},
		{
			name: "SeparatorAndPositionals",
			args: []string{"run", "--", "--a=", "file"},
			want: map[string]any{"a": ""},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseArgs(tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSave(t *testing.T) {
	m := newTestManager(t, appSpec())
	_, err := m.Change(map[string]any{"server": map[string]any{"port": 9443}})
	require.NoError(t, err)

	dir := t.TempDir()

	t.Run("All", func(t *testing.T) {
		path := filepath.Join(dir, "nested", "all.toml")
		require.NoError(t, m.Save(path))

		var saved map[string]any
		_, err := toml.DecodeFile(path, &saved)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{
			"debug":  false,
			"server": map[string]any{"host": "localhost", "port": int64(9443)},
		}, saved)

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0644), info.Mode().Perm())
	})

	t.Run("SetOnly", func(t *testing.T) {
		path := filepath.Join(dir, "set.toml")
		require.NoError(t, m.SaveOrigin(path, OriginSet))

		var saved map[string]any
		_, err := toml.DecodeFile(path, &saved)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"server": map[string]any{"port": int64(9443)}}, saved)

		fresh := newTestManager(t, appSpec())
		require.NoError(t, fresh.LoadFile(path))
		assert.Equal(t, m.Data(), fresh.Data())
	})

	t.Run("NoTempFilesLeft", func(t *testing.T) {
		matches, err := filepath.Glob(filepath.Join(dir, "*.tmp"))
		require.NoError(t, err)
		assert.Empty(t, matches)
	})
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, "toml", detectFileFormat("a.TOML"))
	assert.Equal(t, "yaml", detectFileFormat("a.yml"))
	assert.Equal(t, "", detectFileFormat("a.conf"))

	assert.Equal(t, "json", detectFormatFromContent([]byte(`{"a": 1}`)))
	assert.Equal(t, "toml", detectFormatFromContent([]byte("a = 1")))
	assert.Equal(t, "yaml", detectFormatFromContent([]byte("a: [1, 2]")))
}
