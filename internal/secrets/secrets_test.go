// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
		want  Store
	}{
		{
			name: "reads key files and trims whitespace",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, "serper-api-key", "  sk_abc123  \n")
				writeFile(t, dir, "brave-api-key", "bk_xyz789")
				return dir
			},
			want: Store{"serper-api-key": "sk_abc123", "brave-api-key": "bk_xyz789"},
		},
		{
			name: "missing directory is empty",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "does-not-exist")
			},
			want: Store{},
		},
		{
			name: "skips empty and whitespace files",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, "serper-api-key", "valid")
				writeFile(t, dir, "empty", "")
				writeFile(t, dir, "blank", " \n\t ")
				return dir
			},
			want: Store{"serper-api-key": "valid"},
		},
		{
			name: "skips dotfiles and subdirectories",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, ".gitkeep", "")
				writeFile(t, dir, ".hidden", "secret")
				writeFile(t, dir, "brave-api-key", "bk")
				require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
				return dir
			},
			want: Store{"brave-api-key": "bk"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.setup(t))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoad_NotADirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "file", "x")
	_, err := Load(filepath.Join(dir, "file"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading secrets directory")
}

func TestLookup(t *testing.T) {
	t.Setenv("CE_TEST_SERPER", " from-env ")
	t.Setenv("CE_TEST_EMPTY", "")
	s := Store{"serper-api-key": "from-file"}

	v, src := s.Lookup("serper-api-key", "CE_TEST_SERPER")
	assert.Equal(t, "from-file", v)
	assert.Equal(t, "file", src)

	v, src = s.Lookup("brave-api-key", "CE_TEST_SERPER")
	assert.Equal(t, "from-env", v)
	assert.Equal(t, "env", src)

	v, src = s.Lookup("brave-api-key", "CE_TEST_EMPTY")
	assert.Empty(t, v)
	assert.Empty(t, src)

	v, _ = Store(nil).Lookup("x", "")
	assert.Empty(t, v)
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestNames(t *testing.T) {
	s := Store{"serper-api-key": "a", "brave-api-key": "b"}
	assert.Equal(t, []string{"brave-api-key", "serper-api-key"}, s.Names())
	assert.Empty(t, Store{}.Names())
}
