package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisk(t *testing.T) {
	d := NewDisk()
	dir := filepath.Join(t.TempDir(), "a", "b")

	require.NoError(t, d.EnsureDir(dir))
	require.NoError(t, d.EnsureDir(dir), "second EnsureDir must be a no-op")

	path := filepath.Join(dir, "note.md")
	ok, err := d.Exists(path)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, d.WriteFile(path, []byte("first")))
	require.NoError(t, d.WriteFile(path, []byte("second")))

	ok, err = d.Exists(path)
	require.NoError(t, err)
	assert.True(t, ok)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestDiskWriteMissingDir(t *testing.T) {
	d := NewDisk()
	err := d.WriteFile(filepath.Join(t.TempDir(), "missing", "x.md"), []byte("x"))
	assert.Error(t, err)
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Plain title", "Plain title"},
		{"  padded  ", "padded"},
		{`a/b\c:d*e?f"g<h>i|j`, "a_b_c_d_e_f_g_h_i_j"},
		{"tab\there", "tab_here"},
		{"trailing dots...", "trailing dots"},
		{"", "untitled"},
		{"   ", "untitled"},
		{"e\u0301cole", "\u00e9cole"},
		{"日本語のノート", "日本語のノート"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeName(tt.in))
		})
	}
}

func TestWithin(t *testing.T) {
	root := filepath.Join("out", "Leanote")

	p, err := Within(root, filepath.Join("Work", "Notes"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "Work", "Notes"), p)

	p, err = Within(root, "")
	require.NoError(t, err)
	assert.Equal(t, root, p)

	_, err = Within(root, filepath.Join("..", "etc"))
	assert.Error(t, err)
}
