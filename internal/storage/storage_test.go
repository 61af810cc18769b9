package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/lehigh-university-libraries/imagepull/internal/images"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewExpandsHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	store := New("")
	assert.Equal(t, filepath.Join(home, "Downloads/hubspot-images"), store.Root())

	assert.Equal(t, "/tmp/out", New("/tmp/out").Root())
}

func TestLocalStoreSave(t *testing.T) {
	root := t.TempDir()
	store := New(root)

	path, err := store.Save(context.Background(), images.Asset{
		Column:   "Photo URL",
		Filename: "contact-1.png",
		Data:     []byte("PNG"),
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "Photo URL", "contact-1.png"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "PNG", string(data))

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestLocalStoreSaveKeepsDuplicateNames(t *testing.T) {
	root := t.TempDir()
	store := New(root)
	ctx := context.Background()

	tests := []struct {
		filename string
		data     string
		expected string
	}{
		{"logo.png", "first", "logo.png"},
		{"logo.png", "second", "logo (1).png"},
		{"logo.png", "third", "logo (2).png"},
		{"README", "x", "README"},
		{"README", "y", "README (1)"},
	}

	for _, tt := range tests {
		path, err := store.Save(ctx, images.Asset{Column: "Logo", Filename: tt.filename, Data: []byte(tt.data)})
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "Logo", tt.expected), path)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, tt.data, string(data))
	}

	first, err := os.ReadFile(filepath.Join(root, "Logo", "logo.png"))
	require.NoError(t, err)
	assert.Equal(t, "first", string(first))
}

func TestLocalStoreSaveLeavesExistingFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Photo"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "Photo", "a.png"), []byte("old"), 0644))

	path, err := New(root).Save(context.Background(), images.Asset{Column: "Photo", Filename: "a.png", Data: []byte("new")})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "Photo", "a (1).png"), path)

	old, err := os.ReadFile(filepath.Join(root, "Photo", "a.png"))
	require.NoError(t, err)
	assert.Equal(t, "old", string(old))
}

func TestLocalStoreSaveCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(t.TempDir()).Save(ctx, images.Asset{Column: "Photo", Filename: "a.png", Data: []byte("x")})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestColumnDir(t *testing.T) {
	tests := []struct {
		column   string
		expected string
	}{
		{"Photo URL", "Photo URL"},
		{"  Logo  ", "Logo"},
		{"images/primary", "images_primary"},
		{"a\\b", "a_b"},
		{"", "unknown-column"},
		{"..", "unknown-column"},
	}

	for _, tt := range tests {
		t.Run(tt.column, func(t *testing.T) {
			assert.Equal(t, tt.expected, ColumnDir(tt.column))
		})
	}
}

func TestSafeFilename(t *testing.T) {
	tests := []struct {
		filename string
		expected string
	}{
		{"a.png", "a.png"},
		{"../../etc/passwd", "passwd"},
		{"dir\\evil.jpg", "evil.jpg"},
		{"", "image"},
		{"..", "image"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.expected, SafeFilename(tt.filename))
		})
	}
}
