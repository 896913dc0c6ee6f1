package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsImageFile(t *testing.T) {
	tests := []struct {
		name string
		exts []string
		want bool
	}{
		{"a.jpg", nil, true},
		{"a.JPEG", nil, true},
		{"a.Png", nil, true},
		{"a.webp", nil, true},
		{"a.gif", nil, false},
		{"a.txt", nil, false},
		{"noext", nil, false},
		{"a.png", []string{"jpg"}, false},
		{"a.PNG", []string{".png"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsImageFile(tt.name, tt.exts...))
		})
	}
}

func TestStem(t *testing.T) {
	assert.Equal(t, "photo", Stem("/data/images/photo.jpg"))
	assert.Equal(t, "photo.v2", Stem("photo.v2.png"))
	assert.Equal(t, "README", Stem("README"))
}

func TestGenerateOutputFilename(t *testing.T) {
	assert.Equal(t,
		filepath.Join("out", "cat_aug3.jpg"),
		GenerateOutputFilename("in/cat.png", "out", "", "_aug3", "jpg"))
	assert.Equal(t,
		filepath.Join("out", "pre_cat.png"),
		GenerateOutputFilename("in/cat.png", "out", "pre_", "", ""))
	assert.Equal(t,
		filepath.Join("out", "cat.jpg"),
		GenerateOutputFilename("in/cat", "out", "", "", ""))
}

func TestListImageFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.jpg", "a.PNG", "notes.txt", "c.webp"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.jpg"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nested.jpg", "d.jpg"), []byte("x"), 0644))

	files, err := ListImageFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.PNG"),
		filepath.Join(dir, "b.jpg"),
		filepath.Join(dir, "c.webp"),
	}, files)

	files, err = ListImageFiles(dir, "jpg")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "b.jpg")}, files)

	_, err = ListImageFiles(filepath.Join(dir, "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestEnsureDirAndExists(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	assert.False(t, DirExists(dir))
	require.NoError(t, EnsureDir(dir))
	require.NoError(t, EnsureDir(dir))
	assert.True(t, DirExists(dir))
	assert.False(t, FileExists(dir))

	f := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(f, nil, 0644))
	assert.True(t, FileExists(f))
	assert.NoError(t, EnsureDir(""))
}

func TestFormatFileSize(t *testing.T) {
	assert.Equal(t, "512 B", FormatFileSize(512))
	assert.Equal(t, "1.5 KB", FormatFileSize(1536))
	assert.Equal(t, "2.0 MB", FormatFileSize(2*1024*1024))
}
