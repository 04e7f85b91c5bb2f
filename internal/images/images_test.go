package images

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestResolve_DeduplicatesPreservingFirstOccurrence(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a", "a.jpg"))
	touch(t, filepath.Join(dir, "a", "b.jpg"))

	// a/b.jpg matches both patterns; it must appear once, at the position
	// the first pattern's sort order gives it.
	got, err := Resolve([]string{"a/*.jpg", "a/b.jpg"}, dir, "ad.yaml")
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(dir, "a", "a.jpg"),
		filepath.Join(dir, "a", "b.jpg"),
	}, got)
}

func TestResolve_PatternOrderBeatsLexicographicOrder(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "z.png"))
	touch(t, filepath.Join(dir, "a.png"))

	got, err := Resolve([]string{"z.png", "a.png"}, dir, "ad.yaml")
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(dir, "z.png"),
		filepath.Join(dir, "a.png"),
	}, got)
}

func TestResolve_Globstar(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "photos", "2023", "one.JPG"))
	touch(t, filepath.Join(dir, "photos", "two.jpeg"))

	got, err := Resolve([]string{"photos/**/*.{jpg,JPG,jpeg}"}, dir, "ad.yaml")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestResolve_RejectsUnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.jpg"))
	touch(t, filepath.Join(dir, "notes.txt"))

	_, err := Resolve([]string{"*"}, dir, "ad.yaml")
	require.Error(t, err)

	var resErr *ResourceError
	require.ErrorAs(t, err, &resErr)
	assert.Contains(t, resErr.Error(), "unsupported image file type")
	assert.Contains(t, resErr.Error(), "ad.yaml")
}

func TestResolve_FailsWhenNothingMatches(t *testing.T) {
	dir := t.TempDir()

	_, err := Resolve([]string{"*.jpg"}, dir, "ad.yaml")
	require.Error(t, err)

	var resErr *ResourceError
	require.ErrorAs(t, err, &resErr)
	assert.Contains(t, resErr.Error(), "no images found")
}

func TestResolve_EmptyPatternListIsNotAnError(t *testing.T) {
	got, err := Resolve(nil, t.TempDir(), "ad.yaml")
	require.NoError(t, err)
	assert.Nil(t, got)
}
