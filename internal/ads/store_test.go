package ads

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

const adDoc = `
title: Vintage Record Player
description: Great condition, barely used.
`

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "ads", "ad_player.yaml"), adDoc)
	writeFile(t, filepath.Join(root, "ads", "nested", "ad_bike.yml"), adDoc)
	writeFile(t, filepath.Join(root, "ads", "ad_fields.yaml"), "active: true")
	writeFile(t, filepath.Join(root, "ads", "notes.txt"), "not an ad")

	store := NewStore(root, []string{"./**/ad_*.{yml,yaml}"})
	files, err := store.Discover()
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(root, "ads", "ad_player.yaml"),
		filepath.Join(root, "ads", "nested", "ad_bike.yml"),
	}, files)
}

func TestDiscover_AbsolutePattern(t *testing.T) {
	root := t.TempDir()
	elsewhere := t.TempDir()
	writeFile(t, filepath.Join(elsewhere, "ad_shared.yaml"), adDoc)

	store := NewStore(root, []string{filepath.Join(elsewhere, "ad_*.yaml")})
	files, err := store.Discover()
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(elsewhere, "ad_shared.yaml")}, files)
}

func TestDiscover_DeduplicatesAcrossPatterns(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "ad_one.yaml"), adDoc)

	store := NewStore(root, []string{"ad_*.yaml", "*.yaml"})
	files, err := store.Discover()
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestLoadAll_SortedByPath(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "ad_zebra.yaml"), adDoc)
	writeFile(t, filepath.Join(root, "ad_alpha.yaml"), adDoc)

	store := NewStore(root, []string{"ad_*.yaml"})
	entries, err := store.LoadAll(testResolver())
	require.NoError(t, err)

	require.Len(t, entries, 2)
	assert.Equal(t, filepath.Join(root, "ad_alpha.yaml"), entries[0].Path)
	assert.Equal(t, filepath.Join(root, "ad_zebra.yaml"), entries[1].Path)
	assert.Equal(t, "Vintage Record Player", entries[0].Resolved.Title)
	// raw keeps only what the user wrote
	assert.NotContains(t, entries[0].Raw, "type")
}

func TestLoadRaw_AcceptsJSON(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "ad_player.json")
	writeFile(t, path, `{"title": "Vintage Record Player", "price": 80}`)

	raw, err := LoadRaw(path)
	require.NoError(t, err)
	assert.Equal(t, "Vintage Record Player", raw["title"])
	assert.Equal(t, 80, raw["price"])
}

func TestLoadRaw_RejectsNonMapping(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "ad_list.yaml")
	writeFile(t, path, "- one\n- two\n")

	_, err := LoadRaw(path)
	assert.Error(t, err)
}

func TestPersist_RoundTripKeepsUserFields(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "ad_player.yaml")
	writeFile(t, path, adDoc+"my_custom_note: keep me\n")

	store := NewStore(root, []string{"ad_*.yaml"})
	raw, err := LoadRaw(path)
	require.NoError(t, err)

	// simulate a publish writing bot-managed fields back
	raw["id"] = int64(123)
	raw["updated_on"] = "2024-05-20T12:00:00"
	require.NoError(t, store.Persist(path, raw))

	reloaded, err := LoadRaw(path)
	require.NoError(t, err)
	assert.Equal(t, 123, reloaded["id"])
	assert.Equal(t, "2024-05-20T12:00:00", reloaded["updated_on"])
	assert.Equal(t, "Vintage Record Player", reloaded["title"])
	assert.Equal(t, "keep me", reloaded["my_custom_note"])
	// resolved-only fields never leak into the persisted raw form
	assert.NotContains(t, reloaded, "type")
	assert.NotContains(t, reloaded, "price_type")
	assert.NotContains(t, reloaded, "images")
}
