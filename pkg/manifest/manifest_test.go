package manifest

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"dankrank/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rankedItems() []models.MediaItem {
	return []models.MediaItem{
		{ID: "c", URL: "https://cdn.example.com/c.jpg", Permalink: "https://example.com/p/c/", Owner: "dankmemes", Followers: 1000, Likes: 80, Comments: 8, Score: 0.64, Scored: true},
		{ID: "a", URL: "https://cdn.example.com/a.jpg", Permalink: "https://example.com/p/a/", Owner: "memes", Followers: 500, Likes: 50, Comments: 5, Score: 0.5, Scored: true},
	}
}

func fixedRun() RunInfo {
	return RunInfo{
		ID:          "run-1",
		GeneratedAt: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		Accounts:    []string{"dankmemes", "memes", "ghost"},
		Errors:      map[string]error{"ghost": errors.New("user ghost does not exist")},
	}
}

func TestBuild(t *testing.T) {
	outcomes := []models.DownloadOutcome{
		{ItemID: "a", Status: models.StatusAlreadyPresent, Path: "/d/a.jpg"},
		{ItemID: "c", Status: models.StatusDownloaded, Path: "/d/c.jpg", Bytes: 42, Checksum: "abc", Width: 3, Height: 2},
	}

	m := Build(rankedItems(), outcomes, fixedRun())

	assert.Equal(t, "run-1", m.RunID)
	assert.Equal(t, map[string]string{"ghost": "user ghost does not exist"}, m.Errors)
	require.Len(t, m.Rank, 2)

	first := m.Rank[0]
	assert.Equal(t, 1, first.Position)
	assert.Equal(t, "https://cdn.example.com/c.jpg", first.URL)
	assert.Equal(t, "https://example.com/p/c/", first.PageLink)
	assert.Equal(t, "dankmemes", first.Insta)
	assert.Equal(t, int64(1000), first.NumFollowers)
	assert.Equal(t, int64(80), first.NumLikes)
	assert.Equal(t, int64(8), first.NumComments)
	assert.Equal(t, 0.64, first.DankRank)
	require.NotNil(t, first.Download)
	assert.Equal(t, models.StatusDownloaded, first.Download.Status)
	assert.Equal(t, int64(42), first.Download.Bytes)

	assert.Equal(t, 2, m.Rank[1].Position)
	assert.Equal(t, models.StatusAlreadyPresent, m.Rank[1].Download.Status)
}

func TestBuildIsDeterministic(t *testing.T) {
	a, err := json.Marshal(Build(rankedItems(), nil, fixedRun()))
	require.NoError(t, err)
	b, err := json.Marshal(Build(rankedItems(), nil, fixedRun()))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestBuildWithoutOutcomes(t *testing.T) {
	m := Build(rankedItems(), nil, RunInfo{ID: "x"})
	assert.Nil(t, m.Rank[0].Download)
	assert.Nil(t, m.Errors)
}

func TestRankingKeysAreOrderedPositions(t *testing.T) {
	items := make([]models.MediaItem, 11)
	for i := range items {
		items[i] = models.MediaItem{ID: string(rune('a' + i))}
	}
	data, err := json.Marshal(Build(items, nil, RunInfo{}).Rank)
	require.NoError(t, err)

	s := string(data)
	assert.True(t, strings.HasPrefix(s, `{"1":{`))
	assert.Less(t, strings.Index(s, `"2":`), strings.Index(s, `"10":`))

	var raw map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Len(t, raw, 11)
	for _, key := range []string{"url", "pageLink", "insta", "numFollowers", "numLikes", "numComments", "dankRank"} {
		assert.Contains(t, raw["1"], key)
	}
}

func TestEmptyRanking(t *testing.T) {
	data, err := json.Marshal(Build(nil, nil, RunInfo{}))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"rank":{}`)
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "theDanks.json")
	m := Build(rankedItems(), nil, fixedRun())

	require.NoError(t, m.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"runId\": \"run-1\"")

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, m.RunID, loaded.RunID)
	assert.True(t, m.GeneratedAt.Equal(loaded.GeneratedAt))
	assert.Equal(t, m.Rank, loaded.Rank)
}

func TestSaveOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "theDanks.json")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0644))

	require.NoError(t, Build(nil, nil, RunInfo{ID: "fresh"}).Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "fresh", loaded.RunID)
}

func TestLoadRejectsBadPositions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"rank":{"first":{}}}`), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestNewRunInfo(t *testing.T) {
	now := time.Now()
	a := NewRunInfo([]string{"dankmemes"}, now)
	b := NewRunInfo([]string{"dankmemes"}, now)

	assert.Len(t, a.ID, 36)
	assert.NotEqual(t, a.ID, b.ID)
	assert.NotNil(t, a.Errors)
}
