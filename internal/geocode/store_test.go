package geocode

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/researchatlas/engine/internal/config"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(zerolog.Nop())
	db, err := s.getSqliteDB(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	s.DB = db
	s.IsValid = true
	require.NoError(t, s.Setup())
	return s
}

func TestStoreGetMiss(t *testing.T) {
	s := testStore(t)
	_, ok := s.Get("never stored")
	assert.False(t, ok)
}

func TestStorePutThenGet(t *testing.T) {
	s := testStore(t)

	err := s.Put(CacheEntry{
		Query:       "Phoenix,  Arizona",
		Lat:         33.4484,
		Lon:         -112.0740,
		DisplayName: "Phoenix, Maricopa County, Arizona, USA",
		Raw:         datatypes.JSON(`[{"lat":"33.4484"}]`),
	})
	require.NoError(t, err)

	entry, ok := s.Get("phoenix, arizona")
	require.True(t, ok)
	assert.Equal(t, "phoenix, arizona", entry.Query)
	assert.InDelta(t, 33.4484, entry.Lat, 1e-9)
	assert.InDelta(t, -112.0740, entry.Lon, 1e-9)
	assert.Equal(t, "Phoenix, Maricopa County, Arizona, USA", entry.DisplayName)
	assert.JSONEq(t, `[{"lat":"33.4484"}]`, string(entry.Raw))
}

func TestStoreGetCountsHits(t *testing.T) {
	s := testStore(t)

	require.NoError(t, s.Put(CacheEntry{Query: "sydney", Lat: -33.86, Lon: 151.20}))

	first, ok := s.Get("sydney")
	require.True(t, ok)
	assert.Equal(t, int64(1), first.Hits)

	second, ok := s.Get("sydney")
	require.True(t, ok)
	assert.Equal(t, first.Hits+1, second.Hits)
}

func TestStorePutKeepsFirstAnswer(t *testing.T) {
	s := testStore(t)

	require.NoError(t, s.Put(CacheEntry{Query: "sydney", Lat: -33.86, Lon: 151.20}))
	require.NoError(t, s.Put(CacheEntry{Query: "Sydney", Lat: 0, Lon: 0}))

	entry, ok := s.Get("sydney")
	require.True(t, ok)
	assert.InDelta(t, -33.86, entry.Lat, 1e-9)
	assert.InDelta(t, 151.20, entry.Lon, 1e-9)
}

func TestStoreRejectsUseBeforeConnect(t *testing.T) {
	s := NewStore(zerolog.Nop())

	_, ok := s.Get("anything")
	assert.False(t, ok)
	assert.Error(t, s.Put(CacheEntry{Query: "anything"}))
	assert.Error(t, s.Setup())
}

func TestStoreConnectFallsBackToSqlite(t *testing.T) {
	s := NewStore(zerolog.Nop())

	err := s.Connect(config.DBConfig{
		Host:        "127.0.0.1",
		Port:        "1",
		Username:    "atlas",
		Password:    "atlas",
		Database:    "atlas",
		LocalDBPath: filepath.Join(t.TempDir(), "fallback.db"),
	})
	require.NoError(t, err)

	assert.True(t, s.IsValid)
	assert.True(t, s.ShouldSaveLocal)
	require.NoError(t, s.Setup())
	require.NoError(t, s.Put(CacheEntry{Query: "sydney", Lat: -33.86, Lon: 151.20}))
	_, ok := s.Get("sydney")
	assert.True(t, ok)
}

func TestNormalizeQuery(t *testing.T) {
	cases := map[string]string{
		"Phoenix, Arizona":       "phoenix, arizona",
		"  Phoenix,   Arizona  ": "phoenix, arizona",
		"PHOENIX, ARIZONA":       "phoenix, arizona",
		"phoenix,\tarizona":      "phoenix, arizona",
		"":                       "",
		" \t ":                   "",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeQuery(in), "input %q", in)
	}
}
