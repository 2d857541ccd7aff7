package proc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCatalog = `{
	"packages": [
		{"name": "hbmenu", "title": "Homebrew Menu", "category": "tools", "author": "switchbrew", "description": "Launcher", "details": "Loads homebrew\\n\\nfrom the SD card"},
		{"name": "flappy", "title": "Flappy Bird", "category": "games", "author": "someone", "description": "Tap to fly"},
		{"name": "retroarch", "title": "RetroArch", "category": "emulators", "author": "libretro", "description": "Multi-system emulator"},
		{"name": "atmos-theme", "title": "Atmos", "category": "themes"},
		{"name": "sys-clk", "title": "sys-clk", "category": "advanced", "author": "retronx", "description": "Overclocking sysmodule"},
		{"name": "oddball", "title": "Oddball", "category": "misc"}
	]
}`

func loadedStore(t *testing.T, doc string) *Store {
	t.Helper()
	s := NewStore()
	require.NoError(t, s.Load([]byte(doc)))
	return s
}

func TestStoreStartsEmpty(t *testing.T) {
	s := NewStore()
	assert.Equal(t, 0, s.Size())
	assert.Empty(t, s.ListNames(BucketGames))
	assert.Empty(t, s.Search("anything", []string{"name"}))

	_, ok := s.Find("hbmenu")
	assert.False(t, ok)
}

func TestStoreLoad(t *testing.T) {
	t.Run("object document", func(t *testing.T) {
		s := loadedStore(t, sampleCatalog)
		assert.Equal(t, 6, s.Size())
		assert.Equal(t, []string{"flappy"}, s.ListNames(BucketGames))
		assert.Equal(t, []string{"hbmenu"}, s.ListNames(BucketTools))
		assert.Equal(t, []string{"retroarch"}, s.ListNames(BucketEmulators))
		assert.Equal(t, []string{"atmos-theme"}, s.ListNames(BucketThemes))
		assert.Equal(t, []string{"sys-clk"}, s.ListNames(BucketAdvanced))
	})

	t.Run("array document", func(t *testing.T) {
		s := loadedStore(t, `[{"name": "a", "category": "games"}, {"name": "b", "category": "tools"}]`)
		assert.Equal(t, 2, s.Size())
		assert.Equal(t, []string{"a"}, s.ListNames(BucketGames))
	})

	t.Run("records inherit the bucket they are listed under", func(t *testing.T) {
		s := loadedStore(t, `{"games": [{"name": "a"}], "tools": [{"name": "b", "category": "themes"}]}`)
		assert.Equal(t, []string{"a"}, s.ListNames(BucketGames))
		assert.Empty(t, s.ListNames(BucketTools))
		assert.Equal(t, []string{"b"}, s.ListNames(BucketThemes))
	})

	t.Run("records without a name are counted but not listed", func(t *testing.T) {
		s := loadedStore(t, `{"games": [{"title": "nameless"}, "junk", 42, {"name": "kept"}]}`)
		assert.Equal(t, 2, s.Size())
		assert.Len(t, s.Snapshot().Bucket(BucketGames), 2)
		assert.Equal(t, []string{"kept"}, s.ListNames(BucketGames))
		assert.Empty(t, s.Search("nameless", []string{"title"}))

		_, ok := s.Find("")
		assert.False(t, ok)
		_, ok = s.Find("nameless")
		assert.False(t, ok)
	})

	t.Run("fields of unexpected types still load", func(t *testing.T) {
		s := loadedStore(t, `[{"name": "odd", "version": 2, "category": "games"}]`)
		p, ok := s.Find("odd")
		require.True(t, ok)
		assert.Equal(t, "2", p.Version)
		assert.Equal(t, "games", p.Category)
	})

	t.Run("category match is exact", func(t *testing.T) {
		s := loadedStore(t, `[{"name": "a", "category": "Games"}, {"name": "b", "category": "game"}]`)
		assert.Empty(t, s.ListNames(BucketGames))
		assert.Equal(t, 2, s.Size())
	})
}

func TestStoreLoadRejectsMalformed(t *testing.T) {
	for name, doc := range map[string]string{
		"invalid json": `{"packages": [`,
		"string":       `"hello"`,
		"number":       `42`,
		"null":         `null`,
		"empty":        ``,
	} {
		t.Run(name, func(t *testing.T) {
			s := loadedStore(t, sampleCatalog)
			before := s.Snapshot()

			err := s.Load([]byte(doc))
			var malformed *MalformedCatalogError
			require.ErrorAs(t, err, &malformed)

			assert.Same(t, before, s.Snapshot())
			assert.Equal(t, 6, s.Size())
		})
	}
}

func TestStoreLoadReplacesSnapshot(t *testing.T) {
	s := loadedStore(t, sampleCatalog)
	old := s.Snapshot()

	require.NoError(t, s.Load([]byte(`[{"name": "only", "category": "games"}]`)))

	assert.Equal(t, 1, s.Size())
	assert.Equal(t, []string{"only"}, s.ListNames(BucketGames))
	// Readers holding the old snapshot keep a consistent view.
	assert.Len(t, old.All, 6)
	assert.Equal(t, "flappy", old.Bucket(BucketGames)[0].Name)
}

func TestStoreLoadStampsTime(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := NewStore()
	s.now = func() time.Time { return at }

	require.NoError(t, s.Load([]byte(`[]`)))
	assert.Equal(t, at, s.Snapshot().LoadedAt)
	assert.Equal(t, 0, s.Size())
}

func TestStoreFind(t *testing.T) {
	s := loadedStore(t, `[
		{"name": "alpha", "title": "Beta"},
		{"name": "Beta", "title": "Gamma"}
	]`)

	p, ok := s.Find("Beta")
	require.True(t, ok)
	assert.Equal(t, "Beta", p.Name, "name match wins over an earlier title match")

	p, ok = s.Find("Gamma")
	require.True(t, ok)
	assert.Equal(t, "Beta", p.Name)

	_, ok = s.Find("gamma")
	assert.False(t, ok, "lookup is case-sensitive")
}

func TestStoreSearch(t *testing.T) {
	s := loadedStore(t, sampleCatalog)
	fields := []string{"name", "title", "category", "author", "description"}

	assert.Equal(t, []string{"retroarch"}, s.Search("EMULATOR", fields))
	assert.Equal(t, []string{"hbmenu"}, s.Search("switchbrew", fields))
	assert.Empty(t, s.Search("nothing-like-this", fields))

	t.Run("each package appears once", func(t *testing.T) {
		assert.Equal(t, []string{"sys-clk"}, s.Search("sys-clk", fields))
	})

	t.Run("missing fields are skipped", func(t *testing.T) {
		assert.Equal(t, []string{"atmos-theme"}, s.Search("atmos", []string{"author", "name"}))
	})

	t.Run("only configured fields are searched", func(t *testing.T) {
		assert.Empty(t, s.Search("Launcher", []string{"name"}))
	})

	t.Run("inherited category is searchable", func(t *testing.T) {
		s := loadedStore(t, `{"games": [{"name": "a"}], "tools": [{"name": "b", "category": "themes"}]}`)
		assert.Equal(t, []string{"a"}, s.ListNames(BucketGames))
		assert.Equal(t, []string{"a"}, s.Search("games", []string{"category"}))
		assert.Empty(t, s.Search("tools", []string{"category"}))
	})

	t.Run("arbitrary fields from the raw record", func(t *testing.T) {
		s := loadedStore(t, `[{"name": "a", "license": "GPLv2", "extra": "needle"}, {"name": "b", "extra": null}]`)
		assert.Equal(t, []string{"a"}, s.Search("needle", []string{"extra"}))
		assert.Equal(t, []string{"a"}, s.Search("gpl", []string{"license"}))
	})
}

func TestPackageDetails(t *testing.T) {
	p := &Package{Description: "short"}
	assert.Equal(t, "short", p.Details())

	p.DetailsText = "long"
	assert.Equal(t, "long", p.Details())
}

func TestPackageFieldWithoutRaw(t *testing.T) {
	p := &Package{Name: "x", Author: "y"}

	v, ok := p.Field("author")
	assert.True(t, ok)
	assert.Equal(t, "y", v)

	_, ok = p.Field("license")
	assert.False(t, ok)
}

func TestBucketValid(t *testing.T) {
	for _, b := range Buckets {
		assert.True(t, b.Valid())
	}
	assert.False(t, Bucket("misc").Valid())
	assert.False(t, Bucket("").Valid())
}
