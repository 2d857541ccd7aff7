package home

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/disgoorg/disgo/discord"
	"github.com/leeineian/brewbot/proc"
	"github.com/leeineian/brewbot/sys"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testOpts = renderOptions{MaxLength: 2000, Color: 0x800080}

func packagesByName(pkgs ...*proc.Package) func(string) (*proc.Package, bool) {
	return func(name string) (*proc.Package, bool) {
		for _, p := range pkgs {
			if p.Name == name {
				return p, true
			}
		}
		return nil, false
	}
}

func TestRenderBucket(t *testing.T) {
	msg := renderBucket(proc.BucketGames, []string{"zelda-clone", "flappy", "Pong"}, testOpts)

	require.Len(t, msg.Embeds, 1)
	embed := msg.Embeds[0]
	assert.Equal(t, "Switch Games:", embed.Title)
	assert.Equal(t, "Pong, flappy, zelda-clone", embed.Description)
	assert.Equal(t, 0x800080, embed.Color)
}

func TestRenderBucketTitles(t *testing.T) {
	for b, title := range map[proc.Bucket]string{
		proc.BucketAdvanced:  "Advanced Switch Homebrew:",
		proc.BucketTools:     "Switch Tools:",
		proc.BucketThemes:    "Switch Themes:",
		proc.BucketEmulators: "Switch Emulators:",
	} {
		assert.Equal(t, title, renderBucket(b, nil, testOpts).Embeds[0].Title)
	}
}

func TestRenderListTruncates(t *testing.T) {
	names := make([]string, 0, 400)
	for i := range 400 {
		names = append(names, fmt.Sprintf("package-%03d", i))
	}

	desc := renderList("Switch Tools:", names, renderOptions{MaxLength: 100}).Embeds[0].Description
	assert.Equal(t, 100, utf8.RuneCountInString(desc))
	assert.True(t, strings.HasSuffix(desc, "..."))
	assert.True(t, strings.HasPrefix(desc, "package-000, package-001"))
}

func TestRenderSearch(t *testing.T) {
	t.Run("no results", func(t *testing.T) {
		embed := renderSearch("zzz", nil, packagesByName(), testOpts).Embeds[0]
		assert.Equal(t, "Homebrew search results for '*zzz*':", embed.Title)
		assert.Equal(t, "No results", embed.Description)
		assert.Empty(t, embed.Fields)
	})

	t.Run("few results become fields", func(t *testing.T) {
		pkgs := []*proc.Package{
			{Name: "hbmenu", Title: "Homebrew Menu", Author: "switchbrew", DetailsText: `Loads\n\n\nhomebrew`},
			{Name: "notitle", Description: "plain"},
		}
		embed := renderSearch("menu", []string{"hbmenu", "notitle"}, packagesByName(pkgs...), testOpts).Embeds[0]

		assert.Equal(t, "Homebrew search results for '*menu*':", embed.Title)
		assert.Equal(t, "Showing 2 results.", embed.Description)
		require.Len(t, embed.Fields, 2)
		assert.Equal(t, "**Homebrew Menu**", embed.Fields[0].Name)
		assert.Equal(t, "**Package:** hbmenu\n**Author:** switchbrew\n**About:** Loads\nhomebrew", embed.Fields[0].Value)
		assert.Equal(t, "**notitle**", embed.Fields[1].Name)
		assert.Contains(t, embed.Fields[1].Value, "**Author:** unknown")
	})

	t.Run("field bodies are truncated", func(t *testing.T) {
		p := &proc.Package{Name: "wordy", Title: "Wordy", Author: "a", Description: strings.Repeat("x", 500)}
		embed := renderSearch("wordy", []string{"wordy"}, packagesByName(p), testOpts).Embeds[0]

		require.Len(t, embed.Fields, 1)
		assert.Equal(t, searchBodyLimit, utf8.RuneCountInString(embed.Fields[0].Value))
		assert.True(t, strings.HasSuffix(embed.Fields[0].Value, "..."))
	})

	t.Run("six results still become fields", func(t *testing.T) {
		var pkgs []*proc.Package
		var names []string
		for i := range searchFieldLimit {
			name := fmt.Sprintf("p%d", i)
			pkgs = append(pkgs, &proc.Package{Name: name})
			names = append(names, name)
		}
		embed := renderSearch("p", names, packagesByName(pkgs...), testOpts).Embeds[0]
		assert.Len(t, embed.Fields, searchFieldLimit)
	})

	t.Run("long terms fit the embed title", func(t *testing.T) {
		term := strings.Repeat("x", 6000)
		for _, names := range [][]string{nil, {"a"}, {"a", "b", "c", "d", "e", "f", "g"}} {
			embed := renderSearch(term, names, packagesByName(&proc.Package{Name: "a"}), testOpts).Embeds[0]
			assert.LessOrEqual(t, utf8.RuneCountInString(embed.Title), 256)
			assert.Contains(t, embed.Title, "...")
		}
	})

	t.Run("many results become a list", func(t *testing.T) {
		names := []string{"g", "f", "e", "d", "c", "b", "a"}
		embed := renderSearch("x", names, packagesByName(), testOpts).Embeds[0]

		assert.Equal(t, "Homebrew search results for '*x*': (7 results)", embed.Title)
		assert.Equal(t, "a, b, c, d, e, f, g", embed.Description)
		assert.Empty(t, embed.Fields)
	})
}

func TestRenderInfo(t *testing.T) {
	p := &proc.Package{
		Name:        "sys-clk",
		Title:       "sys-clk",
		Author:      "retronx",
		Version:     "2.0.1",
		License:     "MIT",
		DetailsText: `Overclocking\nsysmodule`,
	}
	embed := renderInfo(p, testOpts).Embeds[0]

	assert.Equal(t, "sys-clk", embed.Title)
	assert.Equal(t, "https://apps.fortheusers.org/switch/sys-clk", embed.URL)
	require.NotNil(t, embed.Thumbnail)
	assert.Equal(t, "https://www.switchbru.com/appstore/packages/sys-clk/icon.png", embed.Thumbnail.URL)
	assert.Contains(t, embed.Description, "**Author:** retronx")
	assert.Contains(t, embed.Description, "**Version:** 2.0.1")
	assert.Contains(t, embed.Description, "**License:** MIT")
	assert.Contains(t, embed.Description, "**Website:** https://apps.fortheusers.org/switch/sys-clk")
	assert.True(t, strings.HasSuffix(embed.Description, "Overclocking\nsysmodule"))
}

func TestRenderInfoTruncatesAndDefaults(t *testing.T) {
	p := &proc.Package{Name: "bare", Description: strings.Repeat("y", 5000)}
	embed := renderInfo(p, renderOptions{MaxLength: 300}).Embeds[0]

	assert.Equal(t, "bare", embed.Title)
	assert.Equal(t, 300, utf8.RuneCountInString(embed.Description))
	assert.Contains(t, embed.Description, "**Version:** unknown")
}

func TestNormalizeDetails(t *testing.T) {
	assert.Equal(t, "a\nb", NormalizeDetails(`a\n\n\nb`, true))
	assert.Equal(t, "a\nb", NormalizeDetails(`a\n\nb`, true))
	assert.Equal(t, "a\n\nb", NormalizeDetails(`a\n\nb`, false))
	assert.Equal(t, "trimmed", NormalizeDetails(`\ntrimmed\n`, false))
	assert.Equal(t, "", NormalizeDetails("", true))
}

func TestPackageChoices(t *testing.T) {
	choices := packageChoices([]*proc.Package{
		{Name: "retroarch", Title: "RetroArch"},
		{Name: "same", Title: "same"},
		{Name: strings.Repeat("n", 101)},
	})

	require.Len(t, choices, 2)
	first, ok := choices[0].(discord.AutocompleteChoiceString)
	require.True(t, ok)
	assert.Equal(t, "RetroArch (retroarch)", first.Name)
	assert.Equal(t, "retroarch", first.Value)
	second := choices[1].(discord.AutocompleteChoiceString)
	assert.Equal(t, "same", second.Name)
}

func TestCountText(t *testing.T) {
	assert.Equal(t, "There are 12 packages in repo: https://r.test", countText(12, "https://r.test", ""))
	assert.Equal(t, "There are 0 packages in repo: https://r.test\nLast refresh: <t:5:R>",
		countText(0, "https://r.test", "Last refresh: <t:5:R>"))
}

func TestReloadText(t *testing.T) {
	assert.Equal(t, "Repo reloaded successfully!\nThere are 3 packages in repo: https://r.test",
		reloadText(3, "https://r.test", nil))

	err := &proc.RefreshError{Cause: &proc.FetchError{URL: "https://r.test", StatusCode: 404}}
	assert.Equal(t, "Error reloading repo ~ HTTP Error 404 while getting https://r.test",
		reloadText(3, "https://r.test", err))

	assert.Equal(t, fmt.Sprintf(sys.MsgHomebrewReloadThrottled, "20s"),
		reloadText(3, "https://r.test", &proc.ThrottledError{RetryAfter: 20 * time.Second}))

	assert.Contains(t, reloadText(0, "", errors.New("boom")), "boom")
}

func TestBucketAliasesCoverEveryBucket(t *testing.T) {
	seen := map[string]bool{}
	for _, b := range proc.Buckets {
		aliases := bucketAliases[b]
		require.NotEmpty(t, aliases, b)
		assert.Contains(t, aliases, "homebrew_list_"+string(b))
		for _, a := range aliases {
			assert.False(t, seen[a], "alias %s registered twice", a)
			seen[a] = true
		}
	}
}
