package home

import (
	"fmt"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/leeineian/brewbot/proc"
	"github.com/leeineian/brewbot/sys"
)

const (
	// searchFieldLimit is the most matches rendered as individual fields.
	searchFieldLimit = 6
	// searchBodyLimit caps each rendered search field.
	searchBodyLimit = 200
	// searchTermLimit keeps the echoed term inside Discord's 256 character embed title.
	searchTermLimit = 200
)

var bucketTitles = map[proc.Bucket]string{
	proc.BucketGames:     "Switch Games:",
	proc.BucketAdvanced:  "Advanced Switch Homebrew:",
	proc.BucketTools:     "Switch Tools:",
	proc.BucketThemes:    "Switch Themes:",
	proc.BucketEmulators: "Switch Emulators:",
}

type renderOptions struct {
	MaxLength int
	Color     int
}

func currentRenderOptions() renderOptions {
	opts := renderOptions{MaxLength: sys.DefaultMaxMessageLength, Color: sys.DefaultEmbedColor}
	if cfg := sys.GlobalConfig; cfg != nil {
		opts.MaxLength = cfg.MaxMessageLength
		opts.Color = cfg.EmbedColor
	}
	return opts
}

func PageURL(name string) string {
	return "https://apps.fortheusers.org/switch/" + name
}

func IconURL(name string) string {
	return "https://www.switchbru.com/appstore/packages/" + name + "/icon.png"
}

// NormalizeDetails turns the escaped "\n" sequences of the catalog into line breaks.
// With collapse set, runs of escaped newlines become a single line break.
func NormalizeDetails(details string, collapse bool) string {
	if collapse {
		details = strings.ReplaceAll(details, `\n\n\n`, "\n")
		details = strings.ReplaceAll(details, `\n\n`, "\n")
	}
	details = strings.ReplaceAll(details, `\n`, "\n")
	return strings.TrimSpace(details)
}

func orUnknown(s string) string {
	if s == "" {
		return sys.MsgHomebrewUnknownField
	}
	return s
}

// renderList is a sorted, comma-joined name list truncated to the message limit.
func renderList(title string, names []string, opts renderOptions) discord.MessageCreate {
	embed := discord.NewEmbedBuilder().
		SetTitle(title).
		SetDescription(sys.Truncate(sys.JoinSorted(names), opts.MaxLength)).
		SetColor(opts.Color).
		Build()
	return discord.NewMessageCreate().WithEmbeds(embed)
}

func renderBucket(b proc.Bucket, names []string, opts renderOptions) discord.MessageCreate {
	return renderList(bucketTitles[b], names, opts)
}

// renderSearch picks the output form by match count: a "No results" list, one field per match, or a plain list.
func renderSearch(term string, names []string, find func(string) (*proc.Package, bool), opts renderOptions) discord.MessageCreate {
	title := fmt.Sprintf(sys.MsgHomebrewSearchTitle, sys.Truncate(term, searchTermLimit))

	switch {
	case len(names) == 0:
		return renderList(title, []string{sys.MsgHomebrewNoResults}, opts)
	case len(names) > searchFieldLimit:
		return renderList(title+fmt.Sprintf(sys.MsgHomebrewSearchCount, len(names)), names, opts)
	}

	builder := discord.NewEmbedBuilder().
		SetTitle(title).
		SetDescription(fmt.Sprintf(sys.MsgHomebrewSearchShowing, len(names))).
		SetColor(opts.Color)

	for _, name := range names {
		pkg, ok := find(name)
		if !ok {
			// Replaced by a reload between search and render.
			continue
		}
		body := fmt.Sprintf(sys.MsgHomebrewFieldBody, pkg.Name, orUnknown(pkg.Author), NormalizeDetails(pkg.Details(), true))
		header := pkg.Title
		if header == "" {
			header = pkg.Name
		}
		builder.AddField("**"+header+"**", sys.Truncate(body, searchBodyLimit), false)
	}

	return discord.NewMessageCreate().WithEmbeds(builder.Build())
}

func renderInfo(pkg *proc.Package, opts renderOptions) discord.MessageCreate {
	var sb strings.Builder
	fmt.Fprintf(&sb, "**Author:** %s\n", orUnknown(pkg.Author))
	fmt.Fprintf(&sb, "**Package name:** %s\n", pkg.Name)
	fmt.Fprintf(&sb, "**Version:** %s\n", orUnknown(pkg.Version))
	fmt.Fprintf(&sb, "**License:** %s\n", orUnknown(pkg.License))
	fmt.Fprintf(&sb, "**Website:** %s\n", PageURL(pkg.Name))
	fmt.Fprintf(&sb, "\n%s", NormalizeDetails(pkg.Details(), false))

	title := pkg.Title
	if title == "" {
		title = pkg.Name
	}

	embed := discord.NewEmbedBuilder().
		SetTitle(title).
		SetURL(PageURL(pkg.Name)).
		SetDescription(sys.Truncate(sb.String(), opts.MaxLength)).
		SetThumbnail(IconURL(pkg.Name)).
		SetColor(opts.Color).
		Build()
	return discord.NewMessageCreate().WithEmbeds(embed)
}

func renderText(content string) discord.MessageCreate {
	return discord.NewMessageCreate().WithContent(content)
}
