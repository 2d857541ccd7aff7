package home

import (
	"strings"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/omit"
	"github.com/disgoorg/snowflake/v2"
	"github.com/leeineian/brewbot/proc"
	"github.com/leeineian/brewbot/sys"
)

// responder sends a reply through whichever surface invoked the command.
type responder interface {
	// Defer acknowledges a command whose reply may take a while.
	Defer() error
	Send(msg discord.MessageCreate) error
	Actor() sys.Actor
	Describe() string
}

type slashResponder struct {
	event    *events.ApplicationCommandInteractionCreate
	deferred bool
}

func (r *slashResponder) Defer() error {
	if err := r.event.DeferCreateMessage(false); err != nil {
		return err
	}
	r.deferred = true
	return nil
}

func (r *slashResponder) Send(msg discord.MessageCreate) error {
	if r.deferred {
		_, err := r.event.Client().Rest.CreateFollowupMessage(r.event.ApplicationID(), r.event.Token(), msg)
		return err
	}
	return r.event.CreateMessage(msg)
}

func (r *slashResponder) Actor() sys.Actor {
	actor := sys.Actor{UserID: r.event.User().ID}
	if m := r.event.Member(); m != nil {
		actor.RoleIDs = m.RoleIDs
		actor.Permissions = m.Permissions
	}
	return actor
}

func (r *slashResponder) Describe() string {
	return r.event.User().Username
}

type textResponder struct {
	event *events.MessageCreate
}

func (r textResponder) Defer() error {
	return r.event.Client().Rest.SendTyping(r.event.ChannelID)
}

func (r textResponder) Send(msg discord.MessageCreate) error {
	msg.MessageReference = &discord.MessageReference{MessageID: &r.event.MessageID}
	_, err := r.event.Client().Rest.CreateMessage(r.event.ChannelID, msg)
	return err
}

func (r textResponder) Actor() sys.Actor {
	actor := sys.Actor{UserID: r.event.Message.Author.ID}
	if m := r.event.Message.Member; m != nil && r.event.GuildID != nil {
		actor.RoleIDs = m.RoleIDs
		actor.Permissions = guildPermissions(r.event.Client(), *r.event.GuildID, r.event.Message.Author.ID, m.RoleIDs)
	}
	return actor
}

func (r textResponder) Describe() string {
	return r.event.Message.Author.Username
}

// guildPermissions folds the cached guild-wide role permissions of a member.
func guildPermissions(client *bot.Client, guildID, userID snowflake.ID, roleIDs []snowflake.ID) discord.Permissions {
	guild, ok := client.Caches.Guild(guildID)
	if !ok {
		return 0
	}
	if guild.OwnerID == userID {
		return discord.PermissionsAll
	}

	var perms discord.Permissions
	if everyone, ok := client.Caches.Role(guildID, guildID); ok {
		perms |= everyone.Permissions
	}
	for _, roleID := range roleIDs {
		if role, ok := client.Caches.Role(guildID, roleID); ok {
			perms |= role.Permissions
		}
	}
	return perms
}

func homebrewSend(r responder, msg discord.MessageCreate) {
	if err := r.Send(msg); err != nil {
		sys.LogHomebrewError(sys.MsgHomebrewRespondFail, r.Describe(), err)
	}
}

func homebrewReplyText(r responder, content string) {
	homebrewSend(r, renderText(content))
}

// homebrewCatalog is nil until main has called proc.InitCatalog.
func homebrewCatalog() *proc.CatalogService {
	return proc.Catalog
}

var bucketAliases = map[proc.Bucket][]string{
	proc.BucketGames:     {"homebrew_list_games", "hb_list_games", "hblistgames", "hbgames"},
	proc.BucketAdvanced:  {"homebrew_list_advanced", "hb_list_advanced", "hblistadvanced", "hbadvanced"},
	proc.BucketTools:     {"homebrew_list_tools", "hb_list_tools", "hblisttools", "hbtools"},
	proc.BucketThemes:    {"homebrew_list_themes", "hb_list_themes", "hblistthemes", "hbthemes"},
	proc.BucketEmulators: {"homebrew_list_emulators", "hb_list_emulators", "hblistemulators", "hbemulators", "hblistemus", "hbemus"},
}

func init() {
	subCommands := make([]discord.ApplicationCommandOption, 0, len(proc.Buckets)+3)
	for _, b := range proc.Buckets {
		subCommands = append(subCommands, discord.ApplicationCommandOptionSubCommand{
			Name:        string(b),
			Description: "List all " + string(b) + " in the repo",
		})
	}
	subCommands = append(subCommands,
		discord.ApplicationCommandOptionSubCommand{
			Name:        "search",
			Description: "Search the repo by name, title, author or description",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{
					Name:        "term",
					Description: "Text to look for",
					Required:    true,
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "info",
			Description: "Show details for a package",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{
					Name:         "package",
					Description:  "Package name or title",
					Required:     true,
					Autocomplete: true,
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "count",
			Description: "Count the packages in the repo",
		},
	)

	sys.RegisterCommand(discord.SlashCommandCreate{
		Name:        "homebrew",
		Description: "Browse the Switch homebrew appstore",
		Contexts: []discord.InteractionContextType{
			discord.InteractionContextTypeGuild,
		},
		Options: subCommands,
	}, handleHomebrew)

	sys.RegisterAutocompleteHandler("homebrew", handleHomebrewAutocomplete)

	managePerm := discord.PermissionManageGuild
	sys.RegisterCommand(discord.SlashCommandCreate{
		Name:                     "homebrew-reload",
		Description:              "Reload the homebrew repo (Staff and bot managers only)",
		DefaultMemberPermissions: omit.New(&managePerm),
		Contexts: []discord.InteractionContextType{
			discord.InteractionContextTypeGuild,
		},
	}, handleHomebrewReload)

	for _, b := range proc.Buckets {
		bucket := b
		sys.RegisterTextCommand(bucketAliases[bucket], func(event *events.MessageCreate, args string) {
			homebrewList(textResponder{event}, bucket)
		})
	}
	sys.RegisterTextCommand([]string{"homebrew_search", "hb_search", "hbsearch", "search"}, func(event *events.MessageCreate, args string) {
		homebrewSearch(textResponder{event}, args)
	})
	sys.RegisterTextCommand([]string{"homebrew_info", "hb_info", "hbinfo"}, func(event *events.MessageCreate, args string) {
		homebrewInfo(textResponder{event}, args)
	})
	sys.RegisterTextCommand([]string{"homebrew_get_count", "hb_count", "hbcount"}, func(event *events.MessageCreate, args string) {
		homebrewCount(textResponder{event})
	})
	sys.RegisterTextCommand([]string{"homebrew_reload_repo", "hb_reload", "hbreload"}, func(event *events.MessageCreate, args string) {
		homebrewReload(textResponder{event})
	})
}

func handleHomebrew(event *events.ApplicationCommandInteractionCreate) {
	r := &slashResponder{event: event}
	if event.GuildID() == nil {
		homebrewReplyText(r, sys.MsgHomebrewGuildOnly)
		return
	}

	data := event.SlashCommandInteractionData()
	subCmd := data.SubCommandName
	if subCmd == nil {
		return
	}

	switch *subCmd {
	case "search":
		homebrewSearch(r, data.String("term"))
	case "info":
		homebrewInfo(r, data.String("package"))
	case "count":
		homebrewCount(r)
	default:
		if b := proc.Bucket(*subCmd); b.Valid() {
			homebrewList(r, b)
		}
	}
}

func handleHomebrewReload(event *events.ApplicationCommandInteractionCreate) {
	r := &slashResponder{event: event}
	if event.GuildID() == nil {
		homebrewReplyText(r, sys.MsgHomebrewGuildOnly)
		return
	}
	homebrewReload(r)
}

func handleHomebrewAutocomplete(event *events.AutocompleteInteractionCreate) {
	catalog := homebrewCatalog()
	if catalog == nil {
		_ = event.AutocompleteResult(nil)
		return
	}

	focused := ""
	for _, opt := range event.Data.Options {
		if opt.Focused {
			focused = strings.TrimSpace(opt.String())
			break
		}
	}

	_ = event.AutocompleteResult(packageChoices(catalog.MatchPackages(focused, 25)))
}

// packageChoices maps packages to autocomplete choices within Discord's 100 character limits.
func packageChoices(pkgs []*proc.Package) []discord.AutocompleteChoice {
	choices := make([]discord.AutocompleteChoice, 0, len(pkgs))
	for _, p := range pkgs {
		if len(p.Name) > 100 {
			continue
		}
		label := p.Name
		if p.Title != "" && p.Title != p.Name {
			label = p.Title + " (" + p.Name + ")"
		}
		choices = append(choices, discord.AutocompleteChoiceString{
			Name:  sys.Truncate(label, 100),
			Value: p.Name,
		})
	}
	return choices
}
