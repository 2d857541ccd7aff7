package sys

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/joho/godotenv"
)

const (
	DefaultRepoURL          = "https://www.switchbru.com/appstore/repo.json"
	DefaultMaxMessageLength = 2000
	DefaultEmbedColor       = 0x800080
	DefaultRefreshInterval  = 20 * time.Minute
	DefaultFetchTimeout     = 30 * time.Second
	DefaultFetchRetries     = 2
	DefaultReloadCooldown   = 30 * time.Second
	DefaultCommandPrefix    = "."
)

// MaxEmbedDescription is Discord's limit on an embed description.
const MaxEmbedDescription = 4096

var DefaultSearchFields = []string{"name", "title", "category", "author", "description"}

type Config struct {
	Token        string
	GuildID      string
	DatabasePath string
	OwnerIDs     []snowflake.ID
	Silent       bool

	// Homebrew catalog
	RepoURL          string
	SearchFields     []string
	MaxMessageLength int
	EmbedColor       int
	LogChannelID     snowflake.ID
	RefreshInterval  time.Duration
	FetchTimeout     time.Duration
	FetchRetries     int
	ReloadCooldown   time.Duration

	// Permissions and text commands
	StaffRoleIDs      []snowflake.ID
	BotManagerRoleIDs []snowflake.ID
	CommandPrefix     string
}

var GlobalConfig *Config

// LoadConfig initializes the configuration from environment variables.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg, err := ConfigFromEnv(os.Getenv)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Silent {
		SetSilentMode(true)
	}

	GlobalConfig = cfg
	return cfg, nil
}

// ConfigFromEnv builds a Config from a lookup function without validating it.
func ConfigFromEnv(getenv func(string) string) (*Config, error) {
	dbPath := getenv("DATABASE_PATH")
	if dbPath == "" {
		folder := "."
		if info, err := os.Stat("data"); err == nil && info.IsDir() {
			folder = "./data"
		}
		dbPath = filepath.Join(folder, GetProjectName()+".db")
	}

	silent, _ := strconv.ParseBool(getenv("SILENT"))

	ownerIDs, err := parseIDList(getenv("OWNER_IDS"))
	if err != nil {
		return nil, fmt.Errorf("invalid OWNER_IDS: %w", err)
	}
	staffRoles, err := parseIDList(getenv("STAFF_ROLE_IDS"))
	if err != nil {
		return nil, fmt.Errorf("invalid STAFF_ROLE_IDS: %w", err)
	}
	managerRoles, err := parseIDList(getenv("BOT_MANAGER_ROLE_IDS"))
	if err != nil {
		return nil, fmt.Errorf("invalid BOT_MANAGER_ROLE_IDS: %w", err)
	}

	var logChannel snowflake.ID
	if v := strings.TrimSpace(getenv("HOMEBREW_LOG_CHANNEL_ID")); v != "" {
		if logChannel, err = snowflake.Parse(v); err != nil {
			return nil, fmt.Errorf("invalid HOMEBREW_LOG_CHANNEL_ID: %w", err)
		}
	}

	repoURL := getenv("HOMEBREW_REPO_URL")
	if repoURL == "" {
		repoURL = DefaultRepoURL
	}

	fields := DefaultSearchFields
	if v := getenv("HOMEBREW_SEARCH_FIELDS"); v != "" {
		fields = splitList(v)
	}

	maxLen := DefaultMaxMessageLength
	if v := getenv("HOMEBREW_MAX_MESSAGE_LENGTH"); v != "" {
		if maxLen, err = strconv.Atoi(strings.TrimSpace(v)); err != nil {
			return nil, fmt.Errorf("invalid HOMEBREW_MAX_MESSAGE_LENGTH: %w", err)
		}
	}

	embedColor := DefaultEmbedColor
	if v := strings.TrimSpace(getenv("HOMEBREW_EMBED_COLOR")); v != "" {
		var c int64
		if strings.HasPrefix(v, "#") {
			c, err = strconv.ParseInt(v[1:], 16, 32)
		} else {
			c, err = strconv.ParseInt(v, 0, 32)
		}
		if err != nil {
			return nil, fmt.Errorf("invalid HOMEBREW_EMBED_COLOR: %w", err)
		}
		embedColor = int(c)
	}

	interval, err := durationEnv(getenv, "HOMEBREW_REFRESH_INTERVAL", DefaultRefreshInterval)
	if err != nil {
		return nil, err
	}
	timeout, err := durationEnv(getenv, "HOMEBREW_FETCH_TIMEOUT", DefaultFetchTimeout)
	if err != nil {
		return nil, err
	}
	cooldown, err := durationEnv(getenv, "HOMEBREW_RELOAD_COOLDOWN", DefaultReloadCooldown)
	if err != nil {
		return nil, err
	}

	retries := DefaultFetchRetries
	if v := getenv("HOMEBREW_FETCH_RETRIES"); v != "" {
		if retries, err = strconv.Atoi(strings.TrimSpace(v)); err != nil {
			return nil, fmt.Errorf("invalid HOMEBREW_FETCH_RETRIES: %w", err)
		}
	}

	prefix := getenv("COMMAND_PREFIX")
	if prefix == "" {
		prefix = DefaultCommandPrefix
	}

	return &Config{
		Token:             getenv("DISCORD_TOKEN"),
		GuildID:           getenv("GUILD_ID"),
		DatabasePath:      dbPath,
		OwnerIDs:          ownerIDs,
		Silent:            silent,
		RepoURL:           repoURL,
		SearchFields:      fields,
		MaxMessageLength:  maxLen,
		EmbedColor:        embedColor,
		LogChannelID:      logChannel,
		RefreshInterval:   interval,
		FetchTimeout:      timeout,
		FetchRetries:      retries,
		ReloadCooldown:    cooldown,
		StaffRoleIDs:      staffRoles,
		BotManagerRoleIDs: managerRoles,
		CommandPrefix:     prefix,
	}, nil
}

func (c *Config) Validate() error {
	if c.Token == "" {
		return fmt.Errorf(MsgConfigMissingToken)
	}
	if c.GuildID != "" && (len(c.GuildID) < 17 || len(c.GuildID) > 20) {
		return fmt.Errorf("invalid GUILD_ID: must be a valid Snowflake")
	}
	if c.MaxMessageLength <= 3 || c.MaxMessageLength > MaxEmbedDescription {
		return fmt.Errorf("invalid HOMEBREW_MAX_MESSAGE_LENGTH: must be between 4 and %d", MaxEmbedDescription)
	}
	if len(c.SearchFields) == 0 {
		return fmt.Errorf("invalid HOMEBREW_SEARCH_FIELDS: at least one field is required")
	}
	if c.RefreshInterval <= 0 {
		return fmt.Errorf("invalid HOMEBREW_REFRESH_INTERVAL: must be positive")
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("invalid HOMEBREW_FETCH_TIMEOUT: must be positive")
	}
	if c.FetchRetries < 0 {
		return fmt.Errorf("invalid HOMEBREW_FETCH_RETRIES: must not be negative")
	}
	return nil
}

func GetProjectName() string {
	exePath, err := os.Executable()
	projectName := "bot"
	if err == nil {
		projectName = filepath.Base(exePath)
		projectName = strings.TrimSuffix(projectName, ".exe")

		if projectName == "main" || strings.HasPrefix(projectName, "go_build_") || strings.HasSuffix(projectName, ".test") {
			if modData, err := os.ReadFile("go.mod"); err == nil {
				lines := strings.Split(string(modData), "\n")
				if len(lines) > 0 && strings.HasPrefix(lines[0], "module ") {
					parts := strings.Split(lines[0], "/")
					projectName = strings.TrimSpace(parts[len(parts)-1])
				}
			}
		}
	}
	return projectName
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseIDList(s string) ([]snowflake.ID, error) {
	var ids []snowflake.ID
	for _, part := range splitList(s) {
		id, err := snowflake.Parse(part)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func durationEnv(getenv func(string) string, key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
