package sys

import (
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestConfigFromEnvDefaults(t *testing.T) {
	cfg, err := ConfigFromEnv(envMap(map[string]string{"DISCORD_TOKEN": "token"}))
	require.NoError(t, err)

	assert.Equal(t, "token", cfg.Token)
	assert.Equal(t, DefaultRepoURL, cfg.RepoURL)
	assert.Equal(t, DefaultSearchFields, cfg.SearchFields)
	assert.Equal(t, DefaultMaxMessageLength, cfg.MaxMessageLength)
	assert.Equal(t, DefaultEmbedColor, cfg.EmbedColor)
	assert.Equal(t, 20*time.Minute, cfg.RefreshInterval)
	assert.Equal(t, DefaultFetchTimeout, cfg.FetchTimeout)
	assert.Equal(t, DefaultFetchRetries, cfg.FetchRetries)
	assert.Equal(t, DefaultReloadCooldown, cfg.ReloadCooldown)
	assert.Equal(t, ".", cfg.CommandPrefix)
	assert.NotEmpty(t, cfg.DatabasePath)
	assert.Empty(t, cfg.OwnerIDs)
	assert.NoError(t, cfg.Validate())
}

func TestConfigFromEnvOverrides(t *testing.T) {
	cfg, err := ConfigFromEnv(envMap(map[string]string{
		"DISCORD_TOKEN":               "token",
		"DATABASE_PATH":               "/tmp/brew.db",
		"OWNER_IDS":                   "123456789012345678, 223456789012345678",
		"STAFF_ROLE_IDS":              "323456789012345678",
		"BOT_MANAGER_ROLE_IDS":        "423456789012345678",
		"HOMEBREW_LOG_CHANNEL_ID":     "523456789012345678",
		"HOMEBREW_REPO_URL":           "https://mirror.test/repo.json",
		"HOMEBREW_SEARCH_FIELDS":      "name, author",
		"HOMEBREW_MAX_MESSAGE_LENGTH": "500",
		"HOMEBREW_EMBED_COLOR":        "#00ff00",
		"HOMEBREW_REFRESH_INTERVAL":   "5m",
		"HOMEBREW_FETCH_TIMEOUT":      "10s",
		"HOMEBREW_FETCH_RETRIES":      "0",
		"HOMEBREW_RELOAD_COOLDOWN":    "1m",
		"COMMAND_PREFIX":              "!",
	}))
	require.NoError(t, err)

	assert.Equal(t, "/tmp/brew.db", cfg.DatabasePath)
	assert.Equal(t, []snowflake.ID{123456789012345678, 223456789012345678}, cfg.OwnerIDs)
	assert.Equal(t, []snowflake.ID{323456789012345678}, cfg.StaffRoleIDs)
	assert.Equal(t, []snowflake.ID{423456789012345678}, cfg.BotManagerRoleIDs)
	assert.Equal(t, snowflake.ID(523456789012345678), cfg.LogChannelID)
	assert.Equal(t, "https://mirror.test/repo.json", cfg.RepoURL)
	assert.Equal(t, []string{"name", "author"}, cfg.SearchFields)
	assert.Equal(t, 500, cfg.MaxMessageLength)
	assert.Equal(t, 0x00ff00, cfg.EmbedColor)
	assert.Equal(t, 5*time.Minute, cfg.RefreshInterval)
	assert.Equal(t, 10*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 0, cfg.FetchRetries)
	assert.Equal(t, time.Minute, cfg.ReloadCooldown)
	assert.Equal(t, "!", cfg.CommandPrefix)
	assert.NoError(t, cfg.Validate())
}

func TestConfigEmbedColorForms(t *testing.T) {
	for in, want := range map[string]int{
		"#800080":  0x800080,
		"0x112233": 0x112233,
		"255":      255,
	} {
		cfg, err := ConfigFromEnv(envMap(map[string]string{"HOMEBREW_EMBED_COLOR": in}))
		require.NoError(t, err, in)
		assert.Equal(t, want, cfg.EmbedColor, in)
	}
}

func TestConfigFromEnvRejectsBadValues(t *testing.T) {
	for key, value := range map[string]string{
		"OWNER_IDS":                   "not-a-snowflake",
		"HOMEBREW_LOG_CHANNEL_ID":     "abc",
		"HOMEBREW_MAX_MESSAGE_LENGTH": "lots",
		"HOMEBREW_EMBED_COLOR":        "#zzzzzz",
		"HOMEBREW_REFRESH_INTERVAL":   "soon",
		"HOMEBREW_FETCH_RETRIES":      "two",
	} {
		_, err := ConfigFromEnv(envMap(map[string]string{key: value}))
		assert.Error(t, err, key)
	}
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := ConfigFromEnv(envMap(map[string]string{"DISCORD_TOKEN": "token"}))
		require.NoError(t, err)
		return cfg
	}

	cases := map[string]func(c *Config){
		"missing token":           func(c *Config) { c.Token = "" },
		"short guild id":          func(c *Config) { c.GuildID = "1234" },
		"tiny message limit":      func(c *Config) { c.MaxMessageLength = 3 },
		"oversized message limit": func(c *Config) { c.MaxMessageLength = MaxEmbedDescription + 1 },
		"no search fields":        func(c *Config) { c.SearchFields = nil },
		"zero interval":           func(c *Config) { c.RefreshInterval = 0 },
		"zero fetch timeout":      func(c *Config) { c.FetchTimeout = 0 },
		"negative retries":        func(c *Config) { c.FetchRetries = -1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	t.Run("embed description limit is accepted", func(t *testing.T) {
		cfg := valid()
		cfg.MaxMessageLength = MaxEmbedDescription
		assert.NoError(t, cfg.Validate())
	})
}
