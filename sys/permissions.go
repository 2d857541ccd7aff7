package sys

import (
	"slices"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
)

// Actor is the subset of a guild member the permission checks look at.
type Actor struct {
	UserID      snowflake.ID
	RoleIDs     []snowflake.ID
	Permissions discord.Permissions
}

func IsOwner(cfg *Config, userID snowflake.ID) bool {
	return cfg != nil && slices.Contains(cfg.OwnerIDs, userID)
}

// IsStaff falls back to the Manage Server permission when no staff roles are configured.
func IsStaff(cfg *Config, a Actor) bool {
	if cfg == nil || len(cfg.StaffRoleIDs) == 0 {
		return a.Permissions.Has(discord.PermissionManageGuild) || a.Permissions.Has(discord.PermissionAdministrator)
	}
	return hasAnyRole(a.RoleIDs, cfg.StaffRoleIDs)
}

// IsBotManager passes for staff when no bot manager roles are configured.
func IsBotManager(cfg *Config, a Actor) bool {
	if cfg == nil || len(cfg.BotManagerRoleIDs) == 0 {
		return IsStaff(cfg, a)
	}
	return hasAnyRole(a.RoleIDs, cfg.BotManagerRoleIDs)
}

// CanReloadCatalog requires both staff and bot manager standing. Owners always pass.
func CanReloadCatalog(cfg *Config, a Actor) bool {
	if IsOwner(cfg, a.UserID) {
		return true
	}
	return IsStaff(cfg, a) && IsBotManager(cfg, a)
}

func hasAnyRole(have, want []snowflake.ID) bool {
	for _, id := range have {
		if slices.Contains(want, id) {
			return true
		}
	}
	return false
}
