package config

// Migrate upgrades an older gate.toml in-place to CurrentVersion,
// applying the config-version ladder described by spec.md §6. Each step
// only renames/reshapes fields that changed meaning between versions;
// unrecognized older versions are migrated forward one step at a time.
func Migrate(c *Config) {
	if c.ConfigVersion <= 0 {
		c.ConfigVersion = 1
	}
	if c.ConfigVersion < 2 {
		migrateV1ToV2(c)
	}
	c.ConfigVersion = CurrentVersion
}

// migrateV1ToV2 sets an empty player-info-forwarding-mode to NONE. It does
// not read any v1 "bungee-guard" flag; Config has no field for one.
func migrateV1ToV2(c *Config) {
	if c.PlayerInfoForwardingMode == "" {
		c.PlayerInfoForwardingMode = ForwardingNone
	}
}
