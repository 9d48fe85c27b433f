package config

import "github.com/spf13/viper"

// SetDefaults installs gate.toml's default values into v, called before
// viper reads the config file so an absent key still resolves sensibly
// (spec.md §6's recognized-options list).
func SetDefaults(v *viper.Viper) {
	v.SetDefault("config-version", CurrentVersion)
	v.SetDefault("debug", false)
	v.SetDefault("bind", "0.0.0.0:25577")
	v.SetDefault("online-mode", true)
	v.SetDefault("online-mode-kick-existing-players", false)
	v.SetDefault("player-info-forwarding-mode", string(ForwardingNone))
	v.SetDefault("forwarding-secret", "")
	v.SetDefault("minimum-version", "1.7.2")
	v.SetDefault("enable-dynamic-fallbacks", true)
	v.SetDefault("disable-forge", false)
	v.SetDefault("enforce-chat-signing", false)
	v.SetDefault("compression.threshold", 256)
	v.SetDefault("compression.level", -1)
	v.SetDefault("login-ratelimit", 3000)
	v.SetDefault("connection-timeout", 5000)
	v.SetDefault("read-timeout", 30000)
	v.SetDefault("show-max-players", 1000)
	v.SetDefault("announce-proxy-commands", true)
	v.SetDefault("server-brand", "Gate")
	v.SetDefault("fallback-version-ping", "")
	v.SetDefault("allow-illegal-characters-in-chat", false)
	v.SetDefault("log-offline-connections", true)
	v.SetDefault("haproxy", false)
	v.SetDefault("query-enabled", false)
	v.SetDefault("query-port", 25577)
	v.SetDefault("admin.enabled", false)
	v.SetDefault("admin.bind", "127.0.0.1:8443")
}
