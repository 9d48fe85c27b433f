// Package config defines the proxy's configuration document (spec.md §6)
// and its validation/migration. The document is loaded by viper from
// gate.toml (the renamed velocity.toml of spec.md §6) and unmarshaled
// straight into Config, the way the teacher's cmd/gate/gate.go does it.
package config

import (
	"errors"
	"fmt"
)

// CurrentVersion is the config-version this build understands natively;
// older documents are migrated up to it before validation (migrate.go).
const CurrentVersion = 2

// ForwardingMode selects how the proxy tells a backend server the
// original client's identity and address (spec.md §4.4).
type ForwardingMode string

const (
	ForwardingNone        ForwardingMode = "NONE"
	ForwardingLegacy      ForwardingMode = "LEGACY"
	ForwardingBungeeGuard ForwardingMode = "BUNGEEGUARD"
	ForwardingModern      ForwardingMode = "MODERN"
)

// ServerConfig is a single backend entry in the `servers` table.
type ServerConfig struct {
	Name    string `mapstructure:"name"`
	Address string `mapstructure:"address"`
	// Forwarding overrides PlayerInfoForwardingMode for this one backend;
	// empty means "use the proxy-wide default" (supplemented feature).
	Forwarding ForwardingMode `mapstructure:"forwarding"`
}

// Config is the root of gate.toml, unmarshaled by viper.Unmarshal in
// cmd/gate (spec.md §6's recognized-options list).
type Config struct {
	ConfigVersion int  `mapstructure:"config-version"`
	Debug         bool `mapstructure:"debug"`

	Bind string `mapstructure:"bind"`

	OnlineMode                    bool `mapstructure:"online-mode"`
	OnlineModeKickExistingPlayers bool `mapstructure:"online-mode-kick-existing-players"`

	PlayerInfoForwardingMode ForwardingMode `mapstructure:"player-info-forwarding-mode"`
	ForwardingSecret         string         `mapstructure:"forwarding-secret"`

	MinimumVersion       string `mapstructure:"minimum-version"`
	EnableDynamicFallbacks bool `mapstructure:"enable-dynamic-fallbacks"`
	DisableForge         bool   `mapstructure:"disable-forge"`
	EnforceChatSigning   bool   `mapstructure:"enforce-chat-signing"`

	Compression CompressionConfig `mapstructure:"compression"`

	LoginRateLimit   int `mapstructure:"login-ratelimit"`
	ConnectionTimeout int `mapstructure:"connection-timeout"`
	ReadTimeout       int `mapstructure:"read-timeout"`

	ShowMaxPlayers            int  `mapstructure:"show-max-players"`
	AnnounceProxyCommands     bool `mapstructure:"announce-proxy-commands"`
	ServerBrand               string `mapstructure:"server-brand"`
	FallbackVersionPing       string `mapstructure:"fallback-version-ping"`
	AllowIllegalCharsInChat   bool   `mapstructure:"allow-illegal-characters-in-chat"`
	LogOfflineConnections     bool   `mapstructure:"log-offline-connections"`

	HAProxyProtocol bool `mapstructure:"haproxy"`

	QueryEnabled bool `mapstructure:"query-enabled"`
	QueryPort    int  `mapstructure:"query-port"`

	Servers  []ServerConfig `mapstructure:"servers"`
	Try      []string       `mapstructure:"try"`
	Favicon  string         `mapstructure:"favicon"`

	// ForcedHosts maps a virtual-host string the client used to reach the
	// proxy to the ordered list of backends to try for it (spec.md §6's
	// "per-server override map" extended with host-based routing).
	ForcedHosts map[string][]string `mapstructure:"forced-hosts"`

	// Admin surfaces this proxy exposes; wiring home for go.minekube.com/gate's
	// grpc health dependency (DESIGN.md "pkg/admin").
	Admin AdminConfig `mapstructure:"admin"`
}

// CompressionConfig groups the two compression-related options so
// minecraftConn can pass them to codec.Encoder.SetCompression together.
type CompressionConfig struct {
	Threshold int `mapstructure:"threshold"`
	Level     int `mapstructure:"level"`
}

// AttemptConnectionOrder returns the proxy-wide default list of backend
// names to try, in declared order (spec.md §9's "first-declared order"
// fallback tie-break).
func (c *Config) AttemptConnectionOrder() []string {
	if len(c.Try) > 0 {
		return c.Try
	}
	names := make([]string, len(c.Servers))
	for i, s := range c.Servers {
		names[i] = s.Name
	}
	return names
}

// AdminConfig controls the liveness/admin gRPC surface (supplemented
// feature; has no equivalent key in spec.md's recognized-options list,
// added to give the grpc/health dependency a concrete home).
type AdminConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Bind    string `mapstructure:"bind"`
}

var (
	ErrMissingBind    = errors.New("config: bind address is empty")
	ErrNoServers      = errors.New("config: no servers configured")
	ErrUnknownForward = errors.New("config: unknown player-info-forwarding-mode")
	ErrMissingSecret  = errors.New("config: forwarding-secret is required for MODERN/BUNGEEGUARD forwarding")
)

// Validate checks the structural invariants of a loaded config, the way
// the teacher's gate.go calls config.Validate(&cfg) right after unmarshal.
func Validate(c *Config) error {
	if c.Bind == "" {
		return ErrMissingBind
	}
	if len(c.Servers) == 0 {
		return ErrNoServers
	}
	switch c.PlayerInfoForwardingMode {
	case ForwardingNone, ForwardingLegacy, ForwardingBungeeGuard, ForwardingModern:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownForward, c.PlayerInfoForwardingMode)
	}
	if (c.PlayerInfoForwardingMode == ForwardingModern || c.PlayerInfoForwardingMode == ForwardingBungeeGuard) &&
		c.ForwardingSecret == "" {
		return ErrMissingSecret
	}
	for _, s := range c.Servers {
		if s.Forwarding == "" {
			continue
		}
		switch s.Forwarding {
		case ForwardingNone, ForwardingLegacy, ForwardingBungeeGuard, ForwardingModern:
		default:
			return fmt.Errorf("%w: server %q: %q", ErrUnknownForward, s.Name, s.Forwarding)
		}
	}
	return nil
}

// ForwardingFor resolves the effective forwarding mode for a named
// backend, honoring its per-server override (spec.md §6 "per-server
// override map").
func (c *Config) ForwardingFor(serverName string) ForwardingMode {
	for _, s := range c.Servers {
		if s.Name == serverName && s.Forwarding != "" {
			return s.Forwarding
		}
	}
	return c.PlayerInfoForwardingMode
}
