// Package modinfo models the mod list a legacy Forge client announces
// during its handshake, carried on connectedPlayer for informational
// purposes only (spec.md's Forge support is part of the supplemented
// feature set, see SPEC_FULL.md).
package modinfo

// Mod is a single announced Forge mod (id + version string).
type Mod struct {
	Id      string `json:"modid"`
	Version string `json:"version"`
}

// ModInfo is the full announced mod list for a connection.
type ModInfo struct {
	Type string `json:"type"`
	Mods []Mod  `json:"modList"`
}

// Default is the mod info reported by vanilla (non-modded) clients.
var Default = &ModInfo{Type: "FML"}
