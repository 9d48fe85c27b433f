// Package gameprofile models a Mojang game profile: a player's UUID, name
// and signed properties (skin/cape textures) as returned by the session
// service (spec.md §6).
package gameprofile

import "go.minekube.com/gate/pkg/util/uuid"

// Property is a single signed (or unsigned) profile property, e.g. the
// "textures" property carrying the player's skin.
type Property struct {
	Name      string `json:"name"`
	Value     string `json:"value"`
	Signature string `json:"signature,omitempty"`
}

// GameProfile is a resolved Mojang identity.
type GameProfile struct {
	Id         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	Properties []Property `json:"properties,omitempty"`
}

// Offline returns a deterministic, unsigned profile for offline-mode play.
func Offline(name string) *GameProfile {
	return &GameProfile{
		Id:   uuid.OfflinePlayerUUID(name),
		Name: name,
	}
}
