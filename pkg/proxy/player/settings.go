// Package player holds per-player client state that is not part of the
// core protocol/session machinery, currently just client settings
// (locale, view distance, chat preferences) sent via packet.ClientSettings.
package player

import "go.minekube.com/gate/pkg/proto/packet"

// Settings is a read-only view of the client settings a player last sent.
type Settings interface {
	Locale() string
	ViewDistance() byte
	ChatMode() int32
	ChatColors() bool
	SkinParts() byte
	MainHand() int32
}

type settings struct {
	p *packet.ClientSettings
}

// NewSettings wraps a received ClientSettings packet as a Settings view.
func NewSettings(p *packet.ClientSettings) Settings {
	return &settings{p: p}
}

func (s *settings) Locale() string       { return s.p.Locale }
func (s *settings) ViewDistance() byte   { return s.p.ViewDistance }
func (s *settings) ChatMode() int32      { return s.p.ChatMode }
func (s *settings) ChatColors() bool     { return s.p.ChatColors }
func (s *settings) SkinParts() byte      { return s.p.SkinParts }
func (s *settings) MainHand() int32      { return s.p.MainHand }

// DefaultSettings is returned for a player the proxy has not yet received
// a ClientSettings packet from.
var DefaultSettings Settings = &settings{p: &packet.ClientSettings{
	Locale:       "en_US",
	ViewDistance: 10,
	ChatMode:     0,
	ChatColors:   true,
	SkinParts:    0,
	MainHand:     1,
}}
