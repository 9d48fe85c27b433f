// Package forge recognizes the legacy Forge ("FML") modded-client
// handshake channel so the proxy can track and forward it without
// intercepting its contents (spec.md §9 "supplemented features": legacy
// Forge handshake phase tracking).
package forge

// LegacyHandshakeChannel is the plugin channel pre-1.13 Forge clients use
// to negotiate their mod list with the server.
const LegacyHandshakeChannel = "FML|HS"

// LegacyHandshakeResetData is sent to reset a client's Forge handshake
// state machine when it is routed to a different server whose mod list
// may differ.
var LegacyHandshakeResetData = []byte{byte(ResetAction), 0}

// ClientHandshakeAction mirrors the single byte FML|HS messages open
// with, identifying the handshake sub-step.
type ClientHandshakeAction byte

const (
	ModListAction ClientHandshakeAction = iota
	ServerHelloAction
	ClientHelloAction
	RegistryAction
	ResetAction = 255
)
