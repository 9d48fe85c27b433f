package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strings"

	"go.minekube.com/gate/pkg/config"
	"go.minekube.com/gate/pkg/util/gameprofile"
)

// Forwarder produces the backend-facing handshake address string that
// carries the original client's identity, per spec.md §4.4's four
// strategies.
type Forwarder interface {
	RewriteHandshakeAddress(originalAddress, clientIP string, profile *gameprofile.GameProfile) string
}

// NewForwarder returns the Forwarder for mode, pre-bound with secret
// where the strategy requires one.
func NewForwarder(mode config.ForwardingMode, secret string) Forwarder {
	switch mode {
	case config.ForwardingLegacy:
		return legacyForwarder{}
	case config.ForwardingBungeeGuard:
		return bungeeGuardForwarder{secret: secret}
	case config.ForwardingModern:
		return modernForwarder{secret: []byte(secret)}
	default:
		return noneForwarder{}
	}
}

// noneForwarder carries no identity information at all.
type noneForwarder struct{}

func (noneForwarder) RewriteHandshakeAddress(originalAddress, _ string, _ *gameprofile.GameProfile) string {
	return originalAddress
}

// legacyForwarder implements the BungeeCord convention: the handshake
// host field becomes "<host>\x00<clientIP>\x00<uuid>\x00<propertiesJSON>".
type legacyForwarder struct{}

func (legacyForwarder) RewriteHandshakeAddress(originalAddress, clientIP string, profile *gameprofile.GameProfile) string {
	props, _ := json.Marshal(profile.Properties)
	return strings.Join([]string{
		originalAddress,
		clientIP,
		profile.Id.String(),
		string(props),
	}, "\x00")
}

// bungeeGuardForwarder is legacyForwarder plus a shared-secret token
// appended as an extra unsigned property (spec.md §8 scenario 4).
type bungeeGuardForwarder struct{ secret string }

func (f bungeeGuardForwarder) RewriteHandshakeAddress(originalAddress, clientIP string, profile *gameprofile.GameProfile) string {
	props := append([]gameprofile.Property{}, profile.Properties...)
	props = append(props, gameprofile.Property{Name: "bungeeguard-token", Value: f.secret})
	propsJSON, _ := json.Marshal(props)
	return strings.Join([]string{
		originalAddress,
		clientIP,
		profile.Id.String(),
		string(propsJSON),
	}, "\x00")
}

// modernForwarder implements Velocity's HMAC-SHA256-signed forwarding
// format, carried as a LOGIN plugin message rather than in the handshake
// address string (spec.md §4.4 "MODERN").
type modernForwarder struct{ secret []byte }

// ModernForwardingVersion is the single version byte this proxy writes.
const ModernForwardingVersion = 1

// WriteModernForwarding builds the signed payload sent as a LOGIN plugin
// message on the "velocity:player_info"/"bungeecord:main" channel
// (naming varies by consuming plugin; content is the signed payload).
func WriteModernForwarding(secret []byte, clientIP string, profile *gameprofile.GameProfile) ([]byte, error) {
	body, err := json.Marshal(struct {
		Version  int                    `json:"version"`
		Address  string                 `json:"address"`
		UUID     string                 `json:"uuid"`
		Username string                 `json:"username"`
		Props    []gameprofile.Property `json:"properties"`
	}{
		Version:  ModernForwardingVersion,
		Address:  clientIP,
		UUID:     profile.Id.String(),
		Username: profile.Name,
		Props:    profile.Properties,
	})
	if err != nil {
		return nil, fmt.Errorf("auth: marshaling modern forwarding payload: %w", err)
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	sig := mac.Sum(nil)

	out := make([]byte, 0, len(sig)+len(body))
	out = append(out, sig...)
	out = append(out, body...)
	return out, nil
}

func (f modernForwarder) RewriteHandshakeAddress(originalAddress, _ string, _ *gameprofile.GameProfile) string {
	// MODERN forwarding carries identity in a LOGIN plugin message
	// (WriteModernForwarding), not in the handshake address, so the
	// address is forwarded unmodified.
	return originalAddress
}

// VerifyModernForwarding checks a backend-received modern-forwarding
// payload's HMAC and returns its body, for a server-side consumer of this
// library (documented for symmetry; the proxy itself only ever writes
// this payload, never verifies one).
func VerifyModernForwarding(secret, payload []byte) ([]byte, error) {
	if len(payload) < sha256.Size {
		return nil, fmt.Errorf("auth: modern forwarding payload too short")
	}
	sig, body := payload[:sha256.Size], payload[sha256.Size:]
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	expected := mac.Sum(nil)
	if !hmac.Equal(sig, expected) {
		return nil, fmt.Errorf("auth: modern forwarding signature mismatch")
	}
	return body, nil
}
