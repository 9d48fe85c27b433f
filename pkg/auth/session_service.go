package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	lru "github.com/golang/groupcache/lru"
	"github.com/valyala/fasthttp"

	"go.minekube.com/gate/pkg/util/gameprofile"
)

const hasJoinedTimeout = 5 * time.Second

// ErrNotPremium is returned when Mojang's session service reports the
// client did not complete a genuine premium login (spec.md §6: "204 /
// non-2xx").
var ErrNotPremium = errors.New("auth: session server did not recognize this login (204/non-2xx)")

// SessionService calls Mojang's hasJoined endpoint to verify an
// online-mode login. Successful responses are kept in an LRU cache of
// 1024 entries keyed by username, server-id and ip; entries leave the
// cache only by eviction, not by age (spec.md §6's External Interfaces
// section).
type SessionService struct {
	client *fasthttp.Client
	cache  *lru.Cache
	url    string
}

// NewSessionService returns a ready-to-use SessionService pointed at
// Mojang's production endpoint.
func NewSessionService() *SessionService {
	return &SessionService{
		client: &fasthttp.Client{
			Name:                "gate",
			MaxIdleConnDuration: time.Minute,
		},
		cache: lru.New(1024),
		url:   "https://sessionserver.mojang.com/session/minecraft/hasJoined",
	}
}

// HasJoined verifies username completed a client-side premium login
// against serverId (the SHA-1 hex digest EncryptionRequest.ServerId was
// derived from), optionally scoped to the client's ip.
func (s *SessionService) HasJoined(username, serverID, ip string) (*gameprofile.GameProfile, error) {
	key := username + "\x00" + serverID + "\x00" + ip
	if v, ok := s.cache.Get(key); ok {
		return v.(*gameprofile.GameProfile), nil
	}

	uri := fmt.Sprintf("%s?username=%s&serverId=%s", s.url, username, serverID)
	if ip != "" {
		uri += "&ip=" + ip
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(uri)
	req.Header.SetMethod(fasthttp.MethodGet)

	if err := s.client.DoTimeout(req, resp, hasJoinedTimeout); err != nil {
		return nil, fmt.Errorf("auth: calling session service: %w", err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, ErrNotPremium
	}

	var profile gameprofile.GameProfile
	if err := json.Unmarshal(resp.Body(), &profile); err != nil {
		return nil, fmt.Errorf("auth: decoding session service response: %w", err)
	}

	s.cache.Add(key, &profile)
	return &profile, nil
}
