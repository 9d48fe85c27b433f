package proxy

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"go.minekube.com/common/minecraft/component"
	"go.minekube.com/gate/pkg/proto"
	"go.minekube.com/gate/pkg/util"
)

// statusVersion is the {name, protocol} pair embedded in a status
// response (spec.md §8 scenario 1).
type statusVersion struct {
	Name     string `json:"name"`
	Protocol int    `json:"protocol"`
}

type statusPlayerSample struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

type statusPlayers struct {
	Max    int                   `json:"max"`
	Online int                   `json:"online"`
	Sample []statusPlayerSample  `json:"sample"`
}

type statusResponse struct {
	Version     statusVersion    `json:"version"`
	Players     statusPlayers    `json:"players"`
	Description json.RawMessage `json:"description"`
	Favicon     string           `json:"favicon,omitempty"`
}

// buildStatusResponse renders the proxy's current status as JSON for a
// client pinging at protocol, using the JSON dialect that protocol
// expects (spec.md §3, §8 scenario 1).
func (p *Proxy) buildStatusResponse(protocol proto.Protocol, description component.Component, favicon string) (string, error) {
	var descBuf bytes.Buffer
	if err := util.JsonCodec(protocol).Marshal(&descBuf, description); err != nil {
		return "", fmt.Errorf("proxy: marshaling status description: %w", err)
	}

	resp := statusResponse{
		Version: statusVersion{
			Name:     protocol.String(),
			Protocol: int(protocol),
		},
		Players: statusPlayers{
			Max:    p.config.ShowMaxPlayers,
			Online: p.PlayerCount(),
		},
		Description: descBuf.Bytes(),
		Favicon:     favicon,
	}

	out, err := json.Marshal(resp)
	if err != nil {
		return "", fmt.Errorf("proxy: marshaling status response: %w", err)
	}
	return string(out), nil
}

// encodeFavicon base64-data-URI-encodes raw PNG favicon bytes for
// embedding in a status response, the wire format vanilla clients expect.
func encodeFavicon(png []byte) string {
	if len(png) == 0 {
		return ""
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
}
