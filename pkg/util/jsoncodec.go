package util

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"go.minekube.com/common/minecraft/component"
	"go.minekube.com/gate/pkg/proto"
)

// JsonCodec returns the chat-component JSON encoder for protocol, built
// directly on encoding/json (go.minekube.com/common only exposes
// dialect-agnostic Plain and Legacy encoders, used elsewhere in this proxy
// for console logging and action-bar fallback). The codec records
// protocol's dialect (pre-1.16, 1.16..<1.20.3, >=1.20.3), but Marshal does
// not consult it: every dialect receives the same encoding.
func JsonCodec(protocol proto.Protocol) Codec {
	return jsonCodec{dialect: protocol.Dialect()}
}

// Codec marshals a chat component to a writer.
type Codec interface {
	Marshal(w io.Writer, c component.Component) error
}

type jsonCodec struct {
	dialect proto.JSONDialect
}

// wireComponent is the on-the-wire chat-component shape, used unchanged
// for every dialect; translation arguments are always written as "with".
type wireComponent struct {
	Text        string          `json:"text,omitempty"`
	Translate   string          `json:"translate,omitempty"`
	With        []wireComponent `json:"with,omitempty"`
	Color       string          `json:"color,omitempty"`
	Bold        *bool           `json:"bold,omitempty"`
	Italic      *bool           `json:"italic,omitempty"`
	Underlined  *bool           `json:"underlined,omitempty"`
	Strikethrough *bool         `json:"strikethrough,omitempty"`
	Obfuscated  *bool           `json:"obfuscated,omitempty"`
	Extra       []wireComponent `json:"extra,omitempty"`
}

func (j jsonCodec) Marshal(w io.Writer, c component.Component) error {
	wc := toWire(c)
	return json.NewEncoder(w).Encode(wc)
}

func toWire(c component.Component) wireComponent {
	switch v := c.(type) {
	case *component.Text:
		wc := wireComponent{Text: v.Content}
		applyStyle(&wc, v.S)
		for _, e := range v.Extra {
			wc.Extra = append(wc.Extra, toWire(e))
		}
		return wc
	case *component.Translation:
		wc := wireComponent{Translate: v.Key}
		for _, w := range v.With {
			wc.With = append(wc.With, toWire(w))
		}
		applyStyle(&wc, v.S)
		return wc
	default:
		return wireComponent{Text: ""}
	}
}

func applyStyle(wc *wireComponent, s component.Style) {
	if s.Color != nil {
		if stringer, ok := s.Color.(fmt.Stringer); ok {
			wc.Color = stringer.String()
		}
	}
}

// MarshalToString is a convenience wrapper returning the encoded string
// directly, used by kick-reason and status-document assembly call sites.
func MarshalToString(protocol proto.Protocol, c component.Component) (string, error) {
	var b strings.Builder
	if err := JsonCodec(protocol).Marshal(&b, c); err != nil {
		return "", err
	}
	return b.String(), nil
}
