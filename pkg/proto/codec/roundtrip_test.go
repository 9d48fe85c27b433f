package codec_test

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"go.minekube.com/gate/pkg/proto"
	"go.minekube.com/gate/pkg/proto/codec"
	"go.minekube.com/gate/pkg/proto/packet"
	"go.minekube.com/gate/pkg/proto/state"
)

func noConnDetails() []zap.Field { return nil }

// roundtrip exercises spec.md §8's frame round-trip invariant:
// decode(encode(p)) == p, across every combination of
// {compression off, on-above-threshold, on-below-threshold} x
// {encryption off, on}.
func roundtrip(t *testing.T, threshold int, payloadLen int, encrypt bool) {
	t.Helper()

	buf := new(bytes.Buffer)
	enc := codec.NewEncoder(buf, proto.ServerBound)
	enc.SetState(state.Login)
	enc.SetProtocol(proto.Minecraft_1_20_2.Protocol)
	if threshold >= 0 {
		require.NoError(t, enc.SetCompression(threshold, -1))
	}

	msg := make([]byte, payloadLen)
	for i := range msg {
		msg[i] = byte(i)
	}
	pkt := &packet.LoginPluginResponse{MessageID: 7, Success: true, Data: msg}

	if encrypt {
		secret := bytes.Repeat([]byte{0x42}, 16)
		ew, err := codec.NewEncryptWriter(buf, secret)
		require.NoError(t, err)
		enc.SetWriter(ew)

		_, err = enc.WritePacket(pkt)
		require.NoError(t, err)

		dr, err := codec.NewDecryptReader(buf, secret)
		require.NoError(t, err)
		dec := codec.NewDecoder(bufio.NewReader(dr), proto.ServerBound, noConnDetails)
		dec.SetState(state.Login)
		dec.SetProtocol(proto.Minecraft_1_20_2.Protocol)
		if threshold >= 0 {
			dec.SetCompressionThreshold(threshold)
		}

		ctx, err := dec.ReadPacket()
		require.NoError(t, err)
		assertRoundtripped(t, ctx, pkt)
		return
	}

	_, err := enc.WritePacket(pkt)
	require.NoError(t, err)

	dec := codec.NewDecoder(bufio.NewReader(buf), proto.ServerBound, noConnDetails)
	dec.SetState(state.Login)
	dec.SetProtocol(proto.Minecraft_1_20_2.Protocol)
	if threshold >= 0 {
		dec.SetCompressionThreshold(threshold)
	}

	ctx, err := dec.ReadPacket()
	require.NoError(t, err)
	assertRoundtripped(t, ctx, pkt)
}

func assertRoundtripped(t *testing.T, ctx *proto.PacketContext, want *packet.LoginPluginResponse) {
	t.Helper()
	require.True(t, ctx.KnownPacket)
	got, ok := ctx.Packet.(*packet.LoginPluginResponse)
	require.True(t, ok)
	assert.Equal(t, want.MessageID, got.MessageID)
	assert.Equal(t, want.Success, got.Success)
	assert.Equal(t, want.Data, got.Data)
}

func TestRoundtripNoCompressionNoEncryption(t *testing.T) {
	roundtrip(t, -1, 16, false)
}

func TestRoundtripCompressionBelowThreshold(t *testing.T) {
	roundtrip(t, 256, 16, false)
}

func TestRoundtripCompressionAboveThreshold(t *testing.T) {
	roundtrip(t, 8, 4096, false)
}

func TestRoundtripEncryptionOnly(t *testing.T) {
	roundtrip(t, -1, 16, true)
}

func TestRoundtripCompressionAndEncryption(t *testing.T) {
	roundtrip(t, 8, 4096, true)
}

func TestRoundtripEmptyPayload(t *testing.T) {
	roundtrip(t, 64, 0, false)
}
