package codec

import (
	"bufio"
	"bytes"
	"compress/zlib"
	"errors"
	"fmt"
	"io"

	"go.minekube.com/gate/pkg/proto"
	"go.minekube.com/gate/pkg/proto/state"
	"go.uber.org/zap"
)

// ErrDecoderLeftBytes is a non-fatal diagnostic error: a packet's Decode
// method did not consume the whole frame. The teacher's read loop treats
// this as recoverable (the packet was still handled); callers should not
// close the connection on it alone.
var ErrDecoderLeftBytes = errors.New("codec: decoder did not read all bytes of packet")

// ErrCompressionThreshold is returned by Encoder.SetCompression for a
// threshold below -1.
var ErrCompressionThreshold = errors.New("codec: negative compression threshold")

// Decoder reads frames off a connection and turns them into
// proto.PacketContext values, applying decompression per spec.md §4.1 and
// resolving the packet type from the active state.Registry.
//
// A Decoder is owned exclusively by the connection's read loop goroutine;
// it is not safe for concurrent use.
type Decoder struct {
	reader    *bufio.Reader
	direction proto.Direction
	protocol  proto.Protocol
	state     *state.Registry

	compressionThreshold int // -1 = disabled

	connDetails func() []zap.Field
}

// NewDecoder returns a Decoder reading frames of direction dir from r,
// initially uncompressed, in state.Handshake (the initial connection
// state per spec.md §3).
func NewDecoder(r *bufio.Reader, dir proto.Direction, connDetails func() []zap.Field) *Decoder {
	return &Decoder{
		reader:               r,
		direction:            dir,
		state:                state.Handshake,
		compressionThreshold: -1,
		connDetails:          connDetails,
	}
}

// SetProtocol updates the protocol version used to resolve packet IDs.
func (d *Decoder) SetProtocol(p proto.Protocol) { d.protocol = p }

// SetState updates the connection state used to resolve packet IDs.
func (d *Decoder) SetState(s *state.Registry) { d.state = s }

// SetCompressionThreshold enables (threshold >= 0) or disables (< 0)
// compression for every subsequent frame (spec.md §4.1: one-shot,
// irreversible for the lifetime of the connection once enabled).
func (d *Decoder) SetCompressionThreshold(threshold int) {
	d.compressionThreshold = threshold
}

// SetReader swaps the underlying byte source, used to install decryption
// beneath framing (spec.md §4.1).
func (d *Decoder) SetReader(r io.Reader) {
	d.reader = bufio.NewReader(r)
}

// ReadPacket reads and decodes the next frame.
func (d *Decoder) ReadPacket() (*proto.PacketContext, error) {
	frameLen, err := ReadVarInt(d.reader)
	if err != nil {
		return nil, err
	}
	if frameLen < 0 || int(frameLen) > MaxFrameLength {
		return nil, ErrFrameTooLarge
	}
	if frameLen == 0 {
		return nil, errors.New("codec: empty frame")
	}

	body := make([]byte, frameLen)
	if _, err := io.ReadFull(d.reader, body); err != nil {
		return nil, err
	}

	if d.compressionThreshold >= 0 {
		body, err = decompressBody(body)
		if err != nil {
			return nil, err
		}
	}

	r := bytes.NewReader(body)
	packetID, err := ReadVarInt(r)
	if err != nil {
		return nil, fmt.Errorf("codec: reading packet id: %w", err)
	}

	ctx := &proto.PacketContext{
		Direction: d.direction,
		Protocol:  d.protocol,
		PacketID:  int(packetID),
		Payload:   body,
	}

	pkt, ok := d.state.Direction(d.direction).Lookup(d.protocol, int(packetID))
	if !ok {
		ctx.KnownPacket = false
		return ctx, nil
	}
	ctx.KnownPacket = true
	ctx.Packet = pkt

	if err := pkt.Decode(ctx, r); err != nil {
		return ctx, fmt.Errorf("codec: decoding packet id %d: %w", packetID, err)
	}
	if r.Len() > 0 {
		// Non-fatal: surfaced so the caller can log it, but the packet was
		// still fully handled.
		return ctx, ErrDecoderLeftBytes
	}
	return ctx, nil
}

// decompressBody undoes the `varint(uncompressedSize) || bytes` envelope
// of spec.md §4.1. uncompressedSize == 0 means bytes are raw (the payload
// was below the compression threshold); otherwise bytes are zlib-deflated
// and must inflate to exactly uncompressedSize.
func decompressBody(body []byte) ([]byte, error) {
	r := bytes.NewReader(body)
	uncompressedSize, err := ReadVarInt(r)
	if err != nil {
		return nil, fmt.Errorf("codec: reading uncompressed size: %w", err)
	}
	if uncompressedSize < 0 || int(uncompressedSize) > MaxFrameLength {
		return nil, ErrFrameTooLarge
	}
	rest := body[len(body)-r.Len():]
	if uncompressedSize == 0 {
		return rest, nil
	}

	zr, err := zlib.NewReader(bytes.NewReader(rest))
	if err != nil {
		return nil, fmt.Errorf("codec: zlib: %w", err)
	}
	defer zr.Close()

	out := make([]byte, uncompressedSize)
	if _, err := io.ReadFull(zr, out); err != nil {
		return nil, fmt.Errorf("codec: inflate: %w", err)
	}
	// Confirm there isn't trailing compressed data beyond the declared
	// uncompressed size, which would mean the size header lied.
	var extra [1]byte
	if n, _ := zr.Read(extra[:]); n != 0 {
		return nil, errors.New("codec: inflate size mismatch")
	}
	return out, nil
}
