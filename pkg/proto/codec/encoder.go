package codec

import (
	"bufio"
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
	"sync"

	"go.minekube.com/gate/pkg/proto"
	"go.minekube.com/gate/pkg/proto/state"
)

// Encoder serializes packets into frames and writes them to a connection,
// applying compression per spec.md §4.1. An Encoder may be written to from
// the connection's own goroutine as well as concurrent writers relaying a
// backend-to-client stream, so unlike Decoder it guards its state with a
// mutex and exposes Sync for flush coordination.
type Encoder struct {
	mu        sync.Mutex
	writer    io.Writer
	direction proto.Direction
	protocol  proto.Protocol
	state     *state.Registry

	compressionThreshold int // -1 = disabled
	compressionLevel     int
}

// NewEncoder returns an Encoder writing frames of direction dir to w.
func NewEncoder(w io.Writer, dir proto.Direction) *Encoder {
	return &Encoder{
		writer:                w,
		direction:             dir,
		state:                 state.Handshake,
		compressionThreshold:  -1,
		compressionLevel:      zlib.DefaultCompression,
	}
}

// SetProtocol updates the protocol version used to resolve packet IDs.
func (e *Encoder) SetProtocol(p proto.Protocol) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.protocol = p
}

// SetState updates the connection state used to resolve packet IDs.
func (e *Encoder) SetState(s *state.Registry) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = s
}

// SetCompression enables (threshold >= 0) or disables (threshold == -1)
// compression; a threshold below -1 returns ErrCompressionThreshold. Per
// spec.md §4.1 a one-shot, irreversible operation for the life of the
// connection once enabled.
func (e *Encoder) SetCompression(threshold, level int) error {
	if threshold < -1 {
		return ErrCompressionThreshold
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.compressionThreshold = threshold
	if level > 0 {
		e.compressionLevel = level
	}
	return nil
}

// SetWriter swaps the underlying byte sink, used to install encryption
// beneath framing (spec.md §4.1).
func (e *Encoder) SetWriter(w io.Writer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.writer = w
}

// WritePacket encodes p and writes the resulting frame.
func (e *Encoder) WritePacket(p proto.Packet) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	id, ok := e.state.Direction(e.direction).PacketID(e.protocol, p)
	if !ok {
		return 0, fmt.Errorf("codec: packet type %T has no mapping for protocol %s in state %s",
			p, e.protocol, e.state)
	}

	body := new(bytes.Buffer)
	if err := WriteVarInt(body, int32(id)); err != nil {
		return 0, err
	}
	ctx := &proto.PacketContext{Direction: e.direction, Protocol: e.protocol, PacketID: id, Packet: p}
	if err := p.Encode(ctx, body); err != nil {
		return 0, fmt.Errorf("codec: encoding packet id %d (%T): %w", id, p, err)
	}
	return e.writeFrame(body.Bytes())
}

// Write frames a pre-encoded payload (packet ID + body) verbatim, used by
// the relay to forward unknown/opaque packets without re-parsing them
// (spec.md §4.5's "pass through already-framed payload" rule).
func (e *Encoder) Write(payload []byte) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.writeFrame(payload)
}

// writeFrame applies the compression envelope (if enabled) and writes the
// length-prefixed frame. Caller must hold e.mu.
func (e *Encoder) writeFrame(body []byte) (int, error) {
	if e.compressionThreshold < 0 {
		if err := WriteVarInt(e.writer, int32(len(body))); err != nil {
			return 0, err
		}
		n, err := e.writer.Write(body)
		return n, err
	}

	framed := new(bytes.Buffer)
	if len(body) < e.compressionThreshold {
		// Below threshold: sent raw with uncompressedSize = 0 (spec.md §4.1).
		if err := WriteVarInt(framed, 0); err != nil {
			return 0, err
		}
		framed.Write(body)
	} else {
		if err := WriteVarInt(framed, int32(len(body))); err != nil {
			return 0, err
		}
		zw, err := zlib.NewWriterLevel(framed, e.compressionLevel)
		if err != nil {
			return 0, err
		}
		if _, err := zw.Write(body); err != nil {
			return 0, err
		}
		if err := zw.Close(); err != nil {
			return 0, err
		}
	}

	if framed.Len() > MaxFrameLength {
		return 0, ErrFrameTooLarge
	}
	if err := WriteVarInt(e.writer, int32(framed.Len())); err != nil {
		return 0, err
	}
	return e.writer.Write(framed.Bytes())
}

// Sync runs flush (typically the underlying bufio.Writer's Flush) while
// holding the encoder lock, so a concurrent WritePacket cannot interleave
// a partially-written frame with the flush (this is the guard the
// teacher's minecraftConn.flush() relies on).
func (e *Encoder) Sync(flush func() error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return flush()
}
