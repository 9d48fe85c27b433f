// Package util holds the primitive wire readers/writers packet.(Encode|Decode)
// implementations are built from: strings, varint-prefixed byte arrays,
// UUIDs, and the handful of fixed-size numeric types the protocol uses.
package util

import (
	"encoding/binary"
	"errors"
	"io"

	"go.minekube.com/gate/pkg/proto/codec"
	"go.minekube.com/gate/pkg/util/uuid"
)

// MaxStringLength guards against a hostile length prefix causing an
// unbounded allocation (the 1.21 client's own limit is 32767 UTF-16 code
// units; we allow a little headroom for UTF-8 expansion).
const MaxStringLength = 32767 * 4

var ErrStringTooLong = errors.New("proto: string exceeds maximum length")

// WriteVarInt writes a protocol varint.
func WriteVarInt(w io.Writer, v int32) error { return codec.WriteVarInt(w, v) }

// ReadVarInt reads a protocol varint. r must implement io.ByteReader;
// callers pass a *bytes.Reader or *bufio.Reader, as every Decode receives.
func ReadVarInt(r byteReader) (int32, error) { return codec.ReadVarInt(r) }

type byteReader interface {
	io.ByteReader
}

// WriteString writes a VarInt-length-prefixed UTF-8 string.
func WriteString(w io.Writer, s string) error {
	if err := WriteVarInt(w, int32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

// ReadString reads a VarInt-length-prefixed UTF-8 string.
func ReadString(r interface {
	io.Reader
	io.ByteReader
}) (string, error) {
	n, err := ReadVarInt(r)
	if err != nil {
		return "", err
	}
	if n < 0 || int(n) > MaxStringLength {
		return "", ErrStringTooLong
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// WriteBytes writes a VarInt-length-prefixed byte array.
func WriteBytes(w io.Writer, b []byte) error {
	if err := WriteVarInt(w, int32(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

// ReadBytes reads a VarInt-length-prefixed byte array.
func ReadBytes(r interface {
	io.Reader
	io.ByteReader
}) ([]byte, error) {
	n, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if n < 0 || int(n) > codec.MaxFrameLength {
		return nil, codec.ErrFrameTooLarge
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// WriteBool writes a single-byte boolean.
func WriteBool(w io.Writer, b bool) error {
	v := byte(0)
	if b {
		v = 1
	}
	_, err := w.Write([]byte{v})
	return err
}

// ReadBool reads a single-byte boolean.
func ReadBool(r io.ByteReader) (bool, error) {
	b, err := r.ReadByte()
	return b != 0, err
}

// WriteUUID writes a UUID as its 16 raw bytes (the "binary" form used in
// all modern packets; the legacy undashed-hex string form used by some
// pre-1.16 packets is handled at the call site with WriteString).
func WriteUUID(w io.Writer, u uuid.UUID) error {
	_, err := w.Write(u[:])
	return err
}

// ReadUUID reads a 16-byte binary UUID.
func ReadUUID(r io.Reader) (uuid.UUID, error) {
	var buf [16]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return uuid.Nil, err
	}
	return uuid.UUID(buf), nil
}

// WriteInt64/ReadInt64 are big-endian fixed width, as Minecraft's
// non-varint numeric fields always are.
func WriteInt64(w io.Writer, v int64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(v))
	_, err := w.Write(buf[:])
	return err
}

func ReadInt64(r io.Reader) (int64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(buf[:])), nil
}

func WriteInt32(w io.Writer, v int32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(v))
	_, err := w.Write(buf[:])
	return err
}

func ReadInt32(r io.Reader) (int32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(buf[:])), nil
}

func WriteByte(w io.Writer, v byte) error {
	_, err := w.Write([]byte{v})
	return err
}

func ReadByte(r io.ByteReader) (byte, error) {
	return r.ReadByte()
}
