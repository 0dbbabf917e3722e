// Package server implements the binary wire codec for world snapshots and
// inbound position updates.
package server

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

const (
	// positionUpdateSize is the exact length of an inbound position frame:
	// three little-endian IEEE-754 float32 values in x, y, z order.
	positionUpdateSize = 12

	// maxNameLength caps decoded player names so a corrupt length prefix
	// cannot trigger an oversized allocation.
	maxNameLength = 1 << 16
)

// ErrInvalidLength is returned by DecodePositionUpdate when the payload is
// not exactly 12 bytes.
var ErrInvalidLength = errors.New("position update must be exactly 12 bytes")

// ErrCorruptPayload is returned by DecodeWorldState when the byte layout
// does not match the snapshot schema.
var ErrCorruptPayload = errors.New("corrupt world state payload")

// EncodeWorldState serializes a snapshot into the length-prefixed
// little-endian layout shared with clients. Encoding appends into a fresh
// buffer and cannot fail for well-formed in-memory state.
func EncodeWorldState(state WorldState) []byte {
	buf := make([]byte, 0, encodedSize(state))

	buf = appendUint32(buf, uint32(len(state.Planets)))
	for _, planet := range state.Planets {
		buf = appendFloat32(buf, planet.Size)
		for _, color := range planet.Colors {
			buf = append(buf, color.R, color.G, color.B)
		}
		buf = append(buf, planet.ModuleType)
		buf = appendVector3(buf, planet.Position)
	}

	buf = appendUint32(buf, uint32(len(state.Players)))
	for _, player := range state.Players {
		buf = appendUint32(buf, player.ID)
		buf = appendUint32(buf, uint32(len(player.Name)))
		buf = append(buf, player.Name...)
		buf = appendUint32(buf, player.Level)
		buf = appendVector3(buf, player.Position)
	}

	buf = appendVector3(buf, state.SpawnPoint)
	return buf
}

// DecodeWorldState is the inverse of EncodeWorldState. It fails with an
// error wrapping ErrCorruptPayload when the payload is truncated, carries
// trailing bytes, or declares an implausible name length.
func DecodeWorldState(data []byte) (WorldState, error) {
	r := &byteReader{data: data}
	var state WorldState

	planetCount := r.readUint32()
	for i := uint32(0); i < planetCount && r.err == nil; i++ {
		var planet Planet
		planet.Size = r.readFloat32()
		for c := range planet.Colors {
			planet.Colors[c] = Color{R: r.readByte(), G: r.readByte(), B: r.readByte()}
		}
		planet.ModuleType = r.readByte()
		planet.Position = r.readVector3()
		if r.err == nil {
			state.Planets = append(state.Planets, planet)
		}
	}

	playerCount := r.readUint32()
	for i := uint32(0); i < playerCount && r.err == nil; i++ {
		var player Player
		player.ID = r.readUint32()
		player.Name = r.readString()
		player.Level = r.readUint32()
		player.Position = r.readVector3()
		if r.err == nil {
			state.Players = append(state.Players, player)
		}
	}

	state.SpawnPoint = r.readVector3()

	if r.err != nil {
		return WorldState{}, fmt.Errorf("%w: %v", ErrCorruptPayload, r.err)
	}
	if r.pos != len(r.data) {
		return WorldState{}, fmt.Errorf("%w: %d trailing bytes", ErrCorruptPayload, len(r.data)-r.pos)
	}
	return state, nil
}

// DecodePositionUpdate decodes the fixed 12-byte inbound position frame.
// Any other length fails with ErrInvalidLength; the caller decides whether
// to ignore the frame or drop it.
func DecodePositionUpdate(data []byte) (Vector3, error) {
	if len(data) != positionUpdateSize {
		return Vector3{}, fmt.Errorf("%w: got %d", ErrInvalidLength, len(data))
	}
	return Vector3{
		X: math.Float32frombits(binary.LittleEndian.Uint32(data[0:4])),
		Y: math.Float32frombits(binary.LittleEndian.Uint32(data[4:8])),
		Z: math.Float32frombits(binary.LittleEndian.Uint32(data[8:12])),
	}, nil
}

// EncodePositionUpdate produces the 12-byte frame clients send for
// position changes. The server only decodes this format; encoding lives
// here so the diagnostic client and tests share one definition.
func EncodePositionUpdate(pos Vector3) []byte {
	buf := make([]byte, 0, positionUpdateSize)
	return appendVector3(buf, pos)
}

func encodedSize(state WorldState) int {
	// planet: size(4) + colors(9) + module(1) + position(12)
	size := 4 + len(state.Planets)*26
	size += 4
	for _, player := range state.Players {
		// id(4) + name prefix(4) + level(4) + position(12)
		size += 24 + len(player.Name)
	}
	return size + positionUpdateSize
}

func appendUint32(buf []byte, v uint32) []byte {
	return binary.LittleEndian.AppendUint32(buf, v)
}

func appendFloat32(buf []byte, v float32) []byte {
	return binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
}

func appendVector3(buf []byte, v Vector3) []byte {
	buf = appendFloat32(buf, v.X)
	buf = appendFloat32(buf, v.Y)
	return appendFloat32(buf, v.Z)
}

// byteReader walks the payload sequentially and latches the first error so
// decode loops stay flat.
type byteReader struct {
	data []byte
	pos  int
	err  error
}

func (r *byteReader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if r.pos+n > len(r.data) {
		r.err = fmt.Errorf("need %d bytes at offset %d, have %d", n, r.pos, len(r.data)-r.pos)
		return nil
	}
	chunk := r.data[r.pos : r.pos+n]
	r.pos += n
	return chunk
}

func (r *byteReader) readByte() uint8 {
	chunk := r.take(1)
	if chunk == nil {
		return 0
	}
	return chunk[0]
}

func (r *byteReader) readUint32() uint32 {
	chunk := r.take(4)
	if chunk == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(chunk)
}

func (r *byteReader) readFloat32() float32 {
	return math.Float32frombits(r.readUint32())
}

func (r *byteReader) readVector3() Vector3 {
	return Vector3{X: r.readFloat32(), Y: r.readFloat32(), Z: r.readFloat32()}
}

func (r *byteReader) readString() string {
	length := r.readUint32()
	if r.err == nil && length > maxNameLength {
		r.err = fmt.Errorf("name length %d exceeds limit", length)
	}
	chunk := r.take(int(length))
	if chunk == nil {
		return ""
	}
	return string(chunk)
}
