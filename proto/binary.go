package proto

import (
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/receptorhq/receptor-go/status"
)

// Binary media frames carry a fixed application-layer header in front of an
// XOR-masked payload, independently of whatever framing the underlying
// connection applies:
//
//	offset 0      protocol id (0x82)
//	offset 1-2    payload length, big-endian
//	offset 3-9    data-type tag, ASCII upper-case, zero-padded to 7 bytes
//	offset 10-13  mask key, 4 random bytes
//	offset 14+    payload bytes XORed with maskKey[i%4]
const (
	FrameProtocolID = 0x82
	FrameHeaderSize = 14
	MaxFramePayload = 65535

	frameTagSize = 7
)

// EncodeFrame builds a binary frame for the given payload. Tags longer than
// 7 characters are truncated; payloads above MaxFramePayload are rejected.
func EncodeFrame(dataType string, payload []byte) ([]byte, error) {
	if len(payload) > MaxFramePayload {
		return nil, status.Errorf(status.SignalTooLarge,
			"binary payload is %d bytes, limit is %d", len(payload), MaxFramePayload)
	}

	frame := make([]byte, FrameHeaderSize+len(payload))
	frame[0] = FrameProtocolID
	binary.BigEndian.PutUint16(frame[1:3], uint16(len(payload)))

	tag := strings.ToUpper(dataType)
	if len(tag) > frameTagSize {
		tag = tag[:frameTagSize]
	}
	copy(frame[3:3+frameTagSize], tag)

	// The mask obscures media bytes from naive inspection only; it carries
	// no cryptographic weight.
	binary.BigEndian.PutUint32(frame[10:14], rand.Uint32())

	for i, b := range payload {
		frame[FrameHeaderSize+i] = b ^ frame[10+i%4]
	}
	return frame, nil
}

// DecodeFrame reverses EncodeFrame using the embedded mask key. XOR is its
// own inverse, so masking twice with the same key recovers the original
// bytes.
func DecodeFrame(frame []byte) (dataType string, payload []byte, err error) {
	if len(frame) < FrameHeaderSize {
		return "", nil, status.Errorf(status.InvalidParameter,
			"binary frame is %d bytes, header needs %d", len(frame), FrameHeaderSize)
	}
	if frame[0] != FrameProtocolID {
		return "", nil, status.Errorf(status.InvalidParameter,
			"unexpected protocol id %#x", frame[0])
	}

	length := int(binary.BigEndian.Uint16(frame[1:3]))
	if len(frame) != FrameHeaderSize+length {
		return "", nil, status.New(status.InvalidParameter,
			fmt.Sprintf("frame length %d does not match declared payload length %d",
				len(frame), length))
	}

	dataType = strings.TrimRight(string(frame[3:3+frameTagSize]), "\x00")
	payload = make([]byte, length)
	for i := range payload {
		payload[i] = frame[FrameHeaderSize+i] ^ frame[10+i%4]
	}
	return dataType, payload, nil
}
