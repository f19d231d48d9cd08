// Package archive implements the versioned binary container that snapshots
// are persisted in.
//
// On-disk layout, big-endian, in order:
//
//	magic "BKAR" | formatVersion u32 | createdAt i64 (unix seconds) |
//	appVersionLen u16 | appVersion | encrypted u8 |
//	saltLen u16 | salt | nonceLen u16 | nonce |
//	checksumLen u16 | checksum | payloadLen u64 | payload
//
// The payload is the zstd-compressed JSON encoding of a snapshot (ciphertext
// of the same when the archive is encrypted). The checksum is sha256 over
// the plaintext payload, computed before encryption and re-verified after
// decryption, so corruption is detectable whether or not encryption is on.
package archive

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"billkeeper/internal/backup/snapshot"
	"github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"
)

// FormatVersion is the current container layout version. Decoders reject
// anything newer rather than guessing at layout.
const FormatVersion uint32 = 1

var magic = [4]byte{'B', 'K', 'A', 'R'}

var (
	// ErrBadMagic means the file does not start with the archive magic.
	ErrBadMagic = errors.New("not a billkeeper archive")

	// ErrUnsupportedVersion means the archive was written by a newer format.
	ErrUnsupportedVersion = errors.New("unsupported archive version")

	// ErrTruncated means the byte stream ended before the declared length.
	ErrTruncated = errors.New("archive truncated")

	// ErrChecksumMismatch means payload integrity verification failed.
	ErrChecksumMismatch = errors.New("archive checksum mismatch")
)

// Header carries the archive metadata readable without a password.
type Header struct {
	FormatVersion uint32
	CreatedAt     time.Time
	AppVersion    string
	Encrypted     bool
	Salt          []byte
	Nonce         []byte
	Checksum      []byte
	PayloadLen    uint64
}

// Archive is a parsed container: header plus payload bytes.
type Archive struct {
	Header
	Payload []byte
}

// New encodes s into a plaintext archive: JSON, zstd-compressed, with the
// checksum computed over the compressed payload. Encoding is deterministic:
// equal snapshots produce identical bytes for a given createdAt/appVersion.
func New(s *snapshot.Snapshot, createdAt time.Time, appVersion string) (*Archive, error) {
	// Header fields carry 16-bit lengths; an oversized appVersion would
	// otherwise truncate silently in Marshal.
	if len(appVersion) > math.MaxUint16 {
		return nil, fmt.Errorf("app version too long: %d bytes", len(appVersion))
	}

	payload, err := encodePayload(s)
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256(payload)
	return &Archive{
		Header: Header{
			FormatVersion: FormatVersion,
			CreatedAt:     createdAt.UTC().Truncate(time.Second),
			AppVersion:    appVersion,
			Checksum:      sum[:],
			PayloadLen:    uint64(len(payload)),
		},
		Payload: payload,
	}, nil
}

// Seal replaces the plaintext payload with ciphertext and records the salt
// and nonce needed to reverse it. The checksum is left untouched: it covers
// the plaintext and is re-verified after decryption.
func (a *Archive) Seal(salt, nonce, ciphertext []byte) {
	a.Encrypted = true
	a.Salt = salt
	a.Nonce = nonce
	a.Payload = ciphertext
	a.PayloadLen = uint64(len(ciphertext))
}

// Marshal renders the archive to its on-disk byte form.
func (a *Archive) Marshal() []byte {
	var buf bytes.Buffer
	buf.Write(magic[:])
	writeU32(&buf, a.FormatVersion)
	writeI64(&buf, a.CreatedAt.Unix())
	writeBytes16(&buf, []byte(a.AppVersion))
	if a.Encrypted {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
	writeBytes16(&buf, a.Salt)
	writeBytes16(&buf, a.Nonce)
	writeBytes16(&buf, a.Checksum)
	writeU64(&buf, uint64(len(a.Payload)))
	buf.Write(a.Payload)
	return buf.Bytes()
}

// Unmarshal parses an archive from data, verifying magic, version, and all
// declared lengths. It does not verify the checksum; that happens in
// DecodeSnapshot once the plaintext payload is available.
func Unmarshal(data []byte) (*Archive, error) {
	h, off, err := parseHeader(data)
	if err != nil {
		return nil, err
	}
	if uint64(len(data)-off) < h.PayloadLen {
		return nil, fmt.Errorf("%w: payload is %d bytes, header declares %d",
			ErrTruncated, len(data)-off, h.PayloadLen)
	}
	payload := make([]byte, h.PayloadLen)
	copy(payload, data[off:off+int(h.PayloadLen)])
	return &Archive{Header: *h, Payload: payload}, nil
}

// ReadHeader parses only the header, so callers can inspect metadata (most
// importantly the encrypted flag) without a password and without touching
// the payload.
func ReadHeader(data []byte) (*Header, error) {
	h, _, err := parseHeader(data)
	return h, err
}

// DecodeSnapshot verifies checksum over the plaintext payload, then
// decompresses and unmarshals it into a snapshot.
func DecodeSnapshot(payload, checksum []byte) (*snapshot.Snapshot, error) {
	sum := sha256.Sum256(payload)
	if !bytes.Equal(sum[:], checksum) {
		return nil, ErrChecksumMismatch
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader: %w", err)
	}
	defer dec.Close()

	raw, err := dec.DecodeAll(payload, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress payload: %w", err)
	}

	var s snapshot.Snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &s, nil
}

func encodePayload(s *snapshot.Snapshot) ([]byte, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	// Single-threaded with a fixed level keeps output deterministic, which
	// the reproducible-checksum guarantee depends on.
	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd writer: %w", err)
	}
	payload := enc.EncodeAll(raw, nil)
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to close zstd writer: %w", err)
	}
	return payload, nil
}

func parseHeader(data []byte) (*Header, int, error) {
	p := &parser{data: data}

	m := p.bytes(4)
	if p.err != nil {
		return nil, 0, fmt.Errorf("%w: missing magic", ErrTruncated)
	}
	if !bytes.Equal(m, magic[:]) {
		return nil, 0, ErrBadMagic
	}

	h := &Header{}
	h.FormatVersion = p.u32()
	if p.err == nil && h.FormatVersion > FormatVersion {
		return nil, 0, fmt.Errorf("%w: archive version %d, supported up to %d",
			ErrUnsupportedVersion, h.FormatVersion, FormatVersion)
	}
	h.CreatedAt = time.Unix(p.i64(), 0).UTC()
	h.AppVersion = string(p.bytes16())
	h.Encrypted = p.u8() == 1
	h.Salt = p.bytes16()
	h.Nonce = p.bytes16()
	h.Checksum = p.bytes16()
	h.PayloadLen = p.u64()

	if p.err != nil {
		return nil, 0, fmt.Errorf("%w: incomplete header", ErrTruncated)
	}
	return h, p.off, nil
}

type parser struct {
	data []byte
	off  int
	err  error
}

func (p *parser) bytes(n int) []byte {
	if p.err != nil {
		return nil
	}
	if p.off+n > len(p.data) {
		p.err = ErrTruncated
		return nil
	}
	b := p.data[p.off : p.off+n]
	p.off += n
	return b
}

func (p *parser) u8() byte {
	b := p.bytes(1)
	if p.err != nil {
		return 0
	}
	return b[0]
}

func (p *parser) u32() uint32 {
	b := p.bytes(4)
	if p.err != nil {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

func (p *parser) u64() uint64 {
	b := p.bytes(8)
	if p.err != nil {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}

func (p *parser) i64() int64 {
	return int64(p.u64())
}

func (p *parser) bytes16() []byte {
	n := p.bytes(2)
	if p.err != nil {
		return nil
	}
	size := int(binary.BigEndian.Uint16(n))
	if size == 0 {
		return nil
	}
	b := p.bytes(size)
	if p.err != nil {
		return nil
	}
	out := make([]byte, size)
	copy(out, b)
	return out
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeU64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

func writeI64(buf *bytes.Buffer, v int64) {
	writeU64(buf, uint64(v))
}

func writeBytes16(buf *bytes.Buffer, b []byte) {
	var n [2]byte
	binary.BigEndian.PutUint16(n[:], uint16(len(b)))
	buf.Write(n[:])
	buf.Write(b)
}
