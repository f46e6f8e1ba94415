// Package blob frames encoded catalog documents for storage: the document is
// snappy-compressed and guarded by a murmur3 checksum of the uncompressed bytes.
package blob

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/golang/snappy"
	"github.com/spaolacci/murmur3"
)

var (
	// ErrChecksumMismatch is returned when a decoded document does not match its checksum
	ErrChecksumMismatch = errors.New("blob checksum mismatch")

	// ErrMalformed is returned when a packed blob cannot be parsed
	ErrMalformed = errors.New("malformed blob")
)

// magic prefixes every packed blob; the trailing byte is the framing version
var magic = []byte{'M', 'F', 'C', 'B', 1}

// Encode compresses doc and returns the payload together with the checksum of doc
func Encode(doc []byte) ([]byte, uint64) {
	return snappy.Encode(nil, doc), Checksum(doc)
}

// Decode decompresses payload and verifies it against checksum
func Decode(payload []byte, checksum uint64) ([]byte, error) {
	doc, err := snappy.Decode(nil, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress blob: %v: %w", err, ErrMalformed)
	}
	if got := Checksum(doc); got != checksum {
		return nil, fmt.Errorf("%w: stored %016x, computed %016x", ErrChecksumMismatch, checksum, got)
	}
	return doc, nil
}

// Checksum returns the murmur3 64-bit hash of doc
func Checksum(doc []byte) uint64 {
	return murmur3.Sum64(doc)
}

// Pack builds a self-contained blob for stores that keep a single value per key.
// Layout: magic | checksum (8 bytes, big endian) | revision length (uvarint) | revision | payload
func Pack(revision string, doc []byte) []byte {
	payload, checksum := Encode(doc)

	var buf bytes.Buffer
	buf.Grow(len(magic) + 8 + binary.MaxVarintLen64 + len(revision) + len(payload))
	buf.Write(magic)

	var word [8]byte
	binary.BigEndian.PutUint64(word[:], checksum)
	buf.Write(word[:])

	var length [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(length[:], uint64(len(revision)))
	buf.Write(length[:n])
	buf.WriteString(revision)
	buf.Write(payload)

	return buf.Bytes()
}

// Unpack parses a blob built by Pack and returns its revision and verified document
func Unpack(data []byte) (string, []byte, error) {
	if len(data) < len(magic)+8 || !bytes.Equal(data[:len(magic)], magic) {
		return "", nil, fmt.Errorf("missing header: %w", ErrMalformed)
	}
	rest := data[len(magic):]

	checksum := binary.BigEndian.Uint64(rest[:8])
	rest = rest[8:]

	revLen, n := binary.Uvarint(rest)
	if n <= 0 || uint64(len(rest)-n) < revLen {
		return "", nil, fmt.Errorf("bad revision length: %w", ErrMalformed)
	}
	rest = rest[n:]
	revision := string(rest[:revLen])

	doc, err := Decode(rest[revLen:], checksum)
	if err != nil {
		return "", nil, err
	}
	return revision, doc, nil
}
