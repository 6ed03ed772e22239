package cipher

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/bassosimone/runtimex"
	"golang.org/x/crypto/chacha20"
	"golang.org/x/crypto/hkdf"
)

// Sealed frame layout.
const (
	// KeySize is the size of the shared key in bytes.
	KeySize = 16

	// SeqSize is the size of the sequence number prefix.
	SeqSize = 4

	// ChecksumSize is the size of the trailing checksum.
	ChecksumSize = 4

	// Overhead is the number of bytes Seal adds to a payload.
	Overhead = SeqSize + ChecksumSize
)

// kdfInfo binds derived material to this cipher.
var kdfInfo = []byte("ptnet frame cipher v1")

// ErrInvalidKey indicates a key string that is not 32 hex digits.
var ErrInvalidKey = errors.New("invalid cipher key")

// Key is the shared 128-bit key.
type Key [KeySize]byte

// KeyFromWords builds a key from four 32-bit words, most significant byte
// first within each word.
func KeyFromWords(words [4]uint32) Key {
	var k Key
	for i, w := range words {
		binary.BigEndian.PutUint32(k[i*4:], w)
	}
	return k
}

// ParseKey parses a key written as 32 hexadecimal digits.
func ParseKey(s string) (Key, error) {
	var k Key
	b, err := hex.DecodeString(s)
	if err != nil {
		return k, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if len(b) != KeySize {
		return k, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidKey, len(b), KeySize)
	}
	copy(k[:], b)
	return k, nil
}

// String returns the key as hex digits.
func (k Key) String() string {
	return hex.EncodeToString(k[:])
}

// State is the keystream position of one direction of one connection.
// It is not safe for concurrent use.
type State struct {
	stream *chacha20.Cipher
}

// New creates a state positioned at the start of the keystream for key.
func New(key Key) *State {
	var material [chacha20.KeySize + chacha20.NonceSize]byte
	kdf := hkdf.New(sha256.New, key[:], nil, kdfInfo)
	runtimex.PanicOnError1(io.ReadFull(kdf, material[:]))
	stream := runtimex.PanicOnError1(chacha20.NewUnauthenticatedCipher(
		material[:chacha20.KeySize], material[chacha20.KeySize:]))
	return &State{stream: stream}
}

// Seal returns a new sealed frame carrying payload with sequence seq.
func (s *State) Seal(seq uint32, payload []byte) []byte {
	out := make([]byte, SeqSize+len(payload)+ChecksumSize)
	binary.BigEndian.PutUint32(out, seq)
	copy(out[SeqSize:], payload)
	sum := crc32.ChecksumIEEE(out[:SeqSize+len(payload)])
	binary.BigEndian.PutUint32(out[SeqSize+len(payload):], sum)
	s.stream.XORKeyStream(out, out)
	return out
}

// Open decrypts frame in place and returns the payload sub-slice. It
// reports false when the frame is too short, carries a sequence number
// other than seq, or fails the checksum. After a failure the contents of
// frame are undefined and the state must not be used again.
func (s *State) Open(seq uint32, frame []byte) ([]byte, bool) {
	if len(frame) < Overhead {
		return nil, false
	}
	s.stream.XORKeyStream(frame, frame)

	if binary.BigEndian.Uint32(frame) != seq {
		return nil, false
	}
	body := len(frame) - ChecksumSize
	if crc32.ChecksumIEEE(frame[:body]) != binary.BigEndian.Uint32(frame[body:]) {
		return nil, false
	}
	return frame[SeqSize:body], true
}
