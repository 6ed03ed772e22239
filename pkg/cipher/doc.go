// Package cipher implements the per-connection frame cipher.
//
// Both ends derive the same keystream from a shared 128-bit key: HKDF-SHA256
// expands the key into a ChaCha20 key and nonce, and the stream runs
// continuously across frames for the life of the connection. A sealed
// frame is
//
//	seq (4, BE) || payload || crc32-IEEE(seq || payload) (4, BE)
//
// XORed with the next len(frame) keystream bytes. The receiver decrypts,
// then checks the length, the expected sequence number and the checksum.
//
// The checksum detects corruption and desynchronization. It does not
// authenticate the peer.
package cipher
