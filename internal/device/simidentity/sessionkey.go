package simidentity

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"fmt"
)

// Session-key and frame-encoding constants.
const (
	sessionKeySize   = 16                                   // AES-128
	frameCounterSize = 4                                    // truncated nonce (counter)
	macTagSize       = 4                                    // truncated auth tag
	frameOverhead    = frameCounterSize + macTagSize         // 8 bytes
	devEUISize       = 8
)

// sessionKeySalt is the value mixed into every derived session key. It has
// no security purpose in a simulation where no real network server ever
// decodes these bytes.
var sessionKeySalt = []byte{
	0x6c, 0x6f, 0x72, 0x61, 0x73, 0x69, 0x6d, 0x2d,
	0x73, 0x61, 0x6c, 0x74, 0x2d, 0x76, 0x31, 0x00,
} // "lorasim-salt-v1\x00"

// deriveSessionKey derives an AES-128 session key for a device.
// key = SHA-256(sessionKeySalt || devEUI)[0:16]
func deriveSessionKey(devEUI [devEUISize]byte) []byte {
	hashInput := make([]byte, len(sessionKeySalt)+devEUISize)
	copy(hashInput[:len(sessionKeySalt)], sessionKeySalt)
	copy(hashInput[len(sessionKeySalt):], devEUI[:])

	hash := sha256.Sum256(hashInput)
	key := make([]byte, sessionKeySize)
	copy(key, hash[:sessionKeySize])
	return key
}

// encryptFrame frames plaintext under key at the given frame counter using
// AES-128-GCM, truncated to a 4-byte nonce and a 4-byte tag.
// Wire format: [counter:4][ciphertext:N][tag:4]
func encryptFrame(key []byte, fcnt uint32, plaintext []byte) ([]byte, error) {
	if len(key) != sessionKeySize {
		return nil, fmt.Errorf("simidentity: invalid session key size: %d", len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("simidentity: new cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("simidentity: new gcm: %w", err)
	}

	// Full 12-byte GCM nonce: 8 bytes of padding, 4 bytes of frame counter.
	fullNonce := make([]byte, 12)
	fullNonce[8] = byte(fcnt >> 24)
	fullNonce[9] = byte(fcnt >> 16)
	fullNonce[10] = byte(fcnt >> 8)
	fullNonce[11] = byte(fcnt)

	sealed := gcm.Seal(nil, fullNonce, plaintext, nil)
	if len(sealed) < 16 {
		return nil, fmt.Errorf("simidentity: sealed frame too short")
	}
	ciphertext := sealed[:len(sealed)-16]
	tag := sealed[len(sealed)-16:]

	out := make([]byte, frameCounterSize+len(ciphertext)+macTagSize)
	copy(out[:frameCounterSize], fullNonce[8:12])
	copy(out[frameCounterSize:], ciphertext)
	copy(out[frameCounterSize+len(ciphertext):], tag[:macTagSize])
	return out, nil
}

// decryptFrame reverses encryptFrame, verifying the truncated tag in
// constant time.
func decryptFrame(key []byte, frame []byte) ([]byte, error) {
	if len(key) != sessionKeySize {
		return nil, fmt.Errorf("simidentity: invalid session key size: %d", len(key))
	}
	if len(frame) < frameOverhead {
		return nil, fmt.Errorf("simidentity: frame too short: %d", len(frame))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("simidentity: new cipher: %w", err)
	}

	fullNonce := make([]byte, 12)
	copy(fullNonce[8:12], frame[:frameCounterSize])

	ciphertextLen := len(frame) - frameOverhead
	ciphertext := frame[frameCounterSize : frameCounterSize+ciphertextLen]
	truncatedTag := frame[frameCounterSize+ciphertextLen:]

	counter := make([]byte, 16)
	copy(counter, fullNonce)
	counter[15] = 2 // GCM's CTR keystream starts at counter value 2
	ctr := cipher.NewCTR(block, counter)
	plaintext := make([]byte, len(ciphertext))
	ctr.XORKeyStream(plaintext, ciphertext)

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("simidentity: new gcm: %w", err)
	}
	resealed := gcm.Seal(nil, fullNonce, plaintext, nil)
	if len(resealed) < 16 {
		return nil, fmt.Errorf("simidentity: resealed frame too short")
	}
	computedTag := resealed[len(resealed)-16:]

	diff := byte(0)
	for i := 0; i < macTagSize; i++ {
		diff |= computedTag[i] ^ truncatedTag[i]
	}
	if diff != 0 {
		return nil, fmt.Errorf("simidentity: authentication failed")
	}
	return plaintext, nil
}
