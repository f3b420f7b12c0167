package wecomcrypt

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// Sentinel error categories. Callers match with errors.Is and map them
// to responses; the individual causes behind ErrDecrypt are deliberately
// not distinguishable from the outside.
var (
	// ErrConfig indicates malformed key material. Not retryable; the
	// EncodingAESKey in the configuration does not match the platform's.
	ErrConfig = errors.New("key material malformed")
	// ErrDecrypt covers every decryption failure mode: bad base64,
	// block misalignment, padding errors, a length field that overruns
	// the buffer, and receiver-id mismatch. They are collapsed into one
	// category so responses cannot act as a padding oracle.
	ErrDecrypt = errors.New("decryption failed")
)

// encodingAESKeyLen is the fixed length of the EncodingAESKey as issued
// by the platform: a 32-byte key base64-encoded with the trailing "="
// stripped.
const encodingAESKeyLen = 43

// challenge plaintext layout: 16 random bytes, a 4-byte big-endian
// message length, the message, then the receiver (corp) id.
const (
	randPrefixLen  = 16
	lengthFieldEnd = randPrefixLen + 4
)

// DecodeAESKey expands the 43-character EncodingAESKey into the 32-byte
// AES key it encodes. Any other shape is a configuration error.
func DecodeAESKey(encodingAESKey string) ([]byte, error) {
	trimmed := strings.TrimSpace(encodingAESKey)
	if len(trimmed) != encodingAESKeyLen {
		return nil, fmt.Errorf("%w: want %d characters, got %d", ErrConfig, encodingAESKeyLen, len(trimmed))
	}
	key, err := base64.StdEncoding.DecodeString(trimmed + "=")
	if err != nil {
		return nil, fmt.Errorf("%w: not valid base64: %w", ErrConfig, err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("%w: decodes to %d bytes, want 32", ErrConfig, len(key))
	}
	return key, nil
}

// DecryptChallenge recovers the plaintext challenge from a base64
// echostr. corpID, when non-empty, is checked against the receiver id
// embedded in the plaintext; an empty embedded id is accepted, matching
// the platform's observed behavior.
//
// Callers must have verified the accompanying msg_signature first; this
// function assumes the ciphertext has already been authenticated.
func DecryptChallenge(encodingAESKey, corpID, echostr string) (string, error) {
	key, err := DecodeAESKey(encodingAESKey)
	if err != nil {
		return "", err
	}

	ciphertext, err := base64.StdEncoding.DecodeString(echostr)
	if err != nil {
		return "", fmt.Errorf("%w: ciphertext is not valid base64", ErrDecrypt)
	}
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return "", fmt.Errorf("%w: ciphertext not block aligned", ErrDecrypt)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrConfig, err)
	}
	// The platform reuses the first 16 key bytes as the IV instead of
	// transmitting one. This is an external protocol constraint, not a
	// convention to copy elsewhere.
	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, key[:aes.BlockSize]).CryptBlocks(plaintext, ciphertext)

	plaintext, err = pkcs7Unpad(plaintext)
	if err != nil {
		return "", err
	}
	if len(plaintext) < lengthFieldEnd {
		return "", fmt.Errorf("%w: plaintext shorter than header", ErrDecrypt)
	}

	msgLen := binary.BigEndian.Uint32(plaintext[randPrefixLen:lengthFieldEnd])
	if uint64(msgLen) > uint64(len(plaintext)-lengthFieldEnd) {
		return "", fmt.Errorf("%w: length field exceeds buffer", ErrDecrypt)
	}
	msg := plaintext[lengthFieldEnd : lengthFieldEnd+int(msgLen)]
	receiverID := string(plaintext[lengthFieldEnd+int(msgLen):])

	if corpID != "" && receiverID != "" && receiverID != corpID {
		return "", fmt.Errorf("%w: tenant mismatch", ErrDecrypt)
	}
	return string(msg), nil
}

// EncryptMessage is the platform-side inverse of DecryptChallenge. It
// assembles the documented plaintext layout around msg, pads and
// encrypts it, and returns the base64 ciphertext. Used for encrypted
// passive replies.
func EncryptMessage(encodingAESKey, corpID, msg string) (string, error) {
	key, err := DecodeAESKey(encodingAESKey)
	if err != nil {
		return "", err
	}

	prefix := make([]byte, randPrefixLen)
	if _, err := rand.Read(prefix); err != nil {
		return "", fmt.Errorf("failed to read random prefix: %w", err)
	}

	var buf bytes.Buffer
	buf.Write(prefix)
	var lengthField [4]byte
	binary.BigEndian.PutUint32(lengthField[:], uint32(len(msg)))
	buf.Write(lengthField[:])
	buf.WriteString(msg)
	buf.WriteString(corpID)

	plaintext := pkcs7Pad(buf.Bytes(), aes.BlockSize)
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrConfig, err)
	}
	ciphertext := make([]byte, len(plaintext))
	cipher.NewCBCEncrypter(block, key[:aes.BlockSize]).CryptBlocks(ciphertext, plaintext)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(padLen)}, padLen)...)
}

func pkcs7Unpad(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty plaintext", ErrDecrypt)
	}
	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > aes.BlockSize || padLen > len(data) {
		return nil, fmt.Errorf("%w: bad padding", ErrDecrypt)
	}
	for _, b := range data[len(data)-padLen:] {
		if int(b) != padLen {
			return nil, fmt.Errorf("%w: bad padding", ErrDecrypt)
		}
	}
	return data[:len(data)-padLen], nil
}
