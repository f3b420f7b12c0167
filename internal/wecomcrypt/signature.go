// Package wecomcrypt implements the WeCom callback signature scheme and
// the AES-256-CBC challenge cipher used during URL verification.
//
// Both follow the wire conventions of the WeCom server API exactly,
// including the parts that diverge from general best practice; changing
// them breaks the handshake with the platform.
package wecomcrypt

import (
	"crypto/sha1"
	"crypto/subtle"
	"encoding/hex"
	"sort"
	"strings"
)

// VerifySignature checks a callback signature against the shared token.
//
// The platform computes msg_signature as the lowercase hex SHA-1 of the
// token, timestamp, nonce and payload sorted lexicographically and
// concatenated without a separator. Sorting makes the result invariant
// to argument order. The caller must reject requests with missing
// parameters before calling this.
func VerifySignature(token, timestamp, nonce, signature, payload string) bool {
	parts := []string{token, timestamp, nonce, payload}
	sort.Strings(parts)
	sum := sha1.Sum([]byte(strings.Join(parts, "")))
	expected := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}

// Signature computes the msg_signature the platform would attach to the
// given parameters. This is the platform side of the scheme, for
// callers constructing signed requests; handlers only need
// VerifySignature.
func Signature(token, timestamp, nonce, payload string) string {
	parts := []string{token, timestamp, nonce, payload}
	sort.Strings(parts)
	sum := sha1.Sum([]byte(strings.Join(parts, "")))
	return hex.EncodeToString(sum[:])
}
