package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// ErrBadSignature is returned when the delivery's signature header is
// missing or does not match the HMAC of the raw body.
var ErrBadSignature = errors.New("invalid webhook signature")

// VerifySignature checks an X-Hub-Signature-256 header against the raw
// request body. The body must be the exact bytes received on the wire:
// hashing a re-serialized payload would not reproduce GitHub's digest.
// An empty secret skips verification entirely.
func VerifySignature(secret []byte, body []byte, header string) error {
	if len(secret) == 0 {
		return nil
	}
	if header == "" {
		return ErrBadSignature
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	expected := "sha256=" + hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(header)) {
		return ErrBadSignature
	}

	return nil
}
