// Package signature authenticates inbound chat-platform webhook requests.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// HeaderName carries the base64 HMAC-SHA256 of the raw request body.
const HeaderName = "x-line-signature"

// Sign returns the base64-encoded HMAC-SHA256 of body keyed with secret.
func Sign(body []byte, secret []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Verify reports whether provided is the signature of rawBody under secret.
// An empty signature or an empty secret never verifies.
func Verify(rawBody []byte, provided string, secret []byte) bool {
	if provided == "" || len(secret) == 0 {
		return false
	}
	expected := Sign(rawBody, secret)
	return hmac.Equal([]byte(expected), []byte(provided))
}
