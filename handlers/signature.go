package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// ValidSignature verifies the webhook signature header: base64 of the
// HMAC-SHA256 digest of the raw request body keyed with the channel
// secret. Comparison is constant-time.
func ValidSignature(channelSecret string, body []byte, signature string) bool {
	if signature == "" {
		return false
	}

	expected, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(channelSecret))
	mac.Write(body)
	return hmac.Equal(expected, mac.Sum(nil))
}

// Sign computes the signature header value for a body, used by tests.
func Sign(channelSecret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(channelSecret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
