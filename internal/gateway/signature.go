package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
)

// SignatureHeaders are checked in order when reading a webhook signature.
var SignatureHeaders = []string{"Chapa-Signature", "X-Chapa-Signature"}

// Sign returns the hex HMAC-SHA256 of body keyed by secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature compares sig against the expected signature in constant time.
func VerifySignature(secret string, body []byte, sig string) bool {
	sig = strings.TrimSpace(strings.ToLower(sig))
	if secret == "" || sig == "" {
		return false
	}
	return hmac.Equal([]byte(Sign(secret, body)), []byte(sig))
}

// SignatureFromHeader returns the first non-empty signature header.
func SignatureFromHeader(h http.Header) string {
	for _, name := range SignatureHeaders {
		if v := h.Get(name); v != "" {
			return v
		}
	}
	return ""
}
