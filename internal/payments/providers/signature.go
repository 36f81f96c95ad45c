package providers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// SignPayload computes the hex HMAC-SHA256 of the canonical JSON encoding of
// the payload's signed fields. Map marshalling sorts keys, which gives every
// party the same byte sequence to sign.
func SignPayload(secret string, payload WebhookPayload) string {
	canonical, _ := json.Marshal(map[string]string{
		"transaction_id": payload.TransactionID,
		"status":         payload.Status,
		"provider":       payload.Provider,
	})
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(canonical)
	return hex.EncodeToString(mac.Sum(nil))
}

// verifyPayload checks the payload signature against the shared secret in
// constant time.
func verifyPayload(secret string, payload WebhookPayload) bool {
	if payload.Signature == "" {
		return false
	}
	expected := SignPayload(secret, payload)
	return hmac.Equal([]byte(expected), []byte(payload.Signature))
}
