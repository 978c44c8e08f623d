package gateway

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
)

// CanonicalWebhookPayload extracts {event, data, timestamp} from a raw webhook
// body and re-encodes it with object keys sorted at every level. Numbers are
// kept exactly as they were sent.
func CanonicalWebhookPayload(raw []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var body map[string]any
	if err := dec.Decode(&body); err != nil {
		return nil, err
	}
	if body == nil {
		return nil, errors.New("webhook body is not an object")
	}
	canonical := map[string]any{
		"event":     body["event"],
		"data":      body["data"],
		"timestamp": body["timestamp"],
	}
	// encoding/json sorts map keys, which is what makes the output canonical.
	return json.Marshal(canonical)
}

// Sign returns the hex HMAC-SHA256 of payload keyed by secret.
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify compares checksum with Sign(secret, payload) in constant time.
func Verify(secret string, payload []byte, checksum string) bool {
	want, err := hex.DecodeString(Sign(secret, payload))
	if err != nil {
		return false
	}
	got, err := hex.DecodeString(checksum)
	if err != nil {
		return false
	}
	return hmac.Equal(want, got)
}
