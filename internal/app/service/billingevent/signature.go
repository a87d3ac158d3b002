package billingevent

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/lojinha-pet/billing/pkg/types"
)

// SignatureHeader carries the hex-encoded HMAC-SHA256 of the raw request
// body, computed by the processor with the shared webhook secret.
const SignatureHeader = "X-Processor-Signature"

// VerifySignature checks the signature header against the raw payload.
// Failure means the delivery is rejected and the processor retries with
// backoff.
func VerifySignature(secret string, payload []byte, signature string) error {
	signature = strings.TrimSpace(signature)
	if secret == "" || signature == "" {
		return types.ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(strings.ToLower(signature)), []byte(expected)) {
		return types.ErrInvalidSignature
	}
	return nil
}

// Sign computes the signature the processor would send for payload. Used by
// tests and local tooling.
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
