package webhooks

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// verifyStripeSignature checks a Stripe-Signature header value. Stripe signs
// "<timestamp>.<payload>" with HMAC-SHA256 and sends "t=<ts>,v1=<hex>"; any
// of the v1 entries matching is a pass. A bare hex signature over the payload
// is accepted as a fallback for test fixtures and CLI forwarding setups.
func verifyStripeSignature(payload []byte, signatureHeader, secret string) bool {
	sig := strings.TrimSpace(signatureHeader)
	if sig == "" || strings.TrimSpace(secret) == "" {
		return false
	}

	if !strings.Contains(sig, "t=") {
		return verifyHMACHex(payload, sig, secret)
	}

	var timestamp string
	var candidates []string
	for _, part := range strings.Split(sig, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			timestamp = kv[1]
		case "v1":
			candidates = append(candidates, kv[1])
		}
	}
	if timestamp == "" || len(candidates) == 0 {
		return false
	}

	signed := append([]byte(timestamp+"."), payload...)
	for _, candidate := range candidates {
		if verifyHMACHex(signed, candidate, secret) {
			return true
		}
	}
	return false
}

// verifyHMACHex compares a lowercase hex HMAC-SHA256 signature in constant
// time.
func verifyHMACHex(payload []byte, signature, secret string) bool {
	expected, err := hex.DecodeString(strings.ToLower(strings.TrimSpace(signature)))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hmac.Equal(mac.Sum(nil), expected)
}
