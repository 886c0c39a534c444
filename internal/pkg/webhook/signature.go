package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// DefaultTolerance is the maximum accepted clock skew between the signing
// timestamp a provider put in the header and our wall clock. Outside of it a
// replayed capture is rejected even with a valid signature.
const DefaultTolerance = 5 * time.Minute

// VerifyPaymentSignature checks a payment-provider signature header of the
// form "t=<unix>,v1=<hex hmac>". The signed content is "<t>.<payload>" with
// HMAC-SHA256 over the raw request body.
func VerifyPaymentSignature(payload []byte, signatureHeader, secret string, tolerance time.Duration, now time.Time) bool {
	header := strings.TrimSpace(signatureHeader)
	if header == "" || strings.TrimSpace(secret) == "" {
		return false
	}

	var timestamp string
	var signatures [][]byte
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			timestamp = kv[1]
		case "v1":
			if sig, err := hex.DecodeString(kv[1]); err == nil {
				signatures = append(signatures, sig)
			}
		}
	}
	if timestamp == "" || len(signatures) == 0 {
		return false
	}

	if !timestampWithinTolerance(timestamp, tolerance, now) {
		return false
	}

	signedContent := timestamp + "." + string(payload)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(signedContent))
	expected := mac.Sum(nil)

	for _, sig := range signatures {
		if hmac.Equal(expected, sig) {
			return true
		}
	}
	return false
}

// VerifyIdentitySignature checks an identity-provider (svix style) webhook.
// The signed content is "<msgID>.<timestamp>.<payload>", the secret carries a
// "whsec_" prefix on a base64 key, and the signature header holds one or more
// space-separated "v1,<base64 hmac>" entries.
func VerifyIdentitySignature(payload []byte, msgID, timestamp, signatureHeader, secret string, tolerance time.Duration, now time.Time) bool {
	if msgID == "" || timestamp == "" || strings.TrimSpace(signatureHeader) == "" {
		return false
	}

	key, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(strings.TrimSpace(secret), "whsec_"))
	if err != nil || len(key) == 0 {
		return false
	}

	if !timestampWithinTolerance(timestamp, tolerance, now) {
		return false
	}

	signedContent := msgID + "." + timestamp + "." + string(payload)
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(signedContent))
	expected := mac.Sum(nil)

	for _, entry := range strings.Fields(signatureHeader) {
		parts := strings.SplitN(entry, ",", 2)
		if len(parts) != 2 || parts[0] != "v1" {
			continue
		}
		sig, err := base64.StdEncoding.DecodeString(parts[1])
		if err != nil {
			continue
		}
		if hmac.Equal(expected, sig) {
			return true
		}
	}
	return false
}

func timestampWithinTolerance(timestamp string, tolerance time.Duration, now time.Time) bool {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return false
	}
	diff := now.Sub(time.Unix(ts, 0))
	if diff < 0 {
		diff = -diff
	}
	return diff <= tolerance
}
