package provider

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

// Webhook signature headers.
const (
	SignatureHeader = "Revolut-Signature"
	TimestampHeader = "Revolut-Request-Timestamp"
	signatureScheme = "v1"
)

var (
	ErrSignatureMissing  = errors.New("signature headers missing")
	ErrSignatureStale    = errors.New("signature timestamp outside tolerance")
	ErrSignatureMismatch = errors.New("signature mismatch")
)

// Sign computes the v1 signature of body sent at timestamp (unix millis).
func Sign(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(signatureScheme + "." + timestamp + "."))
	mac.Write(body)
	return signatureScheme + "=" + hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a signature header, which may carry several
// comma-separated signatures during secret rotation.
func VerifySignature(secret, header, timestamp string, body []byte, now time.Time, tolerance time.Duration) error {
	if header == "" || timestamp == "" {
		return ErrSignatureMissing
	}

	millis, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return ErrSignatureStale
	}
	sent := time.UnixMilli(millis)
	if tolerance > 0 && (now.Sub(sent) > tolerance || sent.Sub(now) > tolerance) {
		return ErrSignatureStale
	}

	expected := Sign(secret, timestamp, body)
	for _, candidate := range strings.Split(header, ",") {
		if hmac.Equal([]byte(strings.TrimSpace(candidate)), []byte(expected)) {
			return nil
		}
	}
	return ErrSignatureMismatch
}
