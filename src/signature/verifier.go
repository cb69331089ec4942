package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

// ReplayWindow is the maximum allowed skew between the signed timestamp and
// server time, in seconds.
const ReplayWindow = 300

var (
	ErrStaleTimestamp   = errors.New("timestamp outside replay window")
	ErrInvalidTimestamp = errors.New("invalid timestamp")
	ErrSignatureMismatch = errors.New("signature mismatch")
)

// Compute returns the hex HMAC-SHA256 of "{timestamp}.{rawBody}" under secret.
// rawBody must be the exact bytes received on the wire; a re-serialized JSON
// object is not equivalent.
func Compute(secret string, timestamp int64, rawBody []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(rawBody)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks the provided hex signature against the expected HMAC of
// "{timestamp}.{rawBody}" and enforces the replay window around now.
// The comparison is constant-time and case-insensitive.
func Verify(secret string, timestampStr string, rawBody []byte, providedHex string, now time.Time) error {
	ts, err := strconv.ParseInt(strings.TrimSpace(timestampStr), 10, 64)
	if err != nil {
		return ErrInvalidTimestamp
	}

	skew := now.Unix() - ts
	if skew < 0 {
		skew = -skew
	}
	if skew > ReplayWindow {
		return ErrStaleTimestamp
	}

	expected := Compute(secret, ts, rawBody)
	provided := strings.ToLower(strings.TrimSpace(providedHex))

	if len(provided) != len(expected) {
		return ErrSignatureMismatch
	}
	if subtle.ConstantTimeCompare([]byte(expected), []byte(provided)) != 1 {
		return ErrSignatureMismatch
	}
	return nil
}
