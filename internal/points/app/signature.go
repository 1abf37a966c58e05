package app

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"
)

const (
	signatureVersion = "v0"
	// maxTimestampSkew bounds how stale a signed request may be before it
	// is treated as a replay.
	maxTimestampSkew = 5 * time.Minute
)

var (
	// ErrSignatureMismatch indicates the request signature does not match
	// the signing secret.
	ErrSignatureMismatch = errors.New("request signature mismatch")
	// ErrStaleTimestamp indicates the signed timestamp is outside the
	// accepted window.
	ErrStaleTimestamp = errors.New("request timestamp outside accepted window")
)

// Verifier checks Slack request signatures against a shared signing secret.
type Verifier struct {
	secret []byte
	now    func() time.Time
}

// NewVerifier constructs a signature verifier. A nil clock defaults to
// time.Now.
func NewVerifier(secret []byte, now func() time.Time) (*Verifier, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("signing secret is required")
	}
	if now == nil {
		now = time.Now
	}
	return &Verifier{secret: secret, now: now}, nil
}

// Verify validates one signed request: the signature must be the HMAC-SHA256
// of "v0:<timestamp>:<body>" under the shared secret, and the timestamp must
// be within the replay window.
func (v *Verifier) Verify(timestamp, signature string, body []byte) error {
	if v == nil {
		return fmt.Errorf("verifier is not configured")
	}

	unix, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("parse request timestamp: %w", err)
	}
	skew := v.now().UTC().Sub(time.Unix(unix, 0).UTC())
	if skew < -maxTimestampSkew || skew > maxTimestampSkew {
		return ErrStaleTimestamp
	}

	mac := hmac.New(sha256.New, v.secret)
	fmt.Fprintf(mac, "%s:%s:", signatureVersion, timestamp)
	_, _ = mac.Write(body)
	expected := signatureVersion + "=" + hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrSignatureMismatch
	}
	return nil
}
