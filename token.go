package hireqa

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// verificationTokenBytes yields 256 bits of entropy per token.
const verificationTokenBytes = 32

// VerificationTokenTTL is how long an issued verification token stays
// consumable.
var VerificationTokenTTL = 24 * time.Hour

// NewVerificationToken mints a URL-safe opaque bearer secret for the email
// verification flow. These are not session credentials and never carry
// claims; possession of the string is the whole proof.
func NewVerificationToken() (string, error) {
	buf := make([]byte, verificationTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate verification token")
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// VerificationTokenExpiry computes the expiry for a token issued now.
func VerificationTokenExpiry(clock Clock) time.Time {
	return clock.Now().UTC().Add(VerificationTokenTTL)
}
