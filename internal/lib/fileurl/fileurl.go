// Package fileurl issues HMAC-signed download links for stored
// attachments. Links expire after a TTL so they can be handed to
// clients without leaking a long-lived credential through logs or
// Referer headers.
package fileurl

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

// Signer signs and verifies attachment download links.
type Signer struct {
	secret string
	ttl    time.Duration
}

func NewSigner(secret string, ttl time.Duration) *Signer {
	return &Signer{secret: secret, ttl: ttl}
}

// Sign returns a relative download path for the file, carrying expiry
// and signature query parameters. The signature covers
// "{fileID}:{expiresUnix}" with HMAC-SHA256.
func (s *Signer) Sign(fileID string) string {
	expires := time.Now().Add(s.ttl).Unix()
	return fmt.Sprintf("/uploads/files/%s?expires=%d&sig=%s",
		fileID, expires, s.compute(fileID, expires))
}

// Verify reports whether the signature matches and the link has not
// expired yet.
func (s *Signer) Verify(fileID, expires, sig string) bool {
	exp, err := strconv.ParseInt(expires, 10, 64)
	if err != nil {
		return false
	}
	if time.Now().Unix() > exp {
		return false
	}
	return hmac.Equal([]byte(sig), []byte(s.compute(fileID, exp)))
}

func (s *Signer) compute(fileID string, expires int64) string {
	mac := hmac.New(sha256.New, []byte(s.secret))
	fmt.Fprintf(mac, "%s:%d", fileID, expires)
	return hex.EncodeToString(mac.Sum(nil))
}
