package fileurl

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseLink(t *testing.T, link string) (fileID, expires, sig string) {
	t.Helper()
	u, err := url.Parse(link)
	require.NoError(t, err)
	parts := strings.Split(u.Path, "/")
	return parts[len(parts)-1], u.Query().Get("expires"), u.Query().Get("sig")
}

func TestSigner(t *testing.T) {
	s := NewSigner("secret", time.Hour)

	t.Run("signed link verifies", func(t *testing.T) {
		fileID, expires, sig := parseLink(t, s.Sign("file-1"))
		assert.Equal(t, "file-1", fileID)
		assert.True(t, s.Verify(fileID, expires, sig))
	})

	t.Run("tampered file id fails", func(t *testing.T) {
		_, expires, sig := parseLink(t, s.Sign("file-1"))
		assert.False(t, s.Verify("file-2", expires, sig))
	})

	t.Run("tampered expiry fails", func(t *testing.T) {
		fileID, _, sig := parseLink(t, s.Sign("file-1"))
		assert.False(t, s.Verify(fileID, "99999999999", sig))
	})

	t.Run("wrong secret fails", func(t *testing.T) {
		fileID, expires, sig := parseLink(t, s.Sign("file-1"))
		other := NewSigner("other", time.Hour)
		assert.False(t, other.Verify(fileID, expires, sig))
	})

	t.Run("expired link fails", func(t *testing.T) {
		stale := NewSigner("secret", -time.Minute)
		fileID, expires, sig := parseLink(t, stale.Sign("file-1"))
		assert.False(t, stale.Verify(fileID, expires, sig))
	})

	t.Run("garbage expiry fails", func(t *testing.T) {
		fileID, _, sig := parseLink(t, s.Sign("file-1"))
		assert.False(t, s.Verify(fileID, "soon", sig))
	})
}
