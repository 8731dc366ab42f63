package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"
)

var (
	ErrMalformedLink = errors.New("malformed download link")
	ErrLinkSignature = errors.New("download link signature mismatch")
	ErrLinkExpired   = errors.New("download link expired")
)

// Download is what a signed link grants access to.
type Download struct {
	ID        string
	Path      string
	ExpiresAt time.Time
}

// LinkSigner issues and verifies HMAC-SHA256 download links.
// A link is four dot-separated fields: id, expiry (unix seconds, base 36), path and mac.
type LinkSigner struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewLinkSigner returns a signer whose links live for ttl (one hour when ttl <= 0).
func NewLinkSigner(secret string, ttl time.Duration) *LinkSigner {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &LinkSigner{key: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL reports how long issued links stay valid.
func (s *LinkSigner) TTL() time.Duration {
	return s.ttl
}

// Sign issues a link for the stored report at path.
func (s *LinkSigner) Sign(id, path string) (string, Download, error) {
	if id == "" || path == "" {
		return "", Download{}, errors.New("download id and path are required")
	}
	if len(s.key) == 0 {
		return "", Download{}, errors.New("download signing secret is empty")
	}

	dl := Download{ID: id, Path: path, ExpiresAt: s.now().Add(s.ttl).Truncate(time.Second)}
	fields := []string{
		encodeField(id),
		strconv.FormatInt(dl.ExpiresAt.Unix(), 36),
		encodeField(path),
	}
	fields = append(fields, s.mac(fields))
	return strings.Join(fields, "."), dl, nil
}

// Verify checks the signature and expiry of a link. An expired link still
// returns its Download alongside ErrLinkExpired.
func (s *LinkSigner) Verify(token string) (Download, error) {
	fields := strings.Split(token, ".")
	if len(fields) != 4 {
		return Download{}, ErrMalformedLink
	}
	if !hmac.Equal([]byte(s.mac(fields[:3])), []byte(fields[3])) {
		return Download{}, ErrLinkSignature
	}

	id, err := decodeField(fields[0])
	if err != nil {
		return Download{}, ErrMalformedLink
	}
	expiry, err := strconv.ParseInt(fields[1], 36, 64)
	if err != nil {
		return Download{}, ErrMalformedLink
	}
	path, err := decodeField(fields[2])
	if err != nil {
		return Download{}, ErrMalformedLink
	}

	dl := Download{ID: id, Path: path, ExpiresAt: time.Unix(expiry, 0)}
	if s.now().After(dl.ExpiresAt) {
		return dl, ErrLinkExpired
	}
	return dl, nil
}

func (s *LinkSigner) mac(fields []string) string {
	h := hmac.New(sha256.New, s.key)
	h.Write([]byte(strings.Join(fields, ".")))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}

func encodeField(v string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(v))
}

func decodeField(v string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(v)
	return string(raw), err
}
