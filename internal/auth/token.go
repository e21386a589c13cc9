package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidToken covers every verification failure: malformed structure,
// bad signature, undecodable payload, expiry. Callers must not distinguish
// the causes, so there is exactly one error value.
var ErrInvalidToken = errors.New("invalid token")

// tokenPayload is the encoded half of a session token. It is never
// persisted; verification reconstructs it from the token bytes.
type tokenPayload struct {
	UserID    int64 `json:"uid"`
	ExpiresAt int64 `json:"exp"`
}

// TokenCodec issues and verifies self-contained signed session tokens.
// The signing secret is injected at construction and comes from
// configuration, never a compiled-in constant.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenCodec creates a codec signing with secret and issuing tokens
// valid for ttl.
func NewTokenCodec(secret string, ttl time.Duration) *TokenCodec {
	return &TokenCodec{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue returns a token for userID expiring at issuance time + TTL.
// Wire format: base64url(JSON payload) "." hex(HMAC-SHA256(payload)).
// Neither segment alphabet contains the delimiter.
func (c *TokenCodec) Issue(userID int64) (string, error) {
	payload := tokenPayload{
		UserID:    userID,
		ExpiresAt: c.now().Add(c.ttl).Unix(),
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode token payload: %w", err)
	}
	encoded := base64.RawURLEncoding.EncodeToString(raw)
	return encoded + "." + c.sign(encoded), nil
}

// Verify checks structure, signature and expiry, in that order, and returns
// the authenticated user ID. The token is accepted only if the signature
// matches and the expiry instant is strictly in the future.
func (c *TokenCodec) Verify(token string) (int64, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 2 {
		return 0, ErrInvalidToken
	}
	encoded, signature := parts[0], parts[1]

	if !hmac.Equal([]byte(c.sign(encoded)), []byte(signature)) {
		return 0, ErrInvalidToken
	}

	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return 0, ErrInvalidToken
	}
	var payload tokenPayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.UserID <= 0 {
		return 0, ErrInvalidToken
	}

	if !c.now().Before(time.Unix(payload.ExpiresAt, 0)) {
		return 0, ErrInvalidToken
	}

	return payload.UserID, nil
}

func (c *TokenCodec) sign(encodedPayload string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(encodedPayload))
	return hex.EncodeToString(mac.Sum(nil))
}
