package service

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/noah-isme/campus-gatepass-api/internal/models"
	appErrors "github.com/noah-isme/campus-gatepass-api/pkg/errors"
)

// TokenService mints and validates the HMAC tokens embedded in pass QR
// codes. A token is passID.nonce.expiry.signature; the nonce is stored
// on the pass row, so rotating it invalidates every previously issued
// token without touching the signing secret.
type TokenService struct {
	secret []byte
	grace  time.Duration
}

// NewTokenService constructs a token service. The grace duration
// extends token validity past the pass return time.
func NewTokenService(secret string, grace time.Duration) *TokenService {
	return &TokenService{secret: []byte(secret), grace: grace}
}

// TokenClaims is the metadata recovered from a valid token.
type TokenClaims struct {
	PassID    string
	Nonce     string
	ExpiresAt time.Time
}

// NewNonce returns a fresh random nonce for minting.
func (s *TokenService) NewNonce() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Mint produces a signed token for an approved pass. The expiry is the
// pass return time plus grace, capped by notAfter when set (the
// holder's account validity), so a token never outlives either window.
func (s *TokenService) Mint(pass *models.Pass, notAfter time.Time) (string, time.Time, error) {
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("token secret missing")
	}
	if pass.TokenNonce == nil || *pass.TokenNonce == "" {
		return "", time.Time{}, appErrors.Clone(appErrors.ErrInvalidTransition, "pass has no minted token nonce")
	}
	expiry := pass.ReturnTime.Add(s.grace)
	if !notAfter.IsZero() && notAfter.Before(expiry) {
		expiry = notAfter
	}
	expiresAt := expiry.Unix()
	signature := s.sign(pass.ID, *pass.TokenNonce, expiresAt)
	token := strings.Join([]string{pass.ID, *pass.TokenNonce, strconv.FormatInt(expiresAt, 10), signature}, ".")
	return token, time.Unix(expiresAt, 0), nil
}

// Parse validates the signature and expiry of a presented token.
// Signature failures never reveal whether the pass exists.
func (s *TokenService) Parse(token string) (*TokenClaims, error) {
	parts := strings.Split(strings.TrimSpace(token), ".")
	if len(parts) != 4 {
		return nil, appErrors.ErrBadSignature
	}
	passID, nonce, rawExpiry, signature := parts[0], parts[1], parts[2], parts[3]

	expiresAt, err := strconv.ParseInt(rawExpiry, 10, 64)
	if err != nil {
		return nil, appErrors.ErrBadSignature
	}

	expected := s.sign(passID, nonce, expiresAt)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return nil, appErrors.ErrBadSignature
	}

	claims := &TokenClaims{PassID: passID, Nonce: nonce, ExpiresAt: time.Unix(expiresAt, 0)}
	if time.Now().After(claims.ExpiresAt) {
		return nil, appErrors.ErrPassExpired
	}
	return claims, nil
}

// QRPNG renders the token as a PNG QR image.
func (s *TokenService) QRPNG(token string, size int) ([]byte, error) {
	if size <= 0 {
		size = 256
	}
	png, err := qrcode.Encode(token, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}

func (s *TokenService) sign(passID, nonce string, expiresAt int64) string {
	payload := fmt.Sprintf("%s|%s|%d", passID, nonce, expiresAt)
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}
