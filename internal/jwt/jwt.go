package jwt

import (
	"fmt"
	"strconv"
	"time"

	gojose "github.com/go-jose/go-jose/v4"
	gojwt "github.com/go-jose/go-jose/v4/jwt"
)

// Generator signs and validates the service's session tokens.
type Generator struct {
	secret    []byte
	accessTTL time.Duration
}

// NewGenerator constructs a JWT generator using a shared HMAC secret.
func NewGenerator(secret string, accessTTL time.Duration) *Generator {
	return &Generator{secret: []byte(secret), accessTTL: accessTTL}
}

// SessionClaims is the custom JWT payload for session tokens.
type SessionClaims struct {
	Email string `json:"email"`
}

// GenerateToken produces a signed session JWT for the user.
func (g *Generator) GenerateToken(userID int64, email string) (string, error) {
	signer, err := gojose.NewSigner(
		gojose.SigningKey{Algorithm: gojose.HS256, Key: g.secret},
		(&gojose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		return "", fmt.Errorf("new signer: %w", err)
	}

	now := time.Now().UTC()
	std := gojwt.Claims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  gojwt.NewNumericDate(now),
		Expiry:    gojwt.NewNumericDate(now.Add(g.accessTTL)),
		NotBefore: gojwt.NewNumericDate(now),
	}
	custom := SessionClaims{Email: email}

	token, err := gojwt.Signed(signer).Claims(std).Claims(custom).Serialize()
	if err != nil {
		return "", fmt.Errorf("serialize jwt: %w", err)
	}
	return token, nil
}

// ValidateToken verifies the signature and expiry and returns the user id.
func (g *Generator) ValidateToken(token string) (int64, *SessionClaims, error) {
	parsed, err := gojwt.ParseSigned(token, []gojose.SignatureAlgorithm{gojose.HS256})
	if err != nil {
		return 0, nil, fmt.Errorf("parse token: %w", err)
	}

	var std gojwt.Claims
	var custom SessionClaims
	if err := parsed.Claims(g.secret, &std, &custom); err != nil {
		return 0, nil, fmt.Errorf("verify token: %w", err)
	}
	if err := std.Validate(gojwt.Expected{Time: time.Now().UTC()}); err != nil {
		return 0, nil, fmt.Errorf("validate claims: %w", err)
	}

	userID, err := strconv.ParseInt(std.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return 0, nil, fmt.Errorf("invalid subject claim")
	}
	return userID, &custom, nil
}
