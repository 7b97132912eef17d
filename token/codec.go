package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/mealplan-server/users"
)

const defaultAccessTokenExpiry = 15 * time.Minute

// AccessToken is a signed, self-contained credential. It is never stored.
type AccessToken struct {
	Value     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Claims carried by an access token. The subject is the user id.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Codec issues and verifies access tokens
type Codec struct {
	signer  Signer
	ttl     time.Duration
	issuer  string
	nowFunc func() time.Time
}

type CodecOption func(*Codec)

func WithTTL(ttl time.Duration) CodecOption {
	return func(c *Codec) {
		c.ttl = ttl
	}
}

func WithNowFunc(now func() time.Time) CodecOption {
	return func(c *Codec) {
		c.nowFunc = now
	}
}

func WithIssuer(issuer string) CodecOption {
	return func(c *Codec) {
		c.issuer = issuer
	}
}

func NewCodec(signer Signer, options ...CodecOption) *Codec {
	c := &Codec{
		signer: signer,
	}
	for _, opt := range options {
		opt(c)
	}
	if c.ttl <= 0 {
		c.ttl = defaultAccessTokenExpiry
	}
	if c.nowFunc == nil {
		c.nowFunc = time.Now
	}
	return c
}

// TTL is the lifetime given to issued tokens
func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// Issue signs a token for identity expiring ttl from now. The output depends
// only on the identity, the secret and the clock.
func (c *Codec) Issue(identity users.Identity) (AccessToken, error) {
	if identity.ID == "" {
		return AccessToken{}, errors.New("identity has no id")
	}
	if !identity.Role.Valid() {
		return AccessToken{}, fmt.Errorf("identity %s has invalid role %q", identity.ID, identity.Role)
	}

	issuedAt := jwt.NewNumericDate(c.nowFunc())
	expiresAt := jwt.NewNumericDate(issuedAt.Add(c.ttl))
	claims := Claims{
		Role: string(identity.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   identity.ID,
			IssuedAt:  issuedAt,
			ExpiresAt: expiresAt,
		},
	}

	signed, err := c.signer.Sign(claims)
	if err != nil {
		return AccessToken{}, fmt.Errorf("failed to sign access token: %w", err)
	}
	return AccessToken{
		Value:     signed,
		IssuedAt:  issuedAt.Time,
		ExpiresAt: expiresAt.Time,
	}, nil
}

// Verify checks signature then expiry and returns the identity in the token.
// Every failure is a *VerifyError. The signature is checked before the claims,
// so a forged expired token reports InvalidSignature, never Expired.
func (c *Codec) Verify(raw string) (users.Identity, error) {
	parserOptions := []jwt.ParserOption{
		jwt.WithValidMethods([]string{c.signer.GetSigningMethod().Alg()}),
		jwt.WithTimeFunc(c.nowFunc),
		jwt.WithExpirationRequired(),
	}
	if c.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(c.issuer))
	}

	claims := &Claims{}
	_, err := jwt.NewParser(parserOptions...).ParseWithClaims(raw, claims, c.signer.GetVerificationKey)
	if err != nil {
		return users.Identity{}, &VerifyError{Kind: classify(err), Err: err}
	}

	if claims.Subject == "" {
		return users.Identity{}, &VerifyError{Kind: Malformed, Err: errors.New("missing subject")}
	}
	role, err := users.ParseRole(claims.Role)
	if err != nil {
		return users.Identity{}, &VerifyError{Kind: Malformed, Err: err}
	}
	return users.Identity{ID: claims.Subject, Role: role}, nil
}

func classify(err error) ErrorKind {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return InvalidSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return Expired
	default:
		return Malformed
	}
}
