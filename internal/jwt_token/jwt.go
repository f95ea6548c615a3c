package jwttoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Decode failure taxonomy. Callers dispatch on these with errors.Is; the
// mapping to audit event types lives in the authentication middleware.
var (
	ErrMalformed            = errors.New("token is malformed")
	ErrExpired              = errors.New("token has expired")
	ErrUnsupportedAlgorithm = errors.New("token signing algorithm is not supported")
	ErrEmptyClaims          = errors.New("token carries no subject")
	ErrInvalidSignature     = errors.New("token signature is invalid")
)

// DefaultRole is assumed when a token carries no roles claim.
const DefaultRole = "USER"

// Claims represents the JWT claims for our access tokens.
type Claims struct {
	Roles       []string `json:"roles,omitempty"`
	Email       string   `json:"email,omitempty"`
	DisplayName string   `json:"displayName,omitempty"`
	jwt.RegisteredClaims
}

// Profile carries the non-authorization custom claims of a subject.
type Profile struct {
	Email       string
	DisplayName string
}

// Service handles JWT creation and validation with a single symmetric key.
// The key is fixed for the lifetime of the service.
type Service struct {
	signingKey   []byte
	issuer       string
	tokenTTL     time.Duration
	refreshGrace time.Duration
}

func NewService(signingKey, issuer string, tokenTTL, refreshGrace time.Duration) *Service {
	return &Service{
		signingKey:   []byte(signingKey),
		issuer:       issuer,
		tokenTTL:     tokenTTL,
		refreshGrace: refreshGrace,
	}
}

// Encode issues a signed token for subject. A non-positive ttl uses the
// service default.
func (s *Service) Encode(subject string, roles []string, profile Profile, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = s.tokenTTL
	}
	now := time.Now()
	newToken := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Roles:       roles,
		Email:       profile.Email,
		DisplayName: profile.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	})

	signedToken, err := newToken.SignedString(s.signingKey)
	if err != nil {
		return "", err
	}
	return signedToken, nil
}

// Decode verifies the signature and validity claims of tokenString and
// returns its claims. Tokens without a roles claim get DefaultRole.
func (s *Service) Decode(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, s.keyFunc)
	if err != nil {
		return nil, mapParseError(err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidSignature
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, ErrMalformed
	}
	if claims.Subject == "" {
		return nil, ErrEmptyClaims
	}
	if len(claims.Roles) == 0 {
		claims.Roles = []string{DefaultRole}
	}
	return claims, nil
}

// IsExpired reports whether the token's expiry lies strictly in the past.
// Tokens that cannot be verified at all count as expired.
func (s *Service) IsExpired(tokenString string) bool {
	claims, err := s.decodeIgnoringValidity(tokenString)
	if err != nil {
		return true
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}
	return time.Now().After(exp.Time)
}

// Refresh re-issues a token for the same subject, roles and profile. The
// presented token must verify cryptographically and be no further past its
// expiry than the grace window.
func (s *Service) Refresh(tokenString string) (string, error) {
	claims, err := s.decodeIgnoringValidity(tokenString)
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", ErrEmptyClaims
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return "", ErrMalformed
	}
	if time.Now().After(exp.Time.Add(s.refreshGrace)) {
		return "", ErrExpired
	}

	roles := claims.Roles
	if len(roles) == 0 {
		roles = []string{DefaultRole}
	}
	return s.Encode(claims.Subject, roles, Profile{Email: claims.Email, DisplayName: claims.DisplayName}, 0)
}

// decodeIgnoringValidity verifies the signature but skips claim validation,
// so expired tokens still yield their claims.
func (s *Service) decodeIgnoringValidity(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, s.keyFunc, jwt.WithoutClaimsValidation())
	if err != nil {
		return nil, mapParseError(err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, ErrMalformed
	}
	return claims, nil
}

func (s *Service) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, jwt.ErrTokenUnverifiable
	}
	return s.signingKey, nil
}

func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrUnsupportedAlgorithm
	default:
		return ErrMalformed
	}
}
