package helpers

import (
	"fmt"
	"time"

	jwt "github.com/dgrijalva/jwt-go"

	"golang-physiobackend/models"
)

const DefaultTokenTTL = 30 * time.Minute

type SignedDetails struct {
	Email  string      `json:"email"`
	Name   string      `json:"nombre"`
	UserID string      `json:"id"`
	Role   models.Role `json:"tipo_usuario"`
	State  string      `json:"estado"`
	jwt.StandardClaims
}

// TokenMaker signs and validates access tokens with a single shared secret.
type TokenMaker struct {
	secret []byte
	method jwt.SigningMethod
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenMaker accepts the HMAC algorithms only (HS256, HS384, HS512).
func NewTokenMaker(secret string, algorithm string, ttl time.Duration) (*TokenMaker, error) {
	if secret == "" {
		return nil, fmt.Errorf("token secret is empty")
	}
	if algorithm == "" {
		algorithm = jwt.SigningMethodHS256.Alg()
	}
	method, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported token algorithm %q", algorithm)
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenMaker{secret: []byte(secret), method: method, ttl: ttl, now: time.Now}, nil
}

func (m *TokenMaker) TTL() time.Duration {
	return m.ttl
}

func (m *TokenMaker) GenerateToken(identity *models.Identity) (signedToken string, expiresAt time.Time, err error) {
	issuedAt := m.now()
	expiresAt = issuedAt.Add(m.ttl)

	claims := &SignedDetails{
		Email:  identity.Email,
		Name:   identity.Name,
		UserID: identity.ID,
		Role:   identity.Role,
		State:  identity.State,
		StandardClaims: jwt.StandardClaims{
			Subject:   identity.Email,
			IssuedAt:  issuedAt.Unix(),
			ExpiresAt: expiresAt.Unix(),
		},
	}

	signedToken, err = jwt.NewWithClaims(m.method, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signedToken, expiresAt, nil
}

func (m *TokenMaker) ValidateToken(signedToken string) (*SignedDetails, error) {
	token, err := jwt.ParseWithClaims(
		signedToken,
		&SignedDetails{},
		func(token *jwt.Token) (interface{}, error) {
			if token.Method.Alg() != m.method.Alg() {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return m.secret, nil
		},
	)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*SignedDetails)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("the token is invalid")
	}

	if claims.ExpiresAt < m.now().Unix() {
		return nil, fmt.Errorf("the token has expired")
	}

	return claims, nil
}
