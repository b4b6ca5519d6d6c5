// Package identity реализует провайдера идентификации: вход по email и паролю,
// выпуск и проверку JWT, административные операции над учетными записями.
package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "catalog-server"

// Principal - проверенная личность, извлеченная из токена.
type Principal struct {
	ID    string
	Email string
}

// jwtClaims - полезная нагрузка токена доступа.
type jwtClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Verifier проверяет токены. Знает только ключ подписи и не имеет доступа к хранилищу.
type Verifier struct {
	secret []byte
}

// NewVerifier создает проверяющего токены с указанным ключом.
func NewVerifier(secret []byte) *Verifier {
	return &Verifier{secret: secret}
}

// Verify разбирает и валидирует токен. Любая проблема - ErrInvalidToken.
func (v *Verifier) Verify(tokenString string) (Principal, error) {
	if tokenString == "" {
		return Principal{}, ErrInvalidToken
	}

	claims := &jwtClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Убеждаемся, что метод подписи - HMAC
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("неожиданный метод подписи: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithExpirationRequired())
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid || claims.UserID == "" {
		return Principal{}, ErrInvalidToken
	}

	return Principal{ID: claims.UserID, Email: claims.Email}, nil
}

// issueToken создает и подписывает токен для учетной записи.
func issueToken(secret []byte, p Principal, ttl time.Duration, now time.Time) (string, error) {
	claims := jwtClaims{
		UserID: p.ID,
		Email:  p.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("ошибка подписи JWT: %w", err)
	}
	return signed, nil
}

// ErrInvalidToken - токен отсутствует, поврежден, подписан чужим ключом или истек.
var ErrInvalidToken = errors.New("невалидный токен")
