package middleware

import (
	"crypto/rsa"
	"errors"
	"strconv"

	"github.com/golang-jwt/jwt/v5"

	"github.com/comunidad/residence-service/internal/models"
)

// Principal is the authenticated caller extracted from an access token.
type Principal struct {
	UserID int64
	Role   models.UserRole
}

// ValidateToken checks the signature and expiry of an RS256 access token and
// extracts the caller. Tokens are issued by the authentication service; this
// service only verifies them.
func ValidateToken(tokenString string, publicKey *rsa.PublicKey) (*Principal, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return publicKey, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	userID, err := subjectID(claims["sub"])
	if err != nil {
		return nil, err
	}

	role, _ := claims["rol"].(string)
	return &Principal{UserID: userID, Role: models.UserRole(role)}, nil
}

// subjectID accepts the user id as a string or as a JSON number.
func subjectID(raw any) (int64, error) {
	switch v := raw.(type) {
	case string:
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return 0, errors.New("invalid subject claim")
		}
		return id, nil
	case float64:
		if v <= 0 || v != float64(int64(v)) {
			return 0, errors.New("invalid subject claim")
		}
		return int64(v), nil
	case nil:
		return 0, errors.New("missing subject")
	}
	return 0, errors.New("invalid subject claim")
}
