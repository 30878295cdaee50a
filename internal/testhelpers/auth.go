package testhelpers

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/comunidad/residence-service/internal/models"
)

// KeyPair is a throwaway RSA key for signing test tokens.
type KeyPair struct {
	Private         *rsa.PrivateKey
	PublicPEMBase64 string
}

func NewKeyPair(t testing.TB) *KeyPair {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err, "Failed to generate RSA key")

	der, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	require.NoError(t, err, "Failed to marshal public key")
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})

	return &KeyPair{
		Private:         priv,
		PublicPEMBase64: base64.StdEncoding.EncodeToString(pemBytes),
	}
}

// CreateJWT signs an access token the way the authentication service does.
func (k *KeyPair) CreateJWT(t testing.TB, userID int64, role models.UserRole) string {
	return k.CreateJWTWithExpiry(t, userID, role, time.Now().Add(15*time.Minute))
}

func (k *KeyPair) CreateJWTWithExpiry(t testing.TB, userID int64, role models.UserRole, exp time.Time) string {
	claims := jwt.MapClaims{
		"sub": userID,
		"rol": string(role),
		"iat": time.Now().Unix(),
		"exp": exp.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(k.Private)
	require.NoError(t, err, "Failed to sign test JWT")
	return signed
}
