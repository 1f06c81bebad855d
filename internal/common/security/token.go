package security

import (
	"errors"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/JoaoGuilhermeTP/fatex/internal/common"
)

// Session tokens travel in the "jwt" cookie and are verified by
// jwtauth.Verifier on every request. Reset tokens are signed with the same
// process secret but carry a distinct audience so one can never stand in
// for the other.
const resetAudience = "password-reset"

var TokenAuth *jwtauth.JWTAuth

var secretKey []byte

func InitJWT(secret []byte) {
	secretKey = secret
	TokenAuth = jwtauth.New("HS256", secret, nil)
}

func GenerateSessionToken(userID string, ttl time.Duration) (string, error) {
	claims := map[string]interface{}{
		"user_id": userID,
		"exp":     time.Now().Add(ttl).Unix(),
		"iat":     time.Now().Unix(),
	}
	_, tokenString, err := TokenAuth.Encode(claims)
	return tokenString, err
}

func GetUserIDFromClaims(claims map[string]interface{}) (string, error) {
	id, ok := claims["user_id"].(string)
	if !ok || id == "" {
		return "", errors.New("user_id claim is missing or not a string")
	}
	return id, nil
}

// GenerateResetToken signs a stateless password-reset token binding exactly
// one user id. There is no revocation list: the token stays valid until it
// expires even if a newer one is issued.
func GenerateResetToken(userID string, ttl time.Duration) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Audience:  jwt.ClaimStrings{resetAudience},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secretKey)
}

// VerifyResetToken returns the user id a reset token was issued for. Every
// failure mode (bad signature, malformed payload, wrong audience, expired)
// collapses into ErrInvalidToken; callers never see partial data.
func VerifyResetToken(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithAudience(resetAudience))
	if err != nil || !token.Valid || claims.Subject == "" {
		return "", common.ErrInvalidToken
	}
	return claims.Subject, nil
}
