package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/ray-remotestate/tableside/models"
)

const tokenIssuer = "tableside"

// GenerateAccessToken signs a staff token carrying role.
func GenerateAccessToken(secret []byte, role models.Role, ttl time.Duration) (string, error) {
	now := time.Now()

	claims := &models.StaffClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   string(role),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", err
	}
	return signed, nil
}

// ParseAccessToken verifies tokenStr and returns its claims.
func ParseAccessToken(secret []byte, tokenStr string) (*models.StaffClaims, error) {
	claims := &models.StaffClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return nil, err
	}
	if !token.Valid || !claims.Role.IsValid() {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

func HashPassword(pw string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPassword reports whether pw matches hash. An empty hash never matches.
func CheckPassword(hash, pw string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// MatchStaffPassword returns the role whose password hash matches pw, checking
// the manager hash first.
func MatchStaffPassword(managerHash, staffHash, pw string) (models.Role, error) {
	switch {
	case CheckPassword(managerHash, pw):
		return models.RoleManager, nil
	case CheckPassword(staffHash, pw):
		return models.RoleStaff, nil
	}
	return "", fmt.Errorf("incorrect password")
}
