package models

import (
	"github.com/golang-jwt/jwt/v5"
)

type Role string

const (
	RoleStaff   Role = "staff"
	RoleManager Role = "manager"
)

func (r Role) IsValid() bool {
	return r == RoleStaff || r == RoleManager
}

// StaffClaims is the JWT payload issued on staff login.
type StaffClaims struct {
	Role Role `json:"role"`
	jwt.RegisteredClaims
}
