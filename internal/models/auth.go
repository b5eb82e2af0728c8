package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims carries the authenticated identity inside access tokens.
type JWTClaims struct {
	RegNo      string       `json:"reg_no"`
	Email      string       `json:"email"`
	Department string       `json:"department"`
	ClassName  string       `json:"class"`
	Role       IdentityRole `json:"role"`
	jwt.RegisteredClaims
}
