package models

import "github.com/golang-jwt/jwt/v5"

// UserRole identifies the persona an access token was issued to.
type UserRole string

const (
	RoleTeacher UserRole = "teacher"
	RoleStudent UserRole = "student"
	RoleAdmin   UserRole = "admin"
)

// JWTClaims represents the access token payload issued after wallet sign-in.
type JWTClaims struct {
	Wallet string   `json:"wallet"`
	Handle string   `json:"handle,omitempty"`
	Role   UserRole `json:"role"`
	jwt.RegisteredClaims
}
