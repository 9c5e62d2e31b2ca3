package models

import "github.com/golang-jwt/jwt/v5"

// Roles carried in access tokens.
const (
	UserRoleCustomer = "customer"
	UserRoleShipper  = "shipper"
	UserRoleAdmin    = "admin"
)

type JwtCustomClaims struct {
	UserID string `json:"userID"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}
