package auth

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/angelmondragon/nexus-cards-backend/pkg/enums"
)

// StaffClaims is the signed body of a staff token. Subject names the operator.
type StaffClaims struct {
	Role enums.StaffRole `json:"role"`
	jwt.RegisteredClaims
}
