package entity

import "slices"

const (
	RoleUser       = "ROLE_USER"
	RoleHouseOwner = "ROLE_HOUSE_OWNER"
	RoleAdmin      = "ROLE_ADMIN"
)

// User - профиль из /api/auth/me.
type User struct {
	ID            int64    `json:"id"`
	Email         string   `json:"email"`
	FirstName     string   `json:"firstName,omitempty"`
	LastName      string   `json:"lastName,omitempty"`
	FullName      string   `json:"fullName,omitempty"`
	EmailVerified bool     `json:"emailVerified"`
	Roles         []string `json:"roles"`
}

func (u User) HasRole(role string) bool {
	return slices.Contains(u.Roles, role)
}

// AuthTokens - ответ /api/auth/login и /api/auth/refresh-token.
type AuthTokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"`
	ExpiresIn    int64  `json:"expiresIn"`
	User         *User  `json:"user,omitempty"`
}
