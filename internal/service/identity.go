package service

import "github.com/Skotchmaster/marketplace/internal/models"

// Identity is the authenticated caller as resolved by the auth middleware.
type Identity struct {
	UserID uint
	Role   string
}

func (i Identity) Authenticated() bool { return i.UserID != 0 }

func (i Identity) IsAdmin() bool { return i.Role == models.RoleAdmin }
