package models

import (
	"time"
)

type RefreshToken struct {
	ID        int64
	UserID    int64
	Token     string
	CreatedAt time.Time
	ExpiresAt time.Time
	UsedAt    *time.Time // nil if token not used
}

type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// Token pair issued by the token manager on register/login/refresh
type TokenPair struct {
	Access  IssuedToken
	Refresh IssuedToken
}
