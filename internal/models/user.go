package models

import (
	"time"
)

const (
	RoleCustomer = "customer"
	RoleBusiness = "business"
	RoleStaff    = "staff"
)

type User struct {
	ID             int64
	CreatedAt      time.Time
	Username       string
	HashedPassword string
	Role           string
}
