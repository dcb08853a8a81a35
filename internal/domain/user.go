package domain

import "time"

type User struct {
	ID           int64
	Username     string
	Email        string
	FullName     string
	Role         string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)
