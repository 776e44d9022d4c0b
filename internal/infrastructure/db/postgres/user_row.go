package postgres

import "time"

type userRow struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	Phone        string
	DOB          time.Time
	Address      string
	CreatedAt    time.Time
}
