package domain

import "time"

// DateLayout is the wire and storage format of a date of birth.
const DateLayout = "2006-01-02"

type User struct {
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

// ProfileUpdate holds the fields a user may change after registration.
// Email, password hash and id are deliberately absent.
type ProfileUpdate struct {
	FirstName string
	LastName  string
	Phone     string
	DOB       time.Time
	Address   string
}
