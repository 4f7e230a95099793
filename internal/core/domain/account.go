package domain

import "time"

// Account is a backend user record, including its password hash.
type Account struct {
	ID           int64
	Name         string
	Username     string
	Email        *string
	PasswordHash string
	CreatedAt    time.Time
}

// Profile returns the public view of the account.
func (a *Account) Profile() User {
	u := User{
		ID:        a.ID,
		Name:      a.Name,
		Username:  a.Username,
		CreatedAt: a.CreatedAt,
	}
	if a.Email != nil {
		email := *a.Email
		u.Email = &email
	}
	return u
}
