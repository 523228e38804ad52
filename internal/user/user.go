// Package user defines the user model used throughout the application,
// particularly for authentication and todo ownership.
package user

import "time"

// MinAge and MaxAge bound the optional age of a user, inclusive.
const (
	MinAge = 0
	MaxAge = 120
)

// User represents a registered account.
// It owns zero or more todos, which are removed together with it.
type User struct {
	// ID is the unique identifier of the user, meaning a UUID.
	ID string `json:"id"`

	// Email is unique across users and compared exactly as stored.
	Email string `json:"email"`

	// PasswordHash is the encoded argon2id digest. It never leaves the server.
	PasswordHash string `json:"-"`

	// Age is optional.
	Age *int `json:"age,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Public is the part of a user that may be returned to clients.
type Public struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Public strips the password hash and the bookkeeping fields.
func (u *User) Public() Public {
	return Public{
		ID:    u.ID,
		Email: u.Email,
	}
}

// AgeInRange reports whether the age is absent or within [MinAge, MaxAge].
func AgeInRange(age *int) bool {
	return age == nil || (*age >= MinAge && *age <= MaxAge)
}
