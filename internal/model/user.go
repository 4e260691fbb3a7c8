package model

import "time"

// User represents an account row in the `users` table. PasswordHash holds
// the scrypt "<hexKey>.<hexSalt>" string and must never be serialized to
// clients; handlers build responses from PublicUser instead.
//
// Lifecycle notes: IsVerified flips once via an admin action and afterwards
// locks email/phone from further edits. IsBlocked gates both login and
// session resolution, so blocking takes effect on the user's next request.
type User struct {
	ID           uint64    // users.id
	Username     string    // users.username (unique)
	PasswordHash string    // users.password_hash
	Email        string    // users.email (unique)
	Phone        string    // users.phone
	IsAdmin      bool      // users.is_admin
	IsVerified   bool      // users.is_verified
	IsBlocked    bool      // users.is_blocked
	PhotoURL     *string   // users.photo_url (nullable)
	Bio          *string   // users.bio (nullable)
	Website      *string   // users.website (nullable)
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// PublicUser is the client-facing view of a user with the password stripped.
type PublicUser struct {
	ID         uint64  `json:"id"`
	Username   string  `json:"username"`
	Email      string  `json:"email"`
	Phone      string  `json:"phone"`
	IsAdmin    bool    `json:"is_admin"`
	IsVerified bool    `json:"is_verified"`
	IsBlocked  bool    `json:"is_blocked"`
	PhotoURL   *string `json:"photo_url,omitempty"`
	Bio        *string `json:"bio,omitempty"`
	Website    *string `json:"website,omitempty"`
}

// Public returns the serializable view of the user.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		Phone:      u.Phone,
		IsAdmin:    u.IsAdmin,
		IsVerified: u.IsVerified,
		IsBlocked:  u.IsBlocked,
		PhotoURL:   u.PhotoURL,
		Bio:        u.Bio,
		Website:    u.Website,
	}
}
