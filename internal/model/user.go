package model

import "time"

// User represents an account record as stored in the `users` table.
// The identifier is a UUID string generated at registration time and is
// used as the foreign key for session tokens and authorization codes.
// Users are created once at registration and never physically deleted.
//
// Fields:
//  ID           – UUID primary key of the user.
//  Username     – unique human-chosen name.
//  PasswordHash – bcrypt hashed password (self-describing: algorithm,
//                 cost and salt are encoded in the digest itself).
//  CreatedAt    – timestamp of registration.
type User struct {
	ID           string    // users.id
	Username     string    // users.username
	PasswordHash string    // users.password_hash
	CreatedAt    time.Time // users.created_at
}
