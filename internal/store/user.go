package store

import "database/sql"

// InsertUser stores a newly registered user.
func (db *DB) InsertUser(u *User) error {
	_, err := db.Exec(`
		INSERT INTO users (uid, email, password_hash, display_name, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		u.UID, u.Email, u.PasswordHash, u.DisplayName, u.CreatedAt)
	return err
}

// GetUser returns a user by uid, or nil if none exists.
func (db *DB) GetUser(uid string) (*User, error) {
	var u User
	err := db.QueryRow(`
		SELECT uid, email, password_hash, display_name, created_at
		FROM users WHERE uid = ?`, uid).
		Scan(&u.UID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByEmail returns a user by email, or nil if none exists.
func (db *DB) GetUserByEmail(email string) (*User, error) {
	var u User
	err := db.QueryRow(`
		SELECT uid, email, password_hash, display_name, created_at
		FROM users WHERE email = ?`, email).
		Scan(&u.UID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
