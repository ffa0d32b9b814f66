package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	log "github.com/sirupsen/logrus"

	"github.com/olugbengaakindele/handyhubclean/internal/models"
)

// ErrEmailTaken is returned by CreateUser when the email already has an
// account.
var ErrEmailTaken = fmt.Errorf("email is already registered")

// CreateUser inserts a user row and its profile row in a single transaction.
// Every account gets a profile at creation time, so no caller ever has to
// probe for one.
func CreateUser(email, passwordHash, role string, profile models.UserProfile) (models.User, error) {
	var user models.User

	tx, err := DB.Begin()
	if err != nil {
		return user, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRow(`
        INSERT INTO users (email, password_hash, role, created_at, updated_at)
        VALUES ($1, $2, $3, NOW(), NOW())
        RETURNING id, email, password_hash, role, last_seen_at, created_at, updated_at`,
		email, passwordHash, role).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.Role, &user.LastSeenAt, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return user, ErrEmailTaken
		}
		log.WithError(err).WithField("email", email).Error("CreateUser: failed to insert user")
		return user, err
	}

	_, err = tx.Exec(`
        INSERT INTO user_profiles (user_id, first_name, last_name, preferred_name, business_name, summary, phone, city, province, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())`,
		user.ID, profile.FirstName, profile.LastName, profile.PreferredName,
		profile.BusinessName, profile.Summary, profile.Phone, profile.City, profile.Province)
	if err != nil {
		log.WithError(err).WithField("user_id", user.ID).Error("CreateUser: failed to insert profile")
		return user, err
	}

	if err = tx.Commit(); err != nil {
		return user, fmt.Errorf("failed to commit user creation: %w", err)
	}
	log.WithFields(log.Fields{"user_id": user.ID, "role": role}).Info("Registered new user.")
	return user, nil
}

// GetUserByID retrieves a user by primary key.
func GetUserByID(id int64) (models.User, error) {
	var u models.User
	err := DB.QueryRow(`
        SELECT id, email, password_hash, role, last_seen_at, created_at, updated_at
        FROM users WHERE id = $1`, id).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.LastSeenAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if err != sql.ErrNoRows {
			log.WithError(err).WithField("user_id", id).Error("GetUserByID: query failed")
		}
		return u, err
	}
	return u, nil
}

// GetUserByEmail retrieves a user by email, for login.
func GetUserByEmail(email string) (models.User, error) {
	var u models.User
	err := DB.QueryRow(`
        SELECT id, email, password_hash, role, last_seen_at, created_at, updated_at
        FROM users WHERE email = $1`, email).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.LastSeenAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if err != sql.ErrNoRows {
			log.WithError(err).WithField("email", email).Error("GetUserByEmail: query failed")
		}
		return u, err
	}
	return u, nil
}

// GetUserProfile retrieves the profile row for a user. Profiles are created
// with the user, so sql.ErrNoRows here indicates a deleted account.
func GetUserProfile(userID int64) (models.UserProfile, error) {
	var p models.UserProfile
	err := DB.QueryRow(`
        SELECT user_id, first_name, last_name, preferred_name, business_name, summary, phone, city, province, created_at, updated_at
        FROM user_profiles WHERE user_id = $1`, userID).Scan(
		&p.UserID, &p.FirstName, &p.LastName, &p.PreferredName, &p.BusinessName,
		&p.Summary, &p.Phone, &p.City, &p.Province, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err != sql.ErrNoRows {
			log.WithError(err).WithField("user_id", userID).Error("GetUserProfile: query failed")
		}
		return p, err
	}
	return p, nil
}

// UpdateLastSeen stamps the user's presence marker. Callers throttle how
// often this runs; the query itself is a plain overwrite.
func UpdateLastSeen(userID int64, seenAt time.Time) error {
	_, err := DB.Exec(`UPDATE users SET last_seen_at = $2 WHERE id = $1`, userID, seenAt)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("UpdateLastSeen: update failed")
	}
	return err
}
