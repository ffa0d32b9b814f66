// internal/db/db.go
package db

import (
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	log "github.com/sirupsen/logrus"
)

// DB is the shared connection pool. Initialized once by InitDB.
var DB *sql.DB

// InitDB opens the database connection, creates the schema if needed, runs
// idempotent migrations and builds indexes.
func InitDB() error {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return fmt.Errorf("DATABASE_URL is not set")
	}

	var err error
	DB, err = sql.Open("postgres", dbURL)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	DB.SetMaxOpenConns(50)
	DB.SetMaxIdleConns(20)
	DB.SetConnMaxLifetime(5 * time.Minute)

	if err := DB.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	log.Info("Connected to database.")

	tx, err := DB.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin schema transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			log.WithError(err).Error("Rolling back schema transaction.")
			tx.Rollback()
		}
	}()

	createTablesSQL := `
        CREATE TABLE IF NOT EXISTS users (
            id BIGSERIAL PRIMARY KEY,
            email TEXT UNIQUE NOT NULL,
            password_hash TEXT NOT NULL,
            role TEXT NOT NULL CHECK (role IN ('visitor', 'tradesperson', 'admin')),
            last_seen_at TIMESTAMPTZ,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );
        CREATE TABLE IF NOT EXISTS user_profiles (
            user_id BIGINT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
            first_name TEXT NOT NULL,
            last_name TEXT NOT NULL,
            preferred_name TEXT NOT NULL DEFAULT '',
            business_name TEXT,
            summary TEXT,
            phone TEXT,
            city TEXT NOT NULL DEFAULT '',
            province TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );
        CREATE TABLE IF NOT EXISTS service_categories (
            id BIGSERIAL PRIMARY KEY,
            name TEXT UNIQUE NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );
        CREATE TABLE IF NOT EXISTS service_subcategories (
            id BIGSERIAL PRIMARY KEY,
            category_id BIGINT NOT NULL REFERENCES service_categories(id) ON DELETE CASCADE,
            name TEXT NOT NULL,
            UNIQUE (category_id, name)
        );
        CREATE TABLE IF NOT EXISTS tradesperson_services (
            user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            subcategory_id BIGINT NOT NULL REFERENCES service_subcategories(id) ON DELETE CASCADE,
            PRIMARY KEY (user_id, subcategory_id)
        );
        CREATE TABLE IF NOT EXISTS conversations (
            id UUID PRIMARY KEY,
            initiator_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            recipient_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            last_message_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            initiator_last_notified_at TIMESTAMPTZ,
            recipient_last_notified_at TIMESTAMPTZ,
            CHECK (initiator_id <> recipient_id)
        );
        CREATE TABLE IF NOT EXISTS messages (
            id BIGSERIAL PRIMARY KEY,
            conversation_id UUID NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
            sender_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            content TEXT NOT NULL DEFAULT '',
            is_read BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );
        CREATE TABLE IF NOT EXISTS attachments (
            message_id BIGINT PRIMARY KEY REFERENCES messages(id) ON DELETE CASCADE,
            storage_key TEXT NOT NULL,
            mime_type TEXT NOT NULL DEFAULT '',
            size_bytes BIGINT NOT NULL DEFAULT 0,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );
    `
	_, err = tx.Exec(createTablesSQL)
	if err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("failed to commit schema transaction: %w", err)
	}
	log.Info("Table creation (if not exists) finished.")

	if err = migrateDBSchema(); err != nil {
		return fmt.Errorf("failed to run schema migrations: %w", err)
	}

	// The unordered-pair uniqueness for conversations needs a functional
	// index, which CREATE TABLE cannot express inline.
	createIndexesSQL := `
        CREATE UNIQUE INDEX IF NOT EXISTS uniq_conversation_pair
            ON conversations (LEAST(initiator_id, recipient_id), GREATEST(initiator_id, recipient_id));
        CREATE INDEX IF NOT EXISTS idx_conversations_initiator_last_message
            ON conversations (initiator_id, last_message_at DESC);
        CREATE INDEX IF NOT EXISTS idx_conversations_recipient_last_message
            ON conversations (recipient_id, last_message_at DESC);
        CREATE INDEX IF NOT EXISTS idx_messages_conversation_id ON messages (conversation_id, id);
        CREATE INDEX IF NOT EXISTS idx_messages_unread ON messages (conversation_id, sender_id) WHERE NOT is_read;
        CREATE INDEX IF NOT EXISTS idx_users_last_seen_at ON users (last_seen_at);
        CREATE INDEX IF NOT EXISTS idx_subcategories_category_id ON service_subcategories (category_id);
        CREATE INDEX IF NOT EXISTS idx_tradesperson_services_subcategory ON tradesperson_services (subcategory_id);
    `
	indexStatements := strings.Split(strings.TrimSpace(createIndexesSQL), ";")
	for _, stmt := range indexStatements {
		trimmedStmt := strings.TrimSpace(stmt)
		if trimmedStmt == "" {
			continue
		}
		if _, errIdx := DB.Exec(trimmedStmt); errIdx != nil {
			log.WithError(errIdx).Warnf("Failed to create index: %s", trimmedStmt)
		}
	}
	log.Info("Index creation (if not exists) finished.")

	log.Info("Database initialization finished.")
	return nil
}

// migrateDBSchema applies idempotent schema changes for databases created by
// earlier builds.
func migrateDBSchema() error {
	migrations := []struct {
		name string
		sql  string
	}{
		{
			name: "user_profiles.business_name",
			sql:  `ALTER TABLE user_profiles ADD COLUMN IF NOT EXISTS business_name TEXT;`,
		},
		{
			name: "user_profiles.summary",
			sql:  `ALTER TABLE user_profiles ADD COLUMN IF NOT EXISTS summary TEXT;`,
		},
		{
			name: "conversations.notified_at_columns",
			sql: `ALTER TABLE conversations
                  ADD COLUMN IF NOT EXISTS initiator_last_notified_at TIMESTAMPTZ,
                  ADD COLUMN IF NOT EXISTS recipient_last_notified_at TIMESTAMPTZ;`,
		},
		{
			name: "attachments.mime_and_size",
			sql: `ALTER TABLE attachments
                  ADD COLUMN IF NOT EXISTS mime_type TEXT NOT NULL DEFAULT '',
                  ADD COLUMN IF NOT EXISTS size_bytes BIGINT NOT NULL DEFAULT 0;`,
		},
	}

	for _, migration := range migrations {
		if _, err := DB.Exec(migration.sql); err != nil {
			if strings.Contains(err.Error(), "already exists") {
				log.WithField("migration", migration.name).Info("Migration skipped, object already exists.")
				continue
			}
			return fmt.Errorf("migration %q failed: %w", migration.name, err)
		}
	}
	return nil
}

// CloseDB closes the shared connection pool.
func CloseDB() {
	if DB != nil {
		DB.Close()
		log.Info("Database connection closed.")
	}
}
