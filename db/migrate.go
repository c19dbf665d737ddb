package db

import (
	"database/sql"
	"fmt"
	"log"
)

// Migrate creates the schema. Statements are idempotent so the command can be
// re-run safely.
func Migrate(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id CHAR(26) PRIMARY KEY COMMENT 'ULID',
			name VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL UNIQUE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS products (
			id CHAR(26) PRIMARY KEY COMMENT 'ULID',
			name VARCHAR(255) NOT NULL,
			list_price INT NOT NULL,
			floor_price INT NOT NULL COMMENT 'secret minimum acceptable price',
			description TEXT,
			seller_id CHAR(26) NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (seller_id) REFERENCES users(id) ON DELETE CASCADE
		)`,
		// open_slot is 1 while the session is OPEN and NULL otherwise, so the
		// unique key admits at most one OPEN session per (buyer, product) while
		// allowing any number of closed ones.
		`CREATE TABLE IF NOT EXISTS negotiation_sessions (
			id CHAR(26) PRIMARY KEY COMMENT 'ULID',
			buyer_id CHAR(26) NOT NULL,
			product_id CHAR(26) NOT NULL,
			state ENUM('OPEN','DEALT','ABANDONED') NOT NULL DEFAULT 'OPEN',
			open_slot TINYINT AS (IF(state = 'OPEN', 1, NULL)) STORED,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE KEY uq_open_session (buyer_id, product_id, open_slot),
			FOREIGN KEY (buyer_id) REFERENCES users(id) ON DELETE CASCADE,
			FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS turns (
			session_id CHAR(26) NOT NULL,
			seq INT NOT NULL,
			speaker ENUM('buyer','agent') NOT NULL,
			text TEXT NOT NULL,
			proposed_price INT NULL,
			created_at TIMESTAMP(6) DEFAULT CURRENT_TIMESTAMP(6),
			PRIMARY KEY (session_id, seq),
			FOREIGN KEY (session_id) REFERENCES negotiation_sessions(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS agreements (
			session_id CHAR(26) PRIMARY KEY,
			final_price INT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (session_id) REFERENCES negotiation_sessions(id) ON DELETE CASCADE
		)`,
	}

	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			log.Printf("migrate: %v", err)
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
