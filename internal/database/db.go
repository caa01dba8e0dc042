package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Open connects to MySQL and verifies the connection.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, host, port, name)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates the ledger tables when they do not exist yet.  The
// UNIQUE key on (res_date, slot) is the storage-level guard that keeps
// two active reservations from ever holding the same slot.
func Migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS reservations (
			id CHAR(36) NOT NULL PRIMARY KEY,
			res_date DATE NOT NULL,
			slots TEXT NOT NULL,
			name VARCHAR(191) NOT NULL,
			email VARCHAR(191) NOT NULL,
			phone VARCHAR(32) NOT NULL,
			amount_cents BIGINT NOT NULL,
			currency CHAR(3) NOT NULL,
			status ENUM('PENDING','PAID','FAILED','EXPIRED') NOT NULL DEFAULT 'PENDING',
			hold_deadline DATETIME NULL,
			payment_ref VARCHAR(191) NULL,
			pay_url TEXT NULL,
			sms_status ENUM('UNSET','PENDING','SENT','FAILED') NOT NULL DEFAULT 'UNSET',
			email_status ENUM('UNSET','PENDING','SENT','FAILED') NOT NULL DEFAULT 'UNSET',
			last_payment_note VARCHAR(255) NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			KEY idx_status_deadline (status, hold_deadline),
			KEY idx_payment_ref (payment_ref)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS reservation_slots (
			id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
			reservation_id CHAR(36) NOT NULL,
			res_date DATE NOT NULL,
			slot VARCHAR(32) NOT NULL,
			UNIQUE KEY uq_date_slot (res_date, slot),
			KEY idx_reservation (reservation_id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	return nil
}
