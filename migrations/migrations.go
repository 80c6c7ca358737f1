package migrations

import (
	"database/sql"
	"fmt"
	"time"
)

// The DDL below sticks to column types and inline constraints that MySQL and SQLite
// both accept. Ids are assigned by the application.

const usersTable = `
	CREATE TABLE IF NOT EXISTS users (
		id BIGINT PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		email VARCHAR(150) NOT NULL UNIQUE,
		number VARCHAR(20) NULL UNIQUE,
		address VARCHAR(500) NOT NULL DEFAULT '',
		role VARCHAR(16) NOT NULL,
		approval_status VARCHAR(32) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		created_at DATETIME NOT NULL
	)
`

const ordersTable = `
	CREATE TABLE IF NOT EXISTS orders (
		id BIGINT PRIMARY KEY,
		order_id VARCHAR(32) NOT NULL UNIQUE,
		user_id BIGINT NOT NULL,
		grade VARCHAR(16) NOT NULL,
		quantity DOUBLE NOT NULL,
		total_price DOUBLE NOT NULL,
		address VARCHAR(500) NOT NULL,
		status VARCHAR(32) NOT NULL,
		delivery_date DATETIME NULL,
		scheduled_date DATETIME NULL,
		approved_at DATETIME NULL,
		production_date DATE NULL,
		production_slot_start DATETIME NULL,
		production_slot_end DATETIME NULL,
		plant_allocation VARCHAR(100) NOT NULL DEFAULT '',
		priority_level VARCHAR(16) NOT NULL DEFAULT '',
		dispatch_date_time DATETIME NULL,
		trip_planning VARCHAR(32) NOT NULL DEFAULT '',
		delivery_sequence VARCHAR(255) NOT NULL DEFAULT '',
		expected_arrival_time DATETIME NULL,
		transit_mixer_number VARCHAR(64) NOT NULL DEFAULT '',
		driver_name VARCHAR(100) NOT NULL DEFAULT '',
		driver_shift VARCHAR(32) NOT NULL DEFAULT '',
		backup_transit_mixer_number VARCHAR(64) NOT NULL DEFAULT '',
		backup_driver_name VARCHAR(100) NOT NULL DEFAULT '',
		last_rescheduled_at DATETIME NULL,
		reschedule_reason VARCHAR(500) NOT NULL DEFAULT '',
		latest_notification VARCHAR(255) NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		version BIGINT NOT NULL DEFAULT 0
	)
`

const paymentsTable = `
	CREATE TABLE IF NOT EXISTS payments (
		id BIGINT PRIMARY KEY,
		order_id VARCHAR(32) NOT NULL,
		user_id BIGINT NOT NULL,
		amount DOUBLE NOT NULL,
		method VARCHAR(32) NOT NULL,
		paid_at DATETIME NOT NULL,
		transaction_id VARCHAR(64) NOT NULL UNIQUE,
		idempotency_key VARCHAR(128) NOT NULL,
		UNIQUE (user_id, idempotency_key)
	)
`

const plantsTable = `
	CREATE TABLE IF NOT EXISTS plants (
		id BIGINT PRIMARY KEY,
		plant_name VARCHAR(100) NOT NULL UNIQUE,
		created_at DATETIME NOT NULL
	)
`

const mixersTable = `
	CREATE TABLE IF NOT EXISTS transit_mixers (
		id BIGINT PRIMARY KEY,
		mixer_number VARCHAR(64) NOT NULL UNIQUE,
		created_at DATETIME NOT NULL
	)
`

const assignmentsTable = `
	CREATE TABLE IF NOT EXISTS order_assignments (
		id BIGINT PRIMARY KEY,
		order_id VARCHAR(32) NOT NULL UNIQUE,
		plant_id BIGINT NOT NULL,
		mixer_id BIGINT NULL,
		backup_mixer_id BIGINT NULL,
		driver_name VARCHAR(100) NOT NULL DEFAULT '',
		backup_driver_name VARCHAR(100) NOT NULL DEFAULT '',
		priority_level VARCHAR(16) NOT NULL DEFAULT '',
		plant_allocation VARCHAR(100) NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	)
`

func migrate(name, query string, retries int, dbs ...*sql.DB) error {
	for i, db := range dbs {
		_, err := db.Exec(query)
		if err != nil {
			// Retry creating the table
			for attempt := 0; attempt < retries; attempt++ {
				time.Sleep(1 * time.Second)
				_, err = db.Exec(query)
				if err == nil {
					break
				}
			}
		}
		if err != nil {
			return fmt.Errorf("create %s table on shard %d: %w", name, i, err)
		}
	}
	return nil
}

// AutoMigrateUsers creates the users table. Only the primary shard holds users.
func AutoMigrateUsers(retries int, primary *sql.DB) error {
	return migrate("users", usersTable, retries, primary)
}

// AutoMigrateOrders creates the orders table on every shard.
func AutoMigrateOrders(retries int, dbs ...*sql.DB) error {
	return migrate("orders", ordersTable, retries, dbs...)
}

// AutoMigratePayments creates the payments table on every shard. Payments live on
// the shard of their order.
func AutoMigratePayments(retries int, dbs ...*sql.DB) error {
	return migrate("payments", paymentsTable, retries, dbs...)
}

// AutoMigrateFleet creates the plant, mixer and assignment registries on the primary
// shard. Assignments refer to orders by order id since orders live on any shard.
func AutoMigrateFleet(retries int, primary *sql.DB) error {
	for _, t := range []struct{ name, query string }{
		{"plants", plantsTable},
		{"transit_mixers", mixersTable},
		{"order_assignments", assignmentsTable},
	} {
		if err := migrate(t.name, t.query, retries, primary); err != nil {
			return err
		}
	}
	return nil
}

// AutoMigrate runs every migration.
func AutoMigrate(retries int, dbs ...*sql.DB) error {
	if len(dbs) == 0 {
		return fmt.Errorf("no database shards configured")
	}
	if err := AutoMigrateUsers(retries, dbs[0]); err != nil {
		return err
	}
	if err := AutoMigrateFleet(retries, dbs[0]); err != nil {
		return err
	}
	if err := AutoMigrateOrders(retries, dbs...); err != nil {
		return err
	}
	return AutoMigratePayments(retries, dbs...)
}
