package repository

import (
	"database/sql"
	"time"

	"rmc-erp/internal/entity"
)

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func dateTimeArg(d *entity.DateTime) interface{} {
	if !d.IsSet() {
		return nil
	}
	return d.UTC()
}

func dateArg(d *entity.Date) interface{} {
	if !d.IsSet() {
		return nil
	}
	return d.UTC()
}

func dateTimeValue(n sql.NullTime) *entity.DateTime {
	if !n.Valid || n.Time.IsZero() {
		return nil
	}
	return entity.NewDateTime(n.Time)
}

func dateValue(n sql.NullTime) *entity.Date {
	if !n.Valid || n.Time.IsZero() {
		return nil
	}
	return entity.NewDate(n.Time)
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func utc(t time.Time) time.Time {
	return t.UTC()
}
