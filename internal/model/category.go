package model

import "time"

// Category represents a user-owned spending category.
type Category struct {
	CreatedAt time.Time
	Name      string
	UserID    string
	ID        int64
	IsActive  bool
}

// Account represents a financial account owned by a user. Only the fields
// the import pipeline needs are modeled here; the surrounding system owns
// the rest.
type Account struct {
	ID       string
	UserID   string
	Name     string
	IsActive bool
}
