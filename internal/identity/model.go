package identity

import "time"

// User represents a registered trader able to hold assets and balances.
type User struct {
	ID           string
	Email        string
	PINHash      []byte
	TokenVersion int
	CreatedAt    time.Time
	LastLogin    time.Time
}

// Credentials request structure.
type Credentials struct {
	Email string
	PIN   string
}
