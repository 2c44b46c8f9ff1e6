package wizard

import (
	"time"

	"github.com/google/uuid"
)

// ClientType discriminates individual and corporate clients.
type ClientType string

const (
	ClientB2C ClientType = "B2C"
	ClientB2B ClientType = "B2B"
)

// IsValid returns true if the client type is recognized.
func (t ClientType) IsValid() bool {
	return t == ClientB2C || t == ClientB2B
}

// Client is the party the booking is made for. It is attached by reference and
// replaced as a whole, never edited field by field inside the wizard.
type Client struct {
	ID             uuid.UUID  `json:"id"`
	Type           ClientType `json:"type"`
	Name           string     `json:"name"`
	Email          string     `json:"email,omitempty"`
	Phone          string     `json:"phone,omitempty"`
	Nationality    string     `json:"nationality,omitempty"`
	PassportNumber string     `json:"passportNumber,omitempty"`
	PassportExpiry *time.Time `json:"passportExpiry,omitempty"`
}
