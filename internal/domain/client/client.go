// Package client holds the client directory the wizard picks clients from.
package client

import (
	"fmt"
	"strings"
	"time"

	"github.com/Kilat-Travel/service-booking/internal/domain"
	"github.com/Kilat-Travel/service-booking/internal/domain/wizard"
	"github.com/google/uuid"
)

// ClientStatus represents the lifecycle state of a client record.
type ClientStatus string

const (
	ClientStatusActive   ClientStatus = "active"
	ClientStatusArchived ClientStatus = "archived"
)

// Client is the aggregate root for a client record.
type Client struct {
	id             uuid.UUID
	clientType     wizard.ClientType
	name           string
	companyName    string
	email          string
	phone          string
	nationality    string
	passportNumber string
	passportExpiry *time.Time
	notes          string
	status         ClientStatus
	version        int64
	createdAt      time.Time
	updatedAt      time.Time
}

// Profile carries the editable fields of a client.
type Profile struct {
	Type           wizard.ClientType
	Name           string
	CompanyName    string
	Email          string
	Phone          string
	Nationality    string
	PassportNumber string
	PassportExpiry *time.Time
	Notes          string
}

// NewClient creates a new active client with validated fields.
func NewClient(p Profile) (*Client, error) {
	if p.Type == "" {
		p.Type = wizard.ClientB2C
	}
	if !p.Type.IsValid() {
		return nil, domain.NewValidationError(fmt.Sprintf("invalid client type: %s", p.Type))
	}
	if strings.TrimSpace(p.Name) == "" {
		return nil, domain.NewValidationError("client name is required")
	}
	if p.Type == wizard.ClientB2B && strings.TrimSpace(p.CompanyName) == "" {
		return nil, domain.NewValidationError("company name is required for B2B clients")
	}

	now := time.Now().UTC()
	return &Client{
		id:             uuid.New(),
		clientType:     p.Type,
		name:           strings.TrimSpace(p.Name),
		companyName:    p.CompanyName,
		email:          strings.ToLower(strings.TrimSpace(p.Email)),
		phone:          p.Phone,
		nationality:    strings.ToUpper(p.Nationality),
		passportNumber: p.PassportNumber,
		passportExpiry: p.PassportExpiry,
		notes:          p.Notes,
		status:         ClientStatusActive,
		version:        1,
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

// Reconstruct rebuilds a Client from persistence data (no validation).
func Reconstruct(
	id uuid.UUID,
	p Profile,
	status ClientStatus,
	version int64,
	createdAt, updatedAt time.Time,
) *Client {
	return &Client{
		id:             id,
		clientType:     p.Type,
		name:           p.Name,
		companyName:    p.CompanyName,
		email:          p.Email,
		phone:          p.Phone,
		nationality:    p.Nationality,
		passportNumber: p.PassportNumber,
		passportExpiry: p.PassportExpiry,
		notes:          p.Notes,
		status:         status,
		version:        version,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

func (c *Client) ID() uuid.UUID                 { return c.id }
func (c *Client) Type() wizard.ClientType       { return c.clientType }
func (c *Client) Name() string                  { return c.name }
func (c *Client) CompanyName() string           { return c.companyName }
func (c *Client) Email() string                 { return c.email }
func (c *Client) Phone() string                 { return c.phone }
func (c *Client) Nationality() string           { return c.nationality }
func (c *Client) PassportNumber() string        { return c.passportNumber }
func (c *Client) PassportExpiry() *time.Time    { return c.passportExpiry }
func (c *Client) Notes() string                 { return c.notes }
func (c *Client) Status() ClientStatus          { return c.status }
func (c *Client) Version() int64                { return c.version }
func (c *Client) CreatedAt() time.Time          { return c.createdAt }
func (c *Client) UpdatedAt() time.Time          { return c.updatedAt }

// Profile returns the editable fields.
func (c *Client) Profile() Profile {
	return Profile{
		Type:           c.clientType,
		Name:           c.name,
		CompanyName:    c.companyName,
		Email:          c.email,
		Phone:          c.phone,
		Nationality:    c.nationality,
		PassportNumber: c.passportNumber,
		PassportExpiry: c.passportExpiry,
		Notes:          c.notes,
	}
}

// Update applies partial updates. Empty fields are left unchanged.
func (c *Client) Update(p Profile) error {
	if p.Type != "" {
		if !p.Type.IsValid() {
			return domain.NewValidationError(fmt.Sprintf("invalid client type: %s", p.Type))
		}
		c.clientType = p.Type
	}
	if p.Name != "" {
		c.name = strings.TrimSpace(p.Name)
	}
	if p.CompanyName != "" {
		c.companyName = p.CompanyName
	}
	if p.Email != "" {
		c.email = strings.ToLower(strings.TrimSpace(p.Email))
	}
	if p.Phone != "" {
		c.phone = p.Phone
	}
	if p.Nationality != "" {
		c.nationality = strings.ToUpper(p.Nationality)
	}
	if p.PassportNumber != "" {
		c.passportNumber = p.PassportNumber
	}
	if p.PassportExpiry != nil {
		c.passportExpiry = p.PassportExpiry
	}
	if p.Notes != "" {
		c.notes = p.Notes
	}
	if c.clientType == wizard.ClientB2B && c.companyName == "" {
		return domain.NewValidationError("company name is required for B2B clients")
	}
	c.updatedAt = time.Now().UTC()
	return nil
}

// Archive hides the client from searches. Existing bookings keep their copy.
func (c *Client) Archive() {
	c.status = ClientStatusArchived
	c.updatedAt = time.Now().UTC()
}

// IsActive returns true if the client can be attached to new bookings.
func (c *Client) IsActive() bool {
	return c.status == ClientStatusActive
}

// IncrementVersion bumps the version for optimistic locking.
func (c *Client) IncrementVersion() {
	c.version++
}

// Snapshot returns the immutable value the wizard attaches.
func (c *Client) Snapshot() *wizard.Client {
	return &wizard.Client{
		ID:             c.id,
		Type:           c.clientType,
		Name:           c.name,
		Email:          c.email,
		Phone:          c.phone,
		Nationality:    c.nationality,
		PassportNumber: c.passportNumber,
		PassportExpiry: c.passportExpiry,
	}
}
