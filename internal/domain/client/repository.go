package client

import (
	"context"

	"github.com/google/uuid"
)

// ClientRepository defines persistence operations for client records.
type ClientRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Client, error)
	// Search matches name, company or email, active clients only.
	Search(ctx context.Context, query string, page, limit int) ([]*Client, int64, error)
	Save(ctx context.Context, client *Client) error
	Update(ctx context.Context, client *Client) error
}
