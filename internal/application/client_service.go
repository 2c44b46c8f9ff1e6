package application

import (
	"context"
	"fmt"
	"time"

	"github.com/Kilat-Travel/service-booking/internal/domain"
	clientDomain "github.com/Kilat-Travel/service-booking/internal/domain/client"
	"github.com/Kilat-Travel/service-booking/internal/domain/wizard"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ClientRequest is the request DTO for creating or updating a client record.
type ClientRequest struct {
	Type           string     `json:"client_type"`
	Name           string     `json:"name"`
	CompanyName    string     `json:"company_name"`
	Email          string     `json:"email" binding:"omitempty,email"`
	Phone          string     `json:"phone"`
	Nationality    string     `json:"nationality" binding:"omitempty,len=2"`
	PassportNumber string     `json:"passport_number"`
	PassportExpiry *time.Time `json:"passport_expiry"`
	Notes          string     `json:"notes"`
}

func (r ClientRequest) profile() clientDomain.Profile {
	return clientDomain.Profile{
		Type:           wizard.ClientType(r.Type),
		Name:           r.Name,
		CompanyName:    r.CompanyName,
		Email:          r.Email,
		Phone:          r.Phone,
		Nationality:    r.Nationality,
		PassportNumber: r.PassportNumber,
		PassportExpiry: r.PassportExpiry,
		Notes:          r.Notes,
	}
}

// ClientDTO is the API response representation of a client record.
type ClientDTO struct {
	ID             uuid.UUID  `json:"id"`
	Type           string     `json:"client_type"`
	Name           string     `json:"name"`
	CompanyName    string     `json:"company_name,omitempty"`
	Email          string     `json:"email,omitempty"`
	Phone          string     `json:"phone,omitempty"`
	Nationality    string     `json:"nationality,omitempty"`
	PassportNumber string     `json:"passport_number,omitempty"`
	PassportExpiry *time.Time `json:"passport_expiry,omitempty"`
	Notes          string     `json:"notes,omitempty"`
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// ClientService implements use cases for the client directory.
type ClientService struct {
	repo   clientDomain.ClientRepository
	logger *zap.Logger
}

// NewClientService creates a new ClientService.
func NewClientService(repo clientDomain.ClientRepository, logger *zap.Logger) *ClientService {
	return &ClientService{repo: repo, logger: logger}
}

// CreateClient adds a client to the directory.
func (s *ClientService) CreateClient(ctx context.Context, req ClientRequest) (*ClientDTO, error) {
	c, err := clientDomain.NewClient(req.profile())
	if err != nil {
		return nil, fmt.Errorf("invalid client data: %w", err)
	}

	if err := s.repo.Save(ctx, c); err != nil {
		s.logger.Error("failed to create client", zap.Error(err))
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	s.logger.Info("client created",
		zap.String("client_id", c.ID().String()),
		zap.String("client_type", string(c.Type())),
	)
	result := toClientDTO(c)
	return &result, nil
}

// SearchClients returns active clients matching the query.
func (s *ClientService) SearchClients(ctx context.Context, query string, page, limit int) (*domain.PaginatedResult[ClientDTO], error) {
	clients, total, err := s.repo.Search(ctx, query, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search clients: %w", err)
	}
	dtos := make([]ClientDTO, len(clients))
	for i, c := range clients {
		dtos[i] = toClientDTO(c)
	}
	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

// GetClient returns a single client record.
func (s *ClientService) GetClient(ctx context.Context, clientID uuid.UUID) (*ClientDTO, error) {
	c, err := s.repo.FindByID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	result := toClientDTO(c)
	return &result, nil
}

// ClientSnapshot returns the value the wizard attaches. Archived clients cannot be selected.
func (s *ClientService) ClientSnapshot(ctx context.Context, clientID uuid.UUID) (*wizard.Client, error) {
	c, err := s.repo.FindByID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if !c.IsActive() {
		return nil, domain.NewValidationError(fmt.Sprintf("client %s is archived", clientID))
	}
	return c.Snapshot(), nil
}

// UpdateClient applies a partial update.
func (s *ClientService) UpdateClient(ctx context.Context, clientID uuid.UUID, req ClientRequest) (*ClientDTO, error) {
	c, err := s.repo.FindByID(ctx, clientID)
	if err != nil {
		return nil, err
	}

	if err := c.Update(req.profile()); err != nil {
		return nil, err
	}

	c.IncrementVersion()
	if err := s.repo.Update(ctx, c); err != nil {
		s.logger.Error("failed to update client", zap.Error(err))
		return nil, fmt.Errorf("failed to update client: %w", err)
	}

	s.logger.Info("client updated", zap.String("client_id", clientID.String()))
	result := toClientDTO(c)
	return &result, nil
}

// ArchiveClient hides a client from the directory.
func (s *ClientService) ArchiveClient(ctx context.Context, clientID uuid.UUID) error {
	c, err := s.repo.FindByID(ctx, clientID)
	if err != nil {
		return err
	}

	c.Archive()
	c.IncrementVersion()
	if err := s.repo.Update(ctx, c); err != nil {
		s.logger.Error("failed to archive client", zap.Error(err))
		return fmt.Errorf("failed to archive client: %w", err)
	}

	s.logger.Info("client archived", zap.String("client_id", clientID.String()))
	return nil
}

func toClientDTO(c *clientDomain.Client) ClientDTO {
	return ClientDTO{
		ID:             c.ID(),
		Type:           string(c.Type()),
		Name:           c.Name(),
		CompanyName:    c.CompanyName(),
		Email:          c.Email(),
		Phone:          c.Phone(),
		Nationality:    c.Nationality(),
		PassportNumber: c.PassportNumber(),
		PassportExpiry: c.PassportExpiry(),
		Notes:          c.Notes(),
		Status:         string(c.Status()),
		CreatedAt:      c.CreatedAt(),
		UpdatedAt:      c.UpdatedAt(),
	}
}
