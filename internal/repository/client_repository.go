package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Kilat-Travel/service-booking/internal/domain"
	clientDomain "github.com/Kilat-Travel/service-booking/internal/domain/client"
	"github.com/Kilat-Travel/service-booking/internal/domain/wizard"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ClientModel is the GORM model for the clients table.
type ClientModel struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Type           string     `gorm:"type:varchar(3);not null"`
	Name           string     `gorm:"type:varchar(200);not null"`
	CompanyName    string     `gorm:"type:varchar(200)"`
	Email          string     `gorm:"type:varchar(255);index"`
	Phone          string     `gorm:"type:varchar(50)"`
	Nationality    string     `gorm:"type:varchar(2)"`
	PassportNumber string     `gorm:"type:varchar(50)"`
	PassportExpiry *time.Time `gorm:"type:date"`
	Notes          string     `gorm:"type:varchar(1000)"`
	Status         string     `gorm:"type:varchar(20);not null;default:'active'"`
	Version        int64      `gorm:"not null;default:1"`
	CreatedAt      time.Time  `gorm:"not null"`
	UpdatedAt      time.Time  `gorm:"not null"`
}

func (ClientModel) TableName() string { return "clients" }

// GormClientRepository implements ClientRepository using GORM.
type GormClientRepository struct {
	db *gorm.DB
}

func NewGormClientRepository(db *gorm.DB) *GormClientRepository {
	return &GormClientRepository{db: db}
}

func (r *GormClientRepository) FindByID(ctx context.Context, id uuid.UUID) (*clientDomain.Client, error) {
	var model ClientModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Client", id.String())
		}
		return nil, err
	}
	return toClientDomain(&model), nil
}

// Search matches the query against name, company and email of active clients. An empty query lists all.
func (r *GormClientRepository) Search(ctx context.Context, query string, page, limit int) ([]*clientDomain.Client, int64, error) {
	q := r.db.WithContext(ctx).Model(&ClientModel{}).Where("status = ?", string(clientDomain.ClientStatusActive))
	if term := strings.ToLower(strings.TrimSpace(query)); term != "" {
		like := "%" + term + "%"
		q = q.Where("lower(name) LIKE ? OR lower(company_name) LIKE ? OR lower(email) LIKE ?", like, like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var models []ClientModel
	if err := q.Order("name ASC").Offset((page - 1) * limit).Limit(limit).Find(&models).Error; err != nil {
		return nil, 0, err
	}
	clients := make([]*clientDomain.Client, len(models))
	for i := range models {
		clients[i] = toClientDomain(&models[i])
	}
	return clients, total, nil
}

func (r *GormClientRepository) Save(ctx context.Context, c *clientDomain.Client) error {
	return r.db.WithContext(ctx).Create(toClientModel(c)).Error
}

func (r *GormClientRepository) Update(ctx context.Context, c *clientDomain.Client) error {
	model := toClientModel(c)
	previousVersion := c.Version() - 1

	result := r.db.WithContext(ctx).
		Model(&ClientModel{}).
		Where("id = ? AND version = ?", model.ID, previousVersion).
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("client was modified by another transaction")
	}
	return nil
}

// --- Conversions ---

func toClientModel(c *clientDomain.Client) *ClientModel {
	return &ClientModel{
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
		Version:        c.Version(),
		CreatedAt:      c.CreatedAt(),
		UpdatedAt:      c.UpdatedAt(),
	}
}

func toClientDomain(m *ClientModel) *clientDomain.Client {
	return clientDomain.Reconstruct(
		m.ID,
		clientDomain.Profile{
			Type:           wizard.ClientType(m.Type),
			Name:           m.Name,
			CompanyName:    m.CompanyName,
			Email:          m.Email,
			Phone:          m.Phone,
			Nationality:    m.Nationality,
			PassportNumber: m.PassportNumber,
			PassportExpiry: m.PassportExpiry,
			Notes:          m.Notes,
		},
		clientDomain.ClientStatus(m.Status),
		m.Version,
		m.CreatedAt, m.UpdatedAt,
	)
}
