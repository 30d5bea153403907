package agencies

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gaslinkhq/gaslink-backend/pkg/db/models"
	pkgerrors "github.com/gaslinkhq/gaslink-backend/pkg/errors"
)

// Repository exposes agency and delivery-agent lookups.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetAgency(ctx context.Context, id uuid.UUID) (*models.Agency, error)
	GetActiveAgent(ctx context.Context, agencyID, agentID uuid.UUID) (*models.DeliveryAgent, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an agency repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) GetAgency(ctx context.Context, id uuid.UUID) (*models.Agency, error) {
	var agency models.Agency
	err := r.db.WithContext(ctx).First(&agency, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "agency not found")
	}
	if err != nil {
		return nil, err
	}
	return &agency, nil
}

func (r *repository) GetActiveAgent(ctx context.Context, agencyID, agentID uuid.UUID) (*models.DeliveryAgent, error) {
	var agent models.DeliveryAgent
	err := r.db.WithContext(ctx).
		Where("id = ? AND agency_id = ? AND is_active = ?", agentID, agencyID, true).
		First(&agent).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "delivery agent not found for agency")
	}
	if err != nil {
		return nil, err
	}
	return &agent, nil
}
