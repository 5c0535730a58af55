package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/kendall-kelly/custom-orders-api/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CustomOrderRepository persists custom orders. Every read and write is scoped by owner.
type CustomOrderRepository interface {
	// EnsureUser inserts the minimal owner record if it does not exist yet
	EnsureUser(ctx context.Context, ownerID string) error
	// Create inserts a new order in status pending_review and returns its id
	Create(ctx context.Context, order *models.CustomOrder) (uuid.UUID, error)
	// ListByOwner returns the owner's orders newest first, optionally restricted to one status
	ListByOwner(ctx context.Context, ownerID string, status *models.CustomOrderStatus) ([]models.CustomOrder, error)
	// GetByID returns one of the owner's orders or ErrOrderNotFound
	GetByID(ctx context.Context, ownerID string, id uuid.UUID) (*models.CustomOrder, error)
	// CancelIfEligible cancels the order only while it is in a cancellable status.
	// It reports whether a row was changed.
	CancelIfEligible(ctx context.Context, ownerID string, id uuid.UUID) (bool, error)
}

// GormCustomOrderRepository implements CustomOrderRepository with GORM
type GormCustomOrderRepository struct {
	db *gorm.DB
}

// NewCustomOrderRepository creates a repository backed by db
func NewCustomOrderRepository(db *gorm.DB) *GormCustomOrderRepository {
	return &GormCustomOrderRepository{db: db}
}

func (r *GormCustomOrderRepository) EnsureUser(ctx context.Context, ownerID string) error {
	user := models.User{Auth0ID: ownerID}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "auth0_id"}},
			DoNothing: true,
		}).
		Create(&user).Error
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

func (r *GormCustomOrderRepository) Create(ctx context.Context, order *models.CustomOrder) (uuid.UUID, error) {
	order.Status = models.StatusPendingReview
	if len(order.ReferenceImagePaths) == 0 {
		order.ReferenceImagePaths = nil
	}

	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(order).Error; err != nil {
		return uuid.Nil, fmt.Errorf("insert custom order: %w", err)
	}
	return order.ID, nil
}

func (r *GormCustomOrderRepository) ListByOwner(ctx context.Context, ownerID string, status *models.CustomOrderStatus) ([]models.CustomOrder, error) {
	query := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC")
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	orders := make([]models.CustomOrder, 0)
	if err := query.Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("list custom orders: %w", err)
	}
	return orders, nil
}

func (r *GormCustomOrderRepository) GetByID(ctx context.Context, ownerID string, id uuid.UUID) (*models.CustomOrder, error) {
	var order models.CustomOrder
	err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get custom order: %w", err)
	}
	return &order, nil
}

func (r *GormCustomOrderRepository) CancelIfEligible(ctx context.Context, ownerID string, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.CustomOrder{}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Where("status IN ?", models.CancellableStatuses()).
		Update("status", models.StatusCancelled)
	if res.Error != nil {
		return false, fmt.Errorf("cancel custom order: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}
