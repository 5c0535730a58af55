package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/kendall-kelly/custom-orders-api/config"
	"github.com/kendall-kelly/custom-orders-api/models"
	"github.com/kendall-kelly/custom-orders-api/utils"
	"github.com/samber/lo"
)

// undefinedColumnCode is the Postgres SQLSTATE for a missing column
const undefinedColumnCode = "42703"

// optionalColumns were added by later migrations; inserts fail on databases that lack them
var optionalColumns = []string{"reference_image_paths", "completed_image_paths", "generated_model_url"}

// SubmitInput is the raw form data of a custom order submission
type SubmitInput struct {
	Description     string
	SizePreference  string
	SourceImage     *multipart.FileHeader
	ReferenceImages []*multipart.FileHeader
}

// SignedCustomOrder is an order with time-limited links to its images
type SignedCustomOrder struct {
	models.CustomOrder
	SourceImageSignedURL *string
	ReferenceSignedURLs  []string
	CompletedSignedURLs  []string
}

// CancelFailure identifies why a cancel request was refused
type CancelFailure string

const (
	CancelNotAuthenticated CancelFailure = "not_authenticated"
	CancelNotFound         CancelFailure = "not_found"
	CancelInvalidState     CancelFailure = "invalid_state"
	CancelUpdateFailed     CancelFailure = "update_failed"
)

var cancelReasons = map[CancelFailure]string{
	CancelNotAuthenticated: "Authentication is required.",
	CancelNotFound:         "Order not found.",
	CancelInvalidState:     "This order can no longer be cancelled. Only orders that are pending review or have a quote provided can be cancelled.",
	CancelUpdateFailed:     "Something went wrong while cancelling the order.",
}

// CancelResult is the outcome of a cancel request; Reason is set only on failure
type CancelResult struct {
	OK      bool
	Failure CancelFailure
	Reason  string
}

func cancelFailed(f CancelFailure) CancelResult {
	return CancelResult{OK: false, Failure: f, Reason: cancelReasons[f]}
}

// CustomOrderService implements the custom order operations on behalf of an owner
type CustomOrderService struct {
	repo   CustomOrderRepository
	images ImageService
	newID  func() uuid.UUID
}

var customOrderServiceInstance *CustomOrderService

// NewCustomOrderService creates a service over the repository and image storage
func NewCustomOrderService(repo CustomOrderRepository, images ImageService) *CustomOrderService {
	return &CustomOrderService{
		repo:   repo,
		images: images,
		newID:  uuid.New,
	}
}

// InitCustomOrderService initializes the global custom order service
func InitCustomOrderService(repo CustomOrderRepository, images ImageService) *CustomOrderService {
	customOrderServiceInstance = NewCustomOrderService(repo, images)
	return customOrderServiceInstance
}

// GetCustomOrderService returns the initialized custom order service
func GetCustomOrderService() *CustomOrderService {
	return customOrderServiceInstance
}

// SetCustomOrderService sets the custom order service instance (primarily for testing)
func SetCustomOrderService(service *CustomOrderService) {
	customOrderServiceInstance = service
}

// Submit validates the input, uploads the images and creates the order.
// Nothing is uploaded unless validation passes. Images uploaded by a submission
// that later fails are deleted on a best-effort basis.
func (s *CustomOrderService) Submit(ctx context.Context, ownerID string, in SubmitInput) (uuid.UUID, error) {
	logger := config.LoggerFromContext(ctx).With("op", "custom_orders.submit")

	if ownerID == "" {
		logger.Info("not authenticated")
		return uuid.Nil, ErrNotAuthenticated
	}
	logger = logger.With("owner_id", ownerID)

	sub, err := utils.ValidateSubmission(in.Description, in.SizePreference, in.SourceImage, in.ReferenceImages)
	if err != nil {
		logger.Info("validation failed", "error", err)
		return uuid.Nil, err
	}

	// A started submission runs to completion even if the caller goes away
	ctx = context.WithoutCancel(ctx)

	requestID := s.newID()
	logger = logger.With("request_id", requestID)

	uploaded, err := s.images.UploadOrderImages(ctx, ownerID, requestID, sub.SourceImage, sub.ReferenceImages)
	if err != nil {
		logger.Error("image upload failed", "error", err, "uploaded", len(uploaded.Keys()))
		s.images.DeleteImages(ctx, uploaded.Keys())
		return uuid.Nil, fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}

	if err := s.repo.EnsureUser(ctx, ownerID); err != nil {
		logger.Error("user sync failed", "error", err)
		s.images.DeleteImages(ctx, uploaded.Keys())
		return uuid.Nil, fmt.Errorf("%w: %w", ErrUserSyncFailed, err)
	}

	order := &models.CustomOrder{
		OwnerID:             ownerID,
		Description:         sub.Fields.Description,
		SizePreference:      sub.Fields.SizePreference,
		SourceImagePath:     uploaded.SourcePath,
		ReferenceImagePaths: uploaded.ReferencePaths,
	}
	id, err := s.repo.Create(ctx, order)
	if err != nil {
		logger.Error("custom order insert failed", "error", err)
		if isSchemaDrift(err) {
			logger.Warn("hint: run pending migrations, an optional custom_orders column is missing")
		}
		s.images.DeleteImages(ctx, uploaded.Keys())
		return uuid.Nil, fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}

	logger.Info("custom order created", "order_id", id, "references", len(uploaded.ReferencePaths))
	return id, nil
}

func isSchemaDrift(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == undefinedColumnCode {
		return true
	}
	msg := err.Error()
	return lo.ContainsBy(optionalColumns, func(column string) bool {
		return strings.Contains(msg, column)
	})
}

// ListMyOrders returns the owner's orders newest first. statusFilter may be empty or
// "all" for every status. Unauthenticated callers and failed queries get an empty list.
func (s *CustomOrderService) ListMyOrders(ctx context.Context, ownerID, statusFilter string) []models.CustomOrder {
	logger := config.LoggerFromContext(ctx).With("op", "custom_orders.list", "filter_status", statusFilter)

	if ownerID == "" {
		logger.Info("not authenticated")
		return []models.CustomOrder{}
	}

	var status *models.CustomOrderStatus
	if statusFilter != "" && statusFilter != models.StatusFilterAll {
		parsed, err := models.ToCustomOrderStatus(statusFilter)
		if err != nil {
			logger.Info("unknown status filter")
			return []models.CustomOrder{}
		}
		status = &parsed
	}

	orders, err := s.repo.ListByOwner(ctx, ownerID, status)
	if err != nil {
		logger.Error("query failed", "error", err)
		return []models.CustomOrder{}
	}

	logger.Debug("listed custom orders", "count", len(orders))
	return orders
}

// GetMyOrder returns one of the owner's orders, or nil when it is absent, not owned,
// the caller is unauthenticated, or the query fails
func (s *CustomOrderService) GetMyOrder(ctx context.Context, ownerID, orderID string) *models.CustomOrder {
	logger := config.LoggerFromContext(ctx).With("op", "custom_orders.detail", "order_id", orderID)

	if ownerID == "" {
		logger.Info("not authenticated")
		return nil
	}

	id, err := uuid.Parse(orderID)
	if err != nil {
		logger.Info("invalid order id")
		return nil
	}

	order, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			logger.Info("order not found")
		} else {
			logger.Error("query failed", "error", err)
		}
		return nil
	}
	return order
}

// GetMyOrderWithSignedAccess is GetMyOrder plus time-limited image links.
// A link that cannot be signed is left out instead of failing the whole read.
func (s *CustomOrderService) GetMyOrderWithSignedAccess(ctx context.Context, ownerID, orderID string) *SignedCustomOrder {
	order := s.GetMyOrder(ctx, ownerID, orderID)
	if order == nil {
		return nil
	}

	logger := config.LoggerFromContext(ctx).With("op", "custom_orders.detail", "order_id", order.ID)
	result := &SignedCustomOrder{
		CustomOrder:         *order,
		ReferenceSignedURLs: s.signAll(ctx, order.ReferenceImagePaths),
		CompletedSignedURLs: s.signAll(ctx, order.CompletedImagePaths),
	}

	if url, err := s.images.GetSignedURL(ctx, order.SourceImagePath); err != nil {
		logger.Warn("failed to sign source image", "key", order.SourceImagePath, "error", err)
	} else {
		result.SourceImageSignedURL = &url
	}

	logger.Debug("resolved custom order", "status", order.Status)
	return result
}

func (s *CustomOrderService) signAll(ctx context.Context, keys []string) []string {
	logger := config.LoggerFromContext(ctx)
	urls := make([]string, 0, len(keys))
	for _, key := range keys {
		url, err := s.images.GetSignedURL(ctx, key)
		if err != nil {
			logger.Warn("dropping unsignable image", "key", key, "error", err)
			continue
		}
		urls = append(urls, url)
	}
	return urls
}

// CancelMyOrder cancels one of the owner's orders while it is still in an early status.
// The status check and the write are a single conditional update, so a concurrent
// status change can never be overwritten with cancelled.
func (s *CustomOrderService) CancelMyOrder(ctx context.Context, ownerID, orderID string) CancelResult {
	logger := config.LoggerFromContext(ctx).With("op", "custom_orders.cancel", "order_id", orderID)

	if ownerID == "" {
		logger.Info("not authenticated")
		return cancelFailed(CancelNotAuthenticated)
	}

	id, err := uuid.Parse(orderID)
	if err != nil {
		logger.Info("invalid order id")
		return cancelFailed(CancelNotFound)
	}

	order, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		logger.Info("fetch failed", "error", err)
		return cancelFailed(CancelNotFound)
	}

	logger = logger.With("current_status", order.Status)
	if !models.IsCancellable(order.Status) {
		logger.Info("status is not cancellable")
		return cancelFailed(CancelInvalidState)
	}

	changed, err := s.repo.CancelIfEligible(ctx, ownerID, id)
	if err != nil {
		logger.Error("update failed", "error", err)
		return cancelFailed(CancelUpdateFailed)
	}
	if !changed {
		// Lost a race with another status change between the read and the update
		if _, err := s.repo.GetByID(ctx, ownerID, id); err != nil {
			logger.Info("order disappeared before cancel", "error", err)
			return cancelFailed(CancelNotFound)
		}
		logger.Info("status changed before cancel")
		return cancelFailed(CancelInvalidState)
	}

	logger.Info("custom order cancelled")
	return CancelResult{OK: true}
}
