package controllers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/kendall-kelly/custom-orders-api/config"
	"github.com/kendall-kelly/custom-orders-api/middleware"
	"github.com/kendall-kelly/custom-orders-api/models"
	"github.com/kendall-kelly/custom-orders-api/services"
	"github.com/kendall-kelly/custom-orders-api/utils"
)

const (
	// SignInPath is where unauthenticated submissions are sent
	SignInPath = "/sign-in"
	// confirmationPathFormat is the front end page shown after a successful submission
	confirmationPathFormat = "/custom-order/%s/confirmation"
)

// Multipart form field names of a submission
const (
	FieldDescription     = "description"
	FieldSizePreference  = "size_preference"
	FieldSourceImage     = "source_image"
	FieldReferenceImages = "reference_images"
)

// CustomOrderResponse is an order plus the status policy the UI needs
type CustomOrderResponse struct {
	models.CustomOrder
	StatusLabel string `json:"status_label"`
	Cancellable bool   `json:"cancellable"`
}

// CustomOrderDetailResponse adds time-limited image links to an order
type CustomOrderDetailResponse struct {
	CustomOrderResponse
	SourceImageURL     *string  `json:"source_image_url"`
	ReferenceImageURLs []string `json:"reference_image_urls"`
	CompletedImageURLs []string `json:"completed_image_urls"`
}

// CustomOrderConfirmation is the minimal view shown right after a submission
type CustomOrderConfirmation struct {
	ID          uuid.UUID                `json:"id"`
	Status      models.CustomOrderStatus `json:"status"`
	StatusLabel string                   `json:"status_label"`
	CreatedAt   time.Time                `json:"created_at"`
}

// StatusOption describes one status for filter menus and badges
type StatusOption struct {
	Value       models.CustomOrderStatus `json:"value"`
	Label       string                   `json:"label"`
	Cancellable bool                     `json:"cancellable"`
}

func newCustomOrderResponse(order models.CustomOrder) CustomOrderResponse {
	return CustomOrderResponse{
		CustomOrder: order,
		StatusLabel: order.Status.Label(),
		Cancellable: order.IsCancellable(),
	}
}

func errorResponse(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// SubmitCustomOrder handles POST /api/v1/custom-orders - multipart submission of a new request
func SubmitCustomOrder(c *gin.Context) {
	ownerID := middleware.OptionalUserID(c)
	if ownerID == "" {
		c.Redirect(http.StatusSeeOther, SignInPath)
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			errorResponse(c, http.StatusRequestEntityTooLarge, "REQUEST_TOO_LARGE",
				fmt.Sprintf("Request body exceeds %d bytes", maxErr.Limit))
			return
		}
		errorResponse(c, http.StatusBadRequest, utils.CodeValidationError, "Expected a multipart form")
		return
	}

	in := services.SubmitInput{
		Description:     firstValue(form, FieldDescription),
		SizePreference:  firstValue(form, FieldSizePreference),
		SourceImage:     firstFile(form, FieldSourceImage),
		ReferenceImages: form.File[FieldReferenceImages],
	}

	id, err := services.GetCustomOrderService().Submit(c.Request.Context(), ownerID, in)
	if err != nil {
		var verr *utils.ValidationError
		switch {
		case errors.As(err, &verr):
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    verr.Code,
					"field":   verr.Field,
					"message": verr.Message,
				},
			})
		case errors.Is(err, services.ErrNotAuthenticated):
			c.Redirect(http.StatusSeeOther, SignInPath)
		case errors.Is(err, services.ErrUploadFailed):
			errorResponse(c, http.StatusBadGateway, "UPLOAD_FAILED", "Failed to upload images")
		case errors.Is(err, services.ErrUserSyncFailed):
			errorResponse(c, http.StatusInternalServerError, "USER_SYNC_FAILED", "Failed to sync user")
		default:
			errorResponse(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create custom order")
		}
		return
	}

	c.Redirect(http.StatusSeeOther, fmt.Sprintf(confirmationPathFormat, id))
}

func firstValue(form *multipart.Form, name string) string {
	if values := form.Value[name]; len(values) > 0 {
		return values[0]
	}
	return ""
}

func firstFile(form *multipart.Form, name string) *multipart.FileHeader {
	if files := form.File[name]; len(files) > 0 {
		return files[0]
	}
	return nil
}

// ListCustomOrders handles GET /api/v1/custom-orders - the caller's orders, newest first
func ListCustomOrders(c *gin.Context) {
	orders := services.GetCustomOrderService().ListMyOrders(
		c.Request.Context(),
		middleware.OptionalUserID(c),
		c.Query("status"),
	)

	data := make([]CustomOrderResponse, 0, len(orders))
	for _, order := range orders {
		data = append(data, newCustomOrderResponse(order))
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

// GetCustomOrder handles GET /api/v1/custom-orders/:id - one order with signed image links
func GetCustomOrder(c *gin.Context) {
	signed := services.GetCustomOrderService().GetMyOrderWithSignedAccess(
		c.Request.Context(),
		middleware.OptionalUserID(c),
		c.Param("id"),
	)
	if signed == nil {
		errorResponse(c, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": CustomOrderDetailResponse{
			CustomOrderResponse: newCustomOrderResponse(signed.CustomOrder),
			SourceImageURL:      signed.SourceImageSignedURL,
			ReferenceImageURLs:  nonNil(signed.ReferenceSignedURLs),
			CompletedImageURLs:  nonNil(signed.CompletedSignedURLs),
		},
	})
}

func nonNil(urls []string) []string {
	if urls == nil {
		return []string{}
	}
	return urls
}

// GetCustomOrderConfirmation handles GET /api/v1/custom-orders/:id/confirmation
func GetCustomOrderConfirmation(c *gin.Context) {
	order := services.GetCustomOrderService().GetMyOrder(
		c.Request.Context(),
		middleware.OptionalUserID(c),
		c.Param("id"),
	)
	if order == nil {
		errorResponse(c, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": CustomOrderConfirmation{
			ID:          order.ID,
			Status:      order.Status,
			StatusLabel: order.Status.Label(),
			CreatedAt:   order.CreatedAt,
		},
	})
}

var cancelFailureStatus = map[services.CancelFailure]int{
	services.CancelNotAuthenticated: http.StatusUnauthorized,
	services.CancelNotFound:         http.StatusNotFound,
	services.CancelInvalidState:     http.StatusConflict,
	services.CancelUpdateFailed:     http.StatusInternalServerError,
}

// CancelCustomOrder handles POST /api/v1/custom-orders/:id/cancel
func CancelCustomOrder(c *gin.Context) {
	result := services.GetCustomOrderService().CancelMyOrder(
		c.Request.Context(),
		middleware.OptionalUserID(c),
		c.Param("id"),
	)
	if result.OK {
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	status, ok := cancelFailureStatus[result.Failure]
	if !ok {
		config.LoggerFromContext(c.Request.Context()).Error("unmapped cancel failure", "failure", result.Failure)
		status = http.StatusInternalServerError
	}
	c.JSON(status, gin.H{
		"ok":     false,
		"reason": result.Reason,
	})
}

// ListCustomOrderStatuses handles GET /api/v1/custom-order-statuses
func ListCustomOrderStatuses(c *gin.Context) {
	statuses := models.CustomOrderStatuses()
	data := make([]StatusOption, 0, len(statuses))
	for _, s := range statuses {
		data = append(data, StatusOption{
			Value:       s,
			Label:       s.Label(),
			Cancellable: models.IsCancellable(s),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

// RegisterCustomOrderRoutes mounts the custom order endpoints on rg.
// auth runs in front of every order route and decides who the caller is.
func RegisterCustomOrderRoutes(rg *gin.RouterGroup, auth gin.HandlerFunc) {
	orders := rg.Group("/custom-orders", auth)
	{
		orders.POST("", SubmitCustomOrder)
		orders.GET("", ListCustomOrders)
		orders.GET("/:id", GetCustomOrder)
		orders.GET("/:id/confirmation", GetCustomOrderConfirmation)
		orders.POST("/:id/cancel", CancelCustomOrder)
	}

	rg.GET("/custom-order-statuses", ListCustomOrderStatuses)
}
