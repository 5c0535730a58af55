package models

import (
	"errors"

	"github.com/samber/lo"
)

// CustomOrderStatus is a lifecycle state of a custom order
type CustomOrderStatus string

// remember to add new statuses to statusLabels and lifecycleOrder
const (
	StatusPendingReview  CustomOrderStatus = "pending_review"
	StatusQuoteProvided  CustomOrderStatus = "quote_provided"
	StatusPaymentPending CustomOrderStatus = "payment_pending"
	StatusInProgress     CustomOrderStatus = "in_progress"
	StatusCompleted      CustomOrderStatus = "completed"
	StatusShipped        CustomOrderStatus = "shipped"
	StatusDelivered      CustomOrderStatus = "delivered"
	StatusCancelled      CustomOrderStatus = "cancelled"
)

// StatusFilterAll is the list filter value meaning "every status"
const StatusFilterAll = "all"

// ErrInvalidStatus is returned when a string is not one of the known statuses
var ErrInvalidStatus = errors.New("invalid custom order status")

var lifecycleOrder = []CustomOrderStatus{
	StatusPendingReview,
	StatusQuoteProvided,
	StatusPaymentPending,
	StatusInProgress,
	StatusCompleted,
	StatusShipped,
	StatusDelivered,
	StatusCancelled,
}

var statusLabels = map[CustomOrderStatus]string{
	StatusPendingReview:  "Pending review",
	StatusQuoteProvided:  "Quote provided",
	StatusPaymentPending: "Awaiting payment",
	StatusInProgress:     "In production",
	StatusCompleted:      "Completed",
	StatusShipped:        "Shipped",
	StatusDelivered:      "Delivered",
	StatusCancelled:      "Cancelled",
}

// cancellableStatuses are the early states from which an owner may cancel
var cancellableStatuses = []CustomOrderStatus{
	StatusPendingReview,
	StatusQuoteProvided,
}

// ToCustomOrderStatus parses s into a known status
func ToCustomOrderStatus(s string) (CustomOrderStatus, error) {
	status := CustomOrderStatus(s)
	if _, ok := statusLabels[status]; ok {
		return status, nil
	}
	return "", ErrInvalidStatus
}

// CustomOrderStatuses returns every status in lifecycle order
func CustomOrderStatuses() []CustomOrderStatus {
	result := make([]CustomOrderStatus, len(lifecycleOrder))
	copy(result, lifecycleOrder)
	return result
}

// CancellableStatuses returns the statuses from which an order can be cancelled
func CancellableStatuses() []CustomOrderStatus {
	result := make([]CustomOrderStatus, len(cancellableStatuses))
	copy(result, cancellableStatuses)
	return result
}

// IsCancellable reports whether an order in status s may be cancelled by its owner.
// Every cancel decision, server-side or UI-side, goes through this predicate.
func IsCancellable(s CustomOrderStatus) bool {
	return lo.Contains(cancellableStatuses, s)
}

// IsValid reports whether s is one of the known statuses
func (s CustomOrderStatus) IsValid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Label returns the display label for s, or the raw value for unknown statuses
func (s CustomOrderStatus) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}
