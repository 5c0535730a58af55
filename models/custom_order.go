package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CustomOrder is one user's custom production request
type CustomOrder struct {
	ID                  uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID             string              `gorm:"not null;index" json:"owner_id"` // identity provider subject, immutable
	Owner               *User               `gorm:"foreignKey:OwnerID;references:Auth0ID" json:"-"`
	Description         string              `gorm:"type:text;not null" json:"description"`
	SizePreference      string              `gorm:"not null" json:"size_preference"`
	SourceImagePath     string              `gorm:"not null" json:"source_image_path"`
	ReferenceImagePaths StringList          `gorm:"type:text" json:"reference_image_paths"` // NULL when no references
	Status              CustomOrderStatus   `gorm:"type:varchar(32);not null;default:'pending_review';index" json:"status"`
	QuotedPrice         decimal.NullDecimal `gorm:"type:numeric(12,2)" json:"quoted_price"`
	FinalPrice          decimal.NullDecimal `gorm:"type:numeric(12,2)" json:"final_price"`
	ShippingAddress     *string             `gorm:"type:text" json:"shipping_address"`
	LinkedProductID     *string             `json:"linked_product_id"`   // set by fulfillment
	GeneratedModelURL   *string             `json:"generated_model_url"` // set by fulfillment
	CompletedImagePaths StringList          `gorm:"type:text" json:"completed_image_paths"`
	CreatedAt           time.Time           `gorm:"index" json:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at"`
}

// TableName specifies the table name for the CustomOrder model
func (CustomOrder) TableName() string {
	return "custom_orders"
}

// BeforeCreate assigns a server-generated id
func (o *CustomOrder) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// IsCancellable reports whether the owner may still cancel this order
func (o CustomOrder) IsCancellable() bool {
	return IsCancellable(o.Status)
}
