package utils

import (
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	// MaxImageSize is 6MB in bytes. It must match the bucket's upload policy.
	MaxImageSize = 6 * 1024 * 1024
	// ImageContentTypePrefix is the declared media type prefix every upload must carry
	ImageContentTypePrefix = "image/"
)

// Validation error codes
const (
	CodeValidationError  = "VALIDATION_ERROR"
	CodeMissingImage     = "MISSING_IMAGE"
	CodeInvalidImageType = "INVALID_IMAGE_TYPE"
	CodeFileTooLarge     = "FILE_TOO_LARGE"
)

// ValidationError is a user-facing rejection raised before any side effect
type ValidationError struct {
	Code    string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// OrderFields are the normalized text fields of a custom order submission
type OrderFields struct {
	Description    string `validate:"min=10"`
	SizePreference string `validate:"required"`
}

// Submission is a fully validated custom order submission
type Submission struct {
	Fields          OrderFields
	SourceImage     *multipart.FileHeader
	ReferenceImages []*multipart.FileHeader
}

var fieldValidator = validator.New()

// ValidateOrderFields trims the text fields and checks their constraints
func ValidateOrderFields(description, sizePreference string) (OrderFields, error) {
	fields := OrderFields{
		Description:    strings.TrimSpace(description),
		SizePreference: strings.TrimSpace(sizePreference),
	}

	if err := fieldValidator.Struct(fields); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			switch verrs[0].Field() {
			case "Description":
				return OrderFields{}, &ValidationError{
					Code:    CodeValidationError,
					Field:   "description",
					Message: "Description must be at least 10 characters",
				}
			case "SizePreference":
				return OrderFields{}, &ValidationError{
					Code:    CodeValidationError,
					Field:   "size_preference",
					Message: "Please choose a size",
				}
			}
		}
		return OrderFields{}, &ValidationError{Code: CodeValidationError, Message: "Please check your input"}
	}

	return fields, nil
}

// ValidateImageFile validates the declared media type and size of an uploaded image.
// label names the file in the rejection message.
func ValidateImageFile(fileHeader *multipart.FileHeader, label string) error {
	if fileHeader == nil {
		return &ValidationError{
			Code:    CodeMissingImage,
			Field:   label,
			Message: fmt.Sprintf("%s is required", label),
		}
	}

	contentType := strings.ToLower(fileHeader.Header.Get("Content-Type"))
	if !strings.HasPrefix(contentType, ImageContentTypePrefix) {
		return &ValidationError{
			Code:    CodeInvalidImageType,
			Field:   label,
			Message: fmt.Sprintf("%s must be an image", label),
		}
	}

	if fileHeader.Size > MaxImageSize {
		return &ValidationError{
			Code:    CodeFileTooLarge,
			Field:   label,
			Message: fmt.Sprintf("%s exceeds the maximum size of %d MB", label, MaxImageSize/(1024*1024)),
		}
	}

	return nil
}

// ValidateSubmission checks every field and file of a submission.
// The primary image is mandatory; zero-byte reference entries are skipped.
func ValidateSubmission(description, sizePreference string, source *multipart.FileHeader, references []*multipart.FileHeader) (*Submission, error) {
	fields, err := ValidateOrderFields(description, sizePreference)
	if err != nil {
		return nil, err
	}

	// An empty file input still posts a zero-byte part
	if source != nil && source.Size == 0 {
		source = nil
	}
	if err := ValidateImageFile(source, "Source image"); err != nil {
		return nil, onField(err, "source_image")
	}

	refs := make([]*multipart.FileHeader, 0, len(references))
	for _, ref := range references {
		if ref == nil || ref.Size == 0 {
			continue
		}
		if err := ValidateImageFile(ref, "Reference image"); err != nil {
			return nil, onField(err, "reference_images")
		}
		refs = append(refs, ref)
	}

	return &Submission{
		Fields:          fields,
		SourceImage:     source,
		ReferenceImages: refs,
	}, nil
}

// onField points a file rejection at its form field
func onField(err error, field string) error {
	var verr *ValidationError
	if errors.As(err, &verr) {
		verr.Field = field
	}
	return err
}
