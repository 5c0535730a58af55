package services

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"strings"
	"sync"
	"time"
)

// MockS3Service is a mock implementation of S3Interface for testing
type MockS3Service struct {
	uploadedFiles map[string][]byte // map of S3 key to file content
	contentTypes  map[string]string
	uploadOrder   []string
	deleted       []string
	presigned     int

	// FailUploadWhen makes UploadFile fail for keys it returns true for
	FailUploadWhen func(key string) bool
	// FailPresignWhen makes GetPresignedURL fail for keys it returns true for
	FailPresignWhen func(key string) bool
	// FailDelete makes every DeleteFile call fail
	FailDelete bool

	mu sync.RWMutex
}

// NewMockS3Service creates a new mock S3 service
func NewMockS3Service() *MockS3Service {
	return &MockS3Service{
		uploadedFiles: make(map[string][]byte),
		contentTypes:  make(map[string]string),
	}
}

// UploadFile simulates a conditional put: an existing key is never overwritten
func (m *MockS3Service) UploadFile(ctx context.Context, key string, fileHeader *multipart.FileHeader) error {
	if m.FailUploadWhen != nil && m.FailUploadWhen(key) {
		return fmt.Errorf("mock upload failure for %s", key)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.uploadedFiles[key]; exists {
		return fmt.Errorf("%s: %w", key, ErrObjectExists)
	}
	m.uploadedFiles[key] = content
	m.contentTypes[key] = fileHeader.Header.Get("Content-Type")
	m.uploadOrder = append(m.uploadOrder, key)

	return nil
}

// GetPresignedURL simulates generating a presigned URL
func (m *MockS3Service) GetPresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if m.FailPresignWhen != nil && m.FailPresignWhen(key) {
		return "", fmt.Errorf("mock presign failure for %s", key)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.uploadedFiles[key]; !exists {
		return "", fmt.Errorf("file not found in mock S3: %s", key)
	}
	m.presigned++

	return fmt.Sprintf("https://test-bucket.s3.us-east-1.amazonaws.com/%s?X-Amz-Expires=%d",
		strings.ReplaceAll(key, "|", "%7C"), int(ttl.Seconds())), nil
}

// DeleteFile simulates deleting a file
func (m *MockS3Service) DeleteFile(ctx context.Context, key string) error {
	if m.FailDelete {
		return fmt.Errorf("mock delete failure for %s", key)
	}

	m.mu.Lock()
	delete(m.uploadedFiles, key)
	m.deleted = append(m.deleted, key)
	m.mu.Unlock()

	return nil
}

// Seed stores content at key without going through UploadFile
func (m *MockS3Service) Seed(key string, content []byte) {
	m.mu.Lock()
	m.uploadedFiles[key] = content
	m.mu.Unlock()
}

// UploadOrder returns the keys in the order they were uploaded
func (m *MockS3Service) UploadOrder() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.uploadOrder...)
}

// DeletedKeys returns the keys passed to DeleteFile
func (m *MockS3Service) DeletedKeys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.deleted...)
}

// ContentType returns the content type stored with key
func (m *MockS3Service) ContentType(key string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.contentTypes[key]
}

// PresignCount returns how many URLs were signed
func (m *MockS3Service) PresignCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.presigned
}

// FileExists checks if a file exists in mock storage
func (m *MockS3Service) FileExists(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, exists := m.uploadedFiles[key]
	return exists
}

// Clear removes all files from mock storage
func (m *MockS3Service) Clear() {
	m.mu.Lock()
	m.uploadedFiles = make(map[string][]byte)
	m.contentTypes = make(map[string]string)
	m.uploadOrder = nil
	m.deleted = nil
	m.presigned = 0
	m.mu.Unlock()
}
