package controllers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/custom-orders-api/models"
	"github.com/kendall-kelly/custom-orders-api/services"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	return router
}

// mockAuthMiddleware sets user_id the way the JWT middleware does; an empty id leaves the request anonymous
func mockAuthMiddleware(auth0ID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if auth0ID != "" {
			c.Set("user_id", auth0ID)
		}
		c.Next()
	}
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err, "Failed to connect to test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.CustomOrder{}))
	return db
}

// setupCustomOrderService installs a service backed by sqlite and a mock bucket
func setupCustomOrderService(t *testing.T) (*gorm.DB, *services.MockS3Service) {
	t.Helper()

	db := setupTestDB(t)
	mockS3 := services.NewMockS3Service()
	original := services.GetCustomOrderService()
	services.SetCustomOrderService(services.NewCustomOrderService(
		services.NewCustomOrderRepository(db),
		services.NewS3ImageService(mockS3, nil),
	))
	t.Cleanup(func() { services.SetCustomOrderService(original) })

	return db, mockS3
}

type formFile struct {
	field       string
	filename    string
	contentType string
	content     []byte
}

func imageFile(field, filename string) formFile {
	return formFile{field: field, filename: filename, contentType: "image/png", content: []byte("png bytes of " + filename)}
}

// multipartBody encodes text fields and files the way a browser form would
func multipartBody(t *testing.T, fields map[string]string, files ...formFile) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for name, value := range fields {
		require.NoError(t, writer.WriteField(name, value))
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+f.field+`"; filename="`+f.filename+`"`)
		h.Set("Content-Type", f.contentType)
		part, err := writer.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(f.content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	return body, writer.FormDataContentType()
}

func decodeJSON(t *testing.T, body *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(body.Bytes(), &response))
	return response
}

func newMultipartRequest(t *testing.T, path string, fields map[string]string, files ...formFile) *http.Request {
	body, contentType := multipartBody(t, fields, files...)
	req, err := http.NewRequest(http.MethodPost, path, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", contentType)
	return req
}
