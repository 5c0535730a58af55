package services

import (
	"context"
	"mime/multipart"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testRequestID = uuid.MustParse("6f1c3c2e-2a8f-4c1e-9f5d-0b7e2f1a9c44")

func TestImageKeys(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{
			name: "source key",
			got:  SourceImageKey("auth0|user1", testRequestID, "ring.jpg"),
			want: "auth0|user1/custom-orders/6f1c3c2e-2a8f-4c1e-9f5d-0b7e2f1a9c44/source/ring.jpg",
		},
		{
			name: "reference key",
			got:  ReferenceImageKey("auth0|user1", testRequestID, 2, "side.png"),
			want: "auth0|user1/custom-orders/6f1c3c2e-2a8f-4c1e-9f5d-0b7e2f1a9c44/refs/2_side.png",
		},
		{
			name: "client directories are stripped",
			got:  SourceImageKey("u", testRequestID, `C:\Users\me\photo.jpg`),
			want: "u/custom-orders/6f1c3c2e-2a8f-4c1e-9f5d-0b7e2f1a9c44/source/photo.jpg",
		},
		{
			name: "traversal is stripped",
			got:  ReferenceImageKey("u", testRequestID, 0, "../../etc/passwd"),
			want: "u/custom-orders/6f1c3c2e-2a8f-4c1e-9f5d-0b7e2f1a9c44/refs/0_passwd",
		},
		{
			name: "degenerate names get a placeholder",
			got:  SourceImageKey("u", testRequestID, ".."),
			want: "u/custom-orders/6f1c3c2e-2a8f-4c1e-9f5d-0b7e2f1a9c44/source/image",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestUploadOrderImages_SequentialInOrder(t *testing.T) {
	mockS3 := NewMockS3Service()
	svc := NewS3ImageService(mockS3, nil)

	source := newFileHeader(t, "main.png", "image/png", []byte("png"))
	refs := []*multipart.FileHeader{jpeg(t, "a.jpg"), jpeg(t, "b.jpg"), jpeg(t, "c.jpg")}

	uploaded, err := svc.UploadOrderImages(context.Background(), "owner", testRequestID, source, refs)
	require.NoError(t, err)

	prefix := "owner/custom-orders/" + testRequestID.String()
	want := []string{
		prefix + "/source/main.png",
		prefix + "/refs/0_a.jpg",
		prefix + "/refs/1_b.jpg",
		prefix + "/refs/2_c.jpg",
	}
	assert.Equal(t, want, mockS3.UploadOrder())
	assert.Equal(t, want, uploaded.Keys())
	assert.Equal(t, want[0], uploaded.SourcePath)
	assert.Equal(t, "image/png", mockS3.ContentType(want[0]), "content type should be propagated")
	assert.Equal(t, "image/jpeg", mockS3.ContentType(want[1]))
}

func TestUploadOrderImages_StopsAtFirstFailure(t *testing.T) {
	mockS3 := NewMockS3Service()
	mockS3.FailUploadWhen = func(key string) bool { return strings.Contains(key, "/refs/1_") }
	svc := NewS3ImageService(mockS3, nil)

	refs := []*multipart.FileHeader{jpeg(t, "a.jpg"), jpeg(t, "b.jpg"), jpeg(t, "c.jpg")}
	uploaded, err := svc.UploadOrderImages(context.Background(), "owner", testRequestID, jpeg(t, "main.jpg"), refs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reference image 1")

	assert.Len(t, mockS3.UploadOrder(), 2, "uploads after the failing one must not run")
	assert.Equal(t, mockS3.UploadOrder(), uploaded.Keys(), "partial result should list what was stored")
}

func TestUploadOrderImages_SourceFailure(t *testing.T) {
	mockS3 := NewMockS3Service()
	mockS3.FailUploadWhen = func(key string) bool { return strings.Contains(key, "/source/") }
	svc := NewS3ImageService(mockS3, nil)

	uploaded, err := svc.UploadOrderImages(context.Background(), "owner", testRequestID, jpeg(t, "main.jpg"), []*multipart.FileHeader{jpeg(t, "a.jpg")})
	require.Error(t, err)
	assert.Empty(t, uploaded.Keys())
	assert.Empty(t, mockS3.UploadOrder())
}

func TestUploadOrderImages_NeverOverwrites(t *testing.T) {
	mockS3 := NewMockS3Service()
	svc := NewS3ImageService(mockS3, nil)

	_, err := svc.UploadOrderImages(context.Background(), "owner", testRequestID, jpeg(t, "main.jpg"), nil)
	require.NoError(t, err)

	_, err = svc.UploadOrderImages(context.Background(), "owner", testRequestID, jpeg(t, "main.jpg"), nil)
	assert.ErrorIs(t, err, ErrObjectExists)
}

func TestUploadOrderImages_RequiresSource(t *testing.T) {
	svc := NewS3ImageService(NewMockS3Service(), nil)
	_, err := svc.UploadOrderImages(context.Background(), "owner", testRequestID, nil, nil)
	assert.Error(t, err)
}

func TestGetSignedURL_UsesCache(t *testing.T) {
	mockS3 := NewMockS3Service()
	mockS3.Seed("owner/img.jpg", []byte("x"))

	cache, err := NewSignedURLCache(10, SignedURLCacheTTL)
	require.NoError(t, err)
	svc := NewS3ImageService(mockS3, cache)

	first, err := svc.GetSignedURL(context.Background(), "owner/img.jpg")
	require.NoError(t, err)
	assert.Contains(t, first, "X-Amz-Expires=600", "links should be valid for 10 minutes")

	second, err := svc.GetSignedURL(context.Background(), "owner/img.jpg")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, mockS3.PresignCount(), "second call should be served from cache")
}

func TestGetSignedURL_Errors(t *testing.T) {
	svc := NewS3ImageService(NewMockS3Service(), nil)

	_, err := svc.GetSignedURL(context.Background(), "")
	assert.Error(t, err)

	_, err = svc.GetSignedURL(context.Background(), "missing/key.jpg")
	assert.Error(t, err)
}

func TestDeleteImages_BestEffort(t *testing.T) {
	mockS3 := NewMockS3Service()
	mockS3.Seed("a", []byte("1"))
	mockS3.Seed("b", []byte("2"))
	svc := NewS3ImageService(mockS3, nil)

	svc.DeleteImages(context.Background(), []string{"a", "b"})
	assert.Equal(t, []string{"a", "b"}, mockS3.DeletedKeys())
	assert.False(t, mockS3.FileExists("a"))
	assert.False(t, mockS3.FileExists("b"))

	mockS3.FailDelete = true
	assert.NotPanics(t, func() { svc.DeleteImages(context.Background(), []string{"c"}) })
}

func TestSignedURLTTL(t *testing.T) {
	assert.Equal(t, 10*time.Minute, SignedURLTTL)
	assert.Less(t, SignedURLCacheTTL, SignedURLTTL, "cached links must be reissued before they expire")
}
