package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewS3Uploader_RequiresEndpointAndBucket(t *testing.T) {
	_, err := NewS3Uploader(S3Options{Bucket: "images"})
	assert.ErrorContains(t, err, "endpoint")

	_, err = NewS3Uploader(S3Options{Endpoint: "localhost:9000"})
	assert.ErrorContains(t, err, "bucket")
}

func TestS3Uploader_ObjectURL(t *testing.T) {
	u, err := NewS3Uploader(S3Options{
		Endpoint:  "http://minio:9000",
		AccessKey: "minio",
		SecretKey: "minio123",
		Bucket:    "apartment-images",
	})
	require.NoError(t, err)
	assert.Equal(t, "http://minio:9000/apartment-images/apartments/1/a.jpg", u.objectURL("/apartments/1/a.jpg"))

	u, err = NewS3Uploader(S3Options{
		Endpoint:       "minio:9000",
		Bucket:         "apartment-images",
		PublicEndpoint: "https://cdn.example.com/",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/apartment-images/x.png", u.objectURL("x.png"))
}

func TestS3Uploader_RejectsEmptyKeyBeforeNetwork(t *testing.T) {
	u, err := NewS3Uploader(S3Options{Endpoint: "localhost:9000", Bucket: "b"})
	require.NoError(t, err)

	_, err = u.Upload(context.Background(), " / ", strings.NewReader("data"), 4, "image/png")
	assert.ErrorContains(t, err, "object key is required")
}

func TestNoopUploader(t *testing.T) {
	_, err := NoopUploader{}.Upload(context.Background(), "k", strings.NewReader(""), 0, "")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestApartmentImageKey(t *testing.T) {
	key := ApartmentImageKey(12, "Living Room.JPG")

	assert.True(t, strings.HasPrefix(key, "apartments/12/"))
	assert.True(t, strings.HasSuffix(key, ".jpg"))
	assert.NotEqual(t, key, ApartmentImageKey(12, "Living Room.JPG"))
}
