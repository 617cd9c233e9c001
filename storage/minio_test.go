package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinioBaseURL(t *testing.T) {
	assert.Equal(t, "http://localhost:9000/dicom-files/", minioBaseURL(MinioConfig{Endpoint: "localhost:9000", BucketName: "dicom-files"}))
	assert.Equal(t, "https://s3.example.com/pacs/", minioBaseURL(MinioConfig{Endpoint: "s3.example.com/", BucketName: "pacs", UseSSL: true}))
}

func TestMinioStorage_KeyFromURL(t *testing.T) {
	s := &MinioStorage{bucketName: "pacs", baseURL: "https://s3.example.com/pacs/"}

	key, err := s.KeyFromURL("https://s3.example.com/pacs/" + testKey)
	require.NoError(t, err)
	assert.Equal(t, testKey, key)

	_, err = s.KeyFromURL("https://s3.example.com/other/" + testKey)
	assert.Error(t, err)
}

func TestNewMinioStorage_RequiresEndpoint(t *testing.T) {
	_, err := NewMinioStorage(MinioConfig{BucketName: "pacs"})
	assert.Error(t, err)
}
