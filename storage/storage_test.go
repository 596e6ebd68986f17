package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	s3, err := New("localhost:9000", "accessKey", "secretKey", "test-bucket", false, false)
	require.NoError(t, err)
	assert.NotNil(t, s3.Client)
	assert.Equal(t, "test-bucket", s3.BucketName)
}

func TestNew_InvalidEndpoint(t *testing.T) {
	_, err := New("http://not a host", "accessKey", "secretKey", "test-bucket", false, false)
	assert.Error(t, err)
}

// TestStorage_Integration exercises the adapter against a real MinIO backend.
// Skipped by default; point it at a running instance to run it.
func TestStorage_Integration(t *testing.T) {
	t.Skip("Skipping integration test - requires a running MinIO instance")

	// The contract under test:
	// 1. Put acknowledges only after the store confirms the write
	// 2. Get on a missing key returns consts.ErrAttachmentNotFound
	// 3. Delete on a missing key succeeds
	// 4. DeleteAll on a missing bucket succeeds
	//
	// Example structure:
	/*
		ctx := context.Background()
		s3, err := New("localhost:9000", "minioadmin", "minioadmin", "test-attachments", false, false)
		require.NoError(t, err)
		require.NoError(t, s3.EnsureBucket(ctx))
		defer s3.DeleteAll(ctx)

		body := []byte("hello world")
		require.NoError(t, s3.Put(ctx, "key-1", bytes.NewReader(body), int64(len(body)), "text/plain"))

		contentType, reader, err := s3.Get(ctx, "key-1")
		require.NoError(t, err)
		defer reader.Close()
		assert.Equal(t, "text/plain", contentType)

		_, _, err = s3.Get(ctx, "missing")
		assert.ErrorIs(t, err, consts.ErrAttachmentNotFound)

		assert.NoError(t, s3.Delete(ctx, "missing"))
		assert.NoError(t, s3.Delete(ctx, "key-1"))
	*/
}
