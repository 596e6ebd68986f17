// Package consts holds sentinel errors shared across package boundaries.
package consts

import "errors"

var (
	// ErrAttachmentNotFound is returned when an attachment blob does not
	// exist in the store.
	ErrAttachmentNotFound = errors.New("attachment not found")

	// ErrS3UploadFailed wraps failures to durably write an attachment blob.
	ErrS3UploadFailed = errors.New("s3 upload failed")
)
