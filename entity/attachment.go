package entity

import (
	"errors"
	"fmt"
)

// MaxAttachmentSize is the maximum allowed size for a chat attachment (10 MB).
const MaxAttachmentSize = 10 << 20

// MaxProfileImageSize is the maximum allowed size for a profile image (5 MB).
const MaxProfileImageSize = 5 << 20

// ErrFileTooLarge is returned when an uploaded file exceeds its size limit.
var ErrFileTooLarge = errors.New("file too large")

// FileTooLargeError wraps ErrFileTooLarge with details about the offending file.
func FileTooLargeError(filename string, size, limit int64) error {
	return fmt.Errorf("%w: %q is %d bytes, limit is %d MB", ErrFileTooLarge, filename, size, limit>>20)
}

// Attachment references a file stored for a chat message.
// The URL field is computed at read-time and not persisted.
type Attachment struct {
	FileID   string `json:"fileId" bson:"file_id"`
	Filename string `json:"filename" bson:"filename"`
	MIMEType string `json:"mimeType" bson:"mime_type"`
	Size     int64  `json:"size" bson:"size"`
	URL      string `json:"url,omitempty" bson:"-"`
}
