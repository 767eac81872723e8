package uploads

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/render"
	"github.com/google/uuid"

	"supplyhub/entity"
	"supplyhub/internal/lib/api/response"
	"supplyhub/internal/lib/sl"
)

const (
	imageField   = "profile_image"
	payloadField = "payload"
)

type ctxKey int

const uploadKey ctxKey = iota

// ProfileUpload is the result the middleware leaves on the request
// context for the profile handler.
type ProfileUpload struct {
	ImagePath string
	Fields    map[string]string
}

// FromContext returns the processed upload, or nil when the middleware
// did not run.
func FromContext(ctx context.Context) *ProfileUpload {
	u, ok := ctx.Value(uploadKey).(*ProfileUpload)
	if !ok {
		return nil
	}
	return u
}

// New processes a profile-image multipart form: stores the single image
// file (≤5MB, image MIME only) under dir with a generated name, and
// decrypts the sibling encrypted JSON field with the shared secret,
// merging the result into the request context. Any failure after the
// file has hit disk removes it again, so no orphaned upload survives
// an error response.
func New(log *slog.Logger, dir, secret string) func(next http.Handler) http.Handler {
	mod := sl.Module("middleware.uploads")

	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			logger := log.With(mod)

			if err := r.ParseMultipartForm(entity.MaxProfileImageSize); err != nil {
				uploadFailed(w, r, http.StatusBadRequest, "Invalid multipart form")
				return
			}

			file, header, err := r.FormFile(imageField)
			if err != nil {
				uploadFailed(w, r, http.StatusBadRequest, fmt.Sprintf("Missing %s file", imageField))
				return
			}
			defer file.Close()

			if header.Size > entity.MaxProfileImageSize {
				logger.With(
					sl.Err(entity.FileTooLargeError(header.Filename, header.Size, entity.MaxProfileImageSize)),
				).Warn("profile image too large")
				uploadFailed(w, r, http.StatusRequestEntityTooLarge, "Profile image exceeds 5MB limit")
				return
			}

			// Sniff the MIME type from content, not the client header
			head := make([]byte, 512)
			n, _ := io.ReadFull(file, head)
			mimeType := http.DetectContentType(head[:n])
			if !strings.HasPrefix(mimeType, "image/") {
				logger.With(
					slog.String("filename", header.Filename),
					slog.String("mime_type", mimeType),
				).Warn("rejected non-image upload")
				uploadFailed(w, r, http.StatusUnsupportedMediaType, "Only image uploads are allowed")
				return
			}
			if _, err := file.Seek(0, io.SeekStart); err != nil {
				uploadFailed(w, r, http.StatusInternalServerError, "Failed to read upload")
				return
			}

			if err := os.MkdirAll(dir, 0o755); err != nil {
				logger.With(sl.Err(err)).Error("create upload directory")
				uploadFailed(w, r, http.StatusInternalServerError, "Upload storage unavailable")
				return
			}

			storedPath := filepath.Join(dir, uuid.NewString()+filepath.Ext(header.Filename))
			dst, err := os.Create(storedPath)
			if err != nil {
				logger.With(sl.Err(err)).Error("create upload file")
				uploadFailed(w, r, http.StatusInternalServerError, "Failed to store upload")
				return
			}

			if _, err := io.Copy(dst, io.LimitReader(file, entity.MaxProfileImageSize)); err != nil {
				dst.Close()
				rollback(logger, storedPath)
				uploadFailed(w, r, http.StatusInternalServerError, "Failed to store upload")
				return
			}
			dst.Close()

			// The written file must not outlive a failure from here on.
			fields, err := decryptPayload(r.FormValue(payloadField), secret)
			if err != nil {
				logger.With(sl.Err(err)).Warn("decrypt profile payload")
				rollback(logger, storedPath)
				uploadFailed(w, r, http.StatusBadRequest, "Invalid encrypted payload")
				return
			}

			logger.With(
				slog.String("stored", storedPath),
				slog.String("mime_type", mimeType),
			).Debug("profile image stored")

			upload := &ProfileUpload{ImagePath: storedPath, Fields: fields}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), uploadKey, upload)))
		}
		return http.HandlerFunc(fn)
	}
}

// decryptPayload opens the base64 AES-256-GCM blob and parses the JSON
// inside. An absent payload is not an error; a malformed one is.
func decryptPayload(encoded, secret string) (map[string]string, error) {
	if encoded == "" {
		return map[string]string{}, nil
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}

	key := sha256.Sum256([]byte(secret))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init gcm: %w", err)
	}

	if len(raw) < gcm.NonceSize() {
		return nil, fmt.Errorf("payload shorter than nonce")
	}
	nonce, ciphertext := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]

	plain, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decrypt payload: %w", err)
	}

	var fields map[string]string
	if err := json.Unmarshal(plain, &fields); err != nil {
		return nil, fmt.Errorf("parse payload: %w", err)
	}

	return fields, nil
}

func rollback(logger *slog.Logger, path string) {
	if err := os.Remove(path); err != nil {
		logger.With(
			slog.String("path", path),
			sl.Err(err),
		).Error("remove orphaned upload")
	}
}

func uploadFailed(w http.ResponseWriter, r *http.Request, status int, message string) {
	render.Status(r, status)
	render.JSON(w, r, response.Error(message))
}
