package uploads

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/render"
	"github.com/google/uuid"

	"supplyhub/entity"
	"supplyhub/internal/lib/api/cont"
	"supplyhub/internal/lib/api/response"
	"supplyhub/internal/lib/sl"
)

type Core interface {
	SendMessage(user *entity.UserAuth, conversationID, text string, attachment *entity.Attachment) (*entity.Message, error)
}

type sendData struct {
	ConversationID string `json:"conversation_id"`
	Text           string `json:"text"`
}

// SendWithAttachments accepts a multipart form with an `attachments`
// file and a `data` JSON field, stores the file and sends the chat
// message carrying its reference. A failed send removes the stored
// file again.
func SendWithAttachments(log *slog.Logger, handler Core, dir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(sl.Module("http.handlers.uploads"))

		user := cont.GetUser(r.Context())
		if user == nil {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("Unauthorized"))
			return
		}

		if err := r.ParseMultipartForm(entity.MaxAttachmentSize); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Invalid multipart form"))
			return
		}

		var data sendData
		if err := json.Unmarshal([]byte(r.FormValue("data")), &data); err != nil || data.ConversationID == "" {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("data field with conversation_id is required"))
			return
		}

		file, header, err := r.FormFile("attachments")
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("attachments file is required"))
			return
		}
		defer file.Close()

		if header.Size > entity.MaxAttachmentSize {
			logger.With(
				sl.Err(entity.FileTooLargeError(header.Filename, header.Size, entity.MaxAttachmentSize)),
			).Warn("attachment too large")
			render.Status(r, http.StatusRequestEntityTooLarge)
			render.JSON(w, r, response.Error("Attachment exceeds 10MB limit"))
			return
		}

		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.With(sl.Err(err)).Error("create upload directory")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Upload storage unavailable"))
			return
		}

		fileID := uuid.NewString()
		storedPath := filepath.Join(dir, fileID+filepath.Ext(header.Filename))
		dst, err := os.Create(storedPath)
		if err != nil {
			logger.With(sl.Err(err)).Error("create attachment file")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Failed to store attachment"))
			return
		}
		size, err := io.Copy(dst, io.LimitReader(file, entity.MaxAttachmentSize))
		dst.Close()
		if err != nil {
			_ = os.Remove(storedPath)
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Failed to store attachment"))
			return
		}

		// The download URL is stamped at read-time, not stored.
		attachment := &entity.Attachment{
			FileID:   fileID,
			Filename: header.Filename,
			MIMEType: header.Header.Get("Content-Type"),
			Size:     size,
		}

		msg, err := handler.SendMessage(user, data.ConversationID, data.Text, attachment)
		if err != nil {
			logger.With(
				slog.String("conversation_id", data.ConversationID),
				sl.Err(err),
			).Error("send message with attachment")
			// The stored file must not survive the failed send.
			_ = os.Remove(storedPath)
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Failed to send message"))
			return
		}

		render.JSON(w, r, response.Data(map[string]interface{}{
			"sentMessage": msg,
		}))
	}
}
