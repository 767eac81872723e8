package chat

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"supplyhub/internal/lib/api/cont"
	"supplyhub/internal/lib/api/response"
	"supplyhub/internal/lib/sl"
)

type SendRequest struct {
	ConversationID string `json:"conversation_id"`
	Text           string `json:"text"`
}

func SendMessage(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(sl.Module("http.handlers.chat"))

		user := cont.GetUser(r.Context())
		if user == nil {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("Unauthorized"))
			return
		}

		var req SendRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ConversationID == "" {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("conversation_id is required"))
			return
		}

		msg, err := handler.SendMessage(user, req.ConversationID, req.Text, nil)
		if err != nil {
			logger.With(
				slog.String("conversation_id", req.ConversationID),
				sl.Err(err),
			).Error("send message")
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Failed to send message"))
			return
		}

		render.JSON(w, r, response.Data(map[string]interface{}{
			"sentMessage": msg,
		}))
	}
}
