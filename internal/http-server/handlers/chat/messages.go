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

type MessagesRequest struct {
	ConversationID string `json:"conversation_id"`
	Page           int    `json:"page"`
	Limit          int    `json:"limit"`
}

func GetMessages(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(sl.Module("http.handlers.chat"))

		user := cont.GetUser(r.Context())
		if user == nil {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("Unauthorized"))
			return
		}

		var req MessagesRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ConversationID == "" {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("conversation_id is required"))
			return
		}

		messages, err := handler.GetMessages(user.UserID, req.ConversationID, req.Page, req.Limit)
		if err != nil {
			logger.With(
				slog.String("conversation_id", req.ConversationID),
				sl.Err(err),
			).Error("load messages")
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("Conversation not found"))
			return
		}

		render.JSON(w, r, response.Data(map[string]interface{}{
			"messages": messages,
		}))
	}
}
