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

type StartRequest struct {
	ParticipantID string `json:"participant_id"`
}

// StartConversation creates a one-on-one thread, or returns the
// existing one when the pair already talked.
func StartConversation(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(sl.Module("http.handlers.chat"))

		user := cont.GetUser(r.Context())
		if user == nil {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("Unauthorized"))
			return
		}

		var req StartRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ParticipantID == "" {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("participant_id is required"))
			return
		}

		conversation, err := handler.StartConversation(user.UserID, req.ParticipantID)
		if err != nil {
			logger.With(
				slog.String("participant_id", req.ParticipantID),
				sl.Err(err),
			).Error("start conversation")
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Failed to start conversation"))
			return
		}

		render.JSON(w, r, response.Data(map[string]interface{}{
			"conversation": conversation,
		}))
	}
}
