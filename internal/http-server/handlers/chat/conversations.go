package chat

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"supplyhub/internal/lib/api/cont"
	"supplyhub/internal/lib/api/response"
	"supplyhub/internal/lib/sl"
)

func GetConversations(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(sl.Module("http.handlers.chat"))

		user := cont.GetUser(r.Context())
		if user == nil {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("Unauthorized"))
			return
		}

		conversations, err := handler.GetConversations(user.UserID)
		if err != nil {
			logger.With(sl.Err(err)).Error("list conversations")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Failed to load conversations"))
			return
		}

		render.JSON(w, r, response.Data(map[string]interface{}{
			"conversations": conversations,
		}))
	}
}
