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

type SearchRequest struct {
	Query string `json:"query"`
}

func SearchUsers(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(sl.Module("http.handlers.chat"))

		user := cont.GetUser(r.Context())
		if user == nil {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("Unauthorized"))
			return
		}

		var req SearchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Invalid request body"))
			return
		}

		users, err := handler.SearchUsers(user.UserID, req.Query)
		if err != nil {
			logger.With(
				slog.String("query", req.Query),
				sl.Err(err),
			).Error("search users")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Search failed"))
			return
		}

		render.JSON(w, r, response.Data(map[string]interface{}{
			"users": users,
		}))
	}
}
