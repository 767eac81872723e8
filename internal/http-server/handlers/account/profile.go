package account

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/render"

	"supplyhub/internal/http-server/middleware/uploads"
	"supplyhub/internal/lib/api/cont"
	"supplyhub/internal/lib/api/response"
	"supplyhub/internal/lib/sl"
)

// UpdateProfile applies the image and decrypted fields left on the
// context by the uploads middleware.
func UpdateProfile(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(sl.Module("http.handlers.account"))

		user := cont.GetUser(r.Context())
		if user == nil {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("Unauthorized"))
			return
		}

		upload := uploads.FromContext(r.Context())
		if upload == nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("No upload processed"))
			return
		}

		if err := handler.UpdateProfile(user.UserID, upload.ImagePath, upload.Fields); err != nil {
			logger.With(
				slog.String("user", user.Username),
				sl.Err(err),
			).Error("update profile")
			// Do not leave the stored image orphaned behind an error.
			if upload.ImagePath != "" {
				_ = os.Remove(upload.ImagePath)
			}
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Failed to update profile"))
			return
		}

		render.JSON(w, r, response.Ok("Profile updated"))
	}
}
