package uploads

import (
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"supplyhub/internal/lib/api/response"
	"supplyhub/internal/lib/sl"
)

// Verifier checks the expiry and signature of a download link.
type Verifier interface {
	Verify(fileID, expires, sig string) bool
}

// GetFile serves a stored attachment addressed by a signed link. The
// signature replaces token auth, so the route sits outside the
// authenticated group.
func GetFile(log *slog.Logger, verifier Verifier, dir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(sl.Module("http.handlers.uploads"))

		fileID := chi.URLParam(r, "fileID")
		if _, err := uuid.Parse(fileID); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Invalid file id"))
			return
		}

		expires := r.URL.Query().Get("expires")
		sig := r.URL.Query().Get("sig")
		if !verifier.Verify(fileID, expires, sig) {
			logger.With(slog.String("file_id", fileID)).Warn("rejected download link")
			render.Status(r, http.StatusForbidden)
			render.JSON(w, r, response.Error("Link invalid or expired"))
			return
		}

		matches, err := filepath.Glob(filepath.Join(dir, fileID+"*"))
		if err != nil || len(matches) == 0 {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("File not found"))
			return
		}

		http.ServeFile(w, r, matches[0])
	}
}
