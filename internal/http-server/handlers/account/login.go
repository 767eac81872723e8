package account

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"supplyhub/entity"
	"supplyhub/internal/lib/api/response"
	"supplyhub/internal/lib/sl"
	"supplyhub/internal/lib/validate"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

func (l *LoginRequest) Bind(_ *http.Request) error {
	return validate.Struct(l)
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  *entity.User `json:"user"`
}

func Login(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(
			sl.Module("http.handlers.account"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req LoginRequest
		if err := render.Bind(r, &req); err != nil {
			logger.With(sl.Err(err)).Warn("invalid login request")
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Email and password are required"))
			return
		}

		token, user, err := handler.Login(req.Email, req.Password)
		if err != nil {
			logger.With(sl.Err(err)).Warn("login rejected")
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("Invalid credentials"))
			return
		}

		logger.With(slog.String("user", user.Username)).Debug("login ok")

		render.JSON(w, r, response.Data(LoginResponse{
			Token: token,
			User:  user.Summary(),
		}))
	}
}
