package api

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"supplyhub/internal/config"
	"supplyhub/internal/http-server/handlers/account"
	"supplyhub/internal/http-server/handlers/chat"
	"supplyhub/internal/http-server/handlers/errors"
	uploadHandlers "supplyhub/internal/http-server/handlers/uploads"
	"supplyhub/internal/http-server/middleware/authenticate"
	"supplyhub/internal/http-server/middleware/timeout"
	uploadMiddleware "supplyhub/internal/http-server/middleware/uploads"
	"supplyhub/internal/lib/fileurl"
	"supplyhub/internal/lib/sl"
	"supplyhub/internal/ws"
)

type Server struct {
	conf       *config.Config
	httpServer *http.Server
	log        *slog.Logger
}

type Handler interface {
	authenticate.Authenticate
	ws.Authenticator
	account.Core
	chat.Core
	uploadHandlers.Core
}

func New(conf *config.Config, log *slog.Logger, handler Handler, hub *ws.Hub, links *fileurl.Signer) error {

	server := Server{
		conf: conf,
		log:  log.With(sl.Module("api.server")),
	}

	router := chi.NewRouter()
	router.Use(timeout.Timeout(15))
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(render.SetContentType(render.ContentTypeJSON))

	router.NotFound(errors.NotFound(log))
	router.MethodNotAllowed(errors.NotAllowed(log))

	router.Post("/account/login", account.Login(log, handler))

	// Signed links carry their own auth.
	router.Get("/uploads/files/{fileID}", uploadHandlers.GetFile(log, links, conf.Uploads.Dir))

	router.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWs(hub, handler, log, w, r)
	})

	router.Group(func(authed chi.Router) {
		authed.Use(authenticate.New(log, handler))

		authed.Route("/chat", func(r chi.Router) {
			r.Get("/conversations", chat.GetConversations(log, handler))
			r.Post("/messages", chat.GetMessages(log, handler))
			r.Post("/conversation/start", chat.StartConversation(log, handler))
			r.Post("/send", chat.SendMessage(log, handler))
			r.Post("/mark-read", chat.MarkRead(log, handler))
			r.Post("/search-users", chat.SearchUsers(log, handler))
		})

		authed.Route("/uploads", func(r chi.Router) {
			r.Post("/chat/send-with-attachments", uploadHandlers.SendWithAttachments(log, handler, conf.Uploads.Dir))
		})

		authed.With(uploadMiddleware.New(log, conf.Uploads.Dir, conf.Uploads.PayloadSecret)).
			Post("/account/profile", account.UpdateProfile(log, handler))
	})

	httpLog := slog.NewLogLogger(log.Handler(), slog.LevelError)
	server.httpServer = &http.Server{
		Handler:  router,
		ErrorLog: httpLog,
	}

	serverAddress := fmt.Sprintf("%s:%s", conf.Listen.BindIP, conf.Listen.Port)
	listener, err := net.Listen("tcp", serverAddress)
	if err != nil {
		return err
	}

	server.log.Info("starting api server", slog.String("address", serverAddress))

	return server.httpServer.Serve(listener)
}
