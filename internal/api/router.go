package api

import (
	"net/http"

	"github.com/cantetik/hepsiemlak-todo-case/internal/api/handlers"
	"github.com/cantetik/hepsiemlak-todo-case/internal/api/middleware"
	"github.com/cantetik/hepsiemlak-todo-case/internal/logging"
	"github.com/cantetik/hepsiemlak-todo-case/internal/service"
	"github.com/cantetik/hepsiemlak-todo-case/internal/websocket"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

func NewRouter(services *service.Services, hub *websocket.Hub, log logging.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	userHandler := handlers.NewUserHandler(services.Identity, log.With("handler", "users"))
	todoHandler := handlers.NewTodoHandler(services.Todo, log.With("handler", "todos"))
	wsHandler := handlers.NewWebSocketHandler(hub, services.Identity, log.With("handler", "ws"))
	requireAuth := middleware.Auth(services.Identity, log.With("middleware", "auth"))

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/register", userHandler.Register)
			r.Post("/login", userHandler.Login)
			r.Post("/refresh-token", userHandler.Refresh)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/change-password", userHandler.ChangePassword)
				r.Delete("/", userHandler.Delete)
			})
		})

		r.Route("/todos", func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", todoHandler.Create)
			r.Get("/", todoHandler.List)
			r.Get("/{id}", todoHandler.Get)
			r.Put("/{id}", todoHandler.Update)
			r.Delete("/{id}", todoHandler.Delete)
		})

		// WebSocket endpoint
		r.Get("/ws", wsHandler.Handle)
	})

	return r
}
