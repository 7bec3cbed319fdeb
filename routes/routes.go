package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/kmahoney/robotourney/handlers"
)

func SetupRoutes(
	router *chi.Mux,
	bracketHandler *handlers.BracketHandler,
	scheduleHandler *handlers.ScheduleHandler,
	webSocketHandler *handlers.WebsocketHandler,
) {
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Route("/brackets", func(r chi.Router) {
		r.Post("/", bracketHandler.SeedBracket)
		r.Get("/", bracketHandler.ListBrackets)
		r.Get("/{bracket}", bracketHandler.GetBracket)
		r.Get("/{bracket}/unfinished", bracketHandler.IsUnfinished)
		r.Post("/{bracket}/advance", bracketHandler.AdvanceBracket)
		r.Post("/{bracket}/finish", bracketHandler.FinishBracket)
	})

	router.Post("/schedule/check", scheduleHandler.CheckSchedule)
	router.Post("/finalists/schedule", scheduleHandler.ScheduleFinalists)

	router.Get("/ws/brackets/{bracket}", webSocketHandler.Subscribe)
}
