package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"rummitally/internal/game"
)

func NewRouter(gh *game.Handler, ws http.HandlerFunc) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/ws", ws)

	r.Route("/api", func(api chi.Router) {
		api.Get("/game", gh.GetGame)                        // GET    /api/game
		api.Post("/game/players", gh.AddPlayer)             // POST   /api/game/players
		api.Patch("/game/players/{id}", gh.UpdatePlayer)    // PATCH  /api/game/players/:id
		api.Delete("/game/players/{id}", gh.RemovePlayer)   // DELETE /api/game/players/:id
		api.Get("/game/players/{id}/stats", gh.PlayerStats) // GET    /api/game/players/:id/stats
		api.Put("/game/settings", gh.UpdateSettings)        // PUT    /api/game/settings
		api.Post("/game/start", gh.StartGame)               // POST   /api/game/start
		api.Post("/game/rounds", gh.SubmitRound)            // POST   /api/game/rounds
		api.Delete("/game/rounds/{id}", gh.DeleteRound)     // DELETE /api/game/rounds/:id
		api.Post("/game/undo", gh.UndoRound)                // POST   /api/game/undo
		api.Post("/game/end", gh.EndGame)                   // POST   /api/game/end
		api.Get("/game/leaderboard", gh.Leaderboard)        // GET    /api/game/leaderboard
		api.Get("/archive", gh.GetArchive)                  // GET    /api/archive
		api.Get("/archive/last-config", gh.LastGameConfig)  // GET    /api/archive/last-config
		api.Delete("/archive/{id}", gh.DeleteArchiveEntry)  // DELETE /api/archive/:id
	})

	return r
}
