package api

import (
	"net/http"

	"github.com/lixiang810/HV-Com/internal/config"
	"github.com/lixiang810/HV-Com/internal/database"
	"github.com/lixiang810/HV-Com/internal/websocket"
)

type Server struct {
	config *config.Config
	store  database.Store
	wsHub  *websocket.Hub
}

// NewServer wires the HTTP surface to a storage provider. The provider is
// injected here once at startup; nothing reaches it through globals.
func NewServer(cfg *config.Config, store database.Store, wsHub *websocket.Hub) *Server {
	return &Server{
		config: cfg,
		store:  store,
		wsHub:  wsHub,
	}
}

// @Summary      Health check
// @Description  Reports whether the server and its backing store are reachable.
// @Tags         meta
// @Produce      plain
// @Success      200  {string}  string "ok"
// @Failure      503  {string}  string "store unreachable"
// @Router       /health [get]
func (s *Server) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		http.Error(w, "store unreachable", http.StatusServiceUnavailable)
		return
	}
	w.Write([]byte("ok"))
}
