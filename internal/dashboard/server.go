package dashboard

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfrage76/dusk-manager/internal/config"
	"github.com/wolfrage76/dusk-manager/internal/logger"
	"github.com/wolfrage76/dusk-manager/internal/state"
)

//go:embed static/*
var staticFS embed.FS

// Server exposes a read-only view of the shared state: a JSON snapshot
// endpoint, a websocket push stream (state + logs), and the Prometheus
// metrics handler. Nothing it serves can mutate state.
type Server struct {
	cfg   config.DashboardConfig
	store *state.Store

	upgrader  websocket.Upgrader
	clients   map[*websocket.Conn]bool
	broadcast chan []byte
	logChan   chan logger.Entry
	mu        sync.Mutex
}

func NewServer(cfg config.DashboardConfig, store *state.Store) *Server {
	s := &Server{
		cfg:   cfg,
		store: store,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan []byte),
		logChan:   make(chan logger.Entry, 100),
	}

	logger.SetLogChannel(s.logChan)

	return s
}

func (s *Server) Start(ctx context.Context) {
	if !s.cfg.EnableDashboard || s.cfg.DashPort <= 0 {
		return
	}

	go s.handleMessages()
	go s.handleLogs()
	go s.runServer(ctx)
}

func (s *Server) runServer(ctx context.Context) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/state", s.handleState)
	mux.HandleFunc("/ws", s.handleConnections)
	mux.Handle("/metrics", promhttp.Handler())

	fileServer := http.FileServer(http.FS(staticFS))
	mux.Handle("/static/", fileServer)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		content, _ := staticFS.ReadFile("static/index.html")
		w.Header().Set("Content-Type", "text/html")
		w.Write(content)
	})

	addr := fmt.Sprintf("%s:%d", s.cfg.DashIP, s.cfg.DashPort)
	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	logger.Info("DASH", "Dashboard listening on %s", addr)

	go func() {
		<-ctx.Done()
		server.Shutdown(context.Background())
		logger.Info("DASH", "Dashboard shutting down")
	}()

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		logger.Error("DASH", "Dashboard server failed on %s: %v", addr, err)
	}
}

func (s *Server) handleConnections(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("DASH", "WS upgrade failed: %v", err)
		return
	}

	s.mu.Lock()
	s.clients[ws] = true
	s.mu.Unlock()

	// Send initial state
	if payload, err := s.stateJSON(); err == nil {
		ws.WriteMessage(websocket.TextMessage, payload)
	}
}

func (s *Server) handleMessages() {
	for msg := range s.broadcast {
		s.mu.Lock()
		for client := range s.clients {
			if err := client.WriteMessage(websocket.TextMessage, msg); err != nil {
				client.Close()
				delete(s.clients, client)
			}
		}
		s.mu.Unlock()
	}
}

func (s *Server) handleLogs() {
	for entry := range s.logChan {
		msg := struct {
			Type string `json:"type"`
			logger.Entry
		}{Type: "log", Entry: entry}

		payload, err := json.Marshal(msg)
		if err != nil {
			continue
		}
		s.mu.Lock()
		for client := range s.clients {
			// Fire and forget so logs never block state updates
			client.WriteMessage(websocket.TextMessage, payload)
		}
		s.mu.Unlock()
	}
}

// BroadcastUpdate pushes the current state to all connected clients.
func (s *Server) BroadcastUpdate() {
	if !s.cfg.EnableDashboard || s.cfg.DashPort <= 0 {
		return
	}

	payload, err := s.stateJSON()
	if err != nil {
		logger.Warn("DASH", "Failed to marshal state for broadcast: %v", err)
		return
	}

	select {
	case s.broadcast <- payload:
	default:
		// No reader yet; drop rather than block the polling loop.
	}
}

func (s *Server) stateJSON() ([]byte, error) {
	msg := struct {
		Type  string         `json:"type"`
		State state.Snapshot `json:"state"`
	}{Type: "state", State: s.store.Snapshot()}
	return json.Marshal(msg)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	payload, err := json.Marshal(s.store.Snapshot())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(payload)
}
