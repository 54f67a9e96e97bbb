package routes

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/dbertolani/noise-guard/pkg/mesh"
	"github.com/dbertolani/noise-guard/pkg/models"
	"github.com/dbertolani/noise-guard/pkg/store"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

// StatusRouter serves the read-only operational API: known nodes, pending
// alerts and the loudest nodes of the current hour.
type StatusRouter struct {
	storage *store.Stores
	server  *http.Server
}

func NewStatusRouter(storage *store.Stores) *StatusRouter {
	return &StatusRouter{storage: storage}
}

func (sr *StatusRouter) handler() http.Handler {
	myRouter := mux.NewRouter().StrictSlash(true)

	myRouter.HandleFunc("/healthz", sr.healthz).Methods("GET")
	myRouter.HandleFunc("/api/nodes", sr.getNodes).Methods("GET")
	myRouter.HandleFunc("/api/nodes/{id}", sr.getNode).Methods("GET")
	myRouter.HandleFunc("/api/notifications/pending", sr.getPendingNotifications).Methods("GET")
	myRouter.HandleFunc("/api/notifications/recent", sr.getRecentNotifications).Methods("GET")
	myRouter.HandleFunc("/api/windows/top", sr.getTopWindows).Methods("GET")

	myRouter.Use(handlers.ProxyHeaders)
	myRouter.Use(RequestLogger)
	h := handlers.RecoveryHandler()
	return h(myRouter)
}

// Serve blocks until the listener fails or Shutdown is called.
func (sr *StatusRouter) Serve(listenAddr string) error {
	sr.server = &http.Server{Addr: listenAddr, Handler: sr.handler()}
	err := sr.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (sr *StatusRouter) Shutdown(ctx context.Context) error {
	if sr.server == nil {
		return nil
	}
	return sr.server.Shutdown(ctx)
}

func RequestLogger(h http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		slog.Info("endpoint hit", "method", r.Method, "path", r.URL.Path, "remote_host", r.RemoteAddr, "user_agent", r.UserAgent())
		h.ServeHTTP(w, r)
	}
	return http.HandlerFunc(fn)
}

func (sr *StatusRouter) healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

type NodesResponse struct {
	Nodes []*models.NodeOverview `json:"nodes"`
}

func (sr *StatusRouter) getNodes(w http.ResponseWriter, r *http.Request) {
	nodes, err := sr.storage.Nodes.ListOverview()
	if err != nil {
		slog.Error("error fetching nodes", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if nodes == nil {
		nodes = []*models.NodeOverview{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(NodesResponse{Nodes: nodes})
}

type NodeDetailResponse struct {
	NodeID        string          `json:"node_id"`
	DisplayName   string          `json:"display_name"`
	ShortName     *string         `json:"short_name,omitempty"`
	LongName      *string         `json:"long_name,omitempty"`
	CurrentWindow *WindowResponse `json:"current_window,omitempty"`
}

func (sr *StatusRouter) getNode(w http.ResponseWriter, r *http.Request) {
	nodeNum := mesh.NormalizeNodeID(mux.Vars(r)["id"])
	if nodeNum == "" {
		http.Error(w, "Invalid node id", http.StatusBadRequest)
		return
	}

	node, err := sr.storage.Nodes.Get(nodeNum)
	if err != nil {
		slog.Error("error fetching node", "node_num", nodeNum, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if node == nil {
		http.Error(w, "Node not found", http.StatusNotFound)
		return
	}

	resp := NodeDetailResponse{
		NodeID:      node.NodeNum,
		DisplayName: node.DisplayName(),
		ShortName:   node.ShortName,
		LongName:    node.LongName,
	}

	windowStart, _ := models.WindowFor(time.Now())
	hw, err := sr.storage.Windows.Get(nodeNum, windowStart)
	if err != nil {
		slog.Error("error fetching current window", "node_num", nodeNum, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if hw != nil {
		cats := map[string]int64{}
		for cat, n := range hw.CategoryCounts() {
			cats[string(cat)] = n
		}
		resp.CurrentWindow = &WindowResponse{
			NodeID:      hw.NodeNum,
			WindowStart: hw.WindowStart,
			WindowEnd:   hw.WindowEnd,
			TotalCount:  hw.TotalCount,
			Categories:  cats,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

type PendingNotificationsResponse struct {
	Notifications []*models.Notification `json:"notifications"`
}

func (sr *StatusRouter) getPendingNotifications(w http.ResponseWriter, r *http.Request) {
	pending, err := sr.storage.Notifications.GetPending()
	if err != nil {
		slog.Error("error fetching pending notifications", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if pending == nil {
		pending = []*models.Notification{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(PendingNotificationsResponse{Notifications: pending})
}

type RecentNotificationsResponse struct {
	Notifications []*models.Notification `json:"notifications"`
}

func (sr *StatusRouter) getRecentNotifications(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	recent, err := sr.storage.Notifications.ListRecent(limit)
	if err != nil {
		slog.Error("error fetching recent notifications", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if recent == nil {
		recent = []*models.Notification{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(RecentNotificationsResponse{Notifications: recent})
}

type WindowResponse struct {
	NodeID      string           `json:"node_id"`
	WindowStart time.Time        `json:"window_start"`
	WindowEnd   time.Time        `json:"window_end"`
	TotalCount  int64            `json:"total_count"`
	Categories  map[string]int64 `json:"categories"`
}

type TopWindowsResponse struct {
	WindowStart time.Time        `json:"window_start"`
	Windows     []WindowResponse `json:"windows"`
}

func (sr *StatusRouter) getTopWindows(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	windowStart, _ := models.WindowFor(time.Now())
	windows, err := sr.storage.Windows.TopForWindow(windowStart, limit)
	if err != nil {
		slog.Error("error fetching top windows", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	resp := TopWindowsResponse{WindowStart: windowStart, Windows: []WindowResponse{}}
	for _, hw := range windows {
		cats := map[string]int64{}
		for cat, n := range hw.CategoryCounts() {
			cats[string(cat)] = n
		}
		resp.Windows = append(resp.Windows, WindowResponse{
			NodeID:      hw.NodeNum,
			WindowStart: hw.WindowStart,
			WindowEnd:   hw.WindowEnd,
			TotalCount:  hw.TotalCount,
			Categories:  cats,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
