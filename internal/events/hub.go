package events

import (
	"bufio"
	"encoding/json"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"bookhub/pkg/models"
)

const defaultWriteTimeout = 2 * time.Second

type Hub struct {
	mu        sync.Mutex
	clients   map[net.Conn]struct{}
	wsClients map[*websocket.Conn]struct{}
	logger    *slog.Logger
	now       func() time.Time

	// sendMu serializes broadcasts; a websocket conn allows one writer.
	sendMu       sync.Mutex
	writeTimeout time.Duration
}

type Stats struct {
	TCPClients int `json:"tcp_clients"`
	WSClients  int `json:"ws_clients"`
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients:   make(map[net.Conn]struct{}),
		wsClients: make(map[*websocket.Conn]struct{}),
		logger:       logger,
		now:          time.Now,
		writeTimeout: defaultWriteTimeout,
	}
}

func (h *Hub) Add(conn net.Conn) {
	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) Remove(conn net.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	_ = conn.Close()
}

func (h *Hub) AddWS(ws *websocket.Conn) {
	h.mu.Lock()
	h.wsClients[ws] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) RemoveWS(ws *websocket.Conn) {
	h.mu.Lock()
	delete(h.wsClients, ws)
	h.mu.Unlock()
	_ = ws.Close()
}

// BroadcastJSON writes v as one line to every client. Writes run in
// parallel outside the client lock, each bounded by the write timeout.
// Clients that fail a write are dropped.
func (h *Hub) BroadcastJSON(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("encode event", "err", err)
		return
	}
	b = append(b, '\n')

	h.sendMu.Lock()
	defer h.sendMu.Unlock()

	h.mu.Lock()
	conns := make([]net.Conn, 0, len(h.clients))
	for c := range h.clients {
		conns = append(conns, c)
	}
	wss := make([]*websocket.Conn, 0, len(h.wsClients))
	for ws := range h.wsClients {
		wss = append(wss, ws)
	}
	h.mu.Unlock()

	var wg sync.WaitGroup
	for _, c := range conns {
		wg.Add(1)
		go func(c net.Conn) {
			defer wg.Done()
			if err := h.writeConn(c, b); err != nil {
				h.logger.Debug("dropping tcp watcher", "addr", c.RemoteAddr().String(), "err", err)
				h.Remove(c)
			}
		}(c)
	}
	for _, ws := range wss {
		wg.Add(1)
		go func(ws *websocket.Conn) {
			defer wg.Done()
			_ = ws.SetWriteDeadline(time.Now().Add(h.writeTimeout))
			if err := ws.WriteMessage(websocket.TextMessage, b); err != nil {
				h.logger.Debug("dropping ws watcher", "err", err)
				h.RemoveWS(ws)
			}
		}(ws)
	}
	wg.Wait()
}

func (h *Hub) writeConn(c net.Conn, b []byte) error {
	_ = c.SetWriteDeadline(time.Now().Add(h.writeTimeout))
	w := bufio.NewWriter(c)
	if _, err := w.Write(b); err != nil {
		return err
	}
	return w.Flush()
}

// RunFinished publishes the outcome of an ingestion run.
func (h *Hub) RunFinished(runID string, stats models.IngestionStats, err error) {
	ev := IngestEvent{Type: TypeIngestCompleted, RunID: runID, At: h.now().UTC()}
	if err != nil {
		ev.Type = TypeIngestFailed
		ev.Error = err.Error()
	} else {
		ev.Stats = &stats
	}
	h.BroadcastJSON(ev)
}

func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients) + len(h.wsClients)
}

func (h *Hub) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Stats{
		TCPClients: len(h.clients),
		WSClients:  len(h.wsClients),
	}
}

// Close disconnects every watcher.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		_ = c.Close()
		delete(h.clients, c)
	}
	for ws := range h.wsClients {
		_ = ws.Close()
		delete(h.wsClients, ws)
	}
}

func welcome(transport string, clients int) []byte {
	b, _ := json.Marshal(Welcome{Type: TypeWelcome, Transport: transport, Clients: clients})
	return append(b, '\n')
}
