package worker

import (
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub - 작업 ID별 진행 상황 구독을 관리하는 WebSocket 허브
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[*websocket.Conn]bool
}

var (
	hubOnce sync.Once
	hub     *Hub
)

func GetHub() *Hub {
	hubOnce.Do(func() {
		hub = &Hub{
			subs: make(map[string]map[*websocket.Conn]bool),
		}
	})
	return hub
}

// HandleWS - GET /ws?job=<jobId> 구독 연결
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	jobID := r.URL.Query().Get("job")
	if jobID == "" {
		http.Error(w, "job query parameter required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("❌ WebSocket upgrade failed: %v", err)
		return
	}

	h.subscribe(jobID, conn)
	log.Printf("👤 Client subscribed to job %s", jobID)

	// 읽기 루프는 연결 종료 감지 용도
	go func() {
		defer h.unsubscribe(jobID, conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) subscribe(jobID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[jobID] == nil {
		h.subs[jobID] = make(map[*websocket.Conn]bool)
	}
	h.subs[jobID][conn] = true
}

func (h *Hub) unsubscribe(jobID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set := h.subs[jobID]; set != nil {
		delete(set, conn)
		if len(set) == 0 {
			delete(h.subs, jobID)
		}
	}
	conn.Close()
	log.Printf("👋 Client left job %s", jobID)
}

// Publish - 작업 상태를 해당 작업 구독자 전원에게 전송. 쓰기 실패 연결은 정리한다.
func (h *Hub) Publish(jobID string, status JobStatus) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.subs[jobID]))
	for c := range h.subs[jobID] {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		if err := c.WriteJSON(status); err != nil {
			log.Printf("⚠️ WebSocket write failed for job %s: %v", jobID, err)
			h.unsubscribe(jobID, c)
		}
	}
}
