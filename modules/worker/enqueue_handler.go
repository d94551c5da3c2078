package worker

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"testimonial-canvas-server/modules/common/config"
	redisClient "testimonial-canvas-server/modules/common/redis"
	"testimonial-canvas-server/modules/render"
)

// EnqueueHandler - 추출/렌더 작업을 Redis Queue에 넣는 핸들러
type EnqueueHandler struct {
	rdb *redis.Client
}

// EnqueueRequest - Enqueue 요청
type EnqueueRequest struct {
	Images []string       `json:"images"` // base64 인코딩 스크린샷
	Style  render.Options `json:"style"`
}

// EnqueueResponse - Enqueue 응답
type EnqueueResponse struct {
	Success       bool   `json:"success"`
	Error         string `json:"error,omitempty"`
	JobID         string `json:"jobId,omitempty"`
	Queue         string `json:"queue,omitempty"`
	QueuePosition int64  `json:"queuePosition,omitempty"`
}

// NewEnqueueHandler - EnqueueHandler 생성
func NewEnqueueHandler() *EnqueueHandler {
	cfg := config.GetConfig()

	rdb := redisClient.Connect(cfg)
	if rdb == nil {
		log.Println("⚠️ [Enqueue] Failed to connect to Redis")
		return nil
	}

	log.Println("✅ [Enqueue] Handler initialized with Redis connection")
	return &EnqueueHandler{
		rdb: rdb,
	}
}

// RegisterRoutes - 라우트 등록
func (h *EnqueueHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/testimonial/enqueue", h.HandleEnqueue).Methods("POST", "OPTIONS")
	log.Println("✅ Enqueue routes registered: /api/testimonial/enqueue")
}

// HandleEnqueue - POST /api/testimonial/enqueue
func (h *EnqueueHandler) HandleEnqueue(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	// OPTIONS 요청 처리
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	var req EnqueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("❌ [Enqueue] Invalid request: %v", err)
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(EnqueueResponse{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	if len(req.Images) == 0 {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(EnqueueResponse{
			Success: false,
			Error:   "images is required",
		})
		return
	}

	jobID := uuid.New().String()
	payload := JobPayload{
		JobID:  jobID,
		Images: req.Images,
		Style:  req.Style,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(EnqueueResponse{
			Success: false,
			Error:   "Failed to encode job payload",
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := h.rdb.Set(ctx, payloadKey(jobID), data, statusTTL).Err(); err != nil {
		log.Printf("❌ [Enqueue] Failed to store payload: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(EnqueueResponse{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	setStatus(ctx, h.rdb, jobID, JobStatus{Status: StatusQueued})

	if _, err := h.rdb.LPush(ctx, QueueKey, jobID).Result(); err != nil {
		log.Printf("❌ [Enqueue] Redis LPUSH failed: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(EnqueueResponse{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	queueLen, _ := h.rdb.LLen(ctx, QueueKey).Result()

	log.Printf("✅ [Enqueue] Job %s enqueued successfully (position: %d)", jobID, queueLen)

	json.NewEncoder(w).Encode(EnqueueResponse{
		Success:       true,
		JobID:         jobID,
		Queue:         QueueKey,
		QueuePosition: queueLen,
	})
}
