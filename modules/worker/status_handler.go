package worker

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"testimonial-canvas-server/modules/common/config"
	redisClient "testimonial-canvas-server/modules/common/redis"
)

// StatusHandler - 작업 상태 조회/취소 API 핸들러
type StatusHandler struct {
	rdb *redis.Client
}

// NewStatusHandler - 핸들러 생성
func NewStatusHandler() *StatusHandler {
	cfg := config.GetConfig()
	if cfg == nil {
		log.Println("❌ [StatusHandler] Failed to get config")
		return nil
	}

	rdb := redisClient.Connect(cfg)
	if rdb == nil {
		log.Println("❌ [StatusHandler] Failed to connect to Redis")
		return nil
	}

	return &StatusHandler{
		rdb: rdb,
	}
}

// RegisterRoutes - 라우트 등록
func (h *StatusHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/testimonial/status/{jobId}", h.GetJobStatus).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/testimonial/jobs/{jobId}/cancel", h.CancelJob).Methods("POST", "OPTIONS")
	log.Println("✅ [StatusHandler] Routes registered: GET /api/testimonial/status/{jobId}, POST /api/testimonial/jobs/{jobId}/cancel")
}

// GetJobStatus - GET /api/testimonial/status/{jobId}
func (h *StatusHandler) GetJobStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	jobID := mux.Vars(r)["jobId"]

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	fields, err := h.rdb.HGetAll(ctx, statusKey(jobID)).Result()
	if err != nil || len(fields) == 0 {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{
			"error": "Job not found",
		})
		return
	}

	status := JobStatus{
		JobID:     jobID,
		Status:    fields["status"],
		Error:     fields["error"],
		ResultURL: fields["resultUrl"],
		UpdatedAt: fields["updatedAt"],
	}
	status.Width, _ = strconv.Atoi(fields["width"])
	status.Height, _ = strconv.Atoi(fields["height"])

	json.NewEncoder(w).Encode(status)
}

// CancelJob - POST /api/testimonial/jobs/{jobId}/cancel
// 큐에서 아직 꺼내지 않은 작업만 취소 표시한다. 이미 처리 중인 작업은 끝까지 간다.
func (h *StatusHandler) CancelJob(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	jobID := mux.Vars(r)["jobId"]

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	status, err := h.rdb.HGet(ctx, statusKey(jobID), "status").Result()
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{
			"error": "Job not found",
		})
		return
	}

	if status != StatusQueued {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{
			"error": "Only queued jobs can be cancelled (current: " + status + ")",
		})
		return
	}

	// 큐에서 제거하고 상태 갱신
	removed, _ := h.rdb.LRem(ctx, QueueKey, 0, jobID).Result()
	setStatus(ctx, h.rdb, jobID, JobStatus{Status: StatusCancelled})
	h.rdb.Del(ctx, payloadKey(jobID))

	log.Printf("⭕ Job %s cancelled (removed from queue: %d)", jobID, removed)

	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"jobId":   jobID,
		"status":  StatusCancelled,
	})
}
