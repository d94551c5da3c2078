package worker

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"testimonial-canvas-server/modules/common/config"
	redisClient "testimonial-canvas-server/modules/common/redis"
	"testimonial-canvas-server/modules/common/storage"
	"testimonial-canvas-server/modules/testimonial"
)

const statusTTL = time.Hour

// StartWorker - Redis Queue Worker 시작
func StartWorker() {
	log.Println("🔄 Testimonial queue worker starting...")

	cfg := config.GetConfig()

	rdb := redisClient.Connect(cfg)
	if rdb == nil {
		log.Fatal("❌ Failed to connect to Redis")
		return
	}
	log.Println("✅ Redis connected successfully")

	svc := testimonial.NewService()
	store := storage.NewClient()

	log.Printf("👀 Watching queue: %s", QueueKey)

	ctx := context.Background()

	for {
		// Job 받기 (BRPOP - Blocking Right Pop)
		result, err := rdb.BRPop(ctx, 0, QueueKey).Result()
		if err != nil {
			log.Printf("❌ Redis BRPOP error: %v", err)
			time.Sleep(5 * time.Second)
			continue
		}

		// result[0]은 큐 이름, result[1]이 실제 job_id
		jobID := result[1]
		log.Printf("🎯 Received new job: %s", jobID)

		go processJob(ctx, rdb, svc, store, jobID)
	}
}

// processJob - 작업 하나를 끝까지 처리한다. 실패는 상태 해시와 허브로만 전파.
func processJob(ctx context.Context, rdb *redis.Client, svc *testimonial.Service, store *storage.Client, jobID string) {
	log.Printf("🚀 Processing job: %s", jobID)

	// 취소 요청이 먼저 들어온 작업은 건너뛴다
	if status, _ := rdb.HGet(ctx, statusKey(jobID), "status").Result(); status == StatusCancelled {
		log.Printf("⭕ Job %s was cancelled before processing, skipping", jobID)
		return
	}

	raw, err := rdb.Get(ctx, payloadKey(jobID)).Result()
	if err != nil {
		log.Printf("❌ Failed to load payload for job %s: %v", jobID, err)
		setStatus(ctx, rdb, jobID, JobStatus{Status: StatusFailed, Error: "payload not found"})
		return
	}

	var payload JobPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		log.Printf("❌ Invalid payload for job %s: %v", jobID, err)
		setStatus(ctx, rdb, jobID, JobStatus{Status: StatusFailed, Error: "invalid payload"})
		return
	}

	setStatus(ctx, rdb, jobID, JobStatus{Status: StatusProcessing})

	buffers := make([][]byte, 0, len(payload.Images))
	for i, b64 := range payload.Images {
		data, err := base64.StdEncoding.DecodeString(b64)
		if err != nil {
			log.Printf("❌ Job %s: image %d is not valid base64: %v", jobID, i, err)
			setStatus(ctx, rdb, jobID, JobStatus{Status: StatusFailed, Error: "invalid image encoding"})
			return
		}
		buffers = append(buffers, data)
	}

	images, err := testimonial.IngestBuffers(buffers)
	if err != nil {
		log.Printf("❌ Job %s: ingest failed: %v", jobID, err)
		setStatus(ctx, rdb, jobID, JobStatus{Status: StatusFailed, Error: err.Error()})
		return
	}

	result, err := svc.Process(ctx, images, payload.Style)
	if err != nil {
		log.Printf("❌ Job %s: pipeline failed: %v", jobID, err)
		setStatus(ctx, rdb, jobID, JobStatus{Status: StatusFailed, Error: err.Error()})
		return
	}

	status := JobStatus{
		Status: StatusCompleted,
		Width:  result.Width,
		Height: result.Height,
	}

	// Supabase가 설정되어 있으면 WebP로 업로드하고 URL을 결과로 남긴다
	if store != nil {
		url, err := store.UploadTestimonialPNG(result.PNG, jobID)
		if err != nil {
			log.Printf("⚠️ Job %s: upload failed, keeping local result only: %v", jobID, err)
		} else {
			status.ResultURL = url
			log.Printf("📤 Job %s: uploaded result → %s", jobID, url)
		}
	}

	setStatus(ctx, rdb, jobID, status)
	rdb.Del(ctx, payloadKey(jobID))
	log.Printf("✅ Job %s completed: %d message(s), %dx%d", jobID, len(result.Messages), result.Width, result.Height)
}

// setStatus - 상태 해시 갱신 + WebSocket 구독자에게 브로드캐스트
func setStatus(ctx context.Context, rdb *redis.Client, jobID string, s JobStatus) {
	s.JobID = jobID
	s.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

	fields := map[string]interface{}{
		"status":    s.Status,
		"updatedAt": s.UpdatedAt,
	}
	if s.Error != "" {
		fields["error"] = s.Error
	}
	if s.ResultURL != "" {
		fields["resultUrl"] = s.ResultURL
	}
	if s.Width > 0 {
		fields["width"] = s.Width
		fields["height"] = s.Height
	}
	if err := rdb.HSet(ctx, statusKey(jobID), fields).Err(); err != nil {
		log.Printf("⚠️ Failed to update status for job %s: %v", jobID, err)
	}
	rdb.Expire(ctx, statusKey(jobID), statusTTL)

	GetHub().Publish(jobID, s)
}
