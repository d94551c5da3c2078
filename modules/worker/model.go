package worker

import (
	"fmt"

	"testimonial-canvas-server/modules/render"
)

const (
	// QueueKey - 작업 ID가 쌓이는 Redis 리스트
	QueueKey = "testimonial:jobs"

	// 작업 상태
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusCancelled  = "cancelled"
)

// JobPayload - 큐에 넣을 때 저장되는 작업 입력
type JobPayload struct {
	JobID  string         `json:"jobId"`
	Images []string       `json:"images"` // base64 인코딩된 원본 스크린샷
	Style  render.Options `json:"style"`
}

// JobStatus - 상태 조회 응답
type JobStatus struct {
	JobID     string `json:"jobId"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	ResultURL string `json:"resultUrl,omitempty"`
	Width     int    `json:"width,omitempty"`
	Height    int    `json:"height,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// payloadKey / statusKey - Redis 키 네이밍
func payloadKey(jobID string) string {
	return fmt.Sprintf("testimonial:job:%s:payload", jobID)
}

func statusKey(jobID string) string {
	return fmt.Sprintf("testimonial:job:%s", jobID)
}
