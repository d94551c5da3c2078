package testimonial

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"testimonial-canvas-server/modules/common/config"
	"testimonial-canvas-server/modules/render"
)

type TestimonialHandler struct {
	service *Service
}

func NewTestimonialHandler() *TestimonialHandler {
	return &TestimonialHandler{
		service: NewService(),
	}
}

// RegisterRoutes - 라우터에 Testimonial 엔드포인트 등록
func (h *TestimonialHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/testimonial/extract", h.ExtractTestimonial).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/testimonial/render", h.RenderTestimonial).Methods("POST", "OPTIONS")
	log.Println("✅ Testimonial routes registered: /api/testimonial/extract, /api/testimonial/render")
}

// ExtractTestimonial - 스크린샷 업로드 → 말풍선 추출 → 아바타 탐색 → PNG 렌더까지 동기 수행
func (h *TestimonialHandler) ExtractTestimonial(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	// OPTIONS 요청 처리 (CORS preflight)
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	files := r.MultipartForm.File["images"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "No images uploaded (field: images)")
		return
	}
	if len(files) > MaxImageCount {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Too many images: %d (max %d)", len(files), MaxImageCount))
		return
	}

	opts, err := parseStyleField(r.FormValue("style"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid style JSON")
		return
	}

	// 업로드 파일을 요청 스코프 임시 경로에 저장하고 어떤 경로로 끝나든 삭제한다
	cfg := config.GetConfig()
	uploadDir := cfg.UploadDir
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		log.Printf("❌ Failed to create upload dir: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to prepare upload directory")
		return
	}

	var savedPaths []string
	defer func() {
		for _, p := range savedPaths {
			if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
				log.Printf("⚠️ Failed to clean up upload %s: %v", p, err)
			}
		}
	}()

	for _, fh := range files {
		src, err := fh.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, "Failed to read uploaded file")
			return
		}
		data, err := io.ReadAll(io.LimitReader(src, MaxImageBytes+1))
		src.Close()
		if err != nil {
			writeError(w, http.StatusBadRequest, "Failed to read uploaded file")
			return
		}
		path := filepath.Join(uploadDir, fmt.Sprintf("%s%s", uuid.New().String(), filepath.Ext(fh.Filename)))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			log.Printf("❌ Failed to save upload: %v", err)
			writeError(w, http.StatusInternalServerError, "Failed to save uploaded file")
			return
		}
		savedPaths = append(savedPaths, path)
	}

	log.Printf("📥 [Testimonial] Extract request: %d image(s), preset=%s", len(savedPaths), opts.Preset)

	images, err := IngestFiles(savedPaths)
	if err != nil {
		respondPipelineError(w, err)
		return
	}

	result, err := h.service.Process(r.Context(), images, opts)
	if err != nil {
		respondPipelineError(w, err)
		return
	}

	if path, err := h.service.PersistOutput(result.PNG); err != nil {
		log.Printf("⚠️ Failed to persist output: %v", err)
	} else if path != "" {
		log.Printf("📤 [Testimonial] Output written: %s", path)
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":  true,
		"messages": result.Messages,
		"image":    result.PNGBase64,
		"width":    result.Width,
		"height":   result.Height,
	})
}

// RenderTestimonial - 이미 추출/수정된 메시지 JSON으로 렌더링만 수행
func (h *TestimonialHandler) RenderTestimonial(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	var req struct {
		Messages []MessageWithAvatar `json:"messages"`
		Style    render.Options      `json:"style"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request format")
		return
	}
	if len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "No messages to render")
		return
	}

	log.Printf("📥 [Testimonial] Render request: %d message(s), preset=%s", len(req.Messages), req.Style.Preset)

	result, err := h.service.RenderOnly(r.Context(), req.Messages, req.Style)
	if err != nil {
		respondPipelineError(w, err)
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"image":   result.PNGBase64,
		"width":   result.Width,
		"height":  result.Height,
	})
}

// parseStyleField - multipart form의 style 필드 (JSON) 파싱. 비어있으면 기본값.
func parseStyleField(raw string) (render.Options, error) {
	var opts render.Options
	if raw == "" {
		return opts, nil
	}
	if err := json.Unmarshal([]byte(raw), &opts); err != nil {
		return opts, err
	}
	return opts, nil
}

// respondPipelineError - 에러 종별 → HTTP 상태 매핑
func respondPipelineError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch KindOf(err) {
	case KindInput:
		status = http.StatusBadRequest
	case KindInsufficientFunds:
		status = http.StatusPaymentRequired
	}
	log.Printf("❌ [Testimonial] Pipeline error (%s): %v", KindOf(err), err)
	writeError(w, status, err.Error())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error": msg,
	})
}
