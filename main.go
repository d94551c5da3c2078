package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"testimonial-canvas-server/modules/common/config"
	"testimonial-canvas-server/modules/common/facemodel"
	"testimonial-canvas-server/modules/testimonial"
	"testimonial-canvas-server/modules/worker"
)

// CORS 헤더 추가
func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// 헬스 체크 엔드포인트
func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"service": "testimonial-canvas-server",
	})
}

func main() {
	// 환경변수 로드
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	// 얼굴 탐지 모델은 기동 시점에 로드. 없으면 여기서 죽는다.
	if _, err := facemodel.Get(cfg.FaceModelDir); err != nil {
		log.Fatalf("❌ Failed to load face detection model: %v", err)
	}
	log.Println("✅ Face detection model loaded")

	// Redis Queue Worker 시작 (백그라운드)
	go worker.StartWorker()

	// 라우터 설정
	r := mux.NewRouter()

	// CORS 미들웨어 적용
	r.Use(enableCORS)

	// 라우트 설정
	r.HandleFunc("/", healthCheck).Methods("GET")
	r.HandleFunc("/health", healthCheck).Methods("GET")
	r.HandleFunc("/ws", worker.GetHub().HandleWS)

	// Testimonial 모듈
	testimonial.NewTestimonialHandler().RegisterRoutes(r)

	// Queue 핸들러
	if h := worker.NewEnqueueHandler(); h != nil {
		h.RegisterRoutes(r)
	}
	if h := worker.NewStatusHandler(); h != nil {
		h.RegisterRoutes(r)
	}

	// 포트 설정 (Render.com은 PORT 환경변수 사용)
	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}
	if port == "" {
		port = "8080"
	}

	log.Printf("🚀 Testimonial Canvas Server starting on port %s", port)
	log.Printf("📡 WebSocket endpoint: ws://localhost:%s/ws?job=<jobId>", port)
	log.Printf("❤️  Health check: http://localhost:%s/health", port)

	// 서버 시작
	if err := http.ListenAndServe(":"+port, r); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
