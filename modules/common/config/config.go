package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config 구조체 - 모든 환경변수를 담음
type Config struct {
	// Redis
	RedisHost     string
	RedisPort     string
	RedisUsername string
	RedisPassword string
	RedisUseTLS   bool

	// Supabase
	SupabaseURL        string
	SupabaseServiceKey string

	// Gemini API
	GeminiAPIKeys []string
	GeminiModel   string

	// Face Detection
	FaceModelDir string

	// Testimonial 파이프라인
	UploadDir    string
	OutputDir    string
	DebugAvatars bool
	DebugDir     string

	// Server
	Port string
}

var globalConfig *Config

// LoadConfig - 환경변수 로드
func LoadConfig() (*Config, error) {
	// .env 파일 로드 (있으면)
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  .env file not found, using environment variables")
	}

	// Redis UseTLS 파싱
	useTLS := true // 기본값
	if tlsStr := os.Getenv("REDIS_USE_TLS"); tlsStr != "" {
		if parsed, err := strconv.ParseBool(tlsStr); err == nil {
			useTLS = parsed
		}
	}

	// DEBUG_AVATARS 파싱
	debugAvatars := false
	if debugStr := os.Getenv("DEBUG_AVATARS"); debugStr != "" {
		if parsed, err := strconv.ParseBool(debugStr); err == nil {
			debugAvatars = parsed
		}
	}

	globalConfig = &Config{
		// Redis
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisUsername: getEnv("REDIS_USERNAME", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisUseTLS:   useTLS,

		// Supabase (없으면 storage 업로드 비활성)
		SupabaseURL:        getEnv("SUPABASE_URL", ""),
		SupabaseServiceKey: getEnv("SUPABASE_SERVICE_KEY", ""),

		// Gemini API
		GeminiAPIKeys: parseAPIKeys(),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-2.0-flash"),

		// Face Detection
		FaceModelDir: getEnv("FACE_MODEL_DIR", "models"),

		// Testimonial 파이프라인
		UploadDir:    getEnv("UPLOAD_DIR", "uploads/testimonials"),
		OutputDir:    getEnv("OUTPUT_DIR", "uploads/testimonials/output"),
		DebugAvatars: debugAvatars,
		DebugDir:     getEnv("DEBUG_DIR", "debug/testimonial-avatars"),

		// Server
		Port: getEnv("PORT", "8080"),
	}

	// 필수 환경변수 검증
	if err := globalConfig.validate(); err != nil {
		return nil, err
	}

	log.Println("✅ Configuration loaded successfully")
	log.Printf("   Redis: %s:%s (TLS: %v)", globalConfig.RedisHost, globalConfig.RedisPort, globalConfig.RedisUseTLS)
	log.Printf("   Gemini: %s (%d keys)", globalConfig.GeminiModel, len(globalConfig.GeminiAPIKeys))
	log.Printf("   Face model dir: %s", globalConfig.FaceModelDir)
	log.Printf("   Upload dir: %s", globalConfig.UploadDir)
	log.Printf("   Debug avatars: %v", globalConfig.DebugAvatars)

	return globalConfig, nil
}

// GetConfig - 로드된 설정 가져오기
func GetConfig() *Config {
	if globalConfig == nil {
		log.Fatal("❌ Config not loaded. Call LoadConfig() first.")
	}
	return globalConfig
}

// SetConfigForTest - 테스트 전용 설정 주입
func SetConfigForTest(c *Config) {
	globalConfig = c
}

// parseAPIKeys - GEMINI_API_KEYS (콤마 구분) 우선, 없으면 GEMINI_API_KEY 단일 키
func parseAPIKeys() []string {
	if multi := os.Getenv("GEMINI_API_KEYS"); multi != "" {
		var keys []string
		for _, k := range strings.Split(multi, ",") {
			if trimmed := strings.TrimSpace(k); trimmed != "" {
				keys = append(keys, trimmed)
			}
		}
		if len(keys) > 0 {
			return keys
		}
	}
	if single := os.Getenv("GEMINI_API_KEY"); single != "" {
		return []string{single}
	}
	return nil
}

// validate - 필수 환경변수 검증
func (c *Config) validate() error {
	if len(c.GeminiAPIKeys) == 0 {
		return fmt.Errorf("GEMINI_API_KEY (or GEMINI_API_KEYS) is required")
	}
	if c.RedisHost == "" {
		return fmt.Errorf("REDIS_HOST is required")
	}
	return nil
}

// getEnv - 환경변수 가져오기 (기본값 지원)
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetRedisAddr - Redis 연결 문자열 생성
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}
