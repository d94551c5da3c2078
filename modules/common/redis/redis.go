package redis

import (
	"context"
	"crypto/tls"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"testimonial-canvas-server/modules/common/config"
)

// BRPOP이 연결을 오래 점유하므로 ReadTimeout은 0 (무제한)으로 둔다.
// 일반 명령은 호출부에서 context 타임아웃으로 제한한다.
const dialTimeout = 10 * time.Second

// Connect - 작업 큐/상태 해시용 Redis 클라이언트 생성. 실패 시 nil.
func Connect(cfg *config.Config) *redis.Client {
	log.Printf("🔌 Connecting to Redis: %s", cfg.GetRedisAddr())

	var tlsConfig *tls.Config
	if cfg.RedisUseTLS {
		tlsConfig = &tls.Config{
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: true, // Render.com Redis용
		}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.GetRedisAddr(),
		Username:     cfg.RedisUsername,
		Password:     cfg.RedisPassword,
		TLSConfig:    tlsConfig,
		DB:           0,
		DialTimeout:  dialTimeout,
		ReadTimeout:  0, // blocking pop 허용
		WriteTimeout: 30 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("❌ Redis ping failed: %v", err)
		return nil
	}

	log.Printf("✅ Redis ready: %s", cfg.GetRedisAddr())
	return rdb
}
