package storage

import (
	"bytes"
	"fmt"
	"log"
	"time"

	storage_go "github.com/supabase-community/storage-go"
	"github.com/supabase-community/supabase-go"

	"testimonial-canvas-server/modules/common/config"
	"testimonial-canvas-server/modules/common/utils"
)

// Bucket - 업로드 대상 버킷
const Bucket = "attachments"

type Client struct {
	supabase *supabase.Client
}

// NewClient - Storage 클라이언트 생성 (Supabase 미설정 시 nil)
func NewClient() *Client {
	cfg := config.GetConfig()

	if cfg.SupabaseURL == "" || cfg.SupabaseServiceKey == "" {
		log.Println("⚠️  [Storage] Supabase not configured, upload disabled")
		return nil
	}

	supabaseClient, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseServiceKey, &supabase.ClientOptions{})
	if err != nil {
		log.Printf("❌ [Storage] Failed to create Supabase client: %v", err)
		return nil
	}

	log.Println("✅ [Storage] Supabase client initialized")
	return &Client{supabase: supabaseClient}
}

// UploadTestimonialPNG - 렌더링된 PNG를 WebP로 변환하여 Supabase Storage에 업로드
func (c *Client) UploadTestimonialPNG(pngData []byte, jobID string) (string, error) {
	// PNG를 WebP로 변환 (quality: 90)
	webpData, err := utils.ConvertPNGToWebP(pngData, 90.0)
	if err != nil {
		return "", fmt.Errorf("failed to convert PNG to WebP: %w", err)
	}

	timestamp := time.Now().UnixNano() / int64(time.Millisecond)
	fileName := fmt.Sprintf("testimonial_%d_%s.webp", timestamp, jobID)
	filePath := fmt.Sprintf("testimonial-outputs/%s", fileName)

	log.Printf("📤 [Storage] Uploading WebP image: %s (%d bytes → %d bytes)",
		filePath, len(pngData), len(webpData))

	contentType := "image/webp"
	_, err = c.supabase.Storage.UploadFile(Bucket, filePath, bytes.NewReader(webpData), storage_go.FileOptions{
		ContentType: &contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}

	log.Printf("✅ [Storage] Uploaded successfully: %s", filePath)
	return filePath, nil
}
