package testimonial

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"testimonial-canvas-server/modules/common/config"
	"testimonial-canvas-server/modules/common/utils"
	"testimonial-canvas-server/modules/render"
)

// Service - Testimonial 파이프라인 오케스트레이터.
// ingest → bubble detection → avatar localization → render 순서로 실행한다.
type Service struct {
	vision       VisionClient
	faceModelDir string
	outputDir    string
	debugAvatars bool
	debugDir     string
}

// Result - 파이프라인 최종 산출물
type Result struct {
	Messages  []MessageWithAvatar `json:"messages"`
	PNGBase64 string              `json:"pngBase64"`
	Width     int                 `json:"width"`
	Height    int                 `json:"height"`

	PNG []byte `json:"-"`
}

// NewService - 설정 기반 Service 생성
func NewService() *Service {
	cfg := config.GetConfig()
	return &Service{
		vision: &GeminiVision{
			APIKeys: cfg.GeminiAPIKeys,
			Model:   cfg.GeminiModel,
		},
		faceModelDir: cfg.FaceModelDir,
		outputDir:    cfg.OutputDir,
		debugAvatars: cfg.DebugAvatars,
		debugDir:     cfg.DebugDir,
	}
}

// NewServiceWith - 의존성 주입 생성자 (테스트/스텁용)
func NewServiceWith(vision VisionClient, faceModelDir string) *Service {
	return &Service{
		vision:       vision,
		faceModelDir: faceModelDir,
	}
}

// Process - 전체 파이프라인 실행.
// 이미지 단위 비전 실패는 스킵, 과금 에러와 모델 로드/렌더 실패는 전체 중단.
func (s *Service) Process(ctx context.Context, images []SourceImage, opts render.Options) (*Result, error) {
	log.Printf("🚀 [Testimonial] Pipeline start: %d image(s)", len(images))

	var messages []MessageWithAvatar
	orderOffset := 0

	for i, img := range images {
		bubbles, err := s.extractOne(ctx, img)
		if err != nil {
			if KindOf(err) == KindInsufficientFunds {
				return nil, err
			}
			log.Printf("⚠️  [Testimonial] Image %d/%d skipped: %v", i+1, len(images), err)
			continue
		}

		// 이미지 간 전역 단조 증가 order 유지
		for j := range bubbles {
			bubbles[j].Order += orderOffset
		}
		orderOffset += len(bubbles)

		msgs, err := s.LocateAvatars(img, bubbles)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msgs...)

		log.Printf("💬 [Testimonial] Image %d/%d: %d message(s)", i+1, len(images), len(msgs))
	}

	style := render.ResolveStyle(opts)
	out, err := render.Render(ctx, toRenderMessages(messages), style)
	if err != nil {
		return nil, &PipelineError{Kind: KindRender, Message: "render failed", Err: err}
	}

	log.Printf("✅ [Testimonial] Pipeline complete: %d message(s), %dx%d PNG (%d bytes)",
		len(messages), out.Width, out.Height, len(out.PNG))

	return &Result{
		Messages:  messages,
		PNG:       out.PNG,
		PNGBase64: utils.ConvertImageToBase64(out.PNG),
		Width:     out.Width,
		Height:    out.Height,
	}, nil
}

// RenderOnly - 이미 추출된 메시지로 렌더링만 수행
func (s *Service) RenderOnly(ctx context.Context, messages []MessageWithAvatar, opts render.Options) (*Result, error) {
	style := render.ResolveStyle(opts)
	out, err := render.Render(ctx, toRenderMessages(messages), style)
	if err != nil {
		return nil, &PipelineError{Kind: KindRender, Message: "render failed", Err: err}
	}

	return &Result{
		Messages:  messages,
		PNG:       out.PNG,
		PNGBase64: utils.ConvertImageToBase64(out.PNG),
		Width:     out.Width,
		Height:    out.Height,
	}, nil
}

// PersistOutput - PNG를 time-scoped 파일명으로 저장하고 5초 후 삭제 예약.
// 정리 관행일 뿐 정합성 계약은 아니다.
func (s *Service) PersistOutput(pngData []byte) (string, error) {
	if s.outputDir == "" {
		return "", nil
	}
	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}

	name := fmt.Sprintf("testimonial-%d.png", time.Now().UnixMilli())
	path := filepath.Join(s.outputDir, name)
	if err := os.WriteFile(path, pngData, 0o644); err != nil {
		return "", fmt.Errorf("failed to write output: %w", err)
	}

	time.AfterFunc(5*time.Second, func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Printf("⚠️  [Testimonial] Failed to clean up output %s: %v", path, err)
		}
	})

	return path, nil
}

// toRenderMessages - 파이프라인 메시지를 렌더 입력으로 변환
func toRenderMessages(messages []MessageWithAvatar) []render.Message {
	out := make([]render.Message, 0, len(messages))
	for _, m := range messages {
		out = append(out, render.Message{
			Text:          m.Text,
			QuoteText:     m.QuoteText,
			Side:          m.Side,
			Order:         m.Order,
			AuthorName:    m.AuthorName,
			AuthorRole:    m.AuthorRole,
			AvatarPresent: m.AvatarPresent,
			AvatarShape:   m.AvatarShape,
			AvatarDataURL: m.AvatarCropDataURL,
		})
	}
	return out
}
