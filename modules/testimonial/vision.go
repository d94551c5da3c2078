package testimonial

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"google.golang.org/genai"

	gemini "testimonial-canvas-server/modules/common/gemini"
)

// VisionTimeout - 비전 모델 호출의 상한 (초과 시 복구 가능한 실패)
const VisionTimeout = 30 * time.Second

// VisionClient - 멀티모달 비전 모델 계약 (테스트에서 스텁 가능)
type VisionClient interface {
	GenerateText(ctx context.Context, prompt string, imageData []byte, mimeType string) (string, error)
}

// GeminiVision - Gemini 기반 VisionClient 구현
type GeminiVision struct {
	APIKeys []string
	Model   string
}

// GenerateText - 인라인 이미지와 프롬프트로 텍스트 응답 생성
func (g *GeminiVision) GenerateText(ctx context.Context, prompt string, imageData []byte, mimeType string) (string, error) {
	content := &genai.Content{
		Parts: []*genai.Part{
			genai.NewPartFromText(prompt),
			genai.NewPartFromBytes(imageData, mimeType),
		},
	}

	result, err := gemini.GenerateContentWithRetry(ctx, g.APIKeys, g.Model, []*genai.Content{content}, nil)
	if err != nil {
		return "", err
	}

	// 텍스트 파트 수집
	var sb strings.Builder
	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				sb.WriteString(part.Text)
			}
		}
	}

	if sb.Len() == 0 {
		return "", fmt.Errorf("no text in response")
	}
	return sb.String(), nil
}

// Extract - 이미지 목록에서 말풍선 추출.
// 이미지 하나의 비전 실패는 해당 이미지만 스킵하고 계속 진행한다.
// 과금/할당량 에러만 전체 요청을 중단시킨다.
func (s *Service) Extract(ctx context.Context, images []SourceImage) ([]Bubble, error) {
	var all []Bubble
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
		all = append(all, bubbles...)

		log.Printf("💬 [Testimonial] Image %d/%d: %d bubble(s) extracted", i+1, len(images), len(bubbles))
	}

	return all, nil
}

// extractOne - 이미지 하나에 대한 비전 호출 + 파싱 + 정규화
func (s *Service) extractOne(ctx context.Context, img SourceImage) ([]Bubble, error) {
	visionCtx, cancel := context.WithTimeout(ctx, VisionTimeout)
	defer cancel()

	text, err := s.vision.GenerateText(visionCtx, BubbleExtractionPrompt, img.Data, img.Mime)
	if err != nil {
		if gemini.IsBillingError(err) {
			return nil, NewInsufficientFundsError(err)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, NewVisionError("vision request timed out", err)
		}
		return nil, NewVisionError("vision request failed", err)
	}

	return ParseBubbles(text, img.Width, img.Height), nil
}

// ParseBubbles - 비전 모델의 자유 텍스트에서 말풍선 배열을 관대하게 파싱.
// 파싱 실패는 빈 목록으로 처리한다 (에러 없음).
func ParseBubbles(raw string, imgW, imgH int) []Bubble {
	jsonStr := extractJSONArray(raw)
	if jsonStr == "" {
		log.Printf("⚠️  [Testimonial] No JSON array found in vision response (%d chars)", len(raw))
		return nil
	}

	var items []map[string]any
	if err := json.Unmarshal([]byte(jsonStr), &items); err != nil {
		log.Printf("⚠️  [Testimonial] Failed to parse vision JSON: %v", err)
		return nil
	}

	var bubbles []Bubble
	for i, item := range items {
		b := Bubble{
			Text:       lookupString(item, "text", "message"),
			Side:       lookupString(item, "side"),
			Order:      lookupInt(item, "order"),
			AuthorName: lookupString(item, "authorName", "author_name", "author"),
			AuthorRole: lookupString(item, "authorRole", "author_role", "role"),
		}

		// side 기본값: left
		if b.Side != SideLeft && b.Side != SideRight {
			b.Side = SideLeft
		}
		// order 기본값: 1-based 인덱스
		if b.Order <= 0 {
			b.Order = i + 1
		}

		box, ok := lookupBox(item, "bodyBox", "body_box", "box")
		if !ok {
			continue
		}
		b.BodyBox = box.ClampInto(imgW, imgH)
		if b.BodyBox.W <= 0 || b.BodyBox.H <= 0 {
			continue
		}

		bubbles = append(bubbles, b)
	}

	// 이미지 내 order를 안정 정렬 후 1..n으로 재부여 (고유성 + 단조 증가 보장)
	sort.SliceStable(bubbles, func(a, b int) bool { return bubbles[a].Order < bubbles[b].Order })
	for i := range bubbles {
		bubbles[i].Order = i + 1
	}

	return bubbles
}

// extractJSONArray - 코드펜스 제거 후 첫 '[' ~ 마지막 ']' 구간 추출
func extractJSONArray(raw string) string {
	cleaned := strings.ReplaceAll(raw, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")

	start := strings.Index(cleaned, "[")
	end := strings.LastIndex(cleaned, "]")
	if start < 0 || end <= start {
		return ""
	}
	return cleaned[start : end+1]
}

// lookupString - 여러 후보 키로 문자열 조회 (알 수 없는 키는 무시)
func lookupString(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := m[key]; ok {
			if s, ok := v.(string); ok {
				return s
			}
		}
	}
	return ""
}

// lookupInt - 여러 후보 키로 정수 조회
func lookupInt(m map[string]any, keys ...string) int {
	for _, key := range keys {
		if v, ok := m[key]; ok {
			if f, ok := v.(float64); ok {
				return int(f)
			}
		}
	}
	return 0
}

// lookupBox - bodyBox 객체 조회 (w/h 또는 width/height 키 허용)
func lookupBox(m map[string]any, keys ...string) (Box, bool) {
	for _, key := range keys {
		raw, ok := m[key]
		if !ok {
			continue
		}
		obj, ok := raw.(map[string]any)
		if !ok {
			continue
		}

		box := Box{
			X: lookupInt(obj, "x", "left"),
			Y: lookupInt(obj, "y", "top"),
			W: lookupInt(obj, "w", "width"),
			H: lookupInt(obj, "h", "height"),
		}
		if box.W > 0 && box.H > 0 {
			return box, true
		}
	}
	return Box{}, false
}
