package testimonial

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log"
	"os"
	"path/filepath"

	"testimonial-canvas-server/modules/common/utils"
)

// writeDebugOverlay - 진단용 오버레이와 아바타 크롭을 디버그 디렉토리에 기록.
// 파일명은 message 인덱스로 네임스페이스되어 동시 요청이 충돌하지 않는다.
// 어떤 실패도 메인 경로에 전파되지 않는다.
func writeDebugOverlay(dir string, index int, img image.Image, bubble Bubble, region SearchRegion, decision AvatarDecision) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("⚠️  [Testimonial] Debug overlay panic (ignored): %v", r)
		}
	}()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Printf("⚠️  [Testimonial] Failed to create debug dir: %v", err)
		return
	}

	bounds := img.Bounds()
	overlay := image.NewRGBA(bounds)
	draw.Draw(overlay, bounds, img, bounds.Min, draw.Src)

	// bodyBox: 파랑, 검색 영역: 노랑, 선택된 아바타: 초록
	strokeRect(overlay, bubble.BodyBox, color.RGBA{B: 255, A: 255})
	strokeRect(overlay, Box{X: region.X, Y: region.Y, W: region.Width, H: region.Height}, color.RGBA{R: 255, G: 220, A: 255})
	if decision.Present {
		strokeRect(overlay, decision.Box, color.RGBA{G: 200, A: 255})
	}

	if data, err := utils.EncodePNG(overlay); err == nil {
		path := filepath.Join(dir, fmt.Sprintf("message-%d-debug.png", index))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			log.Printf("⚠️  [Testimonial] Failed to write debug overlay: %v", err)
		}
	}

	if decision.Present {
		rect := image.Rect(decision.Box.X, decision.Box.Y, decision.Box.Right(), decision.Box.Bottom()).Intersect(bounds)
		if !rect.Empty() {
			crop := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
			draw.Draw(crop, crop.Bounds(), img, rect.Min, draw.Src)
			if data, err := utils.EncodePNG(crop); err == nil {
				path := filepath.Join(dir, fmt.Sprintf("message-%d-avatar.png", index))
				os.WriteFile(path, data, 0o644)
			}
		}
	}
}

// strokeRect - 3px 테두리 사각형 그리기
func strokeRect(dst *image.RGBA, box Box, c color.RGBA) {
	const stroke = 3
	bounds := dst.Bounds()
	for t := 0; t < stroke; t++ {
		for x := box.X; x < box.Right(); x++ {
			setIfInside(dst, bounds, x, box.Y+t, c)
			setIfInside(dst, bounds, x, box.Bottom()-1-t, c)
		}
		for y := box.Y; y < box.Bottom(); y++ {
			setIfInside(dst, bounds, box.X+t, y, c)
			setIfInside(dst, bounds, box.Right()-1-t, y, c)
		}
	}
}

func setIfInside(dst *image.RGBA, bounds image.Rectangle, x, y int, c color.RGBA) {
	if image.Pt(x, y).In(bounds) {
		dst.Set(x, y, c)
	}
}
