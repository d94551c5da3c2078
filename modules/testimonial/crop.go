package testimonial

import (
	"fmt"
	"image"
	"image/draw"

	"testimonial-canvas-server/modules/common/utils"
)

// cropToDataURL - avatarBox 영역을 무손실(알파 보존) PNG data URL로 인코딩.
// 실패는 호출부에서 avatarPresent=false로 강등된다 (non-fatal).
func cropToDataURL(img image.Image, box Box) (string, error) {
	bounds := img.Bounds()
	rect := image.Rect(box.X, box.Y, box.Right(), box.Bottom()).Intersect(bounds)
	if rect.Empty() {
		return "", fmt.Errorf("crop box outside image bounds: %+v", box)
	}

	cropped := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(cropped, cropped.Bounds(), img, rect.Min, draw.Src)

	pngData, err := utils.EncodePNG(cropped)
	if err != nil {
		return "", fmt.Errorf("failed to encode avatar crop: %w", err)
	}

	return utils.PNGDataURL(pngData), nil
}
