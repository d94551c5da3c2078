package testimonial

import (
	"image"
	"math"
)

// Geometric fallback 상수
const (
	geomOffsetRatio       = 0.2   // bodyBox 높이 대비 수평 오프셋
	geomVerticalRatio     = 0.08  // bodyBox 높이 대비 수직 오프셋
	blankLumaVariance     = 30.0  // 이 미만이면 무지 영역 후보
	blankSaturationVar    = 0.012 // 채도 분산 하한
)

// geometryAvatar - 방법 3: 고정 오프셋 정사각형 + 공백 판정.
// present=false는 잘라낸 영역이 사실상 단색(blank)이라는 뜻이다.
func geometryAvatar(img image.Image, body Box, side string, size int) (AvatarCandidate, bool) {
	h := float64(body.H)

	var ax int
	if side == SideRight {
		ax = body.Right() + int(geomOffsetRatio*h)
	} else {
		ax = body.X - size - int(geomOffsetRatio*h)
	}
	ay := body.Y + int(geomVerticalRatio*h)

	bounds := img.Bounds()
	box := Box{X: ax, Y: ay, W: size, H: size}.ClampInto(bounds.Dx(), bounds.Dy())
	if box.W <= 0 || box.H <= 0 {
		return AvatarCandidate{}, false
	}

	lumaVar, satVar := cropVariances(img, box)

	// 휘도/채도 분산이 모두 낮으면 아바타 없음 (빈 배경)
	present := !(lumaVar < blankLumaVariance && satVar < blankSaturationVar)

	return AvatarCandidate{
		Box:             box,
		Center:          box.Center(),
		EdgeSize:        size,
		Score:           0,
		Source:          MethodGeometry,
		TextureVariance: lumaVar,
	}, present
}

// cropVariances - 박스 영역의 휘도 분산과 채도((max-min)/max) 분산
func cropVariances(img image.Image, box Box) (lumaVariance, saturationVariance float64) {
	count := 0
	var lumaSum, satSum float64
	lumas := make([]float64, 0, box.W*box.H)
	sats := make([]float64, 0, box.W*box.H)

	for y := box.Y; y < box.Bottom(); y++ {
		for x := box.X; x < box.Right(); x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			rf, gf, bf := float64(r>>8), float64(g>>8), float64(b>>8)

			luma := 0.2126*rf + 0.7152*gf + 0.0722*bf

			maxC := math.Max(rf, math.Max(gf, bf))
			minC := math.Min(rf, math.Min(gf, bf))
			sat := 0.0
			if maxC > 0 {
				sat = (maxC - minC) / maxC
			}

			lumas = append(lumas, luma)
			sats = append(sats, sat)
			lumaSum += luma
			satSum += sat
			count++
		}
	}

	if count == 0 {
		return 0, 0
	}

	lumaMean := lumaSum / float64(count)
	satMean := satSum / float64(count)

	var lumaSq, satSq float64
	for i := 0; i < count; i++ {
		ld := lumas[i] - lumaMean
		sd := sats[i] - satMean
		lumaSq += ld * ld
		satSq += sd * sd
	}

	return lumaSq / float64(count), satSq / float64(count)
}
