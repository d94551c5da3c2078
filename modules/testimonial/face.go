package testimonial

import (
	"image"
	"math"

	"testimonial-canvas-server/modules/common/facemodel"
)

// 얼굴 검출 최소 신뢰도
const faceMinConfidence = 0.5

// 검출된 얼굴 폭 대비 아바타 변 길이 배수
const faceEdgeScale = 1.6

// detectFaceAvatar - 방법 1: 검색 영역에서 얼굴 검출.
// 얼굴이 있으면 기대 중심에 가장 가까운 얼굴을 선택한다.
func detectFaceAvatar(det facemodel.Detector, img image.Image, region SearchRegion) (AvatarCandidate, bool) {
	rect := image.Rect(region.X, region.Y, region.X+region.Width, region.Y+region.Height)
	faces := det.DetectInRegion(img, rect, faceMinConfidence)
	if len(faces) == 0 {
		return AvatarCandidate{}, false
	}

	expected := region.ExpectedCenter()

	best := faces[0]
	bestDist := math.Inf(1)
	for _, face := range faces {
		cx := face.X + face.Width/2
		cy := face.Y + face.Height/2
		dist := math.Hypot(float64(cx-expected.X), float64(cy-expected.Y))
		if dist < bestDist {
			bestDist = dist
			best = face
		}
	}

	// 최종 아바타 정사각형: max(기대 크기, 얼굴 폭 * 1.6)
	edge := region.Size
	if scaled := int(math.Round(float64(best.Width) * faceEdgeScale)); scaled > edge {
		edge = scaled
	}

	center := Point{X: best.X + best.Width/2, Y: best.Y + best.Height/2}
	box := Box{X: center.X - edge/2, Y: center.Y - edge/2, W: edge, H: edge}

	bounds := img.Bounds()
	return AvatarCandidate{
		Box:      box.ClampInto(bounds.Dx(), bounds.Dy()),
		Center:   center,
		EdgeSize: edge,
		Score:    best.Score,
		Source:   MethodFace,
	}, true
}
