package testimonial

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fillRect - 테스트 이미지에 단색 사각형 채우기
func fillRect(img *image.RGBA, x, y, w, h int, c color.RGBA) {
	for yy := y; yy < y+h; yy++ {
		for xx := x; xx < x+w; xx++ {
			img.SetRGBA(xx, yy, c)
		}
	}
}

// whiteCanvas - 흰 배경 테스트 이미지
func whiteCanvas(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	fillRect(img, 0, 0, w, h, color.RGBA{255, 255, 255, 255})
	return img
}

func TestDetectContourAvatarFindsSquare(t *testing.T) {
	// 흰 배경에 진한 정사각형 아바타 패치 하나
	img := whiteCanvas(400, 300)
	fillRect(img, 50, 80, 60, 60, color.RGBA{40, 60, 90, 255})

	body := Box{X: 140, Y: 80, W: 200, H: 100}
	region, ok := BuildSearchRegion(body, SideLeft, 400, 300)
	require.True(t, ok)

	cand, found := detectContourAvatar(img, region)
	require.True(t, found, "square patch inside search region should be detected")

	assert.Equal(t, MethodContour, cand.Source)
	// 정사각형이므로 squareness는 1에 가깝다
	assert.GreaterOrEqual(t, cand.Squareness, 0.9)
	// 확장된 박스가 패치를 덮는다
	assert.LessOrEqual(t, cand.Box.X, 50)
	assert.LessOrEqual(t, cand.Box.Y, 80)
	assert.GreaterOrEqual(t, cand.Box.Right(), 110)
	assert.GreaterOrEqual(t, cand.Box.Bottom(), 140)
}

func TestDetectContourAvatarBoxIsSquareAndClamped(t *testing.T) {
	// 작은 말풍선은 기대 아바타 크기가 최소값으로 클램핑된다. 기대치보다 작은
	// 패치가 검출되어도 최종 박스는 최소 변 길이 이상의 정사각형이어야 한다.
	img := whiteCanvas(480, 320)
	fillRect(img, 180, 110, 24, 24, color.RGBA{40, 60, 90, 255})

	body := Box{X: 240, Y: 100, W: 200, H: 60}
	region, ok := BuildSearchRegion(body, SideLeft, 480, 320)
	require.True(t, ok)
	require.Equal(t, MinAvatarSize, region.Size)

	cand, found := detectContourAvatar(img, region)
	require.True(t, found)
	assert.Equal(t, cand.Box.W, cand.Box.H)
	assert.GreaterOrEqual(t, cand.Box.W, MinAvatarSize)
	assert.LessOrEqual(t, cand.Box.W, MaxAvatarSize)
	assert.Equal(t, cand.Box.W, cand.EdgeSize)
	// 박스 중심은 패치 중심 근처
	assert.InDelta(t, 192, cand.Box.Center().X, 4)
	assert.InDelta(t, 122, cand.Box.Center().Y, 4)
}

func TestDetectContourAvatarRejectsEmptyRegion(t *testing.T) {
	img := whiteCanvas(400, 300)
	body := Box{X: 140, Y: 80, W: 200, H: 100}
	region, ok := BuildSearchRegion(body, SideLeft, 400, 300)
	require.True(t, ok)

	_, found := detectContourAvatar(img, region)
	assert.False(t, found, "uniform region has no avatar-like component")
}

func TestDetectContourAvatarRejectsElongated(t *testing.T) {
	// 가로로 긴 구분선 모양은 squareness 필터에서 떨어진다
	img := whiteCanvas(400, 300)
	fillRect(img, 45, 100, 85, 20, color.RGBA{40, 60, 90, 255})

	body := Box{X: 140, Y: 80, W: 200, H: 100}
	region, ok := BuildSearchRegion(body, SideLeft, 400, 300)
	require.True(t, ok)

	_, found := detectContourAvatar(img, region)
	assert.False(t, found)
}
