package testimonial

import (
	"image/color"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeometryAvatarBlankRegionAbsent(t *testing.T) {
	// 완전히 균일한 배경 → 아바타 없음
	img := whiteCanvas(600, 400)
	body := Box{X: 200, Y: 100, W: 300, H: 100}

	cand, present := geometryAvatar(img, body, SideLeft, 55)
	assert.False(t, present)
	assert.Equal(t, MethodGeometry, cand.Source)
	// 박스 위치는 그래도 계산된다: ax = bx - size - 0.2*H, ay = by + 0.08*H
	assert.Equal(t, 200-55-20, cand.Box.X)
	assert.Equal(t, 100+8, cand.Box.Y)
}

func TestGeometryAvatarTexturedRegionPresent(t *testing.T) {
	img := whiteCanvas(600, 400)
	body := Box{X: 200, Y: 100, W: 300, H: 100}

	// fallback 위치에 노이즈 패치를 깔아 텍스처가 있는 아바타 흉내
	rng := rand.New(rand.NewSource(42))
	for y := 100; y < 200; y++ {
		for x := 110; x < 200; x++ {
			v := uint8(rng.Intn(256))
			img.SetRGBA(x, y, color.RGBA{v, uint8(rng.Intn(256)), uint8(255 - int(v)), 255})
		}
	}

	cand, present := geometryAvatar(img, body, SideLeft, 55)
	require.True(t, present)
	assert.Equal(t, 55, cand.Box.W)
	assert.Equal(t, 55, cand.Box.H)
}

func TestGeometryAvatarRightSide(t *testing.T) {
	img := whiteCanvas(600, 400)
	body := Box{X: 100, Y: 100, W: 300, H: 100}

	cand, _ := geometryAvatar(img, body, SideRight, 55)
	// ax = bx + W + 0.2*H
	assert.Equal(t, 100+300+20, cand.Box.X)
}

func TestCropVariancesUniform(t *testing.T) {
	img := whiteCanvas(100, 100)
	lumaVar, satVar := cropVariances(img, Box{X: 10, Y: 10, W: 50, H: 50})
	assert.Less(t, lumaVar, 1.0)
	assert.Less(t, satVar, 0.001)
}
