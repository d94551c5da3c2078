package testimonial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSearchRegionLeft(t *testing.T) {
	body := Box{X: 300, Y: 200, W: 400, H: 100}
	region, ok := BuildSearchRegion(body, SideLeft, 1000, 1000)
	require.True(t, ok)

	// size = round(0.55 * 100) = 55
	assert.Equal(t, 55, region.Size)
	// 수직 밴드: [200-25, 200+110]
	assert.Equal(t, 175, region.Y)
	assert.Equal(t, 310-175, region.Height)
	// 수평 밴드: bodyBox 왼쪽 바깥 [300-99, 300-8] (1.80*size, 0.15*size)
	assert.Equal(t, 300-99, region.X)
	assert.Equal(t, 300-8, region.X+region.Width)
}

func TestBuildSearchRegionRight(t *testing.T) {
	body := Box{X: 100, Y: 300, W: 300, H: 100}
	region, ok := BuildSearchRegion(body, SideRight, 1000, 1000)
	require.True(t, ok)

	assert.Equal(t, 400+8, region.X)
	assert.Equal(t, 400+99, region.X+region.Width)
}

func TestBuildSearchRegionSizeClamped(t *testing.T) {
	// 아주 작은 말풍선: 0.55*20 = 11 → 최소 40
	region, ok := BuildSearchRegion(Box{X: 500, Y: 500, W: 200, H: 20}, SideLeft, 1000, 1000)
	require.True(t, ok)
	assert.Equal(t, MinAvatarSize, region.Size)

	// 아주 큰 말풍선: 0.55*500 = 275 → 최대 180
	region, ok = BuildSearchRegion(Box{X: 500, Y: 100, W: 200, H: 500}, SideLeft, 1000, 1000)
	require.True(t, ok)
	assert.Equal(t, MaxAvatarSize, region.Size)
}

func TestBuildSearchRegionDegenerateAtEdge(t *testing.T) {
	// bodyBox가 이미지 왼쪽 끝에 붙어 있으면 왼쪽 검색 영역은 퇴화한다
	_, ok := BuildSearchRegion(Box{X: 0, Y: 100, W: 300, H: 100}, SideLeft, 1000, 1000)
	assert.False(t, ok)

	// 오른쪽 끝도 마찬가지
	_, ok = BuildSearchRegion(Box{X: 700, Y: 100, W: 300, H: 100}, SideRight, 1000, 1000)
	assert.False(t, ok)
}

func TestBoxClampInto(t *testing.T) {
	b := Box{X: -10, Y: -5, W: 100, H: 50}
	clamped := b.ClampInto(60, 30)
	assert.GreaterOrEqual(t, clamped.X, 0)
	assert.GreaterOrEqual(t, clamped.Y, 0)
	assert.LessOrEqual(t, clamped.Right(), 60)
	assert.LessOrEqual(t, clamped.Bottom(), 30)
}
