package render

import (
	"bytes"
	"context"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleMessages() []Message {
	return []Message{
		{Text: "This app completely changed how we onboard customers.", Side: "left", Order: 1, AuthorName: "Dana", AuthorRole: "Head of CS"},
		{Text: "Setup took five minutes. Five!", Side: "right", Order: 2},
	}
}

func TestRenderDeterministic(t *testing.T) {
	ctx := context.Background()
	style := ResolveStyle(Options{Preset: "twitter"})

	first, err := Render(ctx, sampleMessages(), style)
	require.NoError(t, err)
	second, err := Render(ctx, sampleMessages(), style)
	require.NoError(t, err)

	assert.Equal(t, first.SVG, second.SVG)
	assert.True(t, bytes.Equal(first.PNG, second.PNG), "same input must produce byte-identical PNG")
}

func TestRenderFixedPresetDimensions(t *testing.T) {
	out, err := Render(context.Background(), sampleMessages(), ResolveStyle(Options{Preset: "twitter"}))
	require.NoError(t, err)
	assert.Equal(t, 1200, out.Width)
	assert.Equal(t, 675, out.Height)

	img, err := png.Decode(bytes.NewReader(out.PNG))
	require.NoError(t, err)
	assert.Equal(t, 1200, img.Bounds().Dx())
	assert.Equal(t, 675, img.Bounds().Dy())

	// solid 배경은 불투명
	_, _, _, a := img.At(0, 0).RGBA()
	assert.Equal(t, uint32(0xffff), a)
}

func TestRenderWebsiteAutoHeightTransparent(t *testing.T) {
	out, err := Render(context.Background(), sampleMessages(), ResolveStyle(Options{Preset: "website"}))
	require.NoError(t, err)
	assert.Equal(t, autoCanvasWidth, out.Width)
	assert.Greater(t, out.Height, 0)

	img, err := png.Decode(bytes.NewReader(out.PNG))
	require.NoError(t, err)
	assert.Equal(t, out.Height, img.Bounds().Dy())

	// 모서리는 투명해야 한다
	_, _, _, a := img.At(0, 0).RGBA()
	assert.Equal(t, uint32(0), a)
}

func TestRenderNoMessages(t *testing.T) {
	_, err := Render(context.Background(), nil, ResolveStyle(Options{Preset: "twitter"}))
	assert.Error(t, err)
}

func TestRenderSVGStructure(t *testing.T) {
	out, err := Render(context.Background(), []Message{
		{Text: `great <b>& "cheap"`, Side: "left", Order: 1},
	}, ResolveStyle(Options{Preset: "twitter"}))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out.SVG, `<svg xmlns="http://www.w3.org/2000/svg"`))
	// 텍스트는 이스케이프되어 들어간다
	assert.Contains(t, out.SVG, "&lt;b&gt;")
	assert.Contains(t, out.SVG, "&amp;")
	assert.NotContains(t, out.SVG, `<b>`)
}

func TestRenderGradientBackground(t *testing.T) {
	out, err := Render(context.Background(), sampleMessages(), ResolveStyle(Options{Preset: "instagram_story"}))
	require.NoError(t, err)
	assert.Contains(t, out.SVG, "linearGradient")

	img, err := png.Decode(bytes.NewReader(out.PNG))
	require.NoError(t, err)
	// 상단과 하단 색이 달라야 그라디언트
	topR, topG, topB, _ := img.At(5, 5).RGBA()
	botR, botG, botB, _ := img.At(5, img.Bounds().Dy()-5).RGBA()
	assert.NotEqual(t, [3]uint32{topR, topG, topB}, [3]uint32{botR, botG, botB})
}

func TestLayoutStackedSides(t *testing.T) {
	style := ResolveStyle(Options{Preset: "twitter"})
	tree := buildLayout(sampleMessages(), &style)
	require.Len(t, tree.Bubbles, 2)

	left, right := tree.Bubbles[0], tree.Bubbles[1]
	// 왼쪽 말풍선은 왼쪽 패딩에, 오른쪽 말풍선은 오른쪽 가장자리에 붙는다
	assert.InDelta(t, float64(style.Padding), left.X, 0.5)
	assert.InDelta(t, float64(style.CanvasWidth-style.Padding), right.X+right.W, 0.5)
	// order 순 수직 배치
	assert.Greater(t, right.Y, left.Y+left.H)
}

func TestLayoutCollageColumns(t *testing.T) {
	msgs := []Message{
		{Text: "one", Side: "left", Order: 1},
		{Text: "two", Side: "left", Order: 2},
		{Text: "three", Side: "left", Order: 3},
		{Text: "four", Side: "left", Order: 4},
		{Text: "five", Side: "left", Order: 5},
	}
	style := ResolveStyle(Options{Preset: "website", Layout: "collage", CollageColumns: 2})
	tree := buildLayout(msgs, &style)
	require.Len(t, tree.Bubbles, 5)

	// 같은 행의 두 셀은 같은 Y, 셀 폭 동일
	assert.Equal(t, tree.Bubbles[0].Y, tree.Bubbles[1].Y)
	assert.InDelta(t, tree.Bubbles[0].W, tree.Bubbles[1].W, 0.01)
	// 다음 행은 아래로
	assert.Greater(t, tree.Bubbles[2].Y, tree.Bubbles[0].Y)
	// 다섯 번째는 세 번째 행 첫 칸
	assert.InDelta(t, tree.Bubbles[0].X, tree.Bubbles[4].X, 0.01)
}

func TestLayoutCollageRightAvatarFlushToCell(t *testing.T) {
	msgs := []Message{
		{Text: "one", Side: "left", Order: 1},
		{Text: "two", Side: "right", Order: 2, AvatarPresent: true, AvatarDataURL: "data:image/png;base64,x"},
	}
	style := ResolveStyle(Options{Preset: "website", Layout: "collage", CollageColumns: 2})
	tree := buildLayout(msgs, &style)
	require.Len(t, tree.Bubbles, 2)

	b := tree.Bubbles[1]
	require.NotNil(t, b.Avatar)
	// 오른쪽 아바타는 셀 폭 통일 후에도 셀 오른쪽 변에서 ShapePadding만큼 안쪽에 붙는다
	assert.InDelta(t, b.X+b.W-float64(style.ShapePadding), b.Avatar.X+b.Avatar.W, 0.5)
}

func TestRenderEmptyMessageText(t *testing.T) {
	msgs := []Message{{Text: "", Side: "left", Order: 1}}
	style := ResolveStyle(Options{Preset: "twitter"})

	tree := buildLayout(msgs, &style)
	require.Len(t, tree.Bubbles, 1)
	b := tree.Bubbles[0]
	// 텍스트가 없어도 말풍선 사각형은 그려진다
	assert.Greater(t, b.W, 0.0)
	assert.Greater(t, b.H, 0.0)
	assert.Empty(t, b.Lines)

	out, err := Render(context.Background(), msgs, style)
	require.NoError(t, err)
	assert.NotEmpty(t, out.PNG)

	img, err := png.Decode(bytes.NewReader(out.PNG))
	require.NoError(t, err)
	// 말풍선 중앙 픽셀은 흰 배경이 아니라 버블 색이다
	r, _, _, a := img.At(int(b.X+b.W/2), int(b.Y+b.H/2)).RGBA()
	assert.Equal(t, uint32(0xffff), a)
	assert.InDelta(t, 242, float64(r>>8), 4)
}

func TestLayoutOrdersMessages(t *testing.T) {
	msgs := []Message{
		{Text: "second", Side: "left", Order: 2},
		{Text: "first", Side: "left", Order: 1},
	}
	style := ResolveStyle(Options{Preset: "website"})
	tree := buildLayout(msgs, &style)
	require.Len(t, tree.Bubbles, 2)

	// order가 낮은 메시지가 위에 온다
	firstText := tree.Bubbles[0].Lines[0].Runs[0].Text
	assert.True(t, strings.HasPrefix(firstText, "first"))
}

func TestWrapTextRespectsMaxWidth(t *testing.T) {
	maxW := 200.0
	lines := wrapText("the quick brown fox jumps over the lazy dog again and again", 400, 24, maxW)
	require.Greater(t, len(lines), 1)
	for _, ln := range lines {
		w := 0.0
		for _, r := range ln {
			w += r.W
		}
		assert.LessOrEqual(t, w, maxW+1, "line exceeds wrap width")
	}
}

func TestCenterVerticalShiftsContent(t *testing.T) {
	msgs := []Message{{Text: "short", Side: "left", Order: 1}}
	centered := ResolveStyle(Options{Preset: "instagram_story"})
	tree := buildLayout(msgs, &centered)

	off := false
	flat := ResolveStyle(Options{Preset: "instagram_story", CenterVertical: &off})
	flatTree := buildLayout(msgs, &flat)

	assert.Greater(t, tree.Bubbles[0].Y, flatTree.Bubbles[0].Y)
}
