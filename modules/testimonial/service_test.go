package testimonial

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"testimonial-canvas-server/modules/render"
)

func TestRenderOnlyProducesPNG(t *testing.T) {
	svc := NewServiceWith(&stubVision{}, "")

	messages := []MessageWithAvatar{
		{Text: "이 서비스 덕분에 업무가 절반으로 줄었어요", Side: SideLeft, Order: 1, AuthorName: "수진"},
		{Text: "Honestly the best tool we adopted this year.", Side: SideRight, Order: 2},
	}

	result, err := svc.RenderOnly(context.Background(), messages, render.Options{Preset: "twitter"})
	require.NoError(t, err)
	assert.Equal(t, 1200, result.Width)
	assert.Equal(t, 675, result.Height)
	assert.NotEmpty(t, result.PNG)
	assert.NotEmpty(t, result.PNGBase64)
	assert.Len(t, result.Messages, 2)
}

func TestRenderOnlyNoMessages(t *testing.T) {
	svc := NewServiceWith(&stubVision{}, "")
	_, err := svc.RenderOnly(context.Background(), nil, render.Options{Preset: "twitter"})
	require.Error(t, err)
	assert.Equal(t, KindRender, KindOf(err))
}

func TestProcessFailsWithoutFaceModel(t *testing.T) {
	good := `[{"text":"hello","bodyBox":{"x":200,"y":100,"w":300,"h":100}}]`
	svc := NewServiceWith(&stubVision{responses: []string{good}}, t.TempDir())

	images, err := IngestBuffers([][]byte{pngBytes(t, 640, 480)})
	require.NoError(t, err)

	_, err = svc.Process(context.Background(), images, render.Options{Preset: "twitter"})
	require.Error(t, err)
	assert.Equal(t, KindModelLoad, KindOf(err))
}

func TestPersistOutputWritesAndSchedulesCleanup(t *testing.T) {
	dir := t.TempDir()
	svc := &Service{outputDir: dir}

	path, err := svc.PersistOutput([]byte("png-bytes"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(filepath.Base(path), "testimonial-"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)

	// 5초 후 삭제 예약 확인
	assert.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return os.IsNotExist(err)
	}, 8*time.Second, 200*time.Millisecond)
}

func TestToRenderMessages(t *testing.T) {
	box := Box{X: 1, Y: 2, W: 3, H: 4}
	in := []MessageWithAvatar{{
		Text:              "hi",
		QuoteText:         "hi",
		Side:              SideRight,
		Order:             3,
		AuthorName:        "Kim",
		AvatarPresent:     true,
		AvatarShape:       ShapeRounded,
		AvatarBox:         &box,
		AvatarCropDataURL: "data:image/png;base64,xxxx",
	}}

	out := toRenderMessages(in)
	require.Len(t, out, 1)
	assert.Equal(t, "hi", out[0].Text)
	assert.Equal(t, SideRight, out[0].Side)
	assert.Equal(t, 3, out[0].Order)
	assert.True(t, out[0].AvatarPresent)
	assert.Equal(t, ShapeRounded, out[0].AvatarShape)
	assert.Equal(t, "data:image/png;base64,xxxx", out[0].AvatarDataURL)
}
