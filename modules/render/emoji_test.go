package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmojiFilename(t *testing.T) {
	assert.Equal(t, "1f600", emojiFilename("😀"))
	// VS-16은 파일명에서 제외
	assert.Equal(t, "2764", emojiFilename("❤️"))
	// ZWJ 시퀀스는 zwj 코드포인트 포함
	assert.Equal(t, "1f469-200d-1f4bb", emojiFilename("👩‍💻"))
	// 국기: 지역 표시 쌍
	assert.Equal(t, "1f1f0-1f1f7", emojiFilename("🇰🇷"))
}

func TestSplitEmojiRunsMixedText(t *testing.T) {
	runs := splitEmojiRuns("love it 😍 totally")
	require.Len(t, runs, 3)
	assert.Equal(t, "love it ", runs[0].Text)
	assert.Empty(t, runs[0].Emoji)
	assert.Equal(t, "1f60d", runs[1].Emoji)
	assert.Equal(t, " totally", runs[2].Text)
}

func TestSplitEmojiRunsPlainOnly(t *testing.T) {
	runs := splitEmojiRuns("no emoji here")
	require.Len(t, runs, 1)
	assert.Equal(t, "no emoji here", runs[0].Text)
	assert.Empty(t, runs[0].Emoji)
}

func TestSplitEmojiRunsConsecutive(t *testing.T) {
	runs := splitEmojiRuns("🔥🔥")
	require.Len(t, runs, 2)
	assert.Equal(t, "1f525", runs[0].Emoji)
	assert.Equal(t, "1f525", runs[1].Emoji)
}

func TestSplitEmojiRunsFlagPair(t *testing.T) {
	runs := splitEmojiRuns("🇰🇷 fighting")
	require.Len(t, runs, 2)
	assert.Equal(t, "1f1f0-1f1f7", runs[0].Emoji)
}

func TestIsEmojiRune(t *testing.T) {
	assert.True(t, isEmojiRune('😀'))
	assert.True(t, isEmojiRune('✨'))
	assert.False(t, isEmojiRune('a'))
	assert.False(t, isEmojiRune('한'))
}

func TestRasterizeEmojiInvalidInput(t *testing.T) {
	assert.Nil(t, rasterizeEmoji(nil, 32))
	assert.Nil(t, rasterizeEmoji([]byte("<svg"), 0))
	// 파서가 에러 없이 빈 아이콘을 돌려주는 입력도 nil이어야 글리프 폴백이 동작한다
	assert.Nil(t, rasterizeEmoji([]byte("not svg at all"), 32))
	assert.Nil(t, rasterizeEmoji([]byte(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 36 36"></svg>`), 32))
}

func TestRasterizeEmojiValidSVG(t *testing.T) {
	svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 36 36"><path fill="#FFCC4D" d="M0 0h36v36H0z"/></svg>`)
	img := rasterizeEmoji(svg, 32)
	require.NotNil(t, img)
	_, _, _, a := img.At(16, 16).RGBA()
	assert.NotZero(t, a)
}
