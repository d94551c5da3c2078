package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

const (
	emojiCacheSize    = 500
	emojiFetchTimeout = 5 * time.Second
)

// twemoji SVG 미러. 첫 번째 성공 응답을 사용한다.
var emojiMirrors = []string{
	"https://cdn.jsdelivr.net/gh/twitter/twemoji@14.0.2/assets/svg/%s.svg",
	"https://cdnjs.cloudflare.com/ajax/libs/twemoji/14.0.2/svg/%s.svg",
	"https://unpkg.com/twemoji@14.0.2/assets/svg/%s.svg",
}

// emojiCache - 파일명 → SVG 바이트. 실패는 캐시하지 않는다.
var emojiCache, _ = lru.New[string, []byte](emojiCacheSize)

var emojiHTTP = &http.Client{Timeout: emojiFetchTimeout}

// isEmojiRune - 렌더 시 이모지 run으로 분리할 코드포인트
func isEmojiRune(r rune) bool {
	switch {
	case r >= 0x1F300 && r <= 0x1FAFF: // 그림문자 전 영역
		return true
	case r >= 0x2600 && r <= 0x27BF: // 기호, 딩뱃
		return true
	case r >= 0x1F1E6 && r <= 0x1F1FF: // 국기 지역 표시
		return true
	case r == 0x2764 || r == 0x2B50 || r == 0x2B55:
		return true
	}
	return false
}

// emojiFilename - twemoji 규약: 코드포인트 소문자 16진수를 '-'로 연결, VS-16(fe0f)은 제외
func emojiFilename(seq string) string {
	var parts []string
	for _, r := range seq {
		if r == 0xFE0F {
			continue
		}
		parts = append(parts, fmt.Sprintf("%x", r))
	}
	return strings.Join(parts, "-")
}

// fetchEmojiSVG - 캐시 우선, 미스면 미러를 순서대로 시도. 전부 실패하면 nil (유니코드 글리프 폴백).
func fetchEmojiSVG(ctx context.Context, filename string) []byte {
	if data, ok := emojiCache.Get(filename); ok {
		return data
	}
	for _, mirror := range emojiMirrors {
		url := fmt.Sprintf(mirror, filename)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			continue
		}
		resp, err := emojiHTTP.Do(req)
		if err != nil {
			continue
		}
		data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		resp.Body.Close()
		if err != nil || resp.StatusCode != http.StatusOK || len(data) == 0 {
			continue
		}
		emojiCache.Add(filename, data)
		return data
	}
	log.Printf("⚠️ 이모지 SVG 조회 실패: %s → 유니코드 글리프로 폴백", filename)
	return nil
}

// rasterizeEmoji - SVG를 size×size RGBA로 래스터화. 실패하면 nil.
func rasterizeEmoji(svgData []byte, size int) image.Image {
	if size <= 0 || len(svgData) == 0 {
		return nil
	}
	icon, err := oksvg.ReadIconStream(bytes.NewReader(svgData))
	if err != nil {
		return nil
	}
	// 파서는 SVG가 아닌 입력에도 빈 아이콘을 돌려줄 수 있다. 내용이 없으면
	// 유니코드 글리프 폴백이 동작하도록 nil을 반환한다.
	if icon.ViewBox.W <= 0 || icon.ViewBox.H <= 0 || len(icon.SVGPaths) == 0 {
		return nil
	}
	icon.SetTarget(0, 0, float64(size), float64(size))
	rgba := image.NewRGBA(image.Rect(0, 0, size, size))
	scanner := rasterx.NewScannerGV(size, size, rgba, rgba.Bounds())
	dasher := rasterx.NewDasher(size, size, scanner)
	icon.Draw(dasher, 1.0)
	return rgba
}

// splitEmojiRuns - 텍스트를 일반 텍스트 run과 이모지 run으로 분리한다.
// 연속 이모지는 한 글자씩 독립 run이 된다 (각각 별도 이미지로 렌더).
func splitEmojiRuns(text string) []textRun {
	var runs []textRun
	var plain []rune
	flush := func() {
		if len(plain) > 0 {
			runs = append(runs, textRun{Text: string(plain)})
			plain = plain[:0]
		}
	}
	rs := []rune(text)
	for i := 0; i < len(rs); i++ {
		r := rs[i]
		if !isEmojiRune(r) {
			plain = append(plain, r)
			continue
		}
		flush()
		seq := []rune{r}
		// ZWJ 시퀀스와 변형 선택자를 하나의 이모지로 묶는다
		for i+1 < len(rs) {
			next := rs[i+1]
			if next == 0xFE0F || next == 0x200D {
				seq = append(seq, next)
				i++
				continue
			}
			if len(seq) > 1 && seq[len(seq)-1] == 0x200D && isEmojiRune(next) {
				seq = append(seq, next)
				i++
				continue
			}
			// 국기는 지역 표시 두 개가 한 쌍
			if r >= 0x1F1E6 && r <= 0x1F1FF && next >= 0x1F1E6 && next <= 0x1F1FF && len(seq) == 1 {
				seq = append(seq, next)
				i++
			}
			break
		}
		runs = append(runs, textRun{Text: string(seq), Emoji: emojiFilename(string(seq))})
	}
	flush()
	return runs
}
