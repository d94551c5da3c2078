package render

import (
	"fmt"
	"log"
	"sync"

	"github.com/golang/freetype/truetype"
	"github.com/llgcode/draw2d"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/goregular"
)

var (
	fontOnce   sync.Once
	fontByName map[string]*truetype.Font
	faceCache  sync.Map // "name:size" -> font.Face
)

// weight → draw2d에 등록된 폰트 이름
func fontNameForWeight(weight int) string {
	switch {
	case weight >= 600:
		return "gobold"
	case weight >= 500:
		return "gomedium"
	default:
		return "goregular"
	}
}

// loadFonts - 내장 폰트를 파싱하고 draw2d에 등록한다. 실패하면 렌더가 불가능하므로 fatal.
func loadFonts() {
	fontOnce.Do(func() {
		fontByName = make(map[string]*truetype.Font, 3)
		for name, data := range map[string][]byte{
			"goregular": goregular.TTF,
			"gomedium":  gomedium.TTF,
			"gobold":    gobold.TTF,
		} {
			f, err := truetype.Parse(data)
			if err != nil {
				log.Fatalf("❌ 내장 폰트 파싱 실패 (%s): %v", name, err)
			}
			fontByName[name] = f
			draw2d.RegisterFont(draw2d.FontData{Name: name}, f)
		}
	})
}

// faceFor - 측정용 font.Face (캐시)
func faceFor(weight int, size float64) font.Face {
	loadFonts()
	name := fontNameForWeight(weight)
	key := fmt.Sprintf("%s:%.2f", name, size)
	if v, ok := faceCache.Load(key); ok {
		return v.(font.Face)
	}
	face := truetype.NewFace(fontByName[name], &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	faceCache.Store(key, face)
	return face
}

// measureText - 논리 픽셀 단위 텍스트 폭
func measureText(text string, weight int, size float64) float64 {
	d := font.Drawer{Face: faceFor(weight, size)}
	return float64(d.MeasureString(text)) / 64.0
}
