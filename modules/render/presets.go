package render

import (
	"image/color"
	"log"
	"strings"
)

// 채널 preset 기본값 테이블. CanvasWidth/Height 0 = auto.
type presetSpec struct {
	Width          int
	Height         int
	BackgroundType string
	Padding        int
	FontSize       float64
}

const autoCanvasWidth = 800

var presetTable = map[string]presetSpec{
	"instagram_story": {1080, 1920, "gradient", 100, 32},
	"instagram_post":  {1080, 1080, "solid", 80, 28},
	"twitter":         {1200, 675, "solid", 60, 26},
	"linkedin":        {1200, 627, "solid", 60, 26},
	"website":         {0, 0, "transparent", 24, 24},
	"presentation":    {1920, 1080, "solid", 120, 36},
	"raw_bubbles":     {0, 0, "transparent", 16, 28},
}

// outputShape별 내부 여백 (cardPadding small/medium/large)
var shapePaddingTable = map[string][3]int{
	"bubble":     {16, 20, 24},
	"card":       {20, 24, 32},
	"quote_card": {28, 36, 44},
	"minimal":    {0, 0, 0},
}

var maxWidthChars = map[string]int{
	"narrow":   32,
	"standard": 38,
	"wide":     44,
}

var defaultColors = struct {
	CanvasSolid   color.RGBA
	GradientTop   color.RGBA
	GradientBot   color.RGBA
	BubbleLeft    color.RGBA
	BubbleRight   color.RGBA
	TextOnLeft    color.RGBA
	TextOnRight   color.RGBA
	Card          color.RGBA
	TextOnCard    color.RGBA
	Outline       color.RGBA
	MinimalText   color.RGBA
	AuthorSubdued color.RGBA
}{
	CanvasSolid:   color.RGBA{255, 255, 255, 255},
	GradientTop:   color.RGBA{142, 45, 226, 255},
	GradientBot:   color.RGBA{74, 0, 224, 255},
	BubbleLeft:    color.RGBA{242, 243, 245, 255},
	BubbleRight:   color.RGBA{61, 139, 253, 255},
	TextOnLeft:    color.RGBA{17, 17, 17, 255},
	TextOnRight:   color.RGBA{255, 255, 255, 255},
	Card:          color.RGBA{255, 255, 255, 255},
	TextOnCard:    color.RGBA{17, 17, 17, 255},
	Outline:       color.RGBA{208, 210, 214, 255},
	MinimalText:   color.RGBA{17, 17, 17, 255},
	AuthorSubdued: color.RGBA{110, 115, 125, 255},
}

// ResolveStyle - 옵션을 preset 기본값 위에 정규화한다. 알 수 없는 preset은 raw_bubbles로 처리.
func ResolveStyle(opts Options) Style {
	preset := strings.TrimSpace(opts.Preset)
	spec, ok := presetTable[preset]
	if !ok {
		if preset != "" {
			log.Printf("⚠️ 알 수 없는 preset: %s → raw_bubbles로 처리", preset)
		}
		preset = "raw_bubbles"
		spec = presetTable[preset]
	}

	s := Style{
		Preset:         preset,
		CanvasWidth:    spec.Width,
		CanvasHeight:   spec.Height,
		BackgroundType: spec.BackgroundType,
		Padding:        spec.Padding,
		FontSize:       spec.FontSize,
	}
	if opts.CanvasWidth > 0 {
		s.CanvasWidth = opts.CanvasWidth
	}
	if opts.CanvasHeight > 0 {
		s.CanvasHeight = opts.CanvasHeight
	}
	if s.CanvasWidth == 0 {
		s.CanvasWidth = autoCanvasWidth
	}
	s.AutoHeight = s.CanvasHeight == 0
	if opts.Padding != nil && *opts.Padding >= 0 {
		s.Padding = *opts.Padding
	}
	if opts.FontSize > 0 {
		s.FontSize = float64(opts.FontSize)
	}

	if opts.BackgroundType != "" {
		s.BackgroundType = opts.BackgroundType
	}
	s.Background = defaultColors.CanvasSolid
	s.BackgroundTo = defaultColors.GradientBot
	if s.BackgroundType == "gradient" {
		s.Background = defaultColors.GradientTop
	}
	if c, ok := parseHexColor(opts.Background); ok {
		s.Background = c
	}

	s.Layout = pick(opts.Layout, "stacked", "stacked", "collage")
	s.CollageColumns = clampInt(opts.CollageColumns, 2, 4)

	s.OutputShape = pick(opts.OutputShape, "bubble", "bubble", "card", "quote_card", "minimal")
	s.BubbleStyle = pick(opts.BubbleStyle, "solid", "solid", "soft_shadow", "hard_shadow", "outline")

	// 타이포그래피: 크기 배율과 행간 보정
	base := 1.4
	if s.OutputShape == "quote_card" {
		base = 1.6
	}
	switch pick(opts.TypographyPreset, "inherit", "inherit", "editorial", "compact") {
	case "editorial":
		s.FontSize = s.FontSize * 1.05
		base += 0.08
	case "compact":
		s.FontSize = s.FontSize * 0.95
		base -= 0.04
	}
	if pick(opts.LineSpacing, "normal", "normal", "relaxed") == "relaxed" {
		base += 0.10
	}
	s.LineHeight = base

	switch pick(opts.WeightOption, "match", "match", "medium", "bold") {
	case "medium":
		s.FontWeight = 500
	case "bold":
		s.FontWeight = 600
	default:
		s.FontWeight = 400
	}

	// cardPadding은 s/m/l 토큰, 구버전 클라이언트의 small/medium/large도 허용
	padIdx := 1
	switch pick(opts.CardPadding, "m", "s", "m", "l", "small", "medium", "large") {
	case "s", "small":
		padIdx = 0
	case "l", "large":
		padIdx = 2
	}
	s.ShapePadding = shapePaddingTable[s.OutputShape][padIdx]

	s.MaxTextChars = maxWidthChars[pick(opts.MaxWidth, "standard", "narrow", "standard", "wide")]
	s.QuoteTreatment = pick(opts.QuoteTreatment, "polished", "polished", "editorial")
	s.LogoDataURL = opts.LogoDataURL
	s.LogoPosition = pick(opts.LogoPosition, "bottom_right", "top_left", "top_right", "bottom_left", "bottom_right")

	if opts.CenterVertical != nil {
		s.CenterVertical = *opts.CenterVertical
	} else {
		s.CenterVertical = preset == "instagram_story"
	}
	return s
}

// pick - 허용 목록에 있으면 그대로, 아니면 기본값
func pick(v, def string, allowed ...string) string {
	v = strings.TrimSpace(v)
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	return def
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// parseHexColor - "#RGB" / "#RRGGBB" 파싱
func parseHexColor(s string) (color.RGBA, bool) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		return color.RGBA{}, false
	}
	hex := s[1:]
	hexVal := func(b byte) (uint8, bool) {
		switch {
		case b >= '0' && b <= '9':
			return b - '0', true
		case b >= 'a' && b <= 'f':
			return b - 'a' + 10, true
		case b >= 'A' && b <= 'F':
			return b - 'A' + 10, true
		}
		return 0, false
	}
	switch len(hex) {
	case 3:
		var out [3]uint8
		for i := 0; i < 3; i++ {
			v, ok := hexVal(hex[i])
			if !ok {
				return color.RGBA{}, false
			}
			out[i] = v*16 + v
		}
		return color.RGBA{out[0], out[1], out[2], 255}, true
	case 6:
		var out [3]uint8
		for i := 0; i < 3; i++ {
			hi, ok1 := hexVal(hex[i*2])
			lo, ok2 := hexVal(hex[i*2+1])
			if !ok1 || !ok2 {
				return color.RGBA{}, false
			}
			out[i] = hi*16 + lo
		}
		return color.RGBA{out[0], out[1], out[2], 255}, true
	}
	return color.RGBA{}, false
}
