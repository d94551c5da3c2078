package render

import "image/color"

// Message - 렌더 단계가 소비하는 메시지 (아바타는 크롭 data URL로 전달)
type Message struct {
	Text          string `json:"text"`
	QuoteText     string `json:"quoteText"`
	Side          string `json:"side"`
	Order         int    `json:"order"`
	AuthorName    string `json:"authorName,omitempty"`
	AuthorRole    string `json:"authorRole,omitempty"`
	AvatarPresent bool   `json:"avatarPresent"`
	AvatarShape   string `json:"avatarShape,omitempty"`
	AvatarDataURL string `json:"avatarCropDataUrl,omitempty"`
}

// Options - 호출자가 넘기는 스타일 옵션 (영값 = 미지정, preset 기본값 사용)
type Options struct {
	Preset           string `json:"preset"`
	Layout           string `json:"layout"`
	CollageColumns   int    `json:"collageColumns"`
	OutputShape      string `json:"outputShape"`
	BubbleStyle      string `json:"bubbleStyle"`
	BackgroundType   string `json:"backgroundType"`
	Background       string `json:"background"` // hex 색상 (#RRGGBB)
	TypographyPreset string `json:"typographyPreset"`
	WeightOption     string `json:"weightOption"`
	CardPadding      string `json:"cardPadding"`
	LineSpacing      string `json:"lineSpacing"`
	MaxWidth         string `json:"maxWidth"`
	QuoteTreatment   string `json:"quoteTreatment"`
	LogoDataURL      string `json:"logoDataUrl"`
	LogoPosition     string `json:"logoPosition"`
	CenterVertical   *bool  `json:"centerVertical"`
	CanvasWidth      int    `json:"canvasWidth"`
	CanvasHeight     int    `json:"canvasHeight"`
	FontSize         int    `json:"fontSize"`
	Padding          *int   `json:"padding"`
}

// Style - 정규화가 끝난 최종 스타일. 불변.
type Style struct {
	Preset         string
	CanvasWidth    int // auto면 기본 폭
	CanvasHeight   int // 0 = auto (콘텐츠 측정 후 결정)
	AutoHeight     bool
	BackgroundType string // solid | gradient | transparent
	Background     color.RGBA
	BackgroundTo   color.RGBA // gradient 하단 색
	Padding        int
	Layout         string // stacked | collage
	CollageColumns int    // [2,4]
	OutputShape    string // bubble | card | quote_card | minimal
	BubbleStyle    string // solid | soft_shadow | hard_shadow | outline
	FontSize       float64
	FontWeight     int     // 400 | 500 | 600
	LineHeight     float64 // 배수
	ShapePadding   int
	MaxTextChars   int // 32 | 38 | 44
	QuoteTreatment string
	LogoDataURL    string
	LogoPosition   string
	CenterVertical bool
}

// Output - 렌더 결과
type Output struct {
	PNG    []byte
	SVG    string
	Width  int
	Height int
}

// layoutTree - 결정론적 레이아웃 결과. SVG 직렬화와 래스터화가 같은 트리를 소비한다.
type layoutTree struct {
	Width   int
	Height  int
	Style   *Style
	Bubbles []bubbleNode
	Logo    *imageNode
}

// bubbleNode - 말풍선/카드 하나의 배치 결과 (논리 픽셀)
type bubbleNode struct {
	X, Y, W, H float64
	Side       string
	Radius     float64
	Fill       color.RGBA
	TextColor  color.RGBA
	Avatar     *imageNode
	Lines      []textLine
	OpenQuote  *textLine // quote_card 전용 인용 글리프
	CloseQuote *textLine
}

// imageNode - 배치된 이미지 (아바타 크롭, 로고)
type imageNode struct {
	X, Y, W, H float64
	DataURL    string
	Shape      string // circle | rounded | ""
}

// textLine - 한 줄의 텍스트. 이모지는 별도 run으로 분리된다.
type textLine struct {
	X, Y     float64 // baseline 기준
	FontSize float64
	Weight   int
	Color    color.RGBA
	Runs     []textRun
}

// textRun - 텍스트 또는 이모지 조각
type textRun struct {
	Text  string  // Emoji가 비어있을 때만 사용
	Emoji string  // twemoji 파일명 (코드포인트-조인), 비어있으면 일반 텍스트
	X     float64 // 줄 내 절대 X
	W     float64
}
