package render

import (
	"image/color"
	"math"
	"sort"
	"strings"
)

const (
	bubbleGap     = 16 // 말풍선/셀 사이 간격
	avatarTextGap = 12
	ascentRatio   = 0.8 // baseline 위쪽 비율 근사
)

// buildLayout - 메시지와 스타일로 결정론적 레이아웃 트리를 만든다.
// auto 높이는 여기서 측정해 확정한다.
func buildLayout(msgs []Message, style *Style) *layoutTree {
	loadFonts()

	ordered := make([]Message, len(msgs))
	copy(ordered, msgs)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Order < ordered[j].Order })

	tree := &layoutTree{
		Width: style.CanvasWidth,
		Style: style,
	}

	contentW := float64(style.CanvasWidth - 2*style.Padding)
	if contentW < 40 {
		contentW = 40
	}

	if style.Layout == "collage" {
		layoutCollage(tree, ordered, style, contentW)
	} else {
		layoutStacked(tree, ordered, style, contentW)
	}

	if style.AutoHeight {
		bottom := float64(style.Padding)
		for _, b := range tree.Bubbles {
			if b.Y+b.H > bottom {
				bottom = b.Y + b.H
			}
		}
		tree.Height = int(math.Ceil(bottom)) + style.Padding
	} else {
		tree.Height = style.CanvasHeight
		if style.CenterVertical {
			centerBubbles(tree)
		}
	}

	placeLogo(tree, style)
	return tree
}

func layoutStacked(tree *layoutTree, msgs []Message, style *Style, contentW float64) {
	y := float64(style.Padding)
	for _, m := range msgs {
		b := buildBubble(m, style, contentW)
		switch {
		case style.OutputShape == "quote_card":
			b.X = float64(style.Padding) + (contentW-b.W)/2
		case m.Side == "right":
			b.X = float64(style.CanvasWidth-style.Padding) - b.W
		default:
			b.X = float64(style.Padding)
		}
		b.Y = y
		shiftBubble(&b, b.X, b.Y)
		tree.Bubbles = append(tree.Bubbles, b)
		y += b.H + bubbleGap
	}
}

func layoutCollage(tree *layoutTree, msgs []Message, style *Style, contentW float64) {
	cols := style.CollageColumns
	cellW := (contentW - float64(cols-1)*bubbleGap) / float64(cols)
	y := float64(style.Padding)
	for i := 0; i < len(msgs); i += cols {
		rowH := 0.0
		row := msgs[i:]
		if len(row) > cols {
			row = row[:cols]
		}
		built := make([]bubbleNode, 0, len(row))
		for j, m := range row {
			b := buildBubble(m, style, cellW)
			// 셀 폭으로 통일. 오른쪽 변에 붙은 아바타는 새 폭 기준으로 다시 붙인다.
			if b.Avatar != nil && m.Side == "right" {
				b.Avatar.X += cellW - b.W
			}
			b.W = cellW
			b.X = float64(style.Padding) + float64(j)*(cellW+bubbleGap)
			b.Y = y
			shiftBubble(&b, b.X, b.Y)
			built = append(built, b)
			if b.H > rowH {
				rowH = b.H
			}
		}
		tree.Bubbles = append(tree.Bubbles, built...)
		y += rowH + bubbleGap
	}
}

// buildBubble - 말풍선 하나를 원점 (0,0) 기준으로 조립한다. 배치 후 shiftBubble로 이동.
func buildBubble(m Message, style *Style, maxW float64) bubbleNode {
	pad := float64(style.ShapePadding)
	fs := style.FontSize
	lineH := fs * style.LineHeight

	fill, textColor := bubbleColors(m.Side, style)

	b := bubbleNode{
		Side:      m.Side,
		Fill:      fill,
		TextColor: textColor,
		Radius:    bubbleRadius(style, fs),
	}

	// 아바타가 있으면 텍스트 시작을 아바타 폭만큼 밀어낸다
	avatarD := 0.0
	if m.AvatarPresent && m.AvatarDataURL != "" && style.OutputShape != "minimal" {
		avatarD = math.Round(fs * 2.25)
	}

	chW := measureText("0", style.FontWeight, fs)
	textMax := float64(style.MaxTextChars) * chW
	avail := maxW - 2*pad - avatarD
	if avatarD > 0 {
		avail -= avatarTextGap
	}
	if textMax > avail {
		textMax = avail
	}
	if textMax < chW*4 {
		textMax = chW * 4
	}

	text := m.Text
	if style.OutputShape == "quote_card" && strings.TrimSpace(m.QuoteText) != "" {
		text = m.QuoteText
	}

	textX := pad + avatarD
	if avatarD > 0 {
		textX += avatarTextGap
	}
	cursorY := pad

	if style.OutputShape == "quote_card" {
		glyphSize := fs * 1.8
		open := textLine{
			X: pad, Y: cursorY + glyphSize*ascentRatio,
			FontSize: glyphSize, Weight: 600, Color: textColor,
			Runs: []textRun{{Text: "“", X: pad, W: measureText("“", 600, glyphSize)}},
		}
		b.OpenQuote = &open
		cursorY += glyphSize * 0.9
	}

	lines := wrapText(text, style.FontWeight, fs, textMax)
	maxLineW := 0.0
	for _, ln := range lines {
		w := 0.0
		for _, r := range ln {
			w += r.W
		}
		tl := textLine{
			X: textX, Y: cursorY + fs*ascentRatio,
			FontSize: fs, Weight: style.FontWeight, Color: textColor,
		}
		x := textX
		for _, r := range ln {
			r.X = x
			x += r.W
			tl.Runs = append(tl.Runs, r)
		}
		b.Lines = append(b.Lines, tl)
		cursorY += lineH
		if w > maxLineW {
			maxLineW = w
		}
	}

	if style.OutputShape == "quote_card" {
		glyphSize := fs * 1.8
		closeRun := textRun{Text: "”", W: measureText("”", 600, glyphSize)}
		closeRun.X = textX + maxLineW - closeRun.W
		closeLine := textLine{
			X: closeRun.X, Y: cursorY + glyphSize*ascentRatio*0.6,
			FontSize: glyphSize, Weight: 600, Color: textColor,
			Runs: []textRun{closeRun},
		}
		b.CloseQuote = &closeLine
		cursorY += glyphSize * 0.5
	}

	// 작성자 이름/역할
	if m.AuthorName != "" {
		cursorY += fs * 0.4
		nameSize := fs * 0.8
		nameW := measureText(m.AuthorName, 600, nameSize)
		b.Lines = append(b.Lines, textLine{
			X: textX, Y: cursorY + nameSize*ascentRatio,
			FontSize: nameSize, Weight: 600, Color: textColor,
			Runs: []textRun{{Text: m.AuthorName, X: textX, W: nameW}},
		})
		cursorY += nameSize * style.LineHeight
		if nameW > maxLineW {
			maxLineW = nameW
		}
		if m.AuthorRole != "" {
			roleSize := fs * 0.7
			roleW := measureText(m.AuthorRole, 400, roleSize)
			b.Lines = append(b.Lines, textLine{
				X: textX, Y: cursorY + roleSize*ascentRatio,
				FontSize: roleSize, Weight: 400, Color: defaultColors.AuthorSubdued,
				Runs: []textRun{{Text: m.AuthorRole, X: textX, W: roleW}},
			})
			cursorY += roleSize * style.LineHeight
			if roleW > maxLineW {
				maxLineW = roleW
			}
		}
	}

	b.W = textX + maxLineW + pad
	if b.W > maxW {
		b.W = maxW
	}
	b.H = cursorY + pad

	if avatarD > 0 {
		b.Avatar = &imageNode{
			X: pad, Y: pad,
			W: avatarD, H: avatarD,
			DataURL: m.AvatarDataURL,
			Shape:   avatarShape(m.AvatarShape),
		}
		if avatarD+2*pad > b.H {
			b.H = avatarD + 2*pad
		}
		// 오른쪽 말풍선이면 아바타를 오른쪽에 붙이고 텍스트를 왼쪽으로
		if m.Side == "right" {
			b.Avatar.X = b.W - pad - avatarD
			shift := -(avatarD + avatarTextGap)
			for i := range b.Lines {
				b.Lines[i].X += shift
				for j := range b.Lines[i].Runs {
					b.Lines[i].Runs[j].X += shift
				}
			}
		}
	}
	return b
}

func avatarShape(s string) string {
	if s == "rounded" {
		return "rounded"
	}
	return "circle"
}

func bubbleRadius(style *Style, fs float64) float64 {
	switch style.OutputShape {
	case "bubble":
		return fs * 0.75
	case "card", "quote_card":
		return 12
	default:
		return 0
	}
}

func bubbleColors(side string, style *Style) (color.RGBA, color.RGBA) {
	switch style.OutputShape {
	case "minimal":
		return color.RGBA{}, defaultColors.MinimalText
	case "card", "quote_card":
		return defaultColors.Card, defaultColors.TextOnCard
	}
	if side == "right" {
		return defaultColors.BubbleRight, defaultColors.TextOnRight
	}
	return defaultColors.BubbleLeft, defaultColors.TextOnLeft
}

// shiftBubble - 원점 기준으로 조립된 내부 노드를 캔버스 좌표로 이동
func shiftBubble(b *bubbleNode, dx, dy float64) {
	if b.Avatar != nil {
		b.Avatar.X += dx
		b.Avatar.Y += dy
	}
	for i := range b.Lines {
		b.Lines[i].X += dx
		b.Lines[i].Y += dy
		for j := range b.Lines[i].Runs {
			b.Lines[i].Runs[j].X += dx
		}
	}
	for _, q := range []*textLine{b.OpenQuote, b.CloseQuote} {
		if q == nil {
			continue
		}
		q.X += dx
		q.Y += dy
		for j := range q.Runs {
			q.Runs[j].X += dx
		}
	}
}

func centerBubbles(tree *layoutTree) {
	if len(tree.Bubbles) == 0 {
		return
	}
	top := math.MaxFloat64
	bottom := 0.0
	for _, b := range tree.Bubbles {
		if b.Y < top {
			top = b.Y
		}
		if b.Y+b.H > bottom {
			bottom = b.Y + b.H
		}
	}
	shift := (float64(tree.Height)-(bottom-top))/2 - top
	if shift <= 0 {
		return
	}
	for i := range tree.Bubbles {
		tree.Bubbles[i].Y += shift
		shiftBubble(&tree.Bubbles[i], 0, shift)
	}
}

func placeLogo(tree *layoutTree, style *Style) {
	if style.LogoDataURL == "" {
		return
	}
	size := clampFloat(float64(style.CanvasWidth)/8, 48, 160)
	margin := float64(style.Padding) / 2
	if margin < 12 {
		margin = 12
	}
	node := &imageNode{W: size, H: size, DataURL: style.LogoDataURL}
	switch style.LogoPosition {
	case "top_left":
		node.X, node.Y = margin, margin
	case "top_right":
		node.X, node.Y = float64(tree.Width)-margin-size, margin
	case "bottom_left":
		node.X, node.Y = margin, float64(tree.Height)-margin-size
	default: // bottom_right
		node.X, node.Y = float64(tree.Width)-margin-size, float64(tree.Height)-margin-size
	}
	tree.Logo = node
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// wrapText - 이모지 run을 분리한 뒤 단어 단위 greedy 줄바꿈
func wrapText(text string, weight int, size, maxW float64) [][]textRun {
	spaceW := measureText(" ", weight, size)
	type token struct {
		run textRun
		w   float64
	}
	var tokens []token
	for _, run := range splitEmojiRuns(text) {
		if run.Emoji != "" {
			tokens = append(tokens, token{run: textRun{Text: run.Text, Emoji: run.Emoji}, w: size})
			continue
		}
		for _, word := range strings.Fields(run.Text) {
			tokens = append(tokens, token{
				run: textRun{Text: word},
				w:   measureText(word, weight, size),
			})
		}
	}
	if len(tokens) == 0 {
		return nil
	}

	var lines [][]textRun
	var cur []textRun
	curW := 0.0
	flush := func() {
		if len(cur) > 0 {
			lines = append(lines, mergeRuns(cur, spaceW))
			cur = nil
			curW = 0
		}
	}
	for _, t := range tokens {
		add := t.w
		if len(cur) > 0 {
			add += spaceW
		}
		if len(cur) > 0 && curW+add > maxW {
			flush()
			add = t.w
		}
		run := t.run
		run.W = t.w
		cur = append(cur, run)
		curW += add
	}
	flush()
	return lines
}

// mergeRuns - 연속 텍스트 run을 공백으로 합쳐 run 수를 줄인다. 이모지는 독립 유지.
// 이모지 경계의 단어 간격은 직전 run의 W에 더해 X 누적에 반영한다.
func mergeRuns(runs []textRun, spaceW float64) []textRun {
	var out []textRun
	for _, r := range runs {
		if r.Emoji == "" && len(out) > 0 && out[len(out)-1].Emoji == "" {
			last := &out[len(out)-1]
			last.Text += " " + r.Text
			last.W += spaceW + r.W
			continue
		}
		if len(out) > 0 {
			out[len(out)-1].W += spaceW
		}
		out = append(out, r)
	}
	return out
}
