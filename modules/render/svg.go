package render

import (
	"context"
	"encoding/base64"
	"fmt"
	"html"
	"image/color"
	"strings"
)

// serializeSVG - 레이아웃 트리를 SVG 문자열로 직렬화한다.
// 트리 순서대로만 출력하므로 같은 입력이면 항상 같은 바이트.
func serializeSVG(ctx context.Context, tree *layoutTree) string {
	var sb strings.Builder
	style := tree.Style

	fmt.Fprintf(&sb, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`,
		tree.Width, tree.Height, tree.Width, tree.Height)
	sb.WriteByte('\n')

	switch style.BackgroundType {
	case "gradient":
		sb.WriteString(`<defs><linearGradient id="bg" x1="0" y1="0" x2="0" y2="1">`)
		fmt.Fprintf(&sb, `<stop offset="0" stop-color="%s"/><stop offset="1" stop-color="%s"/>`,
			hexRGB(style.Background), hexRGB(style.BackgroundTo))
		sb.WriteString(`</linearGradient></defs>`)
		fmt.Fprintf(&sb, `<rect width="%d" height="%d" fill="url(#bg)"/>`, tree.Width, tree.Height)
		sb.WriteByte('\n')
	case "solid":
		fmt.Fprintf(&sb, `<rect width="%d" height="%d" fill="%s"/>`, tree.Width, tree.Height, hexRGB(style.Background))
		sb.WriteByte('\n')
	}

	for i := range tree.Bubbles {
		writeBubbleSVG(ctx, &sb, &tree.Bubbles[i], style)
	}

	if tree.Logo != nil {
		writeImageSVG(&sb, tree.Logo)
	}

	sb.WriteString("</svg>\n")
	return sb.String()
}

func writeBubbleSVG(ctx context.Context, sb *strings.Builder, b *bubbleNode, style *Style) {
	if style.OutputShape != "minimal" {
		switch style.BubbleStyle {
		case "soft_shadow":
			fmt.Fprintf(sb, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="%.1f" fill="rgba(0,0,0,0.18)"/>`,
				b.X+3, b.Y+5, b.W, b.H, b.Radius)
			sb.WriteByte('\n')
		case "hard_shadow":
			fmt.Fprintf(sb, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="%.1f" fill="#111111"/>`,
				b.X+6, b.Y+6, b.W, b.H, b.Radius)
			sb.WriteByte('\n')
		}
		stroke := ""
		if style.BubbleStyle == "outline" {
			stroke = fmt.Sprintf(` stroke="%s" stroke-width="2"`, hexRGB(defaultColors.Outline))
		}
		fmt.Fprintf(sb, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="%.1f" fill="%s"%s/>`,
			b.X, b.Y, b.W, b.H, b.Radius, hexRGB(b.Fill), stroke)
		sb.WriteByte('\n')
	}

	if b.Avatar != nil {
		writeImageSVG(sb, b.Avatar)
	}
	for _, q := range []*textLine{b.OpenQuote, b.CloseQuote} {
		if q != nil {
			writeLineSVG(ctx, sb, q, style)
		}
	}
	for i := range b.Lines {
		writeLineSVG(ctx, sb, &b.Lines[i], style)
	}
}

func writeLineSVG(ctx context.Context, sb *strings.Builder, ln *textLine, style *Style) {
	for _, run := range ln.Runs {
		if run.Emoji != "" {
			size := ln.FontSize
			y := ln.Y - size*ascentRatio
			if svg := fetchEmojiSVG(ctx, run.Emoji); svg != nil {
				fmt.Fprintf(sb, `<image x="%.1f" y="%.1f" width="%.1f" height="%.1f" href="data:image/svg+xml;base64,%s"/>`,
					run.X, y, size, size, base64.StdEncoding.EncodeToString(svg))
				sb.WriteByte('\n')
				continue
			}
			// 폴백: 유니코드 글리프 그대로
		}
		fmt.Fprintf(sb, `<text x="%.1f" y="%.1f" font-family="Go, sans-serif" font-size="%.1f" font-weight="%d" fill="%s">%s</text>`,
			run.X, ln.Y, ln.FontSize, ln.Weight, hexRGB(ln.Color), html.EscapeString(run.Text))
		sb.WriteByte('\n')
	}
}

func writeImageSVG(sb *strings.Builder, n *imageNode) {
	clip := ""
	if n.Shape == "circle" {
		clip = fmt.Sprintf(` clip-path="circle(%.1fpx at %.1fpx %.1fpx)"`, n.W/2, n.W/2, n.H/2)
	} else if n.Shape == "rounded" {
		clip = fmt.Sprintf(` clip-path="inset(0 round %.1fpx)"`, n.W*0.2)
	}
	fmt.Fprintf(sb, `<image x="%.1f" y="%.1f" width="%.1f" height="%.1f" href="%s" preserveAspectRatio="xMidYMid slice"%s/>`,
		n.X, n.Y, n.W, n.H, n.DataURL, clip)
	sb.WriteByte('\n')
}

func hexRGB(c color.RGBA) string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}
