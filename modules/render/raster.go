package render

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"math"
	"strings"

	"github.com/llgcode/draw2d"
	"github.com/llgcode/draw2d/draw2dimg"
	"github.com/llgcode/draw2d/draw2dkit"
	xdraw "golang.org/x/image/draw"
)

const rasterScale = 2 // 내부 래스터 배율, 출력은 논리 크기로 다운샘플

// Render - 메시지를 스타일대로 합성해 PNG와 SVG를 만든다.
func Render(ctx context.Context, msgs []Message, style Style) (*Output, error) {
	if len(msgs) == 0 {
		return nil, errors.New("렌더할 메시지가 없습니다")
	}
	if style.CanvasWidth <= 0 {
		return nil, fmt.Errorf("잘못된 캔버스 폭: %d", style.CanvasWidth)
	}

	tree := buildLayout(msgs, &style)
	if tree.Height <= 0 {
		return nil, fmt.Errorf("잘못된 캔버스 높이: %d", tree.Height)
	}

	svg := serializeSVG(ctx, tree)

	pngData, err := rasterize(ctx, tree)
	if err != nil {
		return nil, err
	}

	log.Printf("🎨 렌더 완료: %dx%d, 말풍선 %d개, preset=%s", tree.Width, tree.Height, len(tree.Bubbles), style.Preset)
	return &Output{
		PNG:    pngData,
		SVG:    svg,
		Width:  tree.Width,
		Height: tree.Height,
	}, nil
}

// rasterize - 트리를 2배 크기로 그린 뒤 논리 크기로 다운샘플해 PNG 인코딩
func rasterize(ctx context.Context, tree *layoutTree) ([]byte, error) {
	loadFonts()
	style := tree.Style

	big := image.NewRGBA(image.Rect(0, 0, tree.Width*rasterScale, tree.Height*rasterScale))
	paintBackground(big, style)

	gc := draw2dimg.NewGraphicContext(big)
	gc.SetDPI(72)
	gc.Scale(rasterScale, rasterScale)

	for i := range tree.Bubbles {
		drawBubble(ctx, gc, &tree.Bubbles[i], style)
	}
	if tree.Logo != nil {
		drawImageNode(gc, tree.Logo)
	}

	out := image.NewRGBA(image.Rect(0, 0, tree.Width, tree.Height))
	xdraw.CatmullRom.Scale(out, out.Bounds(), big, big.Bounds(), xdraw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("PNG 인코딩 실패: %w", err)
	}
	return buf.Bytes(), nil
}

// paintBackground - 배경 채우기. transparent면 알파 0 유지.
func paintBackground(img *image.RGBA, style *Style) {
	b := img.Bounds()
	switch style.BackgroundType {
	case "transparent":
		return
	case "gradient":
		top, bot := style.Background, style.BackgroundTo
		h := float64(b.Dy() - 1)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			t := float64(y) / h
			c := color.RGBA{
				R: lerp8(top.R, bot.R, t),
				G: lerp8(top.G, bot.G, t),
				B: lerp8(top.B, bot.B, t),
				A: 255,
			}
			for x := b.Min.X; x < b.Max.X; x++ {
				img.SetRGBA(x, y, c)
			}
		}
	default:
		c := style.Background
		c.A = 255
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				img.SetRGBA(x, y, c)
			}
		}
	}
}

func lerp8(a, b uint8, t float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*t))
}

func drawBubble(ctx context.Context, gc *draw2dimg.GraphicContext, b *bubbleNode, style *Style) {
	if style.OutputShape != "minimal" {
		switch style.BubbleStyle {
		case "soft_shadow":
			// 반투명 레이어를 겹쳐 부드러운 그림자 근사
			for i, alpha := range []uint8{24, 32, 46} {
				off := float64(5 - i)
				gc.SetFillColor(color.RGBA{0, 0, 0, alpha})
				draw2dkit.RoundedRectangle(gc, b.X+off, b.Y+off+2, b.X+off+b.W, b.Y+off+2+b.H, b.Radius, b.Radius)
				gc.Fill()
			}
		case "hard_shadow":
			gc.SetFillColor(color.RGBA{17, 17, 17, 255})
			draw2dkit.RoundedRectangle(gc, b.X+6, b.Y+6, b.X+6+b.W, b.Y+6+b.H, b.Radius, b.Radius)
			gc.Fill()
		}
		draw2dkit.RoundedRectangle(gc, b.X, b.Y, b.X+b.W, b.Y+b.H, b.Radius, b.Radius)
		gc.SetFillColor(b.Fill)
		if style.BubbleStyle == "outline" {
			gc.SetStrokeColor(defaultColors.Outline)
			gc.SetLineWidth(2)
			gc.FillStroke()
		} else {
			gc.Fill()
		}
	}

	if b.Avatar != nil {
		drawImageNode(gc, b.Avatar)
	}
	for _, q := range []*textLine{b.OpenQuote, b.CloseQuote} {
		if q != nil {
			drawTextLine(ctx, gc, q)
		}
	}
	for i := range b.Lines {
		drawTextLine(ctx, gc, &b.Lines[i])
	}
}

func drawTextLine(ctx context.Context, gc *draw2dimg.GraphicContext, ln *textLine) {
	for _, run := range ln.Runs {
		if run.Emoji != "" {
			size := int(math.Round(ln.FontSize * rasterScale))
			if svg := fetchEmojiSVG(ctx, run.Emoji); svg != nil {
				if img := rasterizeEmoji(svg, size); img != nil {
					drawScaledImage(gc, img, run.X, ln.Y-ln.FontSize*ascentRatio, ln.FontSize, ln.FontSize)
					continue
				}
			}
			// 폴백: 글꼴에 있는 글리프로 (흑백이라도 그려지게)
		}
		gc.SetFontData(draw2d.FontData{Name: fontNameForWeight(ln.Weight)})
		gc.SetFontSize(ln.FontSize)
		gc.SetFillColor(ln.Color)
		gc.FillStringAt(run.Text, run.X, ln.Y)
	}
}

// drawImageNode - data URL 이미지를 노드 크기로 그린다. 모양에 따라 알파 마스크 적용.
func drawImageNode(gc *draw2dimg.GraphicContext, n *imageNode) {
	img, err := decodeDataURL(n.DataURL)
	if err != nil {
		log.Printf("⚠️ 이미지 노드 디코딩 실패: %v", err)
		return
	}
	if n.Shape != "" {
		img = maskShape(img, n.Shape)
	}
	drawScaledImage(gc, img, n.X, n.Y, n.W, n.H)
}

func drawScaledImage(gc *draw2dimg.GraphicContext, img image.Image, x, y, w, h float64) {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 || w <= 0 || h <= 0 {
		return
	}
	gc.Save()
	gc.Translate(x, y)
	gc.Scale(w/float64(b.Dx()), h/float64(b.Dy()))
	gc.DrawImage(img)
	gc.Restore()
}

// maskShape - circle/rounded 알파 마스크를 입힌 RGBA 사본
func maskShape(img image.Image, shape string) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.Draw(out, out.Bounds(), img, b.Min, xdraw.Src)

	cx, cy := float64(w)/2, float64(h)/2
	r := math.Min(cx, cy)
	corner := float64(w) * 0.2
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			keep := true
			fx, fy := float64(x)+0.5, float64(y)+0.5
			if shape == "circle" {
				dx, dy := fx-cx, fy-cy
				keep = dx*dx+dy*dy <= r*r
			} else { // rounded
				keep = insideRounded(fx, fy, float64(w), float64(h), corner)
			}
			if !keep {
				out.SetRGBA(x, y, color.RGBA{})
			}
		}
	}
	return out
}

func insideRounded(x, y, w, h, r float64) bool {
	if x < r && y < r {
		return dist2(x, y, r, r) <= r*r
	}
	if x > w-r && y < r {
		return dist2(x, y, w-r, r) <= r*r
	}
	if x < r && y > h-r {
		return dist2(x, y, r, h-r) <= r*r
	}
	if x > w-r && y > h-r {
		return dist2(x, y, w-r, h-r) <= r*r
	}
	return x >= 0 && x <= w && y >= 0 && y <= h
}

func dist2(x, y, cx, cy float64) float64 {
	dx, dy := x-cx, y-cy
	return dx*dx + dy*dy
}

// decodeDataURL - data:image/...;base64,... 를 이미지로 디코딩
func decodeDataURL(dataURL string) (image.Image, error) {
	idx := strings.Index(dataURL, ";base64,")
	if idx < 0 {
		return nil, errors.New("base64 data URL이 아닙니다")
	}
	raw, err := base64.StdEncoding.DecodeString(dataURL[idx+len(";base64,"):])
	if err != nil {
		return nil, fmt.Errorf("base64 디코딩 실패: %w", err)
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("이미지 디코딩 실패: %w", err)
	}
	return img, nil
}
