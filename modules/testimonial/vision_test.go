package testimonial

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubVision - 고정 응답/에러를 돌려주는 VisionClient
type stubVision struct {
	responses []string
	err       error
	calls     int
}

func (s *stubVision) GenerateText(ctx context.Context, prompt string, imageData []byte, mimeType string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	idx := s.calls - 1
	if idx >= len(s.responses) {
		idx = len(s.responses) - 1
	}
	return s.responses[idx], nil
}

func TestParseBubblesFencedJSON(t *testing.T) {
	raw := "Here are the bubbles:\n```json\n" +
		`[{"text":"사랑해요 이 앱","bodyBox":{"x":120,"y":80,"w":400,"h":90},"side":"left","order":1},` +
		`{"text":"감사합니다!","bodyBox":{"x":500,"y":200,"w":380,"h":80},"side":"right","order":2,"authorName":"민지","authorRole":"디자이너"}]` +
		"\n```\nDone."

	bubbles := ParseBubbles(raw, 1080, 1920)
	require.Len(t, bubbles, 2)

	assert.Equal(t, "사랑해요 이 앱", bubbles[0].Text)
	assert.Equal(t, SideLeft, bubbles[0].Side)
	assert.Equal(t, Box{X: 120, Y: 80, W: 400, H: 90}, bubbles[0].BodyBox)

	assert.Equal(t, SideRight, bubbles[1].Side)
	assert.Equal(t, "민지", bubbles[1].AuthorName)
	assert.Equal(t, "디자이너", bubbles[1].AuthorRole)
}

func TestParseBubblesPermissiveKeys(t *testing.T) {
	// width/height, body_box, author 변형 키도 수용
	raw := `[{"message":"great product","body_box":{"x":10,"y":20,"width":200,"height":60},"author":"Kim"}]`

	bubbles := ParseBubbles(raw, 800, 600)
	require.Len(t, bubbles, 1)
	assert.Equal(t, "great product", bubbles[0].Text)
	assert.Equal(t, 200, bubbles[0].BodyBox.W)
	assert.Equal(t, "Kim", bubbles[0].AuthorName)
	// side 누락 → left, order 누락 → 1
	assert.Equal(t, SideLeft, bubbles[0].Side)
	assert.Equal(t, 1, bubbles[0].Order)
}

func TestParseBubblesClampsAndSkipsDegenerate(t *testing.T) {
	raw := `[
		{"text":"overflow","bodyBox":{"x":700,"y":500,"w":400,"h":200}},
		{"text":"no box at all"},
		{"text":"zero","bodyBox":{"x":10,"y":10,"w":0,"h":50}},
		{"text":"outside","bodyBox":{"x":900,"y":700,"w":100,"h":80}}
	]`

	bubbles := ParseBubbles(raw, 800, 600)
	require.Len(t, bubbles, 1)
	// 이미지 경계로 클램핑
	assert.Equal(t, "overflow", bubbles[0].Text)
	assert.LessOrEqual(t, bubbles[0].BodyBox.Right(), 800)
	assert.LessOrEqual(t, bubbles[0].BodyBox.Bottom(), 600)
}

func TestParseBubblesReassignsOrder(t *testing.T) {
	raw := `[
		{"text":"c","order":7,"bodyBox":{"x":10,"y":300,"w":100,"h":40}},
		{"text":"a","order":2,"bodyBox":{"x":10,"y":10,"w":100,"h":40}},
		{"text":"b","order":5,"bodyBox":{"x":10,"y":150,"w":100,"h":40}}
	]`

	bubbles := ParseBubbles(raw, 800, 600)
	require.Len(t, bubbles, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{bubbles[0].Text, bubbles[1].Text, bubbles[2].Text})
	for i, b := range bubbles {
		assert.Equal(t, i+1, b.Order)
	}
}

func TestParseBubblesGarbage(t *testing.T) {
	assert.Nil(t, ParseBubbles("I could not find any chat bubbles in this image.", 800, 600))
	assert.Nil(t, ParseBubbles("```json\n{not valid[}]\n```", 800, 600))
	assert.Empty(t, ParseBubbles("[]", 800, 600))
}

func TestExtractSkipsFailedImageButKeepsOthers(t *testing.T) {
	good := `[{"text":"hello","bodyBox":{"x":10,"y":10,"w":200,"h":60}}]`
	vision := &stubVision{responses: []string{"no json here", good}}
	svc := NewServiceWith(vision, "")

	images := []SourceImage{
		{Data: []byte{1}, Width: 800, Height: 600, Mime: "image/png"},
		{Data: []byte{2}, Width: 800, Height: 600, Mime: "image/png"},
	}

	bubbles, err := svc.Extract(context.Background(), images)
	require.NoError(t, err)
	require.Len(t, bubbles, 1)
	assert.Equal(t, "hello", bubbles[0].Text)
	assert.Equal(t, 2, vision.calls)
}

func TestExtractAbortsOnBillingError(t *testing.T) {
	vision := &stubVision{err: errors.New("429: insufficient quota for this API key")}
	svc := NewServiceWith(vision, "")

	_, err := svc.Extract(context.Background(), []SourceImage{
		{Data: []byte{1}, Width: 800, Height: 600, Mime: "image/png"},
	})
	require.Error(t, err)
	assert.Equal(t, KindInsufficientFunds, KindOf(err))
}

func TestPipelineErrorKinds(t *testing.T) {
	assert.Equal(t, KindInput, KindOf(NewInputError("bad input %d", 1)))
	assert.Equal(t, KindVision, KindOf(NewVisionError("boom", errors.New("x"))))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))

	// 래핑돼도 판별자는 유지
	wrapped := &PipelineError{Kind: KindRender, Message: "render failed", Err: errors.New("inner")}
	assert.Equal(t, KindRender, KindOf(wrapped))
}
