package testimonial

import (
	"errors"
	"fmt"
)

// Side 값
const (
	SideLeft  = "left"
	SideRight = "right"
)

// Avatar 검출 방법
const (
	MethodFace     = "face"
	MethodContour  = "contour"
	MethodGeometry = "geometry"
)

// Avatar 모양
const (
	ShapeCircle  = "circle"
	ShapeRounded = "rounded"
)

// Avatar 크기 제한 (픽셀)
const (
	MinAvatarSize = 40
	MaxAvatarSize = 180
)

// Box - 픽셀 공간 사각형
type Box struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Point - 픽셀 공간 좌표
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Center - Box의 중심점
func (b Box) Center() Point {
	return Point{X: b.X + b.W/2, Y: b.Y + b.H/2}
}

// Right - 우측 경계
func (b Box) Right() int { return b.X + b.W }

// Bottom - 하단 경계
func (b Box) Bottom() int { return b.Y + b.H }

// ClampInto - 이미지 경계 안으로 클램핑 (크기는 최대한 보존)
func (b Box) ClampInto(imgW, imgH int) Box {
	if b.X < 0 {
		b.W += b.X
		b.X = 0
	}
	if b.Y < 0 {
		b.H += b.Y
		b.Y = 0
	}
	if b.X+b.W > imgW {
		b.W = imgW - b.X
	}
	if b.Y+b.H > imgH {
		b.H = imgH - b.Y
	}
	if b.W < 0 {
		b.W = 0
	}
	if b.H < 0 {
		b.H = 0
	}
	return b
}

// SourceImage - 요청 단위로 소유되는 입력 이미지
type SourceImage struct {
	Data   []byte
	Width  int
	Height int
	Mime   string
	Path   string // 디스크에 저장된 경우의 경로 (옵션)
}

// Bubble - 채팅 스크린샷 안의 말풍선 하나 (stage 2 산출물, 이후 불변)
type Bubble struct {
	Text       string `json:"text"`
	Side       string `json:"side"`
	Order      int    `json:"order"`
	BodyBox    Box    `json:"bodyBox"`
	AuthorName string `json:"authorName,omitempty"`
	AuthorRole string `json:"authorRole,omitempty"`
}

// SearchRegion - bodyBox 바깥쪽, 아바타가 있을 것으로 기대되는 영역
type SearchRegion struct {
	X      int
	Y      int
	Width  int
	Height int
	Size   int // 아바타 기대 변 길이
}

// ExpectedCenter - 영역의 기하학적 중심
func (r SearchRegion) ExpectedCenter() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// AvatarCandidate - 검출 방법 하나가 내놓은 후보
type AvatarCandidate struct {
	Box      Box
	Center   Point
	EdgeSize int
	Score    float64
	Source   string

	// 디버깅용 진단값
	Circularity     float64
	Squareness      float64
	Smoothness      float64
	TextureVariance float64
}

// AvatarDecision - 말풍선 하나에 대한 최종 아바타 판정
type AvatarDecision struct {
	Box         Box
	Present     bool
	Shape       string // circle | rounded | "" (geometry)
	Method      string
	CropDataURL string
}

// MessageWithAvatar - 렌더 단계가 소비하는 메시지
type MessageWithAvatar struct {
	Text              string `json:"text"`
	QuoteText         string `json:"quoteText"`
	Side              string `json:"side"`
	Order             int    `json:"order"`
	AuthorName        string `json:"authorName,omitempty"`
	AuthorRole        string `json:"authorRole,omitempty"`
	AvatarPresent     bool   `json:"avatarPresent"`
	AvatarShape       string `json:"avatarShape,omitempty"`
	AvatarBox         *Box   `json:"avatarBox,omitempty"`
	AvatarCropDataURL string `json:"avatarCropDataUrl,omitempty"`
}

// 에러 종류 판별자 (HTTP 어댑터가 상태 코드 매핑에 사용)
const (
	KindInput             = "input_error"
	KindVision            = "vision_error"
	KindInsufficientFunds = "insufficient_funds"
	KindModelLoad         = "model_load_error"
	KindCrop              = "crop_error"
	KindRender            = "render_error"
	KindInternal          = "internal_error"
)

// PipelineError - 판별자가 붙은 파이프라인 에러
type PipelineError struct {
	Kind    string
	Message string
	Err     error
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// NewInputError - 입력 검증 실패 (400 매핑)
func NewInputError(format string, args ...any) *PipelineError {
	return &PipelineError{Kind: KindInput, Message: fmt.Sprintf(format, args...)}
}

// NewVisionError - 비전 모델 호출 실패 (이미지 단위로 스킵 가능)
func NewVisionError(msg string, err error) *PipelineError {
	return &PipelineError{Kind: KindVision, Message: msg, Err: err}
}

// NewInsufficientFundsError - Provider 과금/할당량 에러 (402 매핑)
func NewInsufficientFundsError(err error) *PipelineError {
	return &PipelineError{Kind: KindInsufficientFunds, Message: "vision provider billing/quota error", Err: err}
}

// KindOf - 에러의 판별자 추출 (알 수 없으면 internal_error)
func KindOf(err error) string {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindInternal
}
