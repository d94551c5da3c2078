package testimonial

import (
	"image"
	"log"
	"math"

	"testimonial-canvas-server/modules/common/facemodel"
	"testimonial-canvas-server/modules/common/utils"
)

// LocateAvatars - 말풍선마다 화자 아바타 위치를 찾는다.
// 얼굴 검출 → 윤곽 분석 → 기하학적 fallback 순서로 시도하고,
// 말풍선 단위 CV 실패는 avatarPresent=false로 강등한다.
// 모델 로드 실패만 컴포넌트 레벨에서 fatal이다.
func (s *Service) LocateAvatars(source SourceImage, bubbles []Bubble) ([]MessageWithAvatar, error) {
	messages := make([]MessageWithAvatar, 0, len(bubbles))
	if len(bubbles) == 0 {
		return messages, nil
	}

	img, _, err := utils.DecodeImage(source.Data)
	if err != nil {
		return nil, NewInputError("failed to decode image for avatar localization: %v", err)
	}

	detector, err := facemodel.Get(s.faceModelDir)
	if err != nil {
		return nil, &PipelineError{Kind: KindModelLoad, Message: "face detector unavailable", Err: err}
	}

	for i, bubble := range bubbles {
		decision := s.locateOne(detector, img, bubble, i)

		msg := MessageWithAvatar{
			Text:          bubble.Text,
			QuoteText:     bubble.Text,
			Side:          bubble.Side,
			Order:         bubble.Order,
			AuthorName:    bubble.AuthorName,
			AuthorRole:    bubble.AuthorRole,
			AvatarPresent: decision.Present,
		}
		if decision.Present {
			box := decision.Box
			msg.AvatarShape = decision.Shape
			msg.AvatarBox = &box
			msg.AvatarCropDataURL = decision.CropDataURL
		}
		messages = append(messages, msg)
	}

	return messages, nil
}

// locateOne - 말풍선 하나에 대한 3단계 아바타 검출.
// 어떤 패닉/에러도 밖으로 새지 않는다.
func (s *Service) locateOne(detector facemodel.Detector, img image.Image, bubble Bubble, index int) (decision AvatarDecision) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("⚠️  [Testimonial] Avatar detection panic for bubble %d, degrading to absent: %v", index, r)
			decision = AvatarDecision{Present: false}
		}
	}()

	bounds := img.Bounds()
	imgW, imgH := bounds.Dx(), bounds.Dy()

	// side가 명시된 경우 그쪽만, 아니면 양쪽 시도
	sides := []string{bubble.Side}
	if bubble.Side != SideLeft && bubble.Side != SideRight {
		sides = []string{SideLeft, SideRight}
	}

	var candidate AvatarCandidate
	var found bool
	var usedRegion SearchRegion

	for _, side := range sides {
		region, ok := BuildSearchRegion(bubble.BodyBox, side, imgW, imgH)
		if !ok {
			log.Printf("🔍 [Testimonial] Bubble %d: degenerate %s search region, skipping side", index, side)
			continue
		}
		usedRegion = region

		// 방법 1: 얼굴 검출
		if c, ok := detectFaceAvatar(detector, img, region); ok {
			candidate = c
			found = true
			log.Printf("👤 [Testimonial] Bubble %d: face avatar at (%d,%d) edge=%d score=%.2f",
				index, c.Box.X, c.Box.Y, c.Box.W, c.Score)
			break
		}

		// 방법 2: 윤곽/형태 분석
		if c, ok := detectContourAvatar(img, region); ok {
			candidate = c
			found = true
			log.Printf("⭕ [Testimonial] Bubble %d: contour avatar at (%d,%d) circ=%.2f sq=%.2f score=%.2f",
				index, c.Box.X, c.Box.Y, c.Circularity, c.Squareness, c.Score)
			break
		}
	}

	if found {
		decision = AvatarDecision{
			Box:     candidate.Box,
			Present: true,
			Method:  candidate.Source,
			Shape:   ShapeCircle,
		}
		if candidate.Source == MethodContour && candidate.Squareness >= roundedShapeCutoff {
			decision.Shape = ShapeRounded
		}
	} else {
		// 방법 3: 기하학적 fallback. side가 모호하면 왼쪽 → 오른쪽 순서로 시도한다.
		// 기대 아바타 크기는 side와 무관하게 bodyBox 높이로 결정된다.
		size := usedRegion.Size
		if size == 0 {
			size = clampInt(int(math.Round(avatarSizeRatio*float64(bubble.BodyBox.H))), MinAvatarSize, MaxAvatarSize)
		}

		decision = AvatarDecision{Present: false}
		for _, side := range sides {
			c, present := geometryAvatar(img, bubble.BodyBox, side, size)
			if c.Box.W <= 0 || c.Box.H <= 0 {
				continue
			}
			decision = AvatarDecision{
				Box:     c.Box,
				Present: present,
				Method:  MethodGeometry,
			}
			if present {
				break
			}
			log.Printf("🔍 [Testimonial] Bubble %d: blank %s region, avatar absent (lumaVar=%.1f)", index, side, c.TextureVariance)
		}
	}

	// 크롭 (실패 시 avatarPresent=false로 강등, 파이프라인 계속)
	if decision.Present {
		dataURL, err := cropToDataURL(img, decision.Box)
		if err != nil {
			log.Printf("⚠️  [Testimonial] Bubble %d: avatar crop failed, degrading to absent: %v", index, err)
			decision.Present = false
			decision.CropDataURL = ""
		} else {
			decision.CropDataURL = dataURL
		}
	}

	// 디버그 오버레이 (절대 메인 리턴을 막지 않음)
	if s.debugAvatars {
		go writeDebugOverlay(s.debugDir, index, img, bubble, usedRegion, decision)
	}

	return decision
}
