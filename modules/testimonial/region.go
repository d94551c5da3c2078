package testimonial

import "math"

// 검색 영역 파라미터 (bodyBox 높이 기준 비율)
const (
	avatarSizeRatio   = 0.55 // 기대 아바타 변 길이 = 0.55 * bodyBox.H
	regionTopRatio    = 0.25 // 수직 밴드 상단 여유
	regionBottomRatio = 1.10 // 수직 밴드 하단 여유
	regionNearRatio   = 0.15 // bodyBox에 가까운 쪽 경계 (size 배수)
	regionFarRatio    = 1.80 // bodyBox에서 먼 쪽 경계 (size 배수)
)

// clampInt - [lo, hi] 범위로 클램핑
func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// BuildSearchRegion - 말풍선의 side 쪽 바깥에서 아바타 검색 영역 생성.
// 영역이 퇴화하면 (폭 또는 높이 0) ok=false로 해당 side를 스킵한다.
func BuildSearchRegion(body Box, side string, imgW, imgH int) (SearchRegion, bool) {
	h := float64(body.H)
	size := clampInt(int(math.Round(avatarSizeRatio*h)), MinAvatarSize, MaxAvatarSize)

	// 수직 밴드
	top := clampInt(body.Y-int(regionTopRatio*h), 0, imgH)
	bottom := clampInt(body.Y+int(regionBottomRatio*h), 0, imgH)

	// 수평 밴드: side에 따라 bodyBox의 왼쪽 또는 오른쪽 바깥
	var left, right int
	if side == SideRight {
		left = clampInt(body.Right()+int(regionNearRatio*float64(size)), 0, imgW)
		right = clampInt(body.Right()+int(regionFarRatio*float64(size)), 0, imgW)
	} else {
		left = clampInt(body.X-int(regionFarRatio*float64(size)), 0, imgW)
		right = clampInt(body.X-int(regionNearRatio*float64(size)), 0, imgW)
	}

	region := SearchRegion{
		X:      left,
		Y:      top,
		Width:  right - left,
		Height: bottom - top,
		Size:   size,
	}

	if region.Width <= 0 || region.Height <= 0 {
		return SearchRegion{}, false
	}
	return region, true
}
