package testimonial

import (
	"image"
	"math"
)

// Contour 분석 상수. 기본값은 튜닝 가능하며 end-to-end 테스트가 커버한다.
const (
	edgeThresholdFloor   = 20.0  // Sobel 이진화 임계치 하한
	edgeThresholdStdMult = 0.5   // T = max(floor, mean + 0.5*stdev)
	componentMinRatio    = 0.55  // shortSide >= 0.55 * size
	componentMaxRatio    = 1.60  // shortSide <= 1.60 * size
	minSquareness        = 0.75  // shortSide/longSide 하한
	circleThreshold      = 0.70  // circularity >= 0.70 → 원형
	roundedSquareness    = 0.85  // squareness >= 0.85 ∧ smoothness < 2.5 → 라운드 사각형
	maxSmoothness        = 2.5   //
	roundedShapeCutoff   = 0.90  // 최종 shape 판정: rounded vs circle
	textureNormalizer    = 5000.0
	boxExpandRatio       = 0.08 // 최종 박스 확장 비율
)

// edgeComponent - 이진 에지 맵의 연결 요소 (영역 로컬 좌표)
type edgeComponent struct {
	minX, minY, maxX, maxY int
	pixelCount             int   // 에지 픽셀 수 (둘레 근사)
	rowMin, rowMax         []int // 행별 최소/최대 열 (채움 면적용)
}

func (c *edgeComponent) width() int  { return c.maxX - c.minX + 1 }
func (c *edgeComponent) height() int { return c.maxY - c.minY + 1 }

// filledArea - 행별 max_col - min_col + 1의 합
func (c *edgeComponent) filledArea() int {
	area := 0
	for i := range c.rowMin {
		if c.rowMin[i] <= c.rowMax[i] {
			area += c.rowMax[i] - c.rowMin[i] + 1
		}
	}
	return area
}

// detectContourAvatar - 방법 2: 에지 연결 요소 분석으로 원형/라운드 사각형 아바타 검출
func detectContourAvatar(img image.Image, region SearchRegion) (AvatarCandidate, bool) {
	w, h := region.Width, region.Height
	if w < 4 || h < 4 {
		return AvatarCandidate{}, false
	}

	// 1. 영역 픽셀의 휘도 추출
	luma := regionLuminance(img, region)

	// 2. Sobel 에지 맵 + 적응 임계치 이진화
	magnitudes := sobelMagnitude(luma, w, h)
	threshold := adaptiveThreshold(magnitudes)
	binary := make([]bool, len(magnitudes))
	for i, m := range magnitudes {
		binary[i] = m >= threshold
	}

	// 3. 8-이웃 연결 요소 라벨링
	components := labelComponents(binary, w, h)

	// 4~9. 필터링 + 스코어링
	expected := region.ExpectedCenter()
	best := AvatarCandidate{Score: math.Inf(-1)}
	found := false

	for _, comp := range components {
		cw, ch := comp.width(), comp.height()
		shortSide := math.Min(float64(cw), float64(ch))
		longSide := math.Max(float64(cw), float64(ch))

		// 크기 필터: 기대 아바타 크기 범위 내
		if shortSide < componentMinRatio*float64(region.Size) || shortSide > componentMaxRatio*float64(region.Size) {
			continue
		}

		squareness := shortSide / longSide
		if squareness < minSquareness {
			continue
		}

		area := float64(comp.filledArea())
		perimeter := float64(comp.pixelCount)
		circularity := 4 * math.Pi * area / (perimeter * perimeter)
		smoothness := perimeter / (2 * float64(cw+ch))

		// 원형 또는 라운드 사각형만 통과
		isCircle := circularity >= circleThreshold
		isRoundedSquare := squareness >= roundedSquareness && smoothness < maxSmoothness
		if !isCircle && !isRoundedSquare {
			continue
		}

		// 텍스처 항: 컴포넌트 박스 내부 휘도 분산
		textureVariance := boxLumaVariance(luma, w, comp.minX, comp.minY, comp.maxX, comp.maxY)
		textureScore := math.Min(math.Max(textureVariance/textureNormalizer, 0), 1)

		// 거리 페널티: 컴포넌트 중심 ↔ 기대 중심
		centerX := region.X + (comp.minX+comp.maxX)/2
		centerY := region.Y + (comp.minY+comp.maxY)/2
		dist := math.Hypot(float64(centerX-expected.X), float64(centerY-expected.Y))
		distancePenalty := dist / (2 * float64(region.Size))

		score := circularity + textureScore - distancePenalty
		if score <= best.Score {
			continue
		}

		// 10. 최종 박스: 컴포넌트 중심의 정사각형. 변 길이는 긴 변 + 양쪽 확장분을
		// 기대 아바타 크기 범위로 클램핑한다.
		expand := int(math.Round(boxExpandRatio * longSide))
		edge := clampInt(int(longSide)+2*expand, MinAvatarSize, MaxAvatarSize)
		box := Box{
			X: centerX - edge/2,
			Y: centerY - edge/2,
			W: edge,
			H: edge,
		}

		best = AvatarCandidate{
			Box:             box,
			Center:          Point{X: centerX, Y: centerY},
			EdgeSize:        edge,
			Score:           score,
			Source:          MethodContour,
			Circularity:     circularity,
			Squareness:      squareness,
			Smoothness:      smoothness,
			TextureVariance: textureVariance,
		}
		found = true
	}

	if !found {
		return AvatarCandidate{}, false
	}

	bounds := img.Bounds()
	best.Box = best.Box.ClampInto(bounds.Dx(), bounds.Dy())
	return best, true
}

// regionLuminance - 검색 영역의 픽셀별 휘도 (Y = 0.2126R + 0.7152G + 0.0722B)
func regionLuminance(img image.Image, region SearchRegion) []float64 {
	luma := make([]float64, region.Width*region.Height)
	for y := 0; y < region.Height; y++ {
		for x := 0; x < region.Width; x++ {
			r, g, b, _ := img.At(region.X+x, region.Y+y).RGBA()
			luma[y*region.Width+x] = 0.2126*float64(r>>8) + 0.7152*float64(g>>8) + 0.0722*float64(b>>8)
		}
	}
	return luma
}

// sobelMagnitude - 휘도 맵에 Sobel 연산자를 적용한 에지 강도 맵
func sobelMagnitude(luma []float64, w, h int) []float64 {
	mag := make([]float64, w*h)
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			tl := luma[(y-1)*w+x-1]
			tc := luma[(y-1)*w+x]
			tr := luma[(y-1)*w+x+1]
			ml := luma[y*w+x-1]
			mr := luma[y*w+x+1]
			bl := luma[(y+1)*w+x-1]
			bc := luma[(y+1)*w+x]
			br := luma[(y+1)*w+x+1]

			gx := -tl - 2*ml - bl + tr + 2*mr + br
			gy := -tl - 2*tc - tr + bl + 2*bc + br
			mag[y*w+x] = math.Hypot(gx, gy)
		}
	}
	return mag
}

// adaptiveThreshold - T = max(20, mean + 0.5*stdev)
func adaptiveThreshold(magnitudes []float64) float64 {
	if len(magnitudes) == 0 {
		return edgeThresholdFloor
	}

	var sum float64
	for _, m := range magnitudes {
		sum += m
	}
	mean := sum / float64(len(magnitudes))

	var sumSq float64
	for _, m := range magnitudes {
		d := m - mean
		sumSq += d * d
	}
	stdev := math.Sqrt(sumSq / float64(len(magnitudes)))

	return math.Max(edgeThresholdFloor, mean+edgeThresholdStdMult*stdev)
}

// labelComponents - 이진 에지 맵의 8-이웃 연결 요소 라벨링 (BFS)
func labelComponents(binary []bool, w, h int) []*edgeComponent {
	visited := make([]bool, len(binary))
	var components []*edgeComponent
	queue := make([]int, 0, 256)

	for start := range binary {
		if !binary[start] || visited[start] {
			continue
		}

		comp := &edgeComponent{
			minX: w, minY: h, maxX: -1, maxY: -1,
			rowMin: make([]int, h),
			rowMax: make([]int, h),
		}
		for i := range comp.rowMin {
			comp.rowMin[i] = w
			comp.rowMax[i] = -1
		}

		visited[start] = true
		queue = append(queue[:0], start)

		for len(queue) > 0 {
			idx := queue[0]
			queue = queue[1:]

			x, y := idx%w, idx/w
			comp.pixelCount++
			if x < comp.minX {
				comp.minX = x
			}
			if x > comp.maxX {
				comp.maxX = x
			}
			if y < comp.minY {
				comp.minY = y
			}
			if y > comp.maxY {
				comp.maxY = y
			}
			if x < comp.rowMin[y] {
				comp.rowMin[y] = x
			}
			if x > comp.rowMax[y] {
				comp.rowMax[y] = x
			}

			// 8-이웃 탐색
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					if dx == 0 && dy == 0 {
						continue
					}
					nx, ny := x+dx, y+dy
					if nx < 0 || nx >= w || ny < 0 || ny >= h {
						continue
					}
					nidx := ny*w + nx
					if binary[nidx] && !visited[nidx] {
						visited[nidx] = true
						queue = append(queue, nidx)
					}
				}
			}
		}

		// 행별 기록을 컴포넌트 박스 범위로 잘라냄
		comp.rowMin = comp.rowMin[comp.minY : comp.maxY+1]
		comp.rowMax = comp.rowMax[comp.minY : comp.maxY+1]
		components = append(components, comp)
	}

	return components
}

// boxLumaVariance - 박스 내부 휘도 분산
func boxLumaVariance(luma []float64, stride, minX, minY, maxX, maxY int) float64 {
	count := 0
	var sum float64
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			sum += luma[y*stride+x]
			count++
		}
	}
	if count == 0 {
		return 0
	}
	mean := sum / float64(count)

	var sumSq float64
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			d := luma[y*stride+x] - mean
			sumSq += d * d
		}
	}
	return sumSq / float64(count)
}
