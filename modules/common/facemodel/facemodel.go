package facemodel

import (
	"errors"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"sync"

	pigo "github.com/esimov/pigo/core"
)

// CascadeFile - 모델 디렉토리 안의 cascade 파일명
const CascadeFile = "facefinder"

// pigo Q값 기준 임계치. minScore(0..1)를 Q 스케일로 환산할 때 사용.
const qualityScale = 10.0

// ErrModelLoad - 얼굴 검출 모델 로드 실패 (컴포넌트 레벨 fatal)
var ErrModelLoad = errors.New("face model load failed")

// Face - 원본 이미지 좌표계의 얼굴 박스
type Face struct {
	X      int
	Y      int
	Width  int
	Height int
	Score  float64
}

// Detector - 검색 영역 내 얼굴 검출 계약.
// 좌표는 항상 원본 이미지 공간으로 돌려준다.
type Detector interface {
	DetectInRegion(img image.Image, region image.Rectangle, minScore float64) []Face
}

// 프로세스 전역 핸들 - 한 번만 로드, 이후 읽기 전용
var (
	loadOnce   sync.Once
	classifier *pigo.Pigo
	loadErr    error
)

// Load - cascade 파일을 로드 (lazy, 최초 1회만, 동시 호출은 단일 로드를 공유)
func Load(modelDir string) error {
	loadOnce.Do(func() {
		path := filepath.Join(modelDir, CascadeFile)
		log.Printf("🔍 [FaceModel] Loading cascade: %s", path)

		cascade, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("%w: %v", ErrModelLoad, err)
			log.Printf("❌ [FaceModel] %v", loadErr)
			return
		}

		p := pigo.NewPigo()
		classifier, err = p.Unpack(cascade)
		if err != nil {
			loadErr = fmt.Errorf("%w: corrupt cascade: %v", ErrModelLoad, err)
			log.Printf("❌ [FaceModel] %v", loadErr)
			return
		}

		log.Printf("✅ [FaceModel] Cascade loaded (%d bytes)", len(cascade))
	})
	return loadErr
}

// Get - 로드된 Detector 가져오기 (미로드 시 Load 수행)
func Get(modelDir string) (Detector, error) {
	if err := Load(modelDir); err != nil {
		return nil, err
	}
	return &pigoDetector{classifier: classifier}, nil
}

// pigoDetector - pigo cascade 기반 Detector 구현
type pigoDetector struct {
	classifier *pigo.Pigo
}

// DetectInRegion - 검색 영역을 잘라 2배 업스케일 후 검출, 좌표는 원본 공간으로 환산
func (d *pigoDetector) DetectInRegion(img image.Image, region image.Rectangle, minScore float64) []Face {
	region = region.Intersect(img.Bounds())
	if region.Dx() < 8 || region.Dy() < 8 {
		return nil
	}

	// 작은 얼굴 검출률을 위해 2배 업스케일
	const scale = 2
	cols := region.Dx() * scale
	rows := region.Dy() * scale
	gray := make([]uint8, cols*rows)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			sx := region.Min.X + x/scale
			sy := region.Min.Y + y/scale
			r, g, b, _ := img.At(sx, sy).RGBA()
			// ITU-R BT.709 luma
			lum := 0.2126*float64(r>>8) + 0.7152*float64(g>>8) + 0.0722*float64(b>>8)
			gray[y*cols+x] = uint8(lum + 0.5)
		}
	}

	params := pigo.CascadeParams{
		MinSize:     20,
		MaxSize:     cols,
		ShiftFactor: 0.1,
		ScaleFactor: 1.1,
		ImageParams: pigo.ImageParams{
			Pixels: gray,
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	dets := d.classifier.RunCascade(params, 0.0)
	dets = d.classifier.ClusterDetections(dets, 0.2)

	minQ := float32(minScore * qualityScale)
	var faces []Face
	for _, det := range dets {
		if det.Q < minQ {
			continue
		}
		// pigo는 중심점+스케일로 반환 → 박스로 변환 후 원본 좌표로 복원
		half := det.Scale / 2
		faces = append(faces, Face{
			X:      region.Min.X + (det.Col-half)/scale,
			Y:      region.Min.Y + (det.Row-half)/scale,
			Width:  det.Scale / scale,
			Height: det.Scale / scale,
			Score:  float64(det.Q) / qualityScale,
		})
	}

	return faces
}
