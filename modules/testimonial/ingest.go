package testimonial

import (
	"log"
	"os"

	"testimonial-canvas-server/modules/common/utils"
)

// 입력 제한
const (
	MaxImageCount = 10
	MaxImageBytes = 10 << 20 // 10 MiB
)

// IngestFiles - 파일 경로 목록을 읽어 SourceImage 목록 생성
func IngestFiles(paths []string) ([]SourceImage, error) {
	if len(paths) == 0 {
		return nil, NewInputError("no images provided")
	}
	if len(paths) > MaxImageCount {
		return nil, NewInputError("too many images: %d (max %d)", len(paths), MaxImageCount)
	}

	images := make([]SourceImage, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, NewInputError("failed to read image file %s: %v", path, err)
		}

		img, err := ingestOne(data)
		if err != nil {
			return nil, err
		}
		img.Path = path
		images = append(images, img)
	}

	return images, nil
}

// IngestBuffers - 바이트 버퍼 목록에서 SourceImage 목록 생성
func IngestBuffers(buffers [][]byte) ([]SourceImage, error) {
	if len(buffers) == 0 {
		return nil, NewInputError("no images provided")
	}
	if len(buffers) > MaxImageCount {
		return nil, NewInputError("too many images: %d (max %d)", len(buffers), MaxImageCount)
	}

	images := make([]SourceImage, 0, len(buffers))
	for _, data := range buffers {
		img, err := ingestOne(data)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}

	return images, nil
}

// ingestOne - 단일 이미지 검증 + 크기 추출
func ingestOne(data []byte) (SourceImage, error) {
	if len(data) == 0 {
		return SourceImage{}, NewInputError("empty image")
	}
	if len(data) > MaxImageBytes {
		return SourceImage{}, NewInputError("image too large: %d bytes (max %d)", len(data), MaxImageBytes)
	}

	width, height, format, err := utils.ProbeImage(data)
	if err != nil {
		return SourceImage{}, NewInputError("undecodable image: %v", err)
	}
	if width <= 0 || height <= 0 {
		return SourceImage{}, NewInputError("invalid image dimensions: %dx%d", width, height)
	}

	mime := utils.MimeForFormat(format)
	if mime == "" {
		return SourceImage{}, NewInputError("unsupported image format: %s", format)
	}

	log.Printf("📥 [Testimonial] Ingested image: %dx%d %s (%d bytes)", width, height, mime, len(data))

	return SourceImage{
		Data:   data,
		Width:  width,
		Height: height,
		Mime:   mime,
	}, nil
}
