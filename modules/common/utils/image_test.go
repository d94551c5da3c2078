package utils

import (
	"bytes"
	"image"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func TestProbeImage(t *testing.T) {
	data := encodePNG(t, 640, 480)
	w, h, format, err := ProbeImage(data)
	require.NoError(t, err)
	assert.Equal(t, 640, w)
	assert.Equal(t, 480, h)
	assert.Equal(t, "png", format)
}

func TestProbeImageInvalid(t *testing.T) {
	_, _, _, err := ProbeImage([]byte("garbage"))
	assert.Error(t, err)
}

func TestMimeForFormat(t *testing.T) {
	assert.Equal(t, "image/png", MimeForFormat("png"))
	assert.Equal(t, "image/jpeg", MimeForFormat("jpeg"))
	assert.Equal(t, "image/webp", MimeForFormat("webp"))
	assert.Equal(t, "image/gif", MimeForFormat("gif"))
	assert.Empty(t, MimeForFormat("tiff"))
}

func TestPNGDataURL(t *testing.T) {
	url := PNGDataURL(encodePNG(t, 4, 4))
	assert.True(t, strings.HasPrefix(url, "data:image/png;base64,"))
}

func TestDecodeEncodeRoundTrip(t *testing.T) {
	data := encodePNG(t, 12, 8)
	img, format, err := DecodeImage(data)
	require.NoError(t, err)
	assert.Equal(t, "png", format)

	encoded, err := EncodePNG(img)
	require.NoError(t, err)

	w, h, _, err := ProbeImage(encoded)
	require.NoError(t, err)
	assert.Equal(t, 12, w)
	assert.Equal(t, 8, h)
}
