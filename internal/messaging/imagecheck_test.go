package messaging

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 40, A: 255})
		}
	}
	return img
}

func makePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage(w, h)))
	return buf.Bytes()
}

func makeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, testImage(w, h), nil))
	return buf.Bytes()
}

func TestValidateImageAcceptsPNG(t *testing.T) {
	// Roughly a 100 KiB PNG once encoded.
	data := makePNG(t, 200, 200)

	mimeType, err := ValidateImage(&ImageUpload{
		Filename:     "photo.png",
		DeclaredMIME: "image/png",
		Data:         data,
	})
	require.NoError(t, err)
	assert.Equal(t, "image/png", mimeType)
}

func TestValidateImageAcceptsJPEG(t *testing.T) {
	mimeType, err := ValidateImage(&ImageUpload{
		Filename:     "photo.jpg",
		DeclaredMIME: "image/jpeg",
		Data:         makeJPEG(t, 64, 64),
	})
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", mimeType)
}

func TestValidateImageToleratesMissingDeclaredType(t *testing.T) {
	mimeType, err := ValidateImage(&ImageUpload{
		Filename: "upload.bin",
		Data:     makePNG(t, 16, 16),
	})
	require.NoError(t, err)
	assert.Equal(t, "image/png", mimeType, "type comes from the decoded stream")
}

func TestValidateImageNormalizesDeclaredType(t *testing.T) {
	_, err := ValidateImage(&ImageUpload{
		Filename:     "photo.jpg",
		DeclaredMIME: "IMAGE/JPG; charset=binary",
		Data:         makeJPEG(t, 16, 16),
	})
	assert.NoError(t, err)
}

func TestValidateImageRejectsOversize(t *testing.T) {
	// 6 MiB of anything trips the size check before decoding.
	data := make([]byte, 6<<20)

	_, err := ValidateImage(&ImageUpload{
		Filename:     "huge.png",
		DeclaredMIME: "image/png",
		Data:         data,
	})
	assert.ErrorIs(t, err, ErrImageTooLarge)
}

func TestValidateImageRejectsUnsupportedDeclaredType(t *testing.T) {
	_, err := ValidateImage(&ImageUpload{
		Filename:     "doc.pdf",
		DeclaredMIME: "application/pdf",
		Data:         makePNG(t, 16, 16),
	})
	assert.ErrorIs(t, err, ErrUnsupportedImageType)
}

func TestValidateImageRejectsCorruptedBytes(t *testing.T) {
	// An image extension and declared type do not save a garbage stream.
	_, err := ValidateImage(&ImageUpload{
		Filename:     "broken.png",
		DeclaredMIME: "image/png",
		Data:         []byte("definitely not a png"),
	})
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestValidateImageRejectsTruncatedPNG(t *testing.T) {
	data := makePNG(t, 128, 128)

	_, err := ValidateImage(&ImageUpload{
		Filename:     "truncated.png",
		DeclaredMIME: "image/png",
		Data:         data[:len(data)/2],
	})
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestValidateImageRejectsDecodableButDisallowedFormat(t *testing.T) {
	// A GIF with no declared type decodes fine but is not in the allowed
	// set.
	var buf bytes.Buffer
	require.NoError(t, gif.Encode(&buf, testImage(16, 16), nil))

	_, err := ValidateImage(&ImageUpload{
		Filename: "anim.gif",
		Data:     buf.Bytes(),
	})
	assert.ErrorIs(t, err, ErrUnsupportedImageType)
}
