package messaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif" // registered so misdeclared GIFs fail the type check, not the decode
	_ "image/jpeg"
	_ "image/png"
	"strings"

	_ "golang.org/x/image/webp"

	"github.com/olugbengaakindele/handyhubclean/internal/constants"
)

// ValidateImage checks an attachment candidate and returns the MIME type to
// store. Checks run in order: size ceiling, declared content type (absence is
// tolerated, a wrong declaration is not), then a full decode of the byte
// stream. No transcoding happens; the original bytes are stored as-is.
func ValidateImage(upload *ImageUpload) (string, error) {
	if int64(len(upload.Data)) > constants.MAX_IMAGE_BYTES {
		return "", fmt.Errorf("%w: %d bytes (max %d)", ErrImageTooLarge, len(upload.Data), constants.MAX_IMAGE_BYTES)
	}

	declared := normalizeMIME(upload.DeclaredMIME)
	if declared != "" && !constants.ALLOWED_IMAGE_MIME_TYPES[declared] {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedImageType, declared)
	}

	// Full decode, not a header sniff: a truncated or corrupted stream must
	// not make it into storage.
	_, format, err := image.Decode(bytes.NewReader(upload.Data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	decodedMIME := "image/" + format
	if !constants.ALLOWED_IMAGE_MIME_TYPES[decodedMIME] {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedImageType, decodedMIME)
	}
	return decodedMIME, nil
}

// normalizeMIME lowercases and strips parameters like "; charset=...".
func normalizeMIME(mimeType string) string {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	if mimeType == "image/jpg" {
		mimeType = "image/jpeg"
	}
	return mimeType
}
