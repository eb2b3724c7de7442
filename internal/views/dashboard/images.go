package dashboard

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var ErrNotImage = errors.New("file is not an image")

// maxImageBytes bounds a single inline image.
const maxImageBytes = 5 << 20

// EncodeImage turns raw image bytes into a data URL. The MIME type comes
// from the content, not the file name.
func EncodeImage(data []byte) (string, error) {
	if len(data) > maxImageBytes {
		return "", fmt.Errorf("image is %d bytes, limit is %d", len(data), maxImageBytes)
	}

	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", fmt.Errorf("%w: detected %s", ErrNotImage, mt.String())
	}

	// drop parameters such as "; charset=utf-8" on svg
	mime, _, _ := strings.Cut(mt.String(), ";")
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

func EncodeImageFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	return EncodeImage(data)
}
