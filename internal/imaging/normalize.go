/**
 * Image normalizer for mail photos.
 *
 * Bounds payload size for transmission and storage: photos are scaled to a
 * fixed target width and re-encoded as JPEG at a fixed quality, then wrapped
 * in a base64 data URI for downstream display and registration. Recognition
 * always reads the original bytes; normalization is for storage economy only.
 */

package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif" // register GIF decoder
	"image/jpeg"
	_ "image/png" // register PNG decoder
	"net/http"

	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
	"golang.org/x/image/draw"

	"github.com/postnoti/mailroom-worker/internal/logging"
)

// Normalized is the bounded-size encoded payload produced from one photo.
// When normalization fails, Data and DataURI carry the original input
// unchanged and Resized is false.
type Normalized struct {
	Data    []byte
	DataURI string
	Resized bool
}

// Normalizer scales and re-encodes captured photos.
type Normalizer struct {
	targetWidth int
	quality     int
	log         *logging.Logger
}

// NewNormalizer creates a normalizer with the given target width and JPEG
// quality (1-100).
func NewNormalizer(targetWidth, quality int) *Normalizer {
	return &Normalizer{
		targetWidth: targetWidth,
		quality:     quality,
		log:         logging.NewLogger("imaging"),
	}
}

// Normalize resizes the photo to the target width and re-encodes it as JPEG.
// It never fails the caller: any decode or encode error degrades to passing
// the original bytes through.
func (n *Normalizer) Normalize(data []byte) *Normalized {
	img, err := decode(data)
	if err != nil {
		n.log.Warn("image normalization failed, passing original through", "error", err)
		return passthrough(data)
	}

	img = n.scale(img)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: n.quality}); err != nil {
		n.log.Warn("jpeg encoding failed, passing original through", "error", err)
		return passthrough(data)
	}

	encoded := buf.Bytes()
	n.log.Debug("image normalized", "inBytes", len(data), "outBytes", len(encoded))

	return &Normalized{
		Data:    encoded,
		DataURI: "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(encoded),
		Resized: true,
	}
}

// scale resizes to the fixed target width, preserving aspect ratio.
func (n *Normalizer) scale(img image.Image) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == n.targetWidth || w == 0 {
		return img
	}

	targetHeight := h * n.targetWidth / w
	if targetHeight < 1 {
		targetHeight = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, n.targetWidth, targetHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

// decode handles camera JPEG/PNG/GIF, iPhone HEIC, and scanned-PDF input.
func decode(data []byte) (image.Image, error) {
	if isPDF(data) {
		doc, err := fitz.NewFromMemory(data)
		if err != nil {
			return nil, fmt.Errorf("opening pdf: %w", err)
		}
		defer doc.Close()

		img, err := doc.Image(0)
		if err != nil {
			return nil, fmt.Errorf("rendering pdf page: %w", err)
		}
		return img, nil
	}

	if isHEIC(data) {
		img, err := heic.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decoding heic: %w", err)
		}
		return img, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return img, nil
}

func isPDF(data []byte) bool {
	return bytes.HasPrefix(data, []byte("%PDF"))
}

// isHEIC checks for an ftyp box with a HEIC-family brand.
func isHEIC(data []byte) bool {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heif", "mif1", "msf1":
		return true
	}
	return false
}

func passthrough(data []byte) *Normalized {
	return &Normalized{
		Data:    data,
		DataURI: "data:" + http.DetectContentType(data) + ";base64," + base64.StdEncoding.EncodeToString(data),
		Resized: false,
	}
}
