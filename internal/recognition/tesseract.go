/**
 * Tesseract recognition backend.
 *
 * Offline, free OCR over the original photo bytes. The recognizer's own
 * sender guess reuses the resolution pipeline's extraction priority, seeded
 * by the known-sender hint list.
 */

package recognition

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/postnoti/mailroom-worker/internal/resolve"
)

// Tesseract recognizes envelope text with a local tesseract install.
type Tesseract struct {
	languages []string
}

// NewTesseract creates a tesseract recognizer. langs is a +-separated
// language list, e.g. "kor+eng".
func NewTesseract(langs string) *Tesseract {
	languages := strings.Split(langs, "+")
	if len(languages) == 0 || languages[0] == "" {
		languages = []string{"kor", "eng"}
	}
	return &Tesseract{languages: languages}
}

// Name reports the backend identifier.
func (t *Tesseract) Name() string { return "tesseract" }

// Recognize extracts text from the image and derives a sender guess.
func (t *Tesseract) Recognize(ctx context.Context, image []byte, hints []string) (resolve.Recognition, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(t.languages...); err != nil {
		return resolve.Recognition{}, fmt.Errorf("setting tesseract languages: %w", err)
	}

	if err := client.SetImageFromBytes(image); err != nil {
		return resolve.Recognition{}, fmt.Errorf("setting image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return resolve.Recognition{}, fmt.Errorf("tesseract recognition failed: %w", err)
	}

	lines := resolve.SplitLines(text)
	return resolve.Recognition{
		Text:   text,
		Sender: resolve.ExtractSender(lines, hints),
	}, nil
}
