package recognition

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/postnoti/mailroom-worker/internal/resolve"
)

// transcribePrompt asks for a faithful line-by-line transcription. The sender
// guess and classification happen in the resolution pipeline, not the model.
const transcribePrompt = `You are reading a photograph of a piece of postal mail (an envelope or notice).
Transcribe ALL visible text exactly as printed, one line of the envelope per line of output.
Keep the original order from top to bottom. Korean text must be transcribed in Korean.
Do not translate, summarize, annotate, or add any text that is not on the envelope.
If no text is legible, return an empty response.`

// Gemini recognizes envelope text with a remote vision model. Used where a
// local tesseract install is unavailable or accuracy matters more than cost.
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGemini creates a Gemini-backed recognizer.
func NewGemini(ctx context.Context, apiKey, modelName string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = "gemini-2.5-pro"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	return &Gemini{
		client: client,
		model:  client.GenerativeModel(modelName),
	}, nil
}

// Name reports the backend identifier.
func (g *Gemini) Name() string { return "gemini" }

// Recognize transcribes the photo and derives a sender guess with the same
// extraction priority as the local backend.
func (g *Gemini) Recognize(ctx context.Context, image []byte, hints []string) (resolve.Recognition, error) {
	parts := []genai.Part{
		genai.ImageData(imageFormat(image), image),
		genai.Text(transcribePrompt),
	}

	resp, err := g.model.GenerateContent(ctx, parts...)
	if err != nil {
		return resolve.Recognition{}, fmt.Errorf("generating transcription: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return resolve.Recognition{}, nil
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}

	text := strings.TrimSpace(sb.String())
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	lines := resolve.SplitLines(text)
	return resolve.Recognition{
		Text:   text,
		Sender: resolve.ExtractSender(lines, hints),
	}, nil
}

// Close releases the underlying client.
func (g *Gemini) Close() error {
	return g.client.Close()
}

// imageFormat maps detected content type to the format suffix genai expects.
func imageFormat(data []byte) string {
	switch http.DetectContentType(data) {
	case "image/png":
		return "png"
	case "image/gif":
		return "gif"
	case "image/webp":
		return "webp"
	default:
		return "jpeg"
	}
}
