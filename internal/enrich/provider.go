package enrich

import "context"

// Provider names, also recorded in logs and metrics.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Provider is one external AI service capable of transcription and text
// generation. Implementations make a single attempt per call and return
// classified errors; they never panic across the boundary.
type Provider interface {
	Name() string

	// Transcribe converts the audio file at path to a flat transcript.
	Transcribe(ctx context.Context, audioPath string) (string, error)

	// Complete sends a text prompt and returns the model's text response.
	Complete(ctx context.Context, prompt string) (string, error)
}
