package stages

import (
	"context"
	"fmt"
)

// MediaGenerator is the black-box contract for the image/video/audio
// providers downstream of the prompt stages. Implementations are expected to
// block until the provider returns the generated bytes.
type MediaGenerator interface {
	Image(ctx context.Context, prompt string) ([]byte, error)
	Video(ctx context.Context, prompt string, seconds float64) ([]byte, error)
	Speech(ctx context.Context, text string, profile map[string]interface{}) ([]byte, error)
	SFX(ctx context.Context, description string) ([]byte, error)
	Music(ctx context.Context, description string, seconds float64) ([]byte, error)
}

// PlaceholderMedia stands in for the real providers (Flux, Luma, TTS, music
// generation) until they are wired up. It returns small synthetic payloads so
// the upload and asset paths stay exercised end to end.
type PlaceholderMedia struct{}

func (PlaceholderMedia) Image(ctx context.Context, prompt string) ([]byte, error) {
	return placeholderBytes(ctx, "image", prompt)
}

func (PlaceholderMedia) Video(ctx context.Context, prompt string, seconds float64) ([]byte, error) {
	return placeholderBytes(ctx, "video", fmt.Sprintf("%s (%.1fs)", prompt, seconds))
}

func (PlaceholderMedia) Speech(ctx context.Context, text string, profile map[string]interface{}) ([]byte, error) {
	return placeholderBytes(ctx, "speech", text)
}

func (PlaceholderMedia) SFX(ctx context.Context, description string) ([]byte, error) {
	return placeholderBytes(ctx, "sfx", description)
}

func (PlaceholderMedia) Music(ctx context.Context, description string, seconds float64) ([]byte, error) {
	return placeholderBytes(ctx, "music", fmt.Sprintf("%s (%.1fs)", description, seconds))
}

func placeholderBytes(ctx context.Context, kind, prompt string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("placeholder %s: %s", kind, prompt)), nil
}
