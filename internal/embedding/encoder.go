package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"styleshop/internal/domain"
)

// Encoder turns query text into a vector in the index's space.
type Encoder interface {
	Encode(ctx context.Context, text string) ([]float32, error)
}

// ErrNoEncoder is returned when style search runs without a text encoder.
var ErrNoEncoder = errors.New("style search: no text encoder configured")

// StaticEncoder serves fixed vectors by exact text. It backs tests and
// offline demos.
type StaticEncoder map[string][]float32

func (s StaticEncoder) Encode(_ context.Context, text string) ([]float32, error) {
	v, ok := s[text]
	if !ok {
		return nil, fmt.Errorf("no vector for %q: %w", text, domain.ErrNotFound)
	}
	return append([]float32(nil), v...), nil
}

// Prompted wraps an encoder with a text template such as "a photo of %s".
type Prompted struct {
	Encoder  Encoder
	Template string
}

func (p Prompted) Encode(ctx context.Context, text string) ([]float32, error) {
	if p.Template == "" || !strings.Contains(p.Template, "%s") {
		return p.Encoder.Encode(ctx, text)
	}
	return p.Encoder.Encode(ctx, fmt.Sprintf(p.Template, text))
}

type noEncoder struct{}

func (noEncoder) Encode(context.Context, string) ([]float32, error) { return nil, ErrNoEncoder }

// Disabled returns an encoder that always fails with ErrNoEncoder.
func Disabled() Encoder { return noEncoder{} }
