package generator_test

import (
	"context"
	"fmt"
	"time"

	"github.com/shouni/go-series-kit/pkg/ai"
	"github.com/shouni/go-series-kit/pkg/apperr"
	"github.com/shouni/go-series-kit/pkg/domain"
	"github.com/shouni/go-series-kit/pkg/generator"
	"github.com/shouni/go-series-kit/pkg/retry"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	imagedom "github.com/shouni/gemini-image-kit/pkg/domain"
)

// imageBackend は画像生成だけを受け付ける Backend です。
type imageBackend struct {
	gen      func(req ai.ImageRequest) (*imagedom.ImageResponse, error)
	requests []ai.ImageRequest
}

func (b *imageBackend) GenerateStructured(context.Context, ai.StructuredRequest) (string, error) {
	return "", fmt.Errorf("unexpected structured call")
}

func (b *imageBackend) GenerateText(context.Context, ai.TextRequest) (string, error) {
	return "", fmt.Errorf("unexpected text call")
}

func (b *imageBackend) GenerateImage(_ context.Context, req ai.ImageRequest) (*imagedom.ImageResponse, error) {
	b.requests = append(b.requests, req)
	return b.gen(req)
}

var _ = Describe("ImageGenerator", func() {
	policy := retry.Policy{MaxRetries: 3, InitialDelay: time.Millisecond, Multiplier: 2}

	It("flattens structured prompts and returns a data URL", func() {
		backend := &imageBackend{gen: func(ai.ImageRequest) (*imagedom.ImageResponse, error) {
			return &imagedom.ImageResponse{Data: []byte{1, 2, 3}, MimeType: "image/jpeg"}, nil
		}}
		g := generator.NewImageGenerator(backend, policy, 0)

		prompt := domain.MustStructuredPrompt(map[string]any{
			"description":     "A lighthouse at dusk",
			"project_context": map[string]string{"style": "Watercolor"},
		})
		url, err := g.Generate(context.Background(), prompt, domain.AspectCinematic, "imagen-4.0-generate-001")
		Expect(err).NotTo(HaveOccurred())
		Expect(url).To(Equal("data:image/jpeg;base64,AQID"))

		Expect(backend.requests).To(HaveLen(1))
		Expect(backend.requests[0].Prompt).To(Equal("A lighthouse at dusk Style: Watercolor."))
		Expect(backend.requests[0].AspectRatio).To(Equal("21:9"))
		Expect(backend.requests[0].Model).To(Equal("imagen-4.0-generate-001"))
	})

	It("retries transient errors", func() {
		attempts := 0
		backend := &imageBackend{gen: func(ai.ImageRequest) (*imagedom.ImageResponse, error) {
			attempts++
			if attempts == 1 {
				return nil, &apperr.Error{Kind: apperr.KindTransient, Op: "generate image", Status: 500}
			}
			return &imagedom.ImageResponse{Data: []byte("png"), MimeType: "image/png"}, nil
		}}
		g := generator.NewImageGenerator(backend, policy, time.Millisecond)

		_, err := g.Generate(context.Background(), domain.PlainPrompt("harbor"), domain.AspectWide, "m")
		Expect(err).NotTo(HaveOccurred())
		Expect(attempts).To(Equal(2))
	})

	It("rejects an empty prompt before calling the backend", func() {
		backend := &imageBackend{}
		g := generator.NewImageGenerator(backend, policy, 0)

		_, err := g.Generate(context.Background(), domain.PlainPrompt("  "), domain.AspectWide, "m")
		Expect(apperr.IsValidation(err)).To(BeTrue())
		Expect(backend.requests).To(BeEmpty())
	})
})
