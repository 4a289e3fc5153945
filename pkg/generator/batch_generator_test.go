package generator_test

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shouni/go-series-kit/pkg/apperr"
	"github.com/shouni/go-series-kit/pkg/config"
	"github.com/shouni/go-series-kit/pkg/domain"
	"github.com/shouni/go-series-kit/pkg/generator"
	"github.com/shouni/go-series-kit/pkg/store"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("BatchGenerator", func() {
	var (
		ctx    context.Context
		st     *store.FileStore
		images *fakeImages
		batch  *generator.BatchGenerator
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		st, err = store.NewFileStore(GinkgoT().TempDir(), "projects", time.Minute)
		Expect(err).NotTo(HaveOccurred())

		models := domain.AIConfig{TextModel: "gemini-2.5-flash", ImageModel: "imagen-4.0-generate-001"}
		Expect(st.Put(ctx, domain.Project{
			ID:       "p",
			Name:     "Harbor",
			Config:   domain.DefaultScriptConfig(),
			AIConfig: &models,
			Characters: []domain.Character{
				{ID: "c1", Name: "Mai", Age: "30", Description: "keeper"},
				{ID: "c2", Name: "Tuan", Age: "12", Description: "boy"},
				{ID: "c3", Name: "Lan", Age: "70", Description: "grandmother"},
			},
			Episodes: []domain.Episode{{
				ID: "e",
				Scenes: []domain.Scene{
					{ID: "s1", Number: 1, StartImagePrompt: domain.PlainPrompt("start 1"), EndImagePrompt: domain.PlainPrompt("end 1")},
					{ID: "s2", Number: 2, StartImagePrompt: domain.PlainPrompt("start 2"), EndImagePrompt: domain.PlainPrompt("end 2"), EndImageURL: "data:image/png;base64,AA=="},
				},
			}},
		})).To(Succeed())

		images = &fakeImages{}
		batch = generator.NewBatchGenerator(config.DefaultConfig(), images, st)
	})

	urlFor := func(call imageCall) string {
		return "data:image/png;base64," + fmt.Sprint(len(call.Prompt.String()))
	}

	Context("Characters", func() {
		It("aborts the remaining batch on a permission error", func() {
			images.gen = func(call imageCall) (string, error) {
				if strings.Contains(call.Prompt.String(), "Tuan") {
					return "", &apperr.Error{Kind: apperr.KindPermission, Op: "generate image", Status: 403}
				}
				return urlFor(call), nil
			}

			report, err := batch.Characters(ctx, "p")
			Expect(apperr.IsPermission(err)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("imagen-4.0-generate-001"))
			Expect(report).To(Equal(generator.BatchReport{Generated: 1, Aborted: true}))
			Expect(images.calls).To(HaveLen(2))

			p, err := st.Get(ctx, "p")
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Characters[0].HasImage()).To(BeTrue())
			Expect(p.Characters[1].HasImage()).To(BeFalse())
			Expect(p.Characters[2].HasImage()).To(BeFalse())
		})

		It("continues past other failures and uses square portraits", func() {
			images.gen = func(call imageCall) (string, error) {
				Expect(call.Ratio).To(Equal(domain.AspectSquare))
				Expect(call.Prompt.String()).To(HavePrefix("Portrait of "))
				if strings.Contains(call.Prompt.String(), "Tuan") {
					return "", &apperr.Error{Kind: apperr.KindBackend, Op: "generate image", Status: 400}
				}
				return urlFor(call), nil
			}

			report, err := batch.Characters(ctx, "p")
			Expect(err).NotTo(HaveOccurred())
			Expect(report).To(Equal(generator.BatchReport{Generated: 2, Failed: 1}))
		})

		It("skips characters that already have a portrait", func() {
			_, err := st.Update(ctx, "p", func(p *domain.Project) error {
				p.Characters[0].ImageURL = "data:image/png;base64,AA=="
				return nil
			})
			Expect(err).NotTo(HaveOccurred())
			images.gen = func(call imageCall) (string, error) { return urlFor(call), nil }

			report, err := batch.Characters(ctx, "p")
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Skipped).To(Equal(1))
			Expect(report.Generated).To(Equal(2))
		})

		It("does not lose edits made while the batch runs", func() {
			images.gen = func(call imageCall) (string, error) {
				_, err := st.Update(ctx, "p", func(p *domain.Project) error {
					p.Premise += "+"
					return nil
				})
				Expect(err).NotTo(HaveOccurred())
				return urlFor(call), nil
			}

			_, err := batch.Characters(ctx, "p")
			Expect(err).NotTo(HaveOccurred())

			p, _ := st.Get(ctx, "p")
			Expect(p.Premise).To(Equal("+++"))
			for _, c := range p.Characters {
				Expect(c.HasImage()).To(BeTrue())
			}
		})
	})

	Context("Scenes", func() {
		It("generates missing frames in order using the project aspect ratio", func() {
			images.gen = func(call imageCall) (string, error) {
				Expect(call.Ratio).To(Equal(domain.AspectWide))
				return urlFor(call), nil
			}

			report, err := batch.Scenes(ctx, "p", "e")
			Expect(err).NotTo(HaveOccurred())
			Expect(report).To(Equal(generator.BatchReport{Generated: 3, Skipped: 1}))

			var order []string
			for _, c := range images.calls {
				order = append(order, c.Prompt.String())
			}
			Expect(order).To(Equal([]string{"start 1", "end 1", "start 2"}))

			p, _ := st.Get(ctx, "p")
			Expect(p.Episodes[0].Scenes[0].StartImageURL).NotTo(BeEmpty())
			Expect(p.Episodes[0].Scenes[0].EndImageURL).NotTo(BeEmpty())
			Expect(p.Episodes[0].Scenes[1].EndImageURL).To(Equal("data:image/png;base64,AA=="))
		})

		It("moves to the next scene when a start frame fails", func() {
			images.gen = func(call imageCall) (string, error) {
				if call.Prompt.String() == "start 1" {
					return "", fmt.Errorf("boom")
				}
				return urlFor(call), nil
			}

			report, err := batch.Scenes(ctx, "p", "e")
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Failed).To(Equal(1))
			Expect(report.Generated).To(Equal(1))
			Expect(images.calls).To(HaveLen(2))
		})

		It("regenerates a single frame even when an image exists", func() {
			images.gen = func(imageCall) (string, error) { return "data:image/png;base64,BB==", nil }

			url, err := batch.Scene(ctx, "p", "e", "s2", domain.FrameEnd)
			Expect(err).NotTo(HaveOccurred())
			Expect(url).To(Equal("data:image/png;base64,BB=="))

			p, _ := st.Get(ctx, "p")
			Expect(p.Episodes[0].Scenes[1].EndImageURL).To(Equal(url))
		})

		It("reports unknown episodes", func() {
			_, err := batch.Scenes(ctx, "p", "missing")
			Expect(apperr.IsNotFound(err)).To(BeTrue())
		})
	})
})
