package pipeline_test

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shouni/go-series-kit/pkg/apperr"
	"github.com/shouni/go-series-kit/pkg/domain"
	"github.com/shouni/go-series-kit/pkg/runner"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Service", func() {
	var h *harness

	BeforeEach(func() {
		h = newHarness()
	})

	seed := func() {
		Expect(h.store.Put(ctx(), seedProject())).To(Succeed())
	}

	Describe("CreateProject", func() {
		It("saves the bible and keeps portraits generated before a permission error", func() {
			h.wf.bible = func(_ context.Context, idea string, sc domain.ScriptConfig, ac domain.AIConfig) (*domain.Project, error) {
				Expect(idea).To(Equal("couriers"))
				return &domain.Project{
					ID:         "new",
					Name:       "Couriers",
					Config:     sc,
					AIConfig:   &ac,
					Characters: []domain.Character{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}, {ID: "c", Name: "C"}},
					Episodes:   []domain.Episode{},
				}, nil
			}
			calls := 0
			h.images.gen = func(domain.Prompt) (string, error) {
				calls++
				if calls == 2 {
					return "", &apperr.Error{Kind: apperr.KindPermission, Op: "generate image", Status: 403}
				}
				return "data:image/png;base64,AAAA", nil
			}

			p, report, err := h.svc.CreateProject(ctx(), "couriers", domain.DefaultScriptConfig(), domain.DefaultAIConfig())
			Expect(apperr.IsPermission(err)).To(BeTrue())
			Expect(report.Aborted).To(BeTrue())
			Expect(report.Generated).To(Equal(1))
			Expect(p.ID).To(Equal("new"))
			Expect(p.Characters[0].HasImage()).To(BeTrue())
			Expect(p.Characters[1].HasImage()).To(BeFalse())
			Expect(p.Characters[2].HasImage()).To(BeFalse())

			saved, err := h.svc.GetProject(ctx(), "new")
			Expect(err).NotTo(HaveOccurred())
			Expect(saved.Characters[0].ImageURL).To(Equal("data:image/png;base64,AAAA"))
		})

		It("saves nothing when the bible fails", func() {
			h.wf.bible = func(context.Context, string, domain.ScriptConfig, domain.AIConfig) (*domain.Project, error) {
				return nil, apperr.Validation("generate bible", "empty idea")
			}
			_, _, err := h.svc.CreateProject(ctx(), "", domain.ScriptConfig{}, domain.AIConfig{})
			Expect(apperr.IsValidation(err)).To(BeTrue())

			projects, err := h.svc.ListProjects(ctx())
			Expect(err).NotTo(HaveOccurred())
			Expect(projects).To(BeEmpty())
		})
	})

	Describe("drafts", func() {
		BeforeEach(seed)

		It("prepends new drafts to the episode list", func() {
			h.wf.drafts = &fakeDrafts{run: func(p domain.Project, req runner.DraftRequest) ([]domain.Episode, error) {
				Expect(req.Count).To(Equal(2))
				return []domain.Episode{
					{ID: "d1", Title: "One", CharacterIDs: req.CastIDs, Scenes: []domain.Scene{}},
					{ID: "d2", Title: "Two", CharacterIDs: req.CastIDs, Scenes: []domain.Scene{}},
				}, nil
			}}

			drafts, err := h.svc.CreateDrafts(ctx(), "p1", runner.DraftRequest{Count: 2, CastIDs: []string{"c2"}})
			Expect(err).NotTo(HaveOccurred())
			Expect(drafts).To(HaveLen(2))

			p, _ := h.svc.GetProject(ctx(), "p1")
			ids := []string{}
			for _, ep := range p.Episodes {
				ids = append(ids, ep.ID)
			}
			Expect(ids).To(Equal([]string{"d1", "d2", "e1"}))
		})

		It("clears scenes when the context changes", func() {
			h.wf.context = func(_ context.Context, _ domain.Project, ep domain.Episode, instruction string, castIDs []string) (domain.Episode, error) {
				Expect(instruction).To(Equal("make it a comedy"))
				ep.Title = "Comedy Run"
				ep.CharacterIDs = castIDs
				ep.Scenes = []domain.Scene{}
				return ep, nil
			}

			ep, err := h.svc.ChangeContext(ctx(), "p1", "e1", "make it a comedy", []string{"c1", "c2"})
			Expect(err).NotTo(HaveOccurred())
			Expect(ep.Title).To(Equal("Comedy Run"))
			Expect(ep.Scenes).To(BeEmpty())
			Expect(ep.CharacterIDs).To(Equal([]string{"c1", "c2"}))
		})

		It("keeps scenes when only the draft is regenerated", func() {
			h.wf.drafts = &fakeDrafts{regenerate: func(_ domain.Project, ep domain.Episode, _ string) (domain.Episode, error) {
				ep.Summary = "A new summary."
				ep.Scenes = nil
				return ep, nil
			}}

			ep, err := h.svc.RegenerateDraft(ctx(), "p1", "e1", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(ep.Summary).To(Equal("A new summary."))
			Expect(ep.Scenes).To(HaveLen(1))
		})

		It("reports unknown episodes", func() {
			_, err := h.svc.SaveDraft(ctx(), "p1", "missing", "s", "v")
			Expect(apperr.IsNotFound(err)).To(BeTrue())
		})

		It("rejects unknown cast members", func() {
			_, err := h.svc.SetCast(ctx(), "p1", "e1", []string{"c1", "ghost"})
			Expect(apperr.IsValidation(err)).To(BeTrue())

			ep, err := h.svc.SetCast(ctx(), "p1", "e1", []string{"c2"})
			Expect(err).NotTo(HaveOccurred())
			Expect(ep.CharacterIDs).To(Equal([]string{"c2"}))
		})
	})

	Describe("scenes", func() {
		BeforeEach(seed)

		It("stores the breakdown and renders every frame in order", func() {
			h.wf.scenes = &fakeScenes{run: func(_ domain.Project, ep domain.Episode, _ runner.SceneRequest) ([]domain.Scene, error) {
				Expect(ep.ID).To(Equal("e1"))
				return []domain.Scene{
					{ID: "n1", Number: 1, StartImagePrompt: domain.PlainPrompt("one start"), EndImagePrompt: domain.PlainPrompt("one end")},
					{ID: "n2", Number: 2, StartImagePrompt: domain.PlainPrompt("two start"), EndImagePrompt: domain.PlainPrompt("two end")},
				}, nil
			}}

			ep, report, err := h.svc.GenerateScenes(ctx(), "p1", "e1", runner.SceneRequest{}, true)
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Generated).To(Equal(4))
			Expect(h.images.prompts).To(Equal([]string{"one start", "one end", "two start", "two end"}))
			Expect(ep.Scenes[1].EndImageURL).To(HavePrefix("data:image/png"))
		})

		It("stores a Veo prompt on the scene", func() {
			h.wf.veo = func(_ context.Context, _ domain.Project, _ domain.Episode, sc domain.Scene) (domain.Prompt, error) {
				Expect(sc.ID).To(Equal("s1"))
				return domain.MustStructuredPrompt(map[string]any{"scene": map[string]string{"setting": "market"}}), nil
			}

			sc, err := h.svc.GenerateVeoPrompt(ctx(), "p1", "e1", "s1")
			Expect(err).NotTo(HaveOccurred())
			Expect(sc.VeoPrompt.IsStructured()).To(BeTrue())

			p, _ := h.svc.GetProject(ctx(), "p1")
			Expect(p.Episodes[0].Scenes[0].VeoPrompt.String()).To(ContainSubstring("market"))
		})

		It("uploads a frame from a local file", func() {
			path := filepath.Join(GinkgoT().TempDir(), "frame.png")
			png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
			Expect(os.WriteFile(path, png, 0o644)).To(Succeed())

			url, err := h.svc.UploadSceneImage(ctx(), "p1", "e1", "s1", domain.FrameEnd, path)
			Expect(err).NotTo(HaveOccurred())
			Expect(url).To(HavePrefix("data:image/png;base64,"))

			_, err = h.svc.UploadSceneImage(ctx(), "p1", "e1", "s1", domain.Frame("middle"), path)
			Expect(apperr.IsValidation(err)).To(BeTrue())
		})

		It("exports the episode as CSV", func() {
			var buf bytes.Buffer
			Expect(h.svc.ExportCSV(ctx(), "p1", "e1", &buf)).To(Succeed())
			Expect(strings.Count(buf.String(), "\n")).To(Equal(2))
		})

		It("publishes under the output directory by default", func() {
			result, err := h.svc.PublishEpisode(ctx(), "p1", "e1", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.StoryboardPath).To(Equal(filepath.Join(h.outDir, "saigon_nights", "storyboard.md")))
		})
	})

	Describe("settings", func() {
		BeforeEach(seed)

		It("refreshes character prompts when the style changes", func() {
			h.wf.refresh = func(_ context.Context, p domain.Project) ([]domain.Character, error) {
				Expect(p.Config.Style).To(Equal("Anime"))
				out := append([]domain.Character(nil), p.Characters...)
				out[1].ImagePrompt = "anime glasses"
				return out, nil
			}
			sc := domain.DefaultScriptConfig()
			sc.Style = "Anime"

			p, err := h.svc.SaveSettings(ctx(), "p1", sc, true)
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Config.Style).To(Equal("Anime"))
			Expect(p.Characters[1].ImagePrompt).To(Equal("anime glasses"))
		})

		It("ignores case-only changes", func() {
			h.wf.refresh = func(context.Context, domain.Project) ([]domain.Character, error) {
				Fail("refresh should not run")
				return nil, nil
			}
			sc := domain.DefaultScriptConfig()
			sc.Mood = " cinematic "

			_, err := h.svc.SaveSettings(ctx(), "p1", sc, true)
			Expect(err).NotTo(HaveOccurred())
		})

		It("keeps the new settings when the refresh fails", func() {
			h.wf.refresh = func(context.Context, domain.Project) ([]domain.Character, error) {
				return nil, fmt.Errorf("model down")
			}
			sc := domain.DefaultScriptConfig()
			sc.Mood = "Dark"

			p, err := h.svc.SaveSettings(ctx(), "p1", sc, true)
			Expect(err).To(MatchError(ContainSubstring("model down")))
			Expect(p.Config.Mood).To(Equal("Dark"))
			Expect(p.Characters[1].ImagePrompt).To(Equal("glasses"))
		})

		It("does not save a premise when regeneration fails", func() {
			h.wf.premise = func(_ context.Context, p domain.Project) (string, error) {
				return p.Premise, fmt.Errorf("timeout")
			}
			_, err := h.svc.RegeneratePremise(ctx(), "p1")
			Expect(err).To(HaveOccurred())

			p, _ := h.svc.GetProject(ctx(), "p1")
			Expect(p.Premise).To(Equal("Couriers at night."))
		})
	})

	Describe("characters", func() {
		BeforeEach(seed)

		It("adds a new character to the episode cast", func() {
			c, err := h.svc.AddCharacter(ctx(), "p1", "e1", "Linh")
			Expect(err).NotTo(HaveOccurred())
			Expect(c.ID).NotTo(BeEmpty())

			p, _ := h.svc.GetProject(ctx(), "p1")
			Expect(p.Characters).To(HaveLen(3))
			Expect(p.Episodes[0].CharacterIDs).To(Equal([]string{"c1", c.ID}))
		})

		It("does not touch the cast when editing an existing character", func() {
			_, err := h.svc.SaveCharacter(ctx(), "p1", "e1", domain.Character{ID: "c2", Name: "Tuan Jr."})
			Expect(err).NotTo(HaveOccurred())

			p, _ := h.svc.GetProject(ctx(), "p1")
			Expect(p.Characters[1].Name).To(Equal("Tuan Jr."))
			Expect(p.Episodes[0].CharacterIDs).To(Equal([]string{"c1"}))
		})

		It("keeps the portrait when inferring info", func() {
			h.wf.info = func(_ context.Context, _ domain.Project, c domain.Character, visual string) (domain.Character, error) {
				c.Age = "24"
				c.ImagePrompt = visual
				c.ImageURL = ""
				return c, nil
			}

			c, err := h.svc.UpdateCharacterInfo(ctx(), "p1", "c1", "short hair, red jacket")
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Age).To(Equal("24"))
			Expect(c.ImagePrompt).To(Equal("short hair, red jacket"))
			Expect(c.ImageURL).To(Equal("data:image/png;base64,AAAA"))
		})

		It("generates only missing portraits", func() {
			report, err := h.svc.GenerateCharacterImages(ctx(), "p1")
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Generated).To(Equal(1))
			Expect(report.Skipped).To(Equal(1))
		})
	})

	Describe("import", func() {
		BeforeEach(seed)

		It("prepends imported projects", func() {
			result, err := h.svc.Import(ctx(), []byte(`[{"id":"p1","name":"dup"},{"id":"p9","name":"Other"}]`))
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Added).To(Equal(1))

			projects, _ := h.svc.ListProjects(ctx())
			Expect(projects).To(HaveLen(2))
			Expect(projects[0].ID).To(Equal("p9"))
		})

		It("saves nothing for invalid input", func() {
			_, err := h.svc.Import(ctx(), []byte(`not json`))
			Expect(apperr.IsValidation(err)).To(BeTrue())

			projects, _ := h.svc.ListProjects(ctx())
			Expect(projects).To(HaveLen(1))
		})

		It("exports the library", func() {
			var buf bytes.Buffer
			Expect(h.svc.ExportLibrary(ctx(), &buf)).To(Succeed())
			Expect(buf.String()).To(ContainSubstring(`"name": "Saigon Nights"`))
		})
	})
})
