package runner_test

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/shouni/go-series-kit/pkg/ai"
	"github.com/shouni/go-series-kit/pkg/apperr"
	"github.com/shouni/go-series-kit/pkg/asset"
	"github.com/shouni/go-series-kit/pkg/domain"
	"github.com/shouni/go-series-kit/pkg/runner"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("BibleRunner", func() {
	var backend *fakeBackend

	BeforeEach(func() {
		backend = &fakeBackend{}
	})

	It("builds a project with fresh ids and no episodes", func() {
		backend.structured = func(req ai.StructuredRequest) (string, error) {
			Expect(req.Schema).NotTo(BeNil())
			Expect(req.Prompt).To(ContainSubstring("lighthouse"))
			return mustJSON(map[string]any{
				"projectName": "",
				"premise":     "Signals from the deep.",
				"characters": []map[string]string{
					{"name": "Mai", "age": "30", "description": "keeper", "imagePrompt": "yellow raincoat"},
					{"name": "Tuan", "age": "12", "description": "a curious boy", "imagePrompt": ""},
				},
			}), nil
		}

		r := runner.NewBibleRunner(testCfg, builder, backend, testPolicy)
		project, err := r.Run(ctx(), "a lighthouse mystery", domain.ScriptConfig{Mood: "Eerie"}, domain.AIConfig{})
		Expect(err).NotTo(HaveOccurred())

		Expect(project.Name).To(Equal(domain.DefaultProjectName))
		Expect(project.Episodes).To(BeEmpty())
		Expect(project.Config.Mood).To(Equal("Eerie"))
		Expect(project.Config.Language).To(Equal("Vietnamese"))
		Expect(project.AIConfig.TextModel).To(Equal(testCfg.TextModel))
		Expect(project.Characters).To(HaveLen(2))
		Expect(project.Characters[0].ID).NotTo(Equal(project.Characters[1].ID))
		Expect(project.Characters[1].ImagePrompt).To(Equal("a curious boy"))
	})

	It("rejects an empty idea without calling the backend", func() {
		r := runner.NewBibleRunner(testCfg, builder, backend, testPolicy)
		_, err := r.Run(ctx(), "  ", domain.ScriptConfig{}, domain.AIConfig{})
		Expect(apperr.IsValidation(err)).To(BeTrue())
		Expect(backend.calls()).To(BeZero())
	})

	It("treats a nameless character as malformed output", func() {
		backend.structured = func(ai.StructuredRequest) (string, error) {
			return `{"projectName":"X","premise":"Y","characters":[{"name":"","age":"1","description":"d","imagePrompt":"p"}]}`, nil
		}
		r := runner.NewBibleRunner(testCfg, builder, backend, testPolicy)
		_, err := r.Run(ctx(), "idea", domain.ScriptConfig{}, domain.AIConfig{})
		Expect(apperr.IsMalformed(err)).To(BeTrue())
	})
})

var _ = Describe("DraftRunner", func() {
	var (
		backend *fakeBackend
		project domain.Project
	)

	BeforeEach(func() {
		backend = &fakeBackend{}
		project = sampleProject()
	})

	draft := func(title string) map[string]string {
		return map[string]string{
			"title":           title,
			"summary":         "The keeper follows the light.",
			"voiceoverScript": "00:00 [Narrator] The fog rolls in.",
		}
	}

	It("returns exactly one draft with a script and the requested cast", func() {
		backend.structured = func(req ai.StructuredRequest) (string, error) {
			Expect(req.Model).To(Equal(project.AIConfig.TextModel))
			Expect(req.Prompt).To(ContainSubstring("Return exactly 1 drafts."))
			Expect(req.Prompt).To(ContainSubstring("Mai"))
			return mustJSON(map[string]any{"drafts": []map[string]string{draft("Pilot")}}), nil
		}

		r := runner.NewDraftRunner(testCfg, builder, backend, testPolicy)
		episodes, err := r.Run(ctx(), project, runner.DraftRequest{Instruction: "pilot", Count: 1, CastIDs: []string{"c1"}})
		Expect(err).NotTo(HaveOccurred())
		Expect(episodes).To(HaveLen(1))
		Expect(episodes[0].VoiceoverScript).NotTo(BeEmpty())
		Expect(episodes[0].CharacterIDs).To(Equal([]string{"c1"}))
		Expect(episodes[0].Scenes).To(BeEmpty())
	})

	It("trims surplus drafts and rejects too few", func() {
		backend.structured = func(ai.StructuredRequest) (string, error) {
			return mustJSON(map[string]any{"drafts": []map[string]string{draft("A"), draft("B"), draft("C")}}), nil
		}
		r := runner.NewDraftRunner(testCfg, builder, backend, testPolicy)

		episodes, err := r.Run(ctx(), project, runner.DraftRequest{Count: 2})
		Expect(err).NotTo(HaveOccurred())
		Expect(episodes).To(HaveLen(2))
		Expect(episodes[1].Title).To(Equal("B"))

		_, err = r.Run(ctx(), project, runner.DraftRequest{Count: 4})
		Expect(apperr.IsMalformed(err)).To(BeTrue())
	})

	It("retries transient failures", func() {
		attempts := 0
		backend.structured = func(ai.StructuredRequest) (string, error) {
			attempts++
			if attempts < 3 {
				return "", &apperr.Error{Kind: apperr.KindTransient, Op: "generate", Status: 503}
			}
			return mustJSON(map[string]any{"drafts": []map[string]string{draft("Pilot")}}), nil
		}
		r := runner.NewDraftRunner(testCfg, builder, backend, testPolicy)

		episodes, err := r.Run(ctx(), project, runner.DraftRequest{Count: 1})
		Expect(err).NotTo(HaveOccurred())
		Expect(episodes).To(HaveLen(1))
		Expect(attempts).To(Equal(3))
	})

	It("does not retry a permission error", func() {
		denied := &apperr.Error{Kind: apperr.KindPermission, Op: "generate", Status: 403}
		backend.structured = func(ai.StructuredRequest) (string, error) { return "", denied }
		r := runner.NewDraftRunner(testCfg, builder, backend, testPolicy)

		_, err := r.Run(ctx(), project, runner.DraftRequest{Count: 1})
		Expect(errors.Is(err, denied)).To(BeTrue())
		Expect(backend.calls()).To(Equal(1))
	})
})

var _ = Describe("ContextRunner", func() {
	It("rewrites the episode, keeps its id and clears the scenes", func() {
		backend := &fakeBackend{}
		backend.structured = func(req ai.StructuredRequest) (string, error) {
			Expect(req.Prompt).To(ContainSubstring("Original Title: Pilot"))
			return mustJSON(map[string]any{"drafts": []map[string]string{{
				"title":           "Pilot (Noir)",
				"summary":         "Darker take.",
				"voiceoverScript": "00:00 [Narrator] Rain.",
				"soundAtmosphere": "rain on glass",
			}}}), nil
		}
		project := sampleProject()
		episode := domain.NewEpisode()
		episode.Title = "Pilot"
		episode.Summary = "Light take."
		episode.VoiceoverScript = "00:00 [Narrator] Sun."
		episode.CharacterIDs = []string{"c1"}
		episode.Scenes = []domain.Scene{{ID: "s1", Number: 1}}

		r := runner.NewContextRunner(runner.NewDraftRunner(testCfg, builder, backend, testPolicy))
		updated, err := r.Run(ctx(), project, episode, "make it noir", []string{"c1", "c2"})
		Expect(err).NotTo(HaveOccurred())
		Expect(updated.ID).To(Equal(episode.ID))
		Expect(updated.Title).To(Equal("Pilot (Noir)"))
		Expect(updated.SoundAtmosphere).To(Equal("rain on glass"))
		Expect(updated.CharacterIDs).To(Equal([]string{"c1", "c2"}))
		Expect(updated.Scenes).To(BeEmpty())
		Expect(episode.Scenes).To(HaveLen(1))
	})

	It("requires an instruction", func() {
		r := runner.NewContextRunner(runner.NewDraftRunner(testCfg, builder, &fakeBackend{}, testPolicy))
		_, err := r.Run(ctx(), sampleProject(), domain.NewEpisode(), "", nil)
		Expect(apperr.IsValidation(err)).To(BeTrue())
	})
})

var _ = Describe("SceneRunner", func() {
	var (
		backend *fakeBackend
		project domain.Project
		episode domain.Episode
	)

	BeforeEach(func() {
		backend = &fakeBackend{}
		project = sampleProject()
		episode = domain.NewEpisode()
		episode.Title = "Pilot"
		episode.Summary = "The keeper follows the light."
		episode.VoiceoverScript = "00:00 [Narrator] The fog rolls in."
		episode.CharacterIDs = []string{"c2"}
	})

	It("returns exactly N scenes numbered 1..N with structured prompts", func() {
		strict := true
		backend.structured = func(req ai.StructuredRequest) (string, error) {
			Expect(req.Prompt).To(ContainSubstring("exactly 15 visual scenes"))
			Expect(req.Prompt).To(ContainSubstring("boy with a red kite"))
			Expect(req.Prompt).NotTo(ContainSubstring("yellow raincoat"))
			return scenesResponse(15, func(i int) int { return 100 - i }), nil
		}

		r := runner.NewSceneRunner(testCfg, builder, backend, testPolicy)
		scenes, err := r.Run(ctx(), project, episode, runner.SceneRequest{Count: 15, Strict: &strict})
		Expect(err).NotTo(HaveOccurred())
		Expect(scenes).To(HaveLen(15))

		ids := map[string]bool{}
		for i, s := range scenes {
			Expect(s.Number).To(Equal(i + 1))
			Expect(s.StartImagePrompt.IsStructured()).To(BeTrue())
			Expect(s.SoundPrompt.IsStructured()).To(BeTrue())
			ids[s.ID] = true
		}
		Expect(ids).To(HaveLen(15))
	})

	It("describes the cast by image prompt when strictness is left to the config", func() {
		backend.structured = func(req ai.StructuredRequest) (string, error) {
			Expect(req.Prompt).To(ContainSubstring("Visual Description: boy with a red kite"))
			return scenesResponse(3, func(i int) int { return i + 1 }), nil
		}
		cfg := testCfg
		cfg.StrictConsistency = true
		r := runner.NewSceneRunner(cfg, builder, backend, testPolicy)
		_, err := r.Run(ctx(), project, episode, runner.SceneRequest{Count: 3, CastIDs: []string{"c2"}})
		Expect(err).NotTo(HaveOccurred())
	})

	It("uses the short description when strictness is turned off", func() {
		backend.structured = func(req ai.StructuredRequest) (string, error) {
			Expect(req.Prompt).To(ContainSubstring("Visual Description: boy\n"))
			Expect(req.Prompt).NotTo(ContainSubstring("red kite"))
			return scenesResponse(3, func(i int) int { return i + 1 }), nil
		}
		strict := false
		r := runner.NewSceneRunner(testCfg, builder, backend, testPolicy)
		_, err := r.Run(ctx(), project, episode, runner.SceneRequest{Count: 3, CastIDs: []string{"c2"}, Strict: &strict})
		Expect(err).NotTo(HaveOccurred())
	})

	It("rejects a scene without frame prompts as malformed", func() {
		backend.structured = func(ai.StructuredRequest) (string, error) {
			return `{"scenes":[{"number":1,"location":"Harbor","action":"A","cameraAngle":"Wide",
				"startImagePrompt":"","endImagePrompt":"","veoPrompt":"v","soundPrompt":"s"}]}`, nil
		}
		r := runner.NewSceneRunner(testCfg, builder, backend, testPolicy)
		_, err := r.Run(ctx(), project, episode, runner.SceneRequest{Count: 1})
		Expect(apperr.IsMalformed(err)).To(BeTrue())
	})

	It("accepts prompt fields returned as inline objects", func() {
		backend.structured = func(ai.StructuredRequest) (string, error) {
			return `{"scenes":[{"number":1,"location":"L","action":"A","cameraAngle":"C",
				"startImagePrompt":{"description":"start"},"endImagePrompt":"plain end",
				"veoPrompt":"{\"prompt\":\"p\"}","soundPrompt":"quiet"}]}`, nil
		}
		r := runner.NewSceneRunner(testCfg, builder, backend, testPolicy)
		scenes, err := r.Run(ctx(), project, episode, runner.SceneRequest{Count: 1})
		Expect(err).NotTo(HaveOccurred())
		Expect(scenes[0].StartImagePrompt.IsStructured()).To(BeTrue())
		Expect(scenes[0].EndImagePrompt.String()).To(Equal("plain end"))
		Expect(scenes[0].VeoPrompt.IsStructured()).To(BeTrue())
	})

	It("estimates the count from the script when none is given", func() {
		episode.VoiceoverScript = strings.Repeat("word ", 60)
		backend.structured = func(req ai.StructuredRequest) (string, error) {
			Expect(req.Prompt).To(ContainSubstring("exactly 5 visual scenes"))
			return scenesResponse(5, func(i int) int { return i + 1 }), nil
		}
		r := runner.NewSceneRunner(testCfg, builder, backend, testPolicy)
		scenes, err := r.Run(ctx(), project, episode, runner.SceneRequest{})
		Expect(err).NotTo(HaveOccurred())
		Expect(scenes).To(HaveLen(5))
	})

	It("rejects too few scenes as malformed", func() {
		backend.structured = func(ai.StructuredRequest) (string, error) {
			return scenesResponse(2, func(i int) int { return i + 1 }), nil
		}
		r := runner.NewSceneRunner(testCfg, builder, backend, testPolicy)
		_, err := r.Run(ctx(), project, episode, runner.SceneRequest{Count: 3})
		Expect(apperr.IsMalformed(err)).To(BeTrue())
	})

	It("requires a summary and script", func() {
		episode.VoiceoverScript = ""
		r := runner.NewSceneRunner(testCfg, builder, backend, testPolicy)
		_, err := r.Run(ctx(), project, episode, runner.SceneRequest{Count: 3})
		Expect(apperr.IsValidation(err)).To(BeTrue())
		Expect(backend.calls()).To(BeZero())
	})

	It("edits existing scenes with fresh ids", func() {
		episode.Scenes = []domain.Scene{{ID: "old", Number: 1, Action: "walk"}}
		backend.structured = func(req ai.StructuredRequest) (string, error) {
			Expect(req.Prompt).To(ContainSubstring(`"action":"walk"`))
			Expect(req.Prompt).To(ContainSubstring("run instead"))
			return scenesResponse(2, func(i int) int { return 7 }), nil
		}
		r := runner.NewSceneRunner(testCfg, builder, backend, testPolicy)
		scenes, err := r.Edit(ctx(), project, episode, "run instead")
		Expect(err).NotTo(HaveOccurred())
		Expect(scenes).To(HaveLen(2))
		Expect(scenes[0].ID).NotTo(Equal("old"))
		Expect(scenes[1].Number).To(Equal(2))
	})
})

var _ = Describe("VeoRunner", func() {
	var scene domain.Scene

	BeforeEach(func() {
		scene = domain.Scene{
			ID:               "s1",
			Number:           1,
			Location:         "Harbor",
			Action:           "Mai lights the lamp",
			CameraAngle:      "Close-up",
			StartImagePrompt: domain.PlainPrompt("dark lamp"),
			EndImagePrompt:   domain.PlainPrompt("lit lamp"),
			StartImageURL:    asset.EncodeDataURL([]byte("start"), "image/png"),
			EndImageURL:      asset.EncodeDataURL([]byte("end"), "image/jpeg"),
		}
	})

	It("attaches both frames with labels and forces the overlay flags", func() {
		backend := &fakeBackend{}
		backend.structured = func(req ai.StructuredRequest) (string, error) {
			Expect(req.Model).To(Equal(testCfg.VeoPromptModel))
			Expect(req.Schema).To(BeNil())
			Expect(req.Parts).To(HaveLen(2))
			Expect(req.Parts[0].Label).To(Equal("This is the START FRAME visual reference."))
			Expect(req.Parts[0].Data).To(Equal([]byte("start")))
			Expect(req.Parts[1].Label).To(Equal("This is the END FRAME visual reference."))
			Expect(req.Parts[1].MimeType).To(Equal("image/jpeg"))
			return "```json\n" + `{"scene":{"camera":{"angle":"low"}},"no_subtitles":false,"audio":{"music":"none"}}` + "\n```", nil
		}

		r := runner.NewVeoRunner(testCfg, builder, backend, testPolicy)
		prompt, err := r.Run(ctx(), sampleProject(), domain.NewEpisode(), scene)
		Expect(err).NotTo(HaveOccurred())
		Expect(prompt.IsStructured()).To(BeTrue())

		var doc map[string]any
		Expect(json.Unmarshal(prompt.Raw(), &doc)).To(Succeed())
		Expect(doc["no_subtitles"]).To(BeTrue())
		Expect(doc["no_captions"]).To(BeTrue())
		Expect(doc["no_text_overlay"]).To(BeTrue())
		Expect(doc).To(HaveKey("audio"))
		Expect(doc).NotTo(HaveKey("dialogue"))
	})

	It("sends text only when no frame images exist", func() {
		scene.StartImageURL, scene.EndImageURL = "", ""
		backend := &fakeBackend{}
		backend.structured = func(req ai.StructuredRequest) (string, error) {
			Expect(req.Parts).To(BeEmpty())
			return `{"scene":{}}`, nil
		}
		r := runner.NewVeoRunner(testCfg, builder, backend, testPolicy)
		_, err := r.Run(ctx(), sampleProject(), domain.NewEpisode(), scene)
		Expect(err).NotTo(HaveOccurred())
	})

	It("rejects output without a scene block", func() {
		backend := &fakeBackend{structured: func(ai.StructuredRequest) (string, error) {
			return `{"audio":{}}`, nil
		}}
		r := runner.NewVeoRunner(testCfg, builder, backend, testPolicy)
		_, err := r.Run(ctx(), sampleProject(), domain.NewEpisode(), scene)
		Expect(apperr.IsMalformed(err)).To(BeTrue())
	})
})

var _ = Describe("Character runners", func() {
	It("merges only the inferred fields", func() {
		backend := &fakeBackend{structured: func(ai.StructuredRequest) (string, error) {
			return `{"age":"40","archetype":"The Mentor","name":""}`, nil
		}}
		r := runner.NewCharacterInfoRunner(testCfg, builder, backend, testPolicy)
		base := domain.Character{ID: "c1", Name: "Mai", Age: "30"}

		updated, err := r.Run(ctx(), sampleProject(), base, "older woman, grey hair")
		Expect(err).NotTo(HaveOccurred())
		Expect(updated.Name).To(Equal("Mai"))
		Expect(updated.Age).To(Equal("40"))
		Expect(updated.Archetype).To(Equal("The Mentor"))
		Expect(updated.ImagePrompt).To(Equal("older woman, grey hair"))
	})

	It("refreshes prompts only for known ids", func() {
		backend := &fakeBackend{structured: func(req ai.StructuredRequest) (string, error) {
			Expect(req.Prompt).To(ContainSubstring(`"id":"c1"`))
			return `{"updatedCharacters":[{"id":"c1","imagePrompt":"watercolor keeper"},{"id":"ghost","imagePrompt":"x"},{"id":"c2","imagePrompt":""}]}`, nil
		}}
		r := runner.NewCharacterRefreshRunner(testCfg, builder, backend, testPolicy)
		project := sampleProject()

		chars, err := r.Run(ctx(), project)
		Expect(err).NotTo(HaveOccurred())
		Expect(chars).To(HaveLen(2))
		Expect(chars[0].ImagePrompt).To(Equal("watercolor keeper"))
		Expect(chars[1].ImagePrompt).To(Equal("boy with a red kite"))
		Expect(project.Characters[0].ImagePrompt).To(Equal("woman in a yellow raincoat"))
	})

	It("returns the characters unchanged on failure", func() {
		backend := &fakeBackend{structured: func(ai.StructuredRequest) (string, error) {
			return "", &apperr.Error{Kind: apperr.KindBackend, Op: "generate"}
		}}
		r := runner.NewCharacterRefreshRunner(testCfg, builder, backend, testPolicy)
		project := sampleProject()

		chars, err := r.Run(ctx(), project)
		Expect(err).To(HaveOccurred())
		Expect(chars).To(Equal(project.Characters))
	})
})

var _ = Describe("PremiseRunner", func() {
	It("returns the rewritten premise", func() {
		backend := &fakeBackend{text: func(ai.TextRequest) (string, error) { return "  A new tide.  ", nil }}
		r := runner.NewPremiseRunner(testCfg, builder, backend, testPolicy)
		premise, err := r.Run(ctx(), sampleProject())
		Expect(err).NotTo(HaveOccurred())
		Expect(premise).To(Equal("A new tide."))
	})

	It("keeps the current premise on failure", func() {
		backend := &fakeBackend{text: func(ai.TextRequest) (string, error) {
			return "", &apperr.Error{Kind: apperr.KindBackend, Op: "generate"}
		}}
		r := runner.NewPremiseRunner(testCfg, builder, backend, testPolicy)
		project := sampleProject()
		premise, err := r.Run(ctx(), project)
		Expect(err).To(HaveOccurred())
		Expect(premise).To(Equal(project.Premise))
	})
})
