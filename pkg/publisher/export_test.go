package publisher_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/shouni/go-series-kit/pkg/domain"
	"github.com/shouni/go-series-kit/pkg/publisher"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("file names", func() {
	now := time.Date(2026, 3, 14, 23, 0, 0, 0, time.UTC)

	It("builds the library and project backup names", func() {
		p := sampleProject()
		Expect(publisher.LibraryFileName(now)).To(Equal("mb_master_video_backup_all_2026-03-14.json"))
		Expect(publisher.ProjectFileName(p, now)).To(Equal("saigon_nights__project_2026-03-14.json"))
		Expect(publisher.CharactersFileName(p)).To(Equal("saigon_nights__characters.json"))
	})

	It("keeps the episode CSV name readable", func() {
		p := sampleProject()
		Expect(publisher.EpisodeCSVFileName(p, p.Episodes[0])).To(Equal("Saigon Nights!_Rain _Run__script.csv"))
	})

	It("derives frame names from the MIME type", func() {
		Expect(publisher.FrameFileName(3, domain.FrameEnd, "image/jpeg")).To(Equal("scene_03_end.jpg"))
		Expect(publisher.FrameFileName(12, domain.FrameStart, "")).To(Equal("scene_12_start.png"))
	})
})

var _ = Describe("ExportEpisodeCSV", func() {
	It("quotes every cell and doubles embedded quotes", func() {
		p := sampleProject()
		var buf bytes.Buffer
		Expect(publisher.ExportEpisodeCSV(&buf, p, p.Episodes[0])).To(Succeed())

		lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
		Expect(lines).To(HaveLen(2))
		Expect(lines[0]).To(HavePrefix(`"Project Name","Episode Title","Full Story Summary"`))
		Expect(lines[0]).To(HaveSuffix(`"Video Prompt (JSON)","Sound Prompt (JSON)"`))
		Expect(lines[1]).To(HavePrefix(`"Saigon Nights!","Rain ""Run""",`))
		Expect(lines[1]).To(ContainSubstring(`"{""description"":""market at night""}","Mai exits"`))
		Expect(lines[1]).To(HaveSuffix(`"rain, scooters"`))
	})

	It("writes only the header for an episode without scenes", func() {
		p := sampleProject()
		var buf bytes.Buffer
		Expect(publisher.ExportEpisodeCSV(&buf, p, domain.NewEpisode())).To(Succeed())
		Expect(strings.Count(buf.String(), "\n")).To(Equal(1))
	})
})

var _ = Describe("ExportLibrary", func() {
	It("writes indented JSON with prompts as strings", func() {
		var buf bytes.Buffer
		Expect(publisher.ExportLibrary(&buf, []domain.Project{sampleProject()})).To(Succeed())
		Expect(buf.String()).To(HavePrefix("[\n  {\n"))

		var raw []map[string]any
		Expect(json.Unmarshal(buf.Bytes(), &raw)).To(Succeed())
		scene := raw[0]["episodes"].([]any)[0].(map[string]any)["scenes"].([]any)[0].(map[string]any)
		Expect(scene["startImagePrompt"]).To(Equal(`{"description":"market at night"}`))
	})

	It("writes an empty array for no projects", func() {
		var buf bytes.Buffer
		Expect(publisher.ExportLibrary(&buf, nil)).To(Succeed())
		Expect(strings.TrimSpace(buf.String())).To(Equal("[]"))
	})

	It("exports characters only", func() {
		var buf bytes.Buffer
		Expect(publisher.ExportCharacters(&buf, sampleProject())).To(Succeed())
		var chars []domain.Character
		Expect(json.Unmarshal(buf.Bytes(), &chars)).To(Succeed())
		Expect(chars).To(HaveLen(2))
	})
})
