package publisher_test

import (
	"bytes"
	"encoding/json"

	"github.com/shouni/go-series-kit/pkg/apperr"
	"github.com/shouni/go-series-kit/pkg/domain"
	"github.com/shouni/go-series-kit/pkg/publisher"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Import", func() {
	var existing []domain.Project

	BeforeEach(func() {
		existing = []domain.Project{sampleProject()}
	})

	It("adds only new projects from a library backup", func() {
		data := []byte(`[
			{"id":"p1","name":"Duplicate"},
			{"id":"p2","name":"Fresh","episodes":[{"id":"e9","title":"x"}]},
			{"id":"p2","name":"Repeated inside the file"},
			{"name":"No id"}
		]`)
		result, err := publisher.Import(existing, data)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Added).To(Equal(1))
		Expect(result.Skipped).To(Equal(3))
		Expect(result.Renamed).To(BeFalse())

		p := result.Projects[0]
		Expect(p.Name).To(Equal("Fresh"))
		Expect(p.Models()).To(Equal(domain.DefaultLegacyAIConfig()))
		Expect(p.Characters).NotTo(BeNil())
		Expect(p.Episodes[0].Scenes).NotTo(BeNil())
	})

	It("skips an entry that cannot be decoded and keeps the rest", func() {
		data := []byte(`[
			{"id":"p7","name":"Broken","episodes":"not a list"},
			{"id":"p8","name":"Good"}
		]`)
		result, err := publisher.Import(existing, data)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Added).To(Equal(1))
		Expect(result.Skipped).To(Equal(1))
		Expect(result.Projects[0].ID).To(Equal("p8"))
	})

	It("renames a single project whose id already exists", func() {
		data := []byte(`{"id":"p1","name":"Saigon Nights!","aiConfig":{"textModel":"gemini-3-pro-preview","imageModel":"gemini-2.5-flash-image"}}`)
		result, err := publisher.Import(existing, data)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Renamed).To(BeTrue())

		p := result.Projects[0]
		Expect(p.ID).NotTo(Equal("p1"))
		Expect(p.Name).To(Equal("Saigon Nights! (Imported)"))
		Expect(p.Models().TextModel).To(Equal("gemini-3-pro-preview"))
	})

	It("keeps the id of a non-colliding single project", func() {
		result, err := publisher.Import(existing, []byte(`{"id":"p3","name":"Other"}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Projects[0].ID).To(Equal("p3"))
		Expect(result.Projects[0].Models()).To(Equal(domain.DefaultLegacyAIConfig()))
	})

	It("round-trips an exported project", func() {
		var buf bytes.Buffer
		Expect(publisher.ExportProject(&buf, sampleProject())).To(Succeed())

		result, err := publisher.Import(nil, buf.Bytes())
		Expect(err).NotTo(HaveOccurred())
		got := result.Projects[0]
		want := sampleProject()
		Expect(got.Episodes[0].Scenes[0].StartImagePrompt.IsStructured()).To(BeTrue())

		gotJSON, _ := json.Marshal(got)
		wantJSON, _ := json.Marshal(want)
		Expect(gotJSON).To(MatchJSON(wantJSON))
	})

	DescribeTable("rejects unusable input",
		func(data string) {
			_, err := publisher.Import(existing, []byte(data))
			Expect(apperr.IsValidation(err)).To(BeTrue())
		},
		Entry("not JSON", `{"id":`),
		Entry("object without identity", `{"title":"x"}`),
		Entry("scalar", `42`),
	)
})
