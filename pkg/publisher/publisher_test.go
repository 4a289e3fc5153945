package publisher_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/shouni/go-series-kit/pkg/publisher"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("SeriesPublisher", func() {
	It("writes the CSV, frame images and storyboard", func() {
		dir := GinkgoT().TempDir()
		p := sampleProject()
		p.Episodes[0].Scenes[0].EndImageURL = "https://example.com/end.png"

		pub := publisher.NewSeriesPublisher(publisher.NewLocalWriter())
		result, err := pub.PublishEpisode(context.Background(), p, p.Episodes[0], publisher.Options{OutputDir: dir})
		Expect(err).NotTo(HaveOccurred())

		Expect(result.CSVPath).To(BeARegularFile())
		Expect(result.ImagePaths).To(ConsistOf(filepath.Join(dir, "images", "scene_01_start.png")))

		img, err := os.ReadFile(result.ImagePaths[0])
		Expect(err).NotTo(HaveOccurred())
		Expect(img).To(Equal([]byte{0x89, 0x50, 0x4e, 0x47}))

		md, err := os.ReadFile(result.StoryboardPath)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(md)).To(ContainSubstring("# Rain \"Run\""))
		Expect(string(md)).To(ContainSubstring("- cast: Mai"))
		Expect(string(md)).To(ContainSubstring("![start frame](images/scene_01_start.png)"))
		Expect(string(md)).To(ContainSubstring("![end frame](https://example.com/end.png)"))
	})

	It("stops when the context is cancelled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		p := sampleProject()

		pub := publisher.NewSeriesPublisher(publisher.NewLocalWriter())
		_, err := pub.PublishEpisode(ctx, p, p.Episodes[0], publisher.Options{OutputDir: GinkgoT().TempDir()})
		Expect(err).To(MatchError(context.Canceled))
	})

	It("writes a single export file", func() {
		dir := GinkgoT().TempDir()
		pub := publisher.NewSeriesPublisher(publisher.NewLocalWriter())

		path, err := pub.WriteFile(context.Background(), dir, "library.json", strings.NewReader("[]"))
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal(filepath.Join(dir, "library.json")))

		data, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal("[]"))
	})
})
