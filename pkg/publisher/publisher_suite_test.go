package publisher_test

import (
	"testing"

	"github.com/shouni/go-series-kit/pkg/domain"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestPublisher(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Publisher test suite")
}

func sampleProject() domain.Project {
	models := domain.DefaultAIConfig()
	return domain.Project{
		ID:       "p1",
		Name:     "Saigon Nights!",
		Premise:  "Two couriers race across the city.",
		Config:   domain.DefaultScriptConfig(),
		AIConfig: &models,
		Characters: []domain.Character{
			{ID: "c1", Name: "Mai", ImagePrompt: "short hair, red jacket"},
			{ID: "c2", Name: "Tuan", ImagePrompt: "tall, glasses"},
		},
		Episodes: []domain.Episode{{
			ID:              "e1",
			Title:           `Rain "Run"`,
			Summary:         "Mai delivers a package in the storm.",
			VoiceoverScript: "[00:00] Rain falls.",
			CharacterIDs:    []string{"c1"},
			Scenes: []domain.Scene{{
				ID:               "s1",
				Number:           1,
				Location:         "Ben Thanh market",
				Action:           "Mai weaves through stalls",
				CameraAngle:      "Tracking shot",
				StartImagePrompt: domain.MustStructuredPrompt(map[string]string{"description": "market at night"}),
				EndImagePrompt:   domain.PlainPrompt("Mai exits"),
				StartImageURL:    "data:image/png;base64,iVBORw==",
				VeoPrompt:        domain.MustStructuredPrompt(map[string]string{"scene": "rain"}),
				SoundPrompt:      domain.PlainPrompt("rain, scooters"),
			}},
		}},
	}
}
