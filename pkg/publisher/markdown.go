package publisher

import (
	"fmt"
	"strings"

	"github.com/shouni/go-series-kit/pkg/domain"
)

const placeholder = "placeholder.png"

// buildStoryboard はエピソードの台本とシーン一覧を Markdown の絵コンテにまとめます。
// imagePaths はシーンIDとフレームからの相対パスです。
func buildStoryboard(p domain.Project, ep domain.Episode, imagePaths map[string]string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", ep.Title)
	fmt.Fprintf(&sb, "- series: %s\n", p.Name)
	fmt.Fprintf(&sb, "- aspect: %s\n", p.Config.AspectRatio)
	if cast := castNames(p, ep); cast != "" {
		fmt.Fprintf(&sb, "- cast: %s\n", cast)
	}
	sb.WriteString("\n")

	if ep.Summary != "" {
		fmt.Fprintf(&sb, "## Story\n\n%s\n\n", strings.TrimSpace(ep.Summary))
	}
	if ep.VoiceoverScript != "" {
		fmt.Fprintf(&sb, "## Script\n\n```\n%s\n```\n\n", strings.TrimSpace(ep.VoiceoverScript))
	}

	for _, s := range ep.Scenes {
		fmt.Fprintf(&sb, "## Scene %d: %s\n", s.Number, s.Location)
		fmt.Fprintf(&sb, "- action: %s\n", s.Action)
		fmt.Fprintf(&sb, "- camera: %s\n", s.CameraAngle)
		for _, f := range domain.Frames {
			img, ok := imagePaths[frameKey(s.ID, f)]
			if !ok {
				img = placeholder
			}
			fmt.Fprintf(&sb, "\n![%s frame](%s)\n", f, img)
		}
		if !s.VeoPrompt.IsZero() {
			fmt.Fprintf(&sb, "\n```json\n%s\n```\n", s.VeoPrompt.String())
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func castNames(p domain.Project, ep domain.Episode) string {
	names := make([]string, 0, len(ep.CharacterIDs))
	for _, c := range p.SelectCharacters(ep.CharacterIDs) {
		names = append(names, c.Name)
	}
	return strings.Join(names, ", ")
}

func frameKey(sceneID string, f domain.Frame) string {
	return sceneID + "/" + string(f)
}
