package publisher

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shouni/go-series-kit/pkg/domain"
)

// CSVHeaders はエピソードのシーン一覧 CSV の見出しです。
var CSVHeaders = []string{
	"Project Name", "Episode Title", "Full Story Summary", "Full Script Timeline",
	"Scene #", "Location", "Action", "Camera",
	"Start Image Prompt (JSON)", "End Image Prompt (JSON)", "Video Prompt (JSON)", "Sound Prompt (JSON)",
}

// ExportLibrary は全プロジェクトをインデント付き JSON として書き出します。
func ExportLibrary(w io.Writer, projects []domain.Project) error {
	if projects == nil {
		projects = []domain.Project{}
	}
	return writeJSON(w, projects)
}

// ExportProject は単一のプロジェクトを書き出します。
func ExportProject(w io.Writer, p domain.Project) error {
	return writeJSON(w, p)
}

// ExportCharacters はプロジェクトのキャラクター一覧だけを書き出します。
func ExportCharacters(w io.Writer, p domain.Project) error {
	chars := p.Characters
	if chars == nil {
		chars = []domain.Character{}
	}
	return writeJSON(w, chars)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("JSON の書き出しに失敗しました: %w", err)
	}
	return nil
}

// ExportEpisodeCSV はエピソードのシーンを1行ずつ CSV として書き出します。
// すべてのセルを引用符で囲み、内部の引用符は二重にします。
func ExportEpisodeCSV(w io.Writer, p domain.Project, ep domain.Episode) error {
	bw := bufio.NewWriter(w)
	writeRow(bw, CSVHeaders)
	for _, s := range ep.Scenes {
		writeRow(bw, []string{
			p.Name,
			ep.Title,
			ep.Summary,
			ep.VoiceoverScript,
			strconv.Itoa(s.Number),
			s.Location,
			s.Action,
			s.CameraAngle,
			s.StartImagePrompt.String(),
			s.EndImagePrompt.String(),
			s.VeoPrompt.String(),
			s.SoundPrompt.String(),
		})
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("CSV の書き出しに失敗しました: %w", err)
	}
	return nil
}

func writeRow(w *bufio.Writer, cells []string) {
	for i, c := range cells {
		if i > 0 {
			w.WriteByte(',')
		}
		w.WriteByte('"')
		w.WriteString(strings.ReplaceAll(c, `"`, `""`))
		w.WriteByte('"')
	}
	w.WriteByte('\n')
}
