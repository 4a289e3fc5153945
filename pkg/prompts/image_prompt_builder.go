package prompts

import (
	"fmt"
	"strings"

	"github.com/shouni/go-series-kit/pkg/domain"

	"github.com/tidwall/gjson"
)

// FlattenImagePrompt は構造化された画像プロンプトを、画像モデルが受け付ける1本の説明文に変換します。
// 平文のプロンプトはそのまま返します。
//
// 連結順: 説明 → キャラクター → スタイル → ムード → 技術指定（元の項目がない節は省略）。
func FlattenImagePrompt(p domain.Prompt) string {
	if !p.IsStructured() {
		return p.String()
	}
	return flattenDocument(gjson.ParseBytes(p.Raw()))
}

// FlattenImagePromptString は保存形式の文字列を解釈してから FlattenImagePrompt を適用します。
func FlattenImagePromptString(s string) string {
	return FlattenImagePrompt(domain.ParsePrompt(s))
}

func flattenDocument(doc gjson.Result) string {
	var sb strings.Builder
	sb.WriteString(firstString(doc, "description", "visual_description"))

	if chars := doc.Get("characters_in_scene"); chars.IsArray() {
		writeCharacters(&sb, chars, "visual_prompt_snippet", "visual_desc")
	} else if chars := doc.Get("characters"); chars.IsArray() {
		writeCharacters(&sb, chars, "visual_desc")
	}

	ctx := doc.Get("project_context")
	if !ctx.IsObject() {
		ctx = doc.Get("project_settings")
	}
	if style := ctx.Get("style").String(); style != "" {
		fmt.Fprintf(&sb, " Style: %s.", style)
	}
	if mood := ctx.Get("mood").String(); mood != "" {
		fmt.Fprintf(&sb, " Mood: %s.", mood)
	}

	if tech := technicalValues(doc.Get("technical")); len(tech) > 0 {
		fmt.Fprintf(&sb, " Technical: %s.", strings.Join(tech, ", "))
	}
	return sb.String()
}

func writeCharacters(sb *strings.Builder, chars gjson.Result, snippetKeys ...string) {
	var details []string
	chars.ForEach(func(_, c gjson.Result) bool {
		name := c.Get("name").String()
		if snippet := firstString(c, snippetKeys...); snippet != "" {
			details = append(details, fmt.Sprintf("%s (%s)", name, snippet))
		} else {
			details = append(details, name)
		}
		return true
	})
	fmt.Fprintf(sb, " Characters: [%s].", strings.Join(details, ", "))
}

// technicalValues は technical の値を記述順に取り出します。
func technicalValues(tech gjson.Result) []string {
	if !tech.Exists() {
		return nil
	}
	if !tech.IsObject() && !tech.IsArray() {
		if s := tech.String(); s != "" {
			return []string{s}
		}
		return nil
	}

	var values []string
	tech.ForEach(func(_, v gjson.Result) bool {
		if s := v.String(); s != "" {
			values = append(values, s)
		}
		return true
	})
	return values
}

func firstString(r gjson.Result, keys ...string) string {
	for _, k := range keys {
		if s := r.Get(k).String(); s != "" {
			return s
		}
	}
	return ""
}

// CharacterPortraitPrompt はキャラクターのポートレート生成用プロンプトを組み立てます。
func CharacterPortraitPrompt(c domain.Character, style string) string {
	colors := ""
	if c.Colors != "" {
		colors = "Colors: " + c.Colors
	}
	return fmt.Sprintf("Portrait of %s, %s, %s. %s. %s. Style: %s. High quality.",
		c.Name, c.Age, c.Description, c.Archetype, colors, style)
}

// BuildCast はキャラクターをプロンプト用の外見情報に変換します。
// strict が true の場合は ImagePrompt を、そうでなければ Description を外見記述に使います。
func BuildCast(chars []domain.Character, strict bool) []CastMember {
	cast := make([]CastMember, 0, len(chars))
	for _, c := range chars {
		colors := c.Colors
		if colors == "" {
			colors = "N/A"
		}
		cast = append(cast, CastMember{Name: c.Name, Visual: c.VisualPrompt(strict), Colors: colors})
	}
	return cast
}

// CastNames はキャラクター名をカンマ区切りで返します。
func CastNames(chars []domain.Character) string {
	names := make([]string, 0, len(chars))
	for _, c := range chars {
		names = append(names, c.Name)
	}
	return strings.Join(names, ", ")
}

// CharacterMap はキャラクター名から ImagePrompt への対応表を返します。
func CharacterMap(chars []domain.Character) map[string]string {
	m := make(map[string]string, len(chars))
	for _, c := range chars {
		m[c.Name] = c.ImagePrompt
	}
	return m
}

// CharacterBriefs はプロンプト再生成用にキャラクターを要約します。
func CharacterBriefs(chars []domain.Character) []CharacterBrief {
	briefs := make([]CharacterBrief, 0, len(chars))
	for _, c := range chars {
		briefs = append(briefs, CharacterBrief{ID: c.ID, Name: c.Name, Description: c.Description})
	}
	return briefs
}

// SceneBriefs はシーン編集用に画像データを除いたシーン情報を返します。
func SceneBriefs(scenes []domain.Scene) []SceneBrief {
	briefs := make([]SceneBrief, 0, len(scenes))
	for _, s := range scenes {
		briefs = append(briefs, SceneBrief{
			Number:           s.Number,
			Location:         s.Location,
			Action:           s.Action,
			CameraAngle:      s.CameraAngle,
			StartImagePrompt: s.StartImagePrompt.String(),
			EndImagePrompt:   s.EndImagePrompt.String(),
			VeoPrompt:        s.VeoPrompt.String(),
			SoundPrompt:      s.SoundPrompt.String(),
		})
	}
	return briefs
}
