package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/shouni/go-series-kit/pkg/ai"
	"github.com/shouni/go-series-kit/pkg/apperr"
	"github.com/shouni/go-series-kit/pkg/asset"
	"github.com/shouni/go-series-kit/pkg/config"
	"github.com/shouni/go-series-kit/pkg/domain"
	"github.com/shouni/go-series-kit/pkg/prompts"
	"github.com/shouni/go-series-kit/pkg/retry"
)

const (
	opVeo = "generate veo prompt"

	startFrameLabel = "This is the START FRAME visual reference."
	endFrameLabel   = "This is the END FRAME visual reference."
)

// veoDocument は動画プロンプトの JSON 構造です。各ブロックの中身はモデルの出力をそのまま保持します。
type veoDocument struct {
	Scene         json.RawMessage `json:"scene"`
	Audio         json.RawMessage `json:"audio,omitempty"`
	Style         json.RawMessage `json:"style,omitempty"`
	NoSubtitles   bool            `json:"no_subtitles"`
	NoCaptions    bool            `json:"no_captions"`
	NoTextOverlay bool            `json:"no_text_overlay"`
	Action        json.RawMessage `json:"action,omitempty"`
	Dialogue      json.RawMessage `json:"dialogue,omitempty"`
}

// VeoRunner は開始・終了フレームの間の遷移を描写する動画プロンプトを生成します。
// フレーム画像が生成済みであれば、マルチモーダル入力として添付します。
type VeoRunner struct {
	engine
}

// NewVeoRunner は依存関係を注入して初期化します。
func NewVeoRunner(cfg config.Config, pb prompts.PromptBuilder, backend ai.Backend, policy retry.Policy) *VeoRunner {
	return &VeoRunner{engine: newEngine(cfg, pb, backend, policy)}
}

// Run はシーンの動画プロンプトを構造化プロンプトとして返します。
func (r *VeoRunner) Run(ctx context.Context, project domain.Project, episode domain.Episode, scene domain.Scene) (domain.Prompt, error) {
	if scene.StartImagePrompt.IsZero() || scene.EndImagePrompt.IsZero() {
		return domain.Prompt{}, apperr.Validation(opVeo, "開始・終了フレームのプロンプトが必要です")
	}
	cfg := project.Config.FillDefaults()

	data := prompts.TemplateData{
		Config: cfg,
		SceneShot: prompts.SceneShot{
			Location:    scene.Location,
			Action:      scene.Action,
			CameraAngle: scene.CameraAngle,
			StartFrame:  scene.StartImagePrompt.String(),
			EndFrame:    scene.EndImagePrompt.String(),
		},
		CharacterMap: prompts.CharacterMap(activeCast(&project, episode.CharacterIDs)),
	}
	prompt, err := r.buildPrompt(prompts.ModeVeo, data)
	if err != nil {
		return domain.Prompt{}, err
	}

	parts := frameParts(scene)
	model := r.cfg.VeoPromptModel
	if model == "" {
		model = config.DefaultVeoPromptModel
	}
	slog.InfoContext(ctx, "VeoRunner: 動画プロンプトを生成しています",
		"scene", scene.Number,
		"frames_attached", len(parts),
		"model", model,
	)

	doc, err := generateStructured[veoDocument](ctx, r.engine, opVeo, ai.StructuredRequest{
		Model:  model,
		Prompt: prompt,
		Parts:  parts,
	})
	if err != nil {
		return domain.Prompt{}, err
	}
	return decodeVeo(doc)
}

// frameParts は data URL 形式のフレーム画像を、開始・終了の順にラベル付きで返します。
func frameParts(scene domain.Scene) []ai.Part {
	frames := []struct {
		url   string
		label string
	}{
		{scene.StartImageURL, startFrameLabel},
		{scene.EndImageURL, endFrameLabel},
	}

	var parts []ai.Part
	for _, f := range frames {
		mimeType, data, ok := asset.DecodeDataURL(f.url)
		if !ok {
			continue
		}
		parts = append(parts, ai.Part{Label: f.label, Data: data, MimeType: mimeType})
	}
	return parts
}

// decodeVeo は scene ブロックを必須とし、字幕・テキスト禁止フラグを常に true にします。
func decodeVeo(doc veoDocument) (domain.Prompt, error) {
	scene := bytes.TrimSpace(doc.Scene)
	if len(scene) == 0 || scene[0] != '{' {
		return domain.Prompt{}, apperr.Malformed(opVeo, errors.New("scene オブジェクトがありません"))
	}
	doc.NoSubtitles = true
	doc.NoCaptions = true
	doc.NoTextOverlay = true

	b, err := json.Marshal(doc)
	if err != nil {
		return domain.Prompt{}, apperr.Malformed(opVeo, err)
	}
	p, err := domain.StructuredPrompt(b)
	if err != nil {
		return domain.Prompt{}, apperr.Malformed(opVeo, err)
	}
	return p, nil
}
