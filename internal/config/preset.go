package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/shouni/go-series-kit/pkg/domain"

	"gopkg.in/yaml.v3"
)

// Preset は bible コマンドに渡すシリーズの初期設定なのだ。
//
//	idea: "A courier in Saigon who delivers secrets"
//	script:
//	  aspectRatio: "9:16"
//	  language: English
//	ai:
//	  textModel: gemini-3-pro-preview
type Preset struct {
	Idea   string              `yaml:"idea"`
	Script domain.ScriptConfig `yaml:"script"`
	AI     domain.AIConfig     `yaml:"ai"`
}

// LoadPreset は YAML ファイルからプリセットを読み込むのだ。空の項目は既定値で埋めるのだ。
func LoadPreset(path string) (*Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("プリセットの読み込みに失敗したのだ (%s): %w", path, err)
	}

	p := Preset{Script: domain.DefaultScriptConfig()}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("プリセットの解析に失敗したのだ (%s): %w", path, err)
	}

	p.Idea = strings.TrimSpace(p.Idea)
	p.Script = p.Script.FillDefaults()
	if p.Script.AspectRatio != "" && !p.Script.AspectRatio.Valid() {
		return nil, fmt.Errorf("未対応の縦横比なのだ: %s", p.Script.AspectRatio)
	}
	defaults := domain.DefaultAIConfig()
	if p.AI.TextModel == "" {
		p.AI.TextModel = defaults.TextModel
	}
	if p.AI.ImageModel == "" {
		p.AI.ImageModel = defaults.ImageModel
	}
	return &p, nil
}
