package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Character はシリーズに登場するキャラクターの定義を保持します。
// ImagePrompt が画像生成に送られる正規の外見記述で、Description は短い人物説明です。
type Character struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Age         string `json:"age"`
	Description string `json:"description"`
	ImagePrompt string `json:"imagePrompt"`
	ImageURL    string `json:"imageUrl,omitempty"` // data URL 形式の埋め込み画像
	Archetype   string `json:"archetype,omitempty"`
	Personality string `json:"personality,omitempty"`
	Colors      string `json:"colors,omitempty"`
	DOB         string `json:"dob,omitempty"`
}

// NewID は新しいエンティティIDを発行します。
func NewID() string {
	return uuid.NewString()
}

// NewCharacter は手動追加用の空のキャラクターを生成します。
func NewCharacter() Character {
	return Character{ID: NewID()}
}

// String はキャラクターの情報を文字列で返します。
func (c Character) String() string {
	return fmt.Sprintf("%s (%s)", c.Name, c.ID)
}

// HasImage はポートレート画像が設定済みかを返します。
func (c Character) HasImage() bool {
	return c.ImageURL != ""
}

// VisualPrompt はプロンプトに注入する外見記述を返します。
// strict が true の場合は ImagePrompt を、そうでなければ Description を使います。
func (c Character) VisualPrompt(strict bool) string {
	if strict {
		return c.ImagePrompt
	}
	return c.Description
}

// MergeInfo は推論結果のうち空でない項目だけを c に上書きします。
// 既存の値を空文字で消すことはありません。
func (c Character) MergeInfo(info Character) Character {
	set := func(dst *string, v string) {
		if strings.TrimSpace(v) != "" {
			*dst = v
		}
	}
	set(&c.Name, info.Name)
	set(&c.Age, info.Age)
	set(&c.Description, info.Description)
	set(&c.Archetype, info.Archetype)
	set(&c.Personality, info.Personality)
	set(&c.Colors, info.Colors)
	set(&c.DOB, info.DOB)
	return c
}
