package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Prompt は平文、または構造化された JSON オブジェクトのいずれかを保持するプロンプト値です。
// 保存・エクスポート時は常に JSON 文字列として直列化されます。
type Prompt struct {
	text       string
	structured json.RawMessage
}

// PlainPrompt は平文のプロンプトを生成します。
func PlainPrompt(s string) Prompt {
	return Prompt{text: s}
}

// StructuredPrompt は JSON オブジェクトのプロンプトを生成します。オブジェクトでない場合はエラーです。
func StructuredPrompt(raw json.RawMessage) (Prompt, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' || !json.Valid(trimmed) {
		return Prompt{}, fmt.Errorf("構造化プロンプトは JSON オブジェクトである必要があります")
	}
	return Prompt{structured: append(json.RawMessage(nil), trimmed...)}, nil
}

// MustStructuredPrompt は v を JSON に変換して構造化プロンプトを生成します。
func MustStructuredPrompt(v any) Prompt {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	p, err := StructuredPrompt(b)
	if err != nil {
		panic(err)
	}
	return p
}

// ParsePrompt は保存形式の文字列を解釈します。JSON オブジェクトとして解釈できない場合は平文として扱います。
func ParsePrompt(s string) Prompt {
	if p, err := StructuredPrompt(json.RawMessage(s)); err == nil {
		return p
	}
	return PlainPrompt(s)
}

// IsStructured は構造化プロンプトかどうかを返します。
func (p Prompt) IsStructured() bool {
	return p.structured != nil
}

// IsZero は値が空かどうかを返します。
func (p Prompt) IsZero() bool {
	return p.structured == nil && strings.TrimSpace(p.text) == ""
}

// Raw は構造化プロンプトの JSON を返します。平文の場合は nil です。
func (p Prompt) Raw() json.RawMessage {
	return p.structured
}

// String は保存形式（平文、または JSON テキスト）を返します。
func (p Prompt) String() string {
	if p.structured != nil {
		return string(p.structured)
	}
	return p.text
}

// MarshalJSON は常に JSON 文字列として書き出します。
func (p Prompt) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON は JSON 文字列とインラインの JSON オブジェクトの両方を受け付けます。
func (p *Prompt) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")):
		*p = Prompt{}
		return nil
	case trimmed[0] == '{':
		sp, err := StructuredPrompt(trimmed)
		if err != nil {
			return err
		}
		*p = sp
		return nil
	}

	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return fmt.Errorf("プロンプトのデコードに失敗しました: %w", err)
	}
	*p = ParsePrompt(s)
	return nil
}
