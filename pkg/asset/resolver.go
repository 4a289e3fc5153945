package asset

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	// DefaultImageMimeType は MIME タイプを判別できなかった場合の既定値です。
	DefaultImageMimeType = "image/png"
	// MaxUploadSize はアップロードを受け付ける画像の最大サイズです。
	MaxUploadSize = 20 << 20
)

// DataURLRegex は data URL を MIME タイプと base64 本体に分解します。
var DataURLRegex = regexp.MustCompile(`^data:(.+);base64,(.+)$`)

// EncodeDataURL は画像データを埋め込み可能な data URL に変換します。
func EncodeDataURL(data []byte, mimeType string) string {
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}

// DecodeDataURL は data URL から MIME タイプとバイト列を取り出します。
// data URL でない場合は ok=false を返します。
func DecodeDataURL(url string) (mimeType string, data []byte, ok bool) {
	m := DataURLRegex.FindStringSubmatch(strings.TrimSpace(url))
	if len(m) != 3 {
		return "", nil, false
	}
	decoded, err := base64.StdEncoding.DecodeString(m[2])
	if err != nil {
		return "", nil, false
	}
	return m[1], decoded, true
}

// LoadImageFile はローカルの画像ファイルを読み込み、data URL に変換します。
func LoadImageFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("画像ファイルの確認に失敗しました (%s): %w", path, err)
	}
	if info.Size() > MaxUploadSize {
		return "", fmt.Errorf("画像ファイルが大きすぎます (%s: %d bytes)", path, info.Size())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("画像ファイルの読み込みに失敗しました (%s): %w", path, err)
	}

	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return "", fmt.Errorf("画像ファイルではありません (%s: %s)", filepath.Base(path), mimeType)
	}
	return EncodeDataURL(data, mimeType), nil
}
