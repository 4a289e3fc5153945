package publisher

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/shouni/go-series-kit/pkg/domain"
)

const (
	libraryFilePrefix = "mb_master_video_backup_all_"
	dateLayout        = "2006-01-02"
)

// safeNameRegex は英数字以外の文字に一致します。
var safeNameRegex = regexp.MustCompile(`(?i)[^a-z0-9]`)

// fileNameSanitizer はファイル名として使用できない文字を置換します。
var fileNameSanitizer = strings.NewReplacer(
	"/", "_",
	`\`, "_",
	":", "_",
	"*", "_",
	"?", "_",
	`"`, "_",
	"<", "_",
	">", "_",
	"|", "_",
)

// SafeName は英数字以外を "_" に置き換えて小文字にした名前を返します。
func SafeName(name string) string {
	return strings.ToLower(safeNameRegex.ReplaceAllString(name, "_"))
}

// LibraryFileName は全プロジェクトのバックアップファイル名です。
func LibraryFileName(now time.Time) string {
	return libraryFilePrefix + now.UTC().Format(dateLayout) + ".json"
}

// ProjectFileName は単一プロジェクトのエクスポートファイル名です。
func ProjectFileName(p domain.Project, now time.Time) string {
	return fmt.Sprintf("%s_project_%s.json", SafeName(p.Name), now.UTC().Format(dateLayout))
}

// CharactersFileName はキャラクター一覧のエクスポートファイル名です。
func CharactersFileName(p domain.Project) string {
	return SafeName(p.Name) + "_characters.json"
}

// EpisodeCSVFileName はエピソードのシーン一覧 CSV のファイル名です。
func EpisodeCSVFileName(p domain.Project, ep domain.Episode) string {
	return fileNameSanitizer.Replace(fmt.Sprintf("%s_%s_script.csv", p.Name, ep.Title))
}

// FrameFileName はシーン画像のファイル名です。拡張子は MIME タイプから決めます。
func FrameFileName(sceneNumber int, frame domain.Frame, mimeType string) string {
	return fmt.Sprintf("scene_%02d_%s%s", sceneNumber, frame, extensionFor(mimeType))
}

func extensionFor(mimeType string) string {
	switch strings.ToLower(mimeType) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}

// ResolveOutputPath は、ベースとなるディレクトリパスとファイル名から出力パスを生成します。
func ResolveOutputPath(baseDir, fileName string) string {
	if baseDir == "" {
		baseDir = "."
	}
	return filepath.Join(baseDir, fileName)
}
