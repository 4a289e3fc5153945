package publisher

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path"
	"path/filepath"
	"strings"

	"github.com/shouni/go-series-kit/pkg/asset"
	"github.com/shouni/go-series-kit/pkg/domain"
)

// Options はパブリッシュ動作を制御する設定項目です。
type Options struct {
	OutputDir string
}

// PublishResult はパブリッシュ処理で生成されたファイルの情報を保持します。
type PublishResult struct {
	CSVPath        string   // シーン一覧 CSV のパス
	StoryboardPath string   // 絵コンテ Markdown のパス
	ImagePaths     []string // 保存された全画像のパス
}

const (
	storyboardName = "storyboard.md"
	imageDirName   = "images"
)

// SeriesPublisher はエピソードの成果物をファイルとして書き出します。
type SeriesPublisher struct {
	writer OutputWriter
}

// NewSeriesPublisher は書き出し先を指定して SeriesPublisher を生成します。
func NewSeriesPublisher(writer OutputWriter) *SeriesPublisher {
	return &SeriesPublisher{writer: writer}
}

// WriteFile はエクスポート結果などを dir にファイルとして書き出し、そのパスを返します。
func (p *SeriesPublisher) WriteFile(ctx context.Context, dir, fileName string, r io.Reader) (string, error) {
	contentType := mime.TypeByExtension(filepath.Ext(fileName))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return NewAssetManager(p.writer, dir).Save(ctx, fileName, r, contentType)
}

// PublishEpisode はシーン画像の保存、CSV と絵コンテ Markdown の書き出しを一括して行います。
// data URL でない画像（外部URLなど）は保存せず、そのまま参照します。
func (p *SeriesPublisher) PublishEpisode(ctx context.Context, project domain.Project, ep domain.Episode, opts Options) (PublishResult, error) {
	var result PublishResult
	assets := NewAssetManager(p.writer, opts.OutputDir)

	var csvBuf bytes.Buffer
	if err := ExportEpisodeCSV(&csvBuf, project, ep); err != nil {
		return result, err
	}
	csvPath, err := assets.Save(ctx, EpisodeCSVFileName(project, ep), &csvBuf, "text/csv; charset=utf-8")
	if err != nil {
		return result, err
	}
	result.CSVPath = csvPath

	images := NewAssetManager(p.writer, ResolveOutputPath(opts.OutputDir, imageDirName))
	relative := make(map[string]string)
	for _, s := range ep.Scenes {
		for _, f := range domain.Frames {
			url := s.ImageURL(f)
			if url == "" {
				continue
			}
			mimeType, data, ok := asset.DecodeDataURL(url)
			if !ok {
				relative[frameKey(s.ID, f)] = url
				continue
			}

			name := FrameFileName(s.Number, f, mimeType)
			saved, err := images.Save(ctx, name, bytes.NewReader(data), mimeType)
			if err != nil {
				return result, fmt.Errorf("画像の書き込みに失敗しました: %w", err)
			}
			result.ImagePaths = append(result.ImagePaths, saved)
			relative[frameKey(s.ID, f)] = path.Join(imageDirName, filepath.Base(saved))
		}
	}

	content := buildStoryboard(project, ep, relative)
	storyboard, err := assets.Save(ctx, storyboardName, strings.NewReader(content), "text/markdown; charset=utf-8")
	if err != nil {
		return result, err
	}
	result.StoryboardPath = storyboard

	slog.InfoContext(ctx, "エピソードを書き出しました",
		"episode", ep.Title,
		"scenes", len(ep.Scenes),
		"images", len(result.ImagePaths),
		"dir", opts.OutputDir,
	)
	return result, nil
}
