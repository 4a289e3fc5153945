package server

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/shouni/go-series-kit/pkg/apperr"
	"github.com/shouni/go-series-kit/pkg/domain"
	"github.com/shouni/go-series-kit/pkg/publisher"
	"github.com/shouni/go-series-kit/pkg/runner"

	"github.com/gin-gonic/gin"
)

// maxImportSize はインポートで受け付ける JSON の上限なのだ。
const maxImportSize = 64 << 20

type createProjectRequest struct {
	Idea     string               `json:"idea" binding:"required"`
	Config   *domain.ScriptConfig `json:"config"`
	AIConfig *domain.AIConfig     `json:"aiConfig"`
}

type settingsRequest struct {
	Config            domain.ScriptConfig `json:"config"`
	RefreshCharacters bool                `json:"refreshCharacters"`
}

type draftsRequest struct {
	Instruction  string   `json:"instruction"`
	Count        int      `json:"count" binding:"min=0,max=10"`
	CharacterIDs []string `json:"characterIds"`
	Duration     string   `json:"duration"`
}

type titleRequest struct {
	Title string `json:"title"`
}

type draftRequest struct {
	Summary         string `json:"summary"`
	VoiceoverScript string `json:"voiceoverScript"`
}

type castRequest struct {
	CharacterIDs []string `json:"characterIds"`
}

type instructionRequest struct {
	Instruction  string   `json:"instruction"`
	CharacterIDs []string `json:"characterIds"`
}

type scenesRequest struct {
	Count        int      `json:"count" binding:"min=0"`
	CharacterIDs []string `json:"characterIds"`
	Strict       *bool    `json:"strict"` // 省略時は STRICT_CONSISTENCY
	WithImages   bool     `json:"withImages"`
}

type characterRequest struct {
	Name      string `json:"name"`
	EpisodeID string `json:"episodeId"`
}

type infoRequest struct {
	VisualPrompt string `json:"visualPrompt" binding:"required"`
}

type publishRequest struct {
	OutputDir string `json:"outputDir"`
}

// bindOptional は空のボディを許して JSON を読み込むのだ。
func bindOptional(c *gin.Context, v any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(v); err != nil {
		badRequest(c, err)
		return false
	}
	return true
}

func (s *Server) listProjects(c *gin.Context) {
	projects, err := s.svc.ListProjects(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if projects == nil {
		projects = []domain.Project{}
	}
	c.JSON(http.StatusOK, projects)
}

func (s *Server) getProject(c *gin.Context) {
	p, err := s.svc.GetProject(c.Request.Context(), c.Param("pid"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) createProject(c *gin.Context) {
	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	sc := domain.DefaultScriptConfig()
	if req.Config != nil {
		sc = req.Config.FillDefaults()
	}
	ac := domain.DefaultAIConfig()
	if req.AIConfig != nil && !req.AIConfig.IsZero() {
		ac = *req.AIConfig
	}

	p, report, err := s.svc.CreateProject(c.Request.Context(), req.Idea, sc, ac)
	if p.ID == "" {
		writeError(c, err)
		return
	}
	writePartial(c, http.StatusCreated, gin.H{"project": p, "report": report}, err)
}

func (s *Server) saveSettings(c *gin.Context) {
	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := s.svc.SaveSettings(c.Request.Context(), c.Param("pid"), req.Config.FillDefaults(), req.RefreshCharacters)
	if p.ID == "" {
		writeError(c, err)
		return
	}
	writePartial(c, http.StatusOK, gin.H{"project": p}, err)
}

func (s *Server) saveAIConfig(c *gin.Context) {
	var req domain.AIConfig
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := s.svc.SaveAIConfig(c.Request.Context(), c.Param("pid"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) regeneratePremise(c *gin.Context) {
	premise, err := s.svc.RegeneratePremise(c.Request.Context(), c.Param("pid"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"premise": premise})
}

func (s *Server) refreshCharacters(c *gin.Context) {
	p, err := s.svc.RefreshCharacters(c.Request.Context(), c.Param("pid"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) createDrafts(c *gin.Context) {
	var req draftsRequest
	if !bindOptional(c, &req) {
		return
	}
	drafts, err := s.svc.CreateDrafts(c.Request.Context(), c.Param("pid"), runner.DraftRequest{
		Instruction: req.Instruction,
		Count:       req.Count,
		CastIDs:     req.CharacterIDs,
		Duration:    req.Duration,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, drafts)
}

func (s *Server) addEpisode(c *gin.Context) {
	var req titleRequest
	if !bindOptional(c, &req) {
		return
	}
	ep, err := s.svc.AddEpisode(c.Request.Context(), c.Param("pid"), req.Title)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ep)
}

func (s *Server) saveDraft(c *gin.Context) {
	var req draftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ep, err := s.svc.SaveDraft(c.Request.Context(), c.Param("pid"), c.Param("eid"), req.Summary, req.VoiceoverScript)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ep)
}

func (s *Server) setCast(c *gin.Context) {
	var req castRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ep, err := s.svc.SetCast(c.Request.Context(), c.Param("pid"), c.Param("eid"), req.CharacterIDs)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ep)
}

func (s *Server) regenerateDraft(c *gin.Context) {
	var req instructionRequest
	if !bindOptional(c, &req) {
		return
	}
	ep, err := s.svc.RegenerateDraft(c.Request.Context(), c.Param("pid"), c.Param("eid"), req.Instruction)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ep)
}

func (s *Server) changeContext(c *gin.Context) {
	var req instructionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ep, err := s.svc.ChangeContext(c.Request.Context(), c.Param("pid"), c.Param("eid"), req.Instruction, req.CharacterIDs)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ep)
}

func (s *Server) generateScenes(c *gin.Context) {
	var req scenesRequest
	if !bindOptional(c, &req) {
		return
	}
	ep, report, err := s.svc.GenerateScenes(c.Request.Context(), c.Param("pid"), c.Param("eid"), runner.SceneRequest{
		Count:   req.Count,
		CastIDs: req.CharacterIDs,
		Strict:  req.Strict,
	}, req.WithImages)
	if ep.ID == "" {
		writeError(c, err)
		return
	}
	writePartial(c, http.StatusOK, gin.H{"episode": ep, "report": report}, err)
}

func (s *Server) editScenes(c *gin.Context) {
	var req instructionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ep, err := s.svc.EditScenes(c.Request.Context(), c.Param("pid"), c.Param("eid"), req.Instruction)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ep)
}

func (s *Server) generateVeoPrompt(c *gin.Context) {
	sc, err := s.svc.GenerateVeoPrompt(c.Request.Context(), c.Param("pid"), c.Param("eid"), c.Param("sid"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sc)
}

func (s *Server) generateSceneImages(c *gin.Context) {
	report, err := s.svc.GenerateSceneImages(c.Request.Context(), c.Param("pid"), c.Param("eid"))
	if err != nil && report.Generated == 0 {
		writeError(c, err)
		return
	}
	writePartial(c, http.StatusOK, gin.H{"report": report}, err)
}

func (s *Server) regenerateSceneImage(c *gin.Context) {
	url, err := s.svc.RegenerateSceneImage(c.Request.Context(), c.Param("pid"), c.Param("eid"), c.Param("sid"), domain.Frame(c.Param("frame")))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"imageUrl": url})
}

func (s *Server) uploadSceneImage(c *gin.Context) {
	path, cleanup, ok := s.receiveUpload(c)
	if !ok {
		return
	}
	defer cleanup()

	url, err := s.svc.UploadSceneImage(c.Request.Context(), c.Param("pid"), c.Param("eid"), c.Param("sid"), domain.Frame(c.Param("frame")), path)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"imageUrl": url})
}

func (s *Server) addCharacter(c *gin.Context) {
	var req characterRequest
	if !bindOptional(c, &req) {
		return
	}
	ch, err := s.svc.AddCharacter(c.Request.Context(), c.Param("pid"), req.EpisodeID, req.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ch)
}

func (s *Server) saveCharacter(c *gin.Context) {
	var req domain.Character
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	req.ID = c.Param("cid")
	ch, err := s.svc.SaveCharacter(c.Request.Context(), c.Param("pid"), c.Query("episode"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ch)
}

func (s *Server) updateCharacterInfo(c *gin.Context) {
	var req infoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ch, err := s.svc.UpdateCharacterInfo(c.Request.Context(), c.Param("pid"), c.Param("cid"), req.VisualPrompt)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ch)
}

func (s *Server) generateCharacterImages(c *gin.Context) {
	report, err := s.svc.GenerateCharacterImages(c.Request.Context(), c.Param("pid"))
	if err != nil && report.Generated == 0 {
		writeError(c, err)
		return
	}
	writePartial(c, http.StatusOK, gin.H{"report": report}, err)
}

func (s *Server) regenerateCharacterImage(c *gin.Context) {
	url, err := s.svc.RegenerateCharacterImage(c.Request.Context(), c.Param("pid"), c.Param("cid"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"imageUrl": url})
}

func (s *Server) uploadCharacterImage(c *gin.Context) {
	path, cleanup, ok := s.receiveUpload(c)
	if !ok {
		return
	}
	defer cleanup()

	url, err := s.svc.UploadCharacterImage(c.Request.Context(), c.Param("pid"), c.Param("cid"), path)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"imageUrl": url})
}

// receiveUpload は multipart の "image" フィールドを一時ファイルに保存するのだ。
func (s *Server) receiveUpload(c *gin.Context) (string, func(), bool) {
	file, err := c.FormFile("image")
	if err != nil {
		badRequest(c, fmt.Errorf("image フィールドが必要なのだ: %w", err))
		return "", nil, false
	}
	dir, err := os.MkdirTemp("", "series-upload-*")
	if err != nil {
		writeError(c, err)
		return "", nil, false
	}
	cleanup := func() { _ = os.RemoveAll(dir) }

	path := filepath.Join(dir, filepath.Base(file.Filename))
	if err := c.SaveUploadedFile(file, path); err != nil {
		cleanup()
		writeError(c, err)
		return "", nil, false
	}
	return path, cleanup, true
}

func (s *Server) importProjects(c *gin.Context) {
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxImportSize))
	if err != nil {
		badRequest(c, err)
		return
	}
	result, err := s.svc.Import(c.Request.Context(), data)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"added": result.Added, "skipped": result.Skipped, "renamed": result.Renamed})
}

func (s *Server) exportLibrary(c *gin.Context) {
	var buf bytes.Buffer
	if err := s.svc.ExportLibrary(c.Request.Context(), &buf); err != nil {
		writeError(c, err)
		return
	}
	attachment(c, publisher.LibraryFileName(time.Now()), "application/json", buf.Bytes())
}

func (s *Server) exportProject(c *gin.Context) {
	ctx := c.Request.Context()
	p, err := s.svc.GetProject(ctx, c.Param("pid"))
	if err != nil {
		writeError(c, err)
		return
	}
	var buf bytes.Buffer
	if err := s.svc.ExportProject(ctx, p.ID, &buf); err != nil {
		writeError(c, err)
		return
	}
	attachment(c, publisher.ProjectFileName(p, time.Now()), "application/json", buf.Bytes())
}

func (s *Server) exportCharacters(c *gin.Context) {
	ctx := c.Request.Context()
	p, err := s.svc.GetProject(ctx, c.Param("pid"))
	if err != nil {
		writeError(c, err)
		return
	}
	var buf bytes.Buffer
	if err := s.svc.ExportCharacters(ctx, p.ID, &buf); err != nil {
		writeError(c, err)
		return
	}
	attachment(c, publisher.CharactersFileName(p), "application/json", buf.Bytes())
}

func (s *Server) exportCSV(c *gin.Context) {
	ctx := c.Request.Context()
	p, err := s.svc.GetProject(ctx, c.Param("pid"))
	if err != nil {
		writeError(c, err)
		return
	}
	ep := p.FindEpisode(c.Param("eid"))
	if ep == nil {
		writeError(c, apperr.NotFound("export csv", "エピソードが見つかりません: %s", c.Param("eid")))
		return
	}
	var buf bytes.Buffer
	if err := s.svc.ExportCSV(ctx, p.ID, ep.ID, &buf); err != nil {
		writeError(c, err)
		return
	}
	attachment(c, publisher.EpisodeCSVFileName(p, *ep), "text/csv; charset=utf-8", buf.Bytes())
}

func (s *Server) publishEpisode(c *gin.Context) {
	var req publishRequest
	if !bindOptional(c, &req) {
		return
	}
	result, err := s.svc.PublishEpisode(c.Request.Context(), c.Param("pid"), c.Param("eid"), req.OutputDir)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"csvPath":        result.CSVPath,
		"storyboardPath": result.StoryboardPath,
		"imagePaths":     result.ImagePaths,
	})
}

func attachment(c *gin.Context, fileName, contentType string, data []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	c.Data(http.StatusOK, contentType, data)
}
