package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) routes() {
	r := s.engine

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ws", s.serveWS)

	api := r.Group("/api")
	api.GET("/export", s.exportLibrary)
	api.POST("/import", s.importProjects)

	projects := api.Group("/projects")
	projects.GET("", s.listProjects)
	projects.POST("", s.createProject)

	p := projects.Group("/:pid")
	p.GET("", s.getProject)
	p.GET("/export", s.exportProject)
	p.PUT("/settings", s.saveSettings)
	p.PUT("/ai-config", s.saveAIConfig)
	p.POST("/premise", s.regeneratePremise)
	p.POST("/drafts", s.createDrafts)
	p.POST("/episodes", s.addEpisode)

	p.GET("/characters/export", s.exportCharacters)
	p.POST("/characters", s.addCharacter)
	p.POST("/character-prompts", s.refreshCharacters)
	p.POST("/character-images", s.generateCharacterImages)
	p.PUT("/characters/:cid", s.saveCharacter)
	p.POST("/characters/:cid/info", s.updateCharacterInfo)
	p.POST("/characters/:cid/image", s.regenerateCharacterImage)
	p.PUT("/characters/:cid/image", s.uploadCharacterImage)

	ep := p.Group("/episodes/:eid")
	ep.PUT("/draft", s.saveDraft)
	ep.PUT("/cast", s.setCast)
	ep.POST("/regenerate", s.regenerateDraft)
	ep.POST("/context", s.changeContext)
	ep.POST("/scenes", s.generateScenes)
	ep.PATCH("/scenes", s.editScenes)
	ep.POST("/images", s.generateSceneImages)
	ep.GET("/csv", s.exportCSV)
	ep.POST("/publish", s.publishEpisode)
	ep.POST("/scenes/:sid/veo", s.generateVeoPrompt)
	ep.POST("/scenes/:sid/frames/:frame", s.regenerateSceneImage)
	ep.PUT("/scenes/:sid/frames/:frame", s.uploadSceneImage)
}
