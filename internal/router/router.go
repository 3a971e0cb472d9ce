package router

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/codedocgen/backend/config"
	"github.com/codedocgen/backend/internal/handler"
	"github.com/codedocgen/backend/internal/middleware"
)

func Setup(
	cfg *config.Config,
	repoHandler *handler.RepositoryHandler,
	analysisHandler *handler.AnalysisHandler,
	docsHandler *handler.DocsHandler,
	diagramHandler *handler.DiagramHandler,
) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://127.0.0.1:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
	}))
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	r.Use(middleware.RateLimit(rate.Limit(20), 40))

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Welcome to CodeDocGen API"})
	})
	r.GET("/.health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	api := r.Group("/api")
	{
		repo := api.Group("/repo")
		{
			repo.POST("/submit-repo", repoHandler.SubmitRepo)
			repo.POST("/clone", repoHandler.Clone)
			repo.GET("/analyze/:repo_name", analysisHandler.Analyze)
			repo.GET("/endpoints/:repo_name", analysisHandler.Endpoints)
			repo.GET("/entities/:repo_name", analysisHandler.Entities)
			repo.GET("/flows/:repo_name", analysisHandler.Flows)
			repo.GET("/schema-overview/:repo_name", analysisHandler.SchemaOverview)

			repo.GET("/swagger/:repo_name", docsHandler.Swagger)
			repo.GET("/export/markdown/:repo_name", docsHandler.ExportMarkdown)
			repo.GET("/features/:repo_name", docsHandler.Features)
			repo.GET("/features/download/:repo_name", docsHandler.FeaturesDownload)
			repo.POST("/publish/confluence", docsHandler.PublishConfluence)

			diagrams := repo.Group("/diagrams")
			{
				diagrams.GET("/entities/:repo_name", diagramHandler.Entities)
				diagrams.GET("/use-cases/:repo_name", diagramHandler.UseCases)
				diagrams.GET("/comprehensive-use-cases/:repo_name", diagramHandler.ComprehensiveUseCases)
				diagrams.GET("/interaction/:repo_name", diagramHandler.Interaction)
				diagrams.GET("/comprehensive-interaction/:repo_name", diagramHandler.ComprehensiveInteraction)
				diagrams.GET("/class/:repo_name", diagramHandler.Class)
			}
		}

		repos := api.Group("/repositories")
		{
			repos.GET("", repoHandler.List)
			repos.GET("/:id", repoHandler.Get)
			repos.DELETE("/:id", repoHandler.Delete)
		}
	}

	return r
}
