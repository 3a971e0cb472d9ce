package main

import (
	"flag"
	"log"
	"os"

	"k8s.io/klog/v2"

	"github.com/codedocgen/backend/config"
	"github.com/codedocgen/backend/internal/docgen/diagram"
	"github.com/codedocgen/backend/internal/eventbus"
	"github.com/codedocgen/backend/internal/handler"
	"github.com/codedocgen/backend/internal/pkg/database"
	"github.com/codedocgen/backend/internal/repository"
	"github.com/codedocgen/backend/internal/router"
	"github.com/codedocgen/backend/internal/service"
	"github.com/codedocgen/backend/internal/subscriber"
)

func main() {
	// 初始化 klog
	klog.InitFlags(nil)
	flag.Parse()
	defer klog.Flush()

	klog.V(6).Info("服务启动中...")

	cfg := config.GetConfig()

	if err := os.MkdirAll(cfg.Data.Dir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}
	if err := os.MkdirAll(cfg.Data.RepoDir, 0755); err != nil {
		log.Fatalf("Failed to create repo directory: %v", err)
	}

	// 初始化数据库
	db, err := database.InitDB(cfg.Database.Type, cfg.Database.DSN)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// 初始化 Repository
	repoRepo := repository.NewRepoRepository(db)
	analysisRepo := repository.NewAnalysisRepository(db)
	exportRepo := repository.NewExportRepository(db)

	// 初始化事件总线
	repoBus := eventbus.NewRepositoryEventBus()
	analysisBus := eventbus.NewAnalysisEventBus()
	exportBus := eventbus.NewExportEventBus()

	// 初始化 Service
	repoService := service.NewRepositoryService(cfg, repoRepo, repoBus)
	analysisService := service.NewAnalysisService(cfg, analysisRepo, repoRepo, analysisBus)
	diagramGenerator := diagram.NewGenerator(cfg.Diagram.ServerURL)
	docsService := service.NewDocumentationService(cfg, analysisService, diagramGenerator, exportBus)

	// 注册事件订阅者
	subscriber.NewRepositoryEventSubscriber(analysisRepo, exportRepo).Register(repoBus)
	subscriber.NewExportEventSubscriber(exportRepo, repoRepo).Register(exportBus)

	// 初始化 Handler
	repoHandler := handler.NewRepositoryHandler(repoService)
	analysisHandler := handler.NewAnalysisHandler(analysisService)
	docsHandler := handler.NewDocsHandler(docsService)
	diagramHandler := handler.NewDiagramHandler(docsService)

	// 设置路由
	r := router.Setup(cfg, repoHandler, analysisHandler, docsHandler, diagramHandler)

	log.Printf("Server starting on port %s...", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
