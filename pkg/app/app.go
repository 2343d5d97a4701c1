// Package app 提供应用程序的初始化和装配：配置、日志、存储、路由和定时任务.
package app

import (
	contextPkg "context"
	"fmt"
	"os"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yeisme/receiptvault/pkg/configs"
	"github.com/yeisme/receiptvault/pkg/internal/handle"
	"github.com/yeisme/receiptvault/pkg/internal/jobs"
	"github.com/yeisme/receiptvault/pkg/internal/router"
	"github.com/yeisme/receiptvault/pkg/internal/service"
	"github.com/yeisme/receiptvault/pkg/internal/storage"
	"github.com/yeisme/receiptvault/pkg/log"
	"github.com/yeisme/receiptvault/pkg/metrics"
	"github.com/yeisme/receiptvault/pkg/middleware"
	"github.com/yeisme/receiptvault/pkg/rule"
	"github.com/yeisme/receiptvault/pkg/scheduler"
)

// App 装配完成的应用程序.
type App struct {
	Engine *gin.Engine
	Sched  *scheduler.Scheduler
	config *configs.AppConfig
}

// NewApp 初始化应用程序.存储根目录不可用属于致命环境错误，直接退出.
func NewApp(configPath string) *App {
	ctx := contextPkg.Background()

	if err := configs.InitConfig(configPath); err != nil {
		fmt.Printf("Error initializing config: %v\n", err)
		os.Exit(1)
	}

	config := configs.GetConfig()

	if err := rule.ValidateStruct(config); err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log.Init()

	if err := metrics.InitMetrics(config.Metrics); err != nil {
		fmt.Printf("Error initializing metrics: %v\n", err)
		os.Exit(1)
	}

	// 存储根目录、监听目录和上传暂存目录必须可用
	for _, dir := range []string{config.Storage.AbsRoot(), config.Storage.WatchDir, config.Storage.StagingDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fmt.Printf("Error preparing directory %s: %v\n", dir, err)
			os.Exit(1)
		}
	}

	manager, err := storage.Init(ctx, config)
	if err != nil {
		fmt.Printf("Error initializing storage: %v\n", err)
		os.Exit(1)
	}

	l := log.Logger()
	gin.DefaultWriter = log.NewGinWriter(l, zerolog.InfoLevel)
	gin.DefaultErrorWriter = log.NewGinWriter(l, zerolog.ErrorLevel)

	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		middleware.GinLoggerMiddleware(),
		middleware.CORSMiddleware(config.Server),
		middleware.PrometheusMiddleware(),
		gzip.Gzip(gzip.DefaultCompression),
		middleware.StorageMiddleware(manager),
	)

	svc := service.NewEngine(manager, config)
	watcher := service.NewWatcher(svc, config)

	router.Register(engine, handle.New(svc, watcher))

	if config.Metrics.Enabled {
		_ = metrics.StartMetricsServer(config.Metrics, engine)
	}

	sched, err := scheduler.NewScheduler()
	if err != nil {
		fmt.Printf("Error initializing scheduler: %v\n", err)
		os.Exit(1)
	}

	if err := jobs.RegisterJobs(sched, watcher, config); err != nil {
		fmt.Printf("Error registering jobs: %v\n", err)
		os.Exit(1)
	}

	sched.Start()

	return &App{
		Engine: engine,
		Sched:  sched,
		config: config,
	}
}

// Run 启动 HTTP 服务.
func (a *App) Run() error {
	defer func() {
		_ = a.Sched.Stop()
	}()

	return a.Engine.Run(fmt.Sprintf("%s:%d", a.config.Server.Host, a.config.Server.Port))
}
