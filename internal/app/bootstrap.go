package app

import (
	"errors"
	"strings"

	"github.com/cheezy-bite/internal/config"
	"github.com/cheezy-bite/internal/provider"
	"github.com/cheezy-bite/internal/realtime"
	"github.com/cheezy-bite/internal/router"
	"github.com/cheezy-bite/internal/worker"

	"github.com/gin-gonic/gin"
)

// BuildRunner 构建服务运行器。
// all 模式下广播直接走进程内 Hub；api 与 realtime 拆分部署时，
// api 进程通过桥接接口把事件转发给推送进程。
func BuildRunner(cfg *config.Config, mode string) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	var (
		publisher      realtime.Publisher = realtime.NopPublisher{}
		realtimeServer *realtime.Server
	)
	switch mode {
	case ModeAll, ModeRealtime:
		hub := realtime.NewHub()
		realtimeServer = realtime.NewServer(hub, &cfg.Realtime)
		if mode == ModeAll {
			publisher = realtime.NewHubPublisher(hub)
		}
	case ModeAPI:
		if strings.TrimSpace(cfg.Realtime.BridgeURL) != "" {
			publisher = realtime.NewHTTPPublisher(cfg.Realtime.BridgeURL, cfg.Realtime.BridgeSecret)
		}
	}

	container := provider.NewContainer(cfg, publisher)

	var services []Service

	// 初始化 HTTP 服务
	if mode == ModeAll || mode == ModeAPI {
		var mounted *realtime.Server
		if mode == ModeAll {
			mounted = realtimeServer
		}
		engine := router.SetupRouter(cfg, container, mounted)
		addr := cfg.Server.Host + ":" + cfg.Server.Port
		services = append(services, NewHTTPService("http", addr, engine))
	}

	// 独立推送进程
	if mode == ModeRealtime {
		engine := gin.New()
		engine.Use(gin.Recovery())
		realtimeServer.RegisterRoutes(engine.Group("/realtime"))
		addr := cfg.Realtime.Host + ":" + cfg.Realtime.Port
		services = append(services, NewHTTPService("realtime", addr, engine))
	}

	// 初始化 Worker 服务。all 模式下队列未开启时跳过，不影响 API 启动。
	if (mode == ModeAll && cfg.Queue.Enabled) || mode == ModeWorker {
		consumer := worker.NewConsumer(container)
		workerService, err := worker.NewService(&cfg.Queue, consumer)
		if err != nil {
			return nil, err
		}
		services = append(services, workerService)
	}

	if len(services) == 0 {
		return nil, errors.New("no services initialized (check mode and config)")
	}

	return NewRunner(services...), nil
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	runner, err := BuildRunner(opts.Config, opts.Mode)
	if err != nil {
		return err
	}

	opts.Logger.Infow("app_start", "mode", opts.Mode)
	return RunWithOptions(runner, opts)
}
