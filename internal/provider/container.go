package provider

import (
	"github.com/cheezy-bite/internal/cache"
	"github.com/cheezy-bite/internal/config"
	"github.com/cheezy-bite/internal/logger"
	"github.com/cheezy-bite/internal/models"
	"github.com/cheezy-bite/internal/queue"
	"github.com/cheezy-bite/internal/realtime"
	"github.com/cheezy-bite/internal/repository"
	"github.com/cheezy-bite/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	Publisher   realtime.Publisher

	// Repositories
	AdminRepo      repository.AdminRepository
	OrderRepo      repository.OrderRepository
	MenuItemRepo   repository.MenuItemRepository
	OfferRepo      repository.OfferRepository
	RedemptionRepo repository.OfferRedemptionRepository

	// Services
	AuthService       *service.AuthService
	EmailService      *service.EmailService
	OrderService      *service.OrderService
	MenuService       *service.MenuService
	OfferAdminService *service.OfferAdminService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config, publisher realtime.Publisher) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	if publisher == nil {
		publisher = realtime.NopPublisher{}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
		Publisher:   publisher,
	}

	c.initRepositories()
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.MenuItemRepo = repository.NewMenuItemRepository(db)
	c.OfferRepo = repository.NewOfferRepository(db)
	c.RedemptionRepo = repository.NewOfferRedemptionRepository(db)
}

func (c *Container) initServices() {
	c.AuthService = service.NewAuthService(c.Config, c.AdminRepo)
	c.EmailService = service.NewEmailService(&c.Config.Email)
	c.MenuService = service.NewMenuService(c.MenuItemRepo, c.Publisher)
	c.OfferAdminService = service.NewOfferAdminService(c.OfferRepo)
	c.OrderService = service.NewOrderService(c.OrderRepo, c.MenuItemRepo, c.OfferRepo, c.RedemptionRepo, c.QueueClient, c.Publisher)
}
