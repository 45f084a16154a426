package provider

import (
	"time"

	"github.com/wellcart-next/internal/authz"
	"github.com/wellcart-next/internal/cache"
	"github.com/wellcart-next/internal/checkout"
	"github.com/wellcart-next/internal/config"
	"github.com/wellcart-next/internal/logger"
	"github.com/wellcart-next/internal/models"
	"github.com/wellcart-next/internal/queue"
	"github.com/wellcart-next/internal/repository"
	"github.com/wellcart-next/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	AdminRepo       repository.AdminRepository
	ProductRepo     repository.ProductRepository
	CartRepo        repository.CartRepository
	CheckoutRunRepo repository.CheckoutRunRepository
	SubscriberRepo  repository.SubscriberRepository

	// Services
	AuthzService      *authz.Service
	AuthService       *service.AuthService
	CaptchaService    *service.CaptchaService
	ProductService    *service.ProductService
	CartService       *service.CartService
	CheckoutService   *service.CheckoutService
	NewsletterService *service.NewsletterService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
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

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.CartRepo = repository.NewCartRepository(db)
	c.CheckoutRunRepo = repository.NewCheckoutRunRepository(db)
	c.SubscriberRepo = repository.NewSubscriberRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}
	c.ensureBootstrapAdminRole()

	c.CaptchaService = service.NewCaptchaService(c.Config.Captcha)
	c.AuthService = service.NewAuthService(c.Config, c.AdminRepo)
	c.ProductService = service.NewProductService(c.ProductRepo)
	c.CartService = service.NewCartService(c.CartRepo)

	dispatcher := checkout.NewPortalDispatcher(c.Config.Checkout.DispatchTimeout())
	c.CheckoutService = service.NewCheckoutService(c.Config, c.CheckoutRunRepo, c.CartService, c.QueueClient, dispatcher)

	seenTTL := time.Duration(c.Config.Newsletter.SeenTTLHours) * time.Hour
	c.NewsletterService = service.NewNewsletterService(c.SubscriberRepo, seenTTL)
}

// ensureBootstrapAdminRole 保证种子管理员持有管理角色
// 仅在首个管理员尚未绑定任何角色时授予，避免覆盖后续人工调整
func (c *Container) ensureBootstrapAdminRole() {
	admin, err := c.AdminRepo.GetByID(1)
	if err != nil || admin == nil {
		return
	}
	roles, err := c.AuthzService.GetAdminRoles(admin.ID)
	if err != nil {
		logger.Warnw("provider_bootstrap_admin_roles_query_failed", "error", err)
		return
	}
	if len(roles) > 0 {
		return
	}
	if err := c.AuthzService.SetAdminRoles(admin.ID, []string{"store_manager"}); err != nil {
		logger.Warnw("provider_bootstrap_admin_role_grant_failed", "error", err)
		return
	}
	logger.Infow("provider_bootstrap_admin_role_granted", "admin_id", admin.ID, "role", "store_manager")
}
