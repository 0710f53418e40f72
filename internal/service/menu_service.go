package service

import (
	"context"
	"strings"
	"time"

	"github.com/cheezy-bite/internal/cache"
	"github.com/cheezy-bite/internal/constants"
	"github.com/cheezy-bite/internal/logger"
	"github.com/cheezy-bite/internal/models"
	"github.com/cheezy-bite/internal/realtime"
	"github.com/cheezy-bite/internal/repository"
)

const (
	menuCacheKey = "menu:active"
	menuCacheTTL = 5 * time.Minute
)

// MenuService 菜单服务
type MenuService struct {
	menuRepo  repository.MenuItemRepository
	publisher realtime.Publisher
}

// NewMenuService 创建菜单服务
func NewMenuService(menuRepo repository.MenuItemRepository, publisher realtime.Publisher) *MenuService {
	if publisher == nil {
		publisher = realtime.NopPublisher{}
	}
	return &MenuService{menuRepo: menuRepo, publisher: publisher}
}

// ListActive 顾客可见菜单，带 Redis 缓存。
func (s *MenuService) ListActive(ctx context.Context) ([]models.MenuItem, error) {
	var cached []models.MenuItem
	hit, err := cache.GetJSON(ctx, menuCacheKey, &cached)
	if err != nil {
		logger.Warnw("menu_cache_get_failed", "error", err)
	}
	if hit {
		return cached, nil
	}

	items, _, err := s.menuRepo.List(repository.MenuListFilter{OnlyActive: true})
	if err != nil {
		return nil, err
	}
	if err := cache.SetJSON(ctx, menuCacheKey, items, menuCacheTTL); err != nil {
		logger.Warnw("menu_cache_set_failed", "error", err)
	}
	return items, nil
}

// List 管理端菜单列表
func (s *MenuService) List(filter repository.MenuListFilter) ([]models.MenuItem, int64, error) {
	return s.menuRepo.List(filter)
}

// Get 获取菜品详情
func (s *MenuService) Get(id uint) (*models.MenuItem, error) {
	item, err := s.menuRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrMenuItemNotFound
	}
	return item, nil
}

// Create 创建菜品
func (s *MenuService) Create(ctx context.Context, item *models.MenuItem) error {
	item.Slug = strings.TrimSpace(item.Slug)
	existing, err := s.menuRepo.GetBySlug(item.Slug)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrMenuSlugExists
	}
	if err := s.menuRepo.Create(item); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// Update 更新菜品
func (s *MenuService) Update(ctx context.Context, item *models.MenuItem) error {
	if err := s.menuRepo.Update(item); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// Delete 删除菜品
func (s *MenuService) Delete(ctx context.Context, id uint) error {
	if err := s.menuRepo.Delete(id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// invalidate 清缓存并广播菜单变更
func (s *MenuService) invalidate(ctx context.Context) {
	if err := cache.Del(ctx, menuCacheKey); err != nil {
		logger.Warnw("menu_cache_del_failed", "error", err)
	}
	s.publisher.Publish(constants.EventMenuUpdated,
		[]string{constants.RoomMenuUpdates, constants.RoomCustomers},
		map[string]interface{}{"updated_at": time.Now()},
	)
}
