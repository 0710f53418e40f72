package main

import (
	"time"

	"github.com/cheezy-bite/internal/config"
	"github.com/cheezy-bite/internal/logger"
	"github.com/cheezy-bite/internal/models"

	"github.com/shopspring/decimal"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 添加菜品
	menuItems := []models.MenuItem{
		{
			Slug:        "margherita",
			Name:        "Margherita",
			Description: "Tomato, mozzarella and fresh basil",
			Category:    "pizza",
			BasePrice:   models.NewMoneyFromDecimal(decimal.NewFromInt(900)),
			IsActive:    true,
			SortOrder:   10,
		},
		{
			Slug:        "pepperoni-classic",
			Name:        "Pepperoni Classic",
			Description: "Loaded with pepperoni and extra cheese",
			Category:    "pizza",
			BasePrice:   models.NewMoneyFromDecimal(decimal.NewFromInt(1200)),
			IsActive:    true,
			SortOrder:   20,
		},
		{
			Slug:        "veggie-supreme",
			Name:        "Veggie Supreme",
			Description: "Bell peppers, olives, onions and mushrooms",
			Category:    "pizza",
			BasePrice:   models.NewMoneyFromDecimal(decimal.NewFromInt(1100)),
			IsActive:    true,
			SortOrder:   30,
		},
		{
			Slug:        "garlic-breadsticks",
			Name:        "Garlic Breadsticks",
			Description: "Oven baked with garlic butter",
			Category:    "sides",
			BasePrice:   models.NewMoneyFromDecimal(decimal.NewFromInt(350)),
			IsActive:    true,
			SortOrder:   40,
		},
		{
			Slug:        "cola-500ml",
			Name:        "Cola 500ml",
			Category:    "drinks",
			BasePrice:   models.NewMoneyFromDecimal(decimal.NewFromInt(150)),
			IsActive:    true,
			SortOrder:   50,
		},
	}

	for _, item := range menuItems {
		var existing models.MenuItem
		if err := models.DB.Where("slug = ?", item.Slug).First(&existing).Error; err != nil {
			if err := models.DB.Create(&item).Error; err != nil {
				stdLog.Printf("Failed to create menu item %s: %v", item.Slug, err)
			} else {
				stdLog.Printf("Created menu item: %s", item.Slug)
			}
		} else {
			stdLog.Printf("Menu item already exists: %s", item.Slug)
		}
	}

	// 添加优惠码
	now := time.Now()
	nextMonth := now.AddDate(0, 1, 0)
	offers := []models.Offer{
		{
			Code:           "WELCOME10",
			Type:           "percent",
			Value:          models.NewMoneyFromDecimal(decimal.NewFromInt(10)),
			MinAmount:      models.NewMoneyFromDecimal(decimal.NewFromInt(500)),
			MaxDiscount:    models.NewMoneyFromDecimal(decimal.NewFromInt(300)),
			FirstOrderOnly: true,
			StartsAt:       &now,
			EndsAt:         &nextMonth,
			IsActive:       true,
		},
		{
			Code:         "FLAT200",
			Type:         "fixed",
			Value:        models.NewMoneyFromDecimal(decimal.NewFromInt(200)),
			MinAmount:    models.NewMoneyFromDecimal(decimal.NewFromInt(1500)),
			UsageLimit:   100,
			PerUserLimit: 2,
			StartsAt:     &now,
			EndsAt:       &nextMonth,
			IsActive:     true,
		},
	}

	for _, offer := range offers {
		var existing models.Offer
		if err := models.DB.Where("code = ?", offer.Code).First(&existing).Error; err != nil {
			if err := models.DB.Create(&offer).Error; err != nil {
				stdLog.Printf("Failed to create offer %s: %v", offer.Code, err)
			} else {
				stdLog.Printf("Created offer: %s", offer.Code)
			}
		} else {
			stdLog.Printf("Offer already exists: %s", offer.Code)
		}
	}

	// 初始化默认管理员
	if err := models.InitDefaultAdmin("", ""); err != nil {
		stdLog.Printf("Failed to init default admin: %v", err)
	}

	stdLog.Println("Seed completed")
}
