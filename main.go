package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/shopbot-core/server/internal/core"
	errx "github.com/shopbot-core/server/internal/core/error"
	"github.com/shopbot-core/server/internal/economy"
	"github.com/shopbot-core/server/internal/model"
	"github.com/shopbot-core/server/internal/rates"
	"github.com/shopbot-core/server/internal/shop"
	"github.com/shopbot-core/server/internal/store"
	logx "github.com/shopbot-core/server/pkg/logger"
	pkgredis "github.com/shopbot-core/server/pkg/redis"
)

// AppConfig defines all configurable parameters for the shop core,
// sourced from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"APP_ENV" default:"development"`

	// Document store
	StoreBackend string `envconfig:"STORE_BACKEND" default:"file"`
	StorePath    string `envconfig:"STORE_PATH" default:"data.json"`
	RedisKey     string `envconfig:"STORE_REDIS_KEY" default:"shopbot:document"`

	// Exchange rates
	Rates rates.Config
}

func main() {
	fmt.Println("Virtual shop core demo...")
	ctx := context.Background()

	// Load .env file
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	// Load structured config from env
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}

	logx.Init(logx.LoggerOpts{Environment: core.ParseEnvironment(cfg.Environment)})

	st, err := buildStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialise document store: %v", err)
	}

	ledger := economy.NewLedger(st)
	virtualShop := shop.New(st)
	rateManager := rates.NewManager(st, cfg.Rates)

	// ====================================================
	// Seed a user and a small catalog
	const demoUser = "demo-user-42"
	if err := ledger.Add(ctx, demoUser, 5000, "demo seed"); err != nil {
		log.Fatalf("Failed to seed balance: %v", err)
	}

	vipID, err := virtualShop.AddProduct(ctx, shop.AddProductInput{
		Name:         "VIP Role",
		Price:        3500,
		Description:  "Access to the VIP channels for a month",
		Category:     model.CategoryRoles,
		RoleID:       "role-vip",
		DurationDays: 30,
	})
	if err != nil {
		log.Fatalf("Failed to add product: %v", err)
	}

	_, err = virtualShop.AddProduct(ctx, shop.AddProductInput{
		Name:        "Custom Banner",
		Price:       9000,
		Description: "A personalised profile banner",
		Category:    model.CategoryCosmetics,
	})
	if err != nil {
		log.Fatalf("Failed to add product: %v", err)
	}

	catalog, err := virtualShop.Catalog(ctx)
	if err != nil {
		log.Fatalf("Failed to load catalog: %v", err)
	}
	fmt.Printf("\nCatalog (%d products):\n", len(catalog))
	for _, p := range catalog {
		fmt.Printf("  - %s — %d GameCoins [%s]\n", p.Name, p.Price, p.Category)
	}

	// ====================================================
	// A successful purchase, then one that cannot be afforded
	receipt, err := virtualShop.Buy(ctx, demoUser, vipID)
	if err != nil {
		log.Fatalf("Purchase unexpectedly failed: %v", err)
	}
	fmt.Printf("\n✅ Bought %q, purchase id %s\n", receipt.Product.Name, receipt.PurchaseID)

	balance, err := ledger.Balance(ctx, demoUser)
	if err != nil {
		log.Fatalf("Failed to read balance: %v", err)
	}
	fmt.Printf("Remaining balance: %d GameCoins\n", balance)

	for id, p := range catalog {
		if p.Price > balance {
			_, err := virtualShop.Buy(ctx, demoUser, id)
			if err == nil {
				log.Fatalf("Expected purchase of %q to fail", p.Name)
			}
			var appErr *errx.AppError
			if errors.As(err, &appErr) && errx.IsBusiness(err) {
				fmt.Printf("❌ %s\n", appErr.Message)
			}
			break
		}
	}

	purchases, err := virtualShop.UserPurchases(ctx, demoUser)
	if err != nil {
		log.Fatalf("Failed to load purchases: %v", err)
	}
	fmt.Printf("\nActive purchases for %s: %d\n", demoUser, len(purchases))

	stats, err := virtualShop.Stats(ctx)
	if err != nil {
		log.Fatalf("Failed to load stats: %v", err)
	}
	fmt.Printf("Shop stats: %d products (%d enabled), %d active purchases, %d GameCoins revenue\n",
		stats.TotalProducts, stats.EnabledProducts, stats.ActivePurchases, stats.TotalRevenue)

	// ====================================================
	// Price display in local currencies
	fmt.Printf("\nPrice of %q per country:\n", receipt.Product.Name)
	price := float64(receipt.Product.Price)
	for _, country := range rates.Countries() {
		local := rateManager.Convert(ctx, price, country.Currency)
		fmt.Printf("  %s %s: %s%.2f %s\n", country.Flag, country.Name, country.Symbol, local, country.Currency)
	}

	info := rateManager.RateInfo(ctx)
	fmt.Printf("\nRates source: %s (updated %s, cached=%v)\n", info.Source, info.LastUpdated, info.Cached)

	fmt.Println("\n🎉 Demo completed")
}

func buildStore(cfg AppConfig) (store.Store, error) {
	switch cfg.StoreBackend {
	case "redis":
		var redisCfg pkgredis.Config
		if err := envconfig.Process("redis", &redisCfg); err != nil {
			return nil, err
		}
		rdb, err := redisCfg.New()
		if err != nil {
			return nil, err
		}
		return store.NewRedisStore(rdb, cfg.RedisKey), nil
	case "file", "":
		return store.NewFileStore(cfg.StorePath), nil
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}
}
