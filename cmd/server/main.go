package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/nordwell/studio-api/internal/auth"
	"github.com/nordwell/studio-api/internal/billing"
	"github.com/nordwell/studio-api/internal/config"
	"github.com/nordwell/studio-api/internal/database"
	"github.com/nordwell/studio-api/internal/handler"
	"github.com/nordwell/studio-api/internal/middleware"
	"github.com/nordwell/studio-api/internal/queue"
	"github.com/nordwell/studio-api/internal/repository"
	"github.com/nordwell/studio-api/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.Migrate(ctx, db); err != nil {
		cancel()
		log.Fatalf("migrate: %v", err)
	}
	cancel()

	// Redis backs sessions, rate limiting and the public cache. Without it
	// sessions fall back to the in-process store and the middlewares turn
	// themselves off; a single-instance deployment keeps working.
	rdb := config.NewRedisClient()
	var sessions auth.Store
	if rdb != nil {
		sessions = auth.NewRedisStore(rdb, cfg.SessionTTL)
	} else {
		log.Println("redis unavailable, using in-process session store")
		sessions = auth.NewMemoryStore(cfg.SessionTTL)
	}

	users := repository.NewUserRepo(db)
	posts := repository.NewBlogRepo(db)
	careers := repository.NewCareerRepo(db)
	services := repository.NewServiceRepo(db)
	partners := repository.NewPartnerRepo(db)
	messages := repository.NewMessageRepo(db)
	projects := repository.NewProjectRepo(db)
	invoices := repository.NewInvoiceRepo(db)

	authSvc := auth.NewService(users, sessions)
	engine := billing.NewEngine(db, invoices)

	seedAdmin(db, users, cfg)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Session(authSvc))

	limit := middleware.RateLimit(config.LoadRateLimitConfig(), rdb)
	cache := middleware.PublicCache(config.LoadCacheConfig(), rdb)

	authH := handler.NewAuthHandler(cfg, users, authSvc)
	blogH := handler.NewBlogHandler(posts)
	serviceH := handler.NewServiceHandler(services)
	careerH := handler.NewCareerHandler(careers)
	partnerH := handler.NewPartnerHandler(partners)
	messageH := handler.NewMessageHandler(messages)
	projectH := handler.NewProjectHandler(projects)
	invoiceH := handler.NewInvoiceHandler(invoices, projects, engine)
	userH := handler.NewUserHandler(users)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, limit)
	router.RegisterPublic(e, blogH, serviceH, careerH, partnerH, messageH, cache)
	router.RegisterClient(e, projectH, invoiceH)
	router.RegisterAdmin(e, userH, blogH, serviceH, careerH, partnerH, messageH, projectH, invoiceH)

	go func() {
		if err := queue.StartActivityConsumer(); err != nil {
			log.Printf("activity consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}

// seedAdmin bootstraps the first administrator account when the seed env
// vars are set. Idempotent: an existing username is left untouched.
func seedAdmin(db *sql.DB, users *repository.UserRepo, cfg config.Config) {
	if cfg.AdminSeedUser == "" || cfg.AdminSeedPass == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := users.GetByUsername(ctx, cfg.AdminSeedUser)
	if err == nil {
		return
	}
	if !errors.Is(err, repository.ErrNotFound) {
		log.Printf("admin seed lookup failed: %v", err)
		return
	}

	hash, err := auth.HashPassword(cfg.AdminSeedPass)
	if err != nil {
		log.Printf("admin seed hash failed: %v", err)
		return
	}
	id, err := users.Create(ctx, cfg.AdminSeedUser, hash, cfg.AdminSeedUser+"@localhost", "")
	if err != nil {
		log.Printf("admin seed create failed: %v", err)
		return
	}
	if _, err := db.ExecContext(ctx, "UPDATE users SET is_admin=1, is_verified=1 WHERE id=?", id); err != nil {
		log.Printf("admin seed promote failed: %v", err)
		return
	}
	log.Printf("seeded admin account %q", cfg.AdminSeedUser)
}
