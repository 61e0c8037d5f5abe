package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/gym-course-enrollment/internal/config"
	"github.com/iliyamo/gym-course-enrollment/internal/database"
	"github.com/iliyamo/gym-course-enrollment/internal/gateway"
	"github.com/iliyamo/gym-course-enrollment/internal/handler"
	"github.com/iliyamo/gym-course-enrollment/internal/lifecycle"
	"github.com/iliyamo/gym-course-enrollment/internal/middleware"
	"github.com/iliyamo/gym-course-enrollment/internal/queue"
	"github.com/iliyamo/gym-course-enrollment/internal/repository"
	"github.com/iliyamo/gym-course-enrollment/internal/router"
	queue_publisher "github.com/iliyamo/gym-course-enrollment/internal/service"
	"github.com/iliyamo/gym-course-enrollment/internal/staging"
)

func main() {
	_ = godotenv.Load() // .env is optional, real env wins

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		// the staging store keys every pending payment; without it no
		// checkout can complete
		log.Fatal("redis: connection failed, staging store unavailable")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	members := repository.NewMemberRepo(db)
	plans := repository.NewPlanRepo(db)
	courses := repository.NewCourseRepo(db)
	enrollments := repository.NewEnrollmentRepo(db)
	payments := repository.NewPaymentRepo(db)
	committer := repository.NewCommitter(db, users, members, plans, courses, enrollments, payments)

	checkoutTTL := time.Duration(cfg.CheckoutTTLMin) * time.Minute
	store := staging.NewStore(staging.NewRedisKV(rdb), checkoutTTL)

	client := gateway.NewClient(cfg.RazorpayKeyID, cfg.RazorpaySecret, cfg.RazorpayBaseURL, nil)

	workflow := &lifecycle.Workflow{
		Staging:    store,
		Gateway:    client,
		Commits:    committer,
		Enrolled:   enrollments,
		Emails:     users,
		Events:     queue_publisher.New(),
		Currency:   cfg.Currency,
		BcryptCost: cfg.BcryptCost,
	}

	go func() {
		if err := queue.StartAuditConsumer(); err != nil {
			log.Printf("audit consumer stopped: %v", err)
		}
	}()

	// daily cleanup of long-expired refresh tokens
	go func() {
		for {
			if n, err := tokens.PurgeExpired(context.Background(), 30*24*time.Hour); err != nil {
				log.Printf("token purge failed: %v", err)
			} else if n > 0 {
				log.Printf("purged %d expired refresh tokens", n)
			}
			time.Sleep(24 * time.Hour)
		}
	}()

	e := echo.New()
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens, members), cfg.JWTSecret)
	router.RegisterCatalog(e, handler.NewCatalogHandler(courses, plans), cache)
	router.RegisterPurchase(e,
		handler.NewRegistrationHandler(cfg, workflow),
		handler.NewEnrollmentHandler(cfg, workflow, members, courses, enrollments),
		cfg.JWTSecret, limiter)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
