package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Pradumn88/lms-college-site-sub000/config"
	"github.com/Pradumn88/lms-college-site-sub000/database"
	adminapi "github.com/Pradumn88/lms-college-site-sub000/internal/api/admin"
	authapi "github.com/Pradumn88/lms-college-site-sub000/internal/api/auth"
	coursesapi "github.com/Pradumn88/lms-college-site-sub000/internal/api/courses"
	educatorapi "github.com/Pradumn88/lms-college-site-sub000/internal/api/educator"
	purchaseapi "github.com/Pradumn88/lms-college-site-sub000/internal/api/purchase"
	usersapi "github.com/Pradumn88/lms-college-site-sub000/internal/api/users"
	webhooksapi "github.com/Pradumn88/lms-college-site-sub000/internal/api/webhooks"
	routes "github.com/Pradumn88/lms-college-site-sub000/internal/app/http"
	"github.com/Pradumn88/lms-college-site-sub000/internal/app/http/middleware"
	"github.com/Pradumn88/lms-college-site-sub000/internal/domain/access"
	"github.com/Pradumn88/lms-college-site-sub000/internal/domain/billing"
	"github.com/Pradumn88/lms-college-site-sub000/internal/infra/cache"
	"github.com/Pradumn88/lms-college-site-sub000/internal/infra/logger"
	"github.com/Pradumn88/lms-college-site-sub000/internal/infra/mailer"
	"github.com/Pradumn88/lms-college-site-sub000/internal/infra/razorpay"
	"github.com/Pradumn88/lms-college-site-sub000/internal/infra/stripe"
	"github.com/Pradumn88/lms-college-site-sub000/internal/jobs/sweeper"
	"github.com/Pradumn88/lms-college-site-sub000/internal/repo"
	"github.com/Pradumn88/lms-college-site-sub000/internal/services/notify"
	"github.com/Pradumn88/lms-college-site-sub000/internal/services/otp"
	"github.com/Pradumn88/lms-college-site-sub000/internal/services/payments"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	log, err := logger.New(cfg.LogLevel, cfg.IsProduction())
	if err != nil {
		logrus.WithError(err).Fatal("init logger")
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	store, err := database.Open(cfg.DBURL, log.WithField("component", "database"))
	if err != nil {
		log.WithError(err).Fatal("open database")
	}
	rdb, err := cache.NewRedis(context.Background(), cfg.RedisURL)
	if err != nil {
		log.WithError(err).Fatal("connect redis")
	}
	sender := mailer.New(cfg.SMTP, log.WithField("component", "mailer"))

	db := store.DB()
	userRepo := repo.NewUserRepo(db)
	courseRepo := repo.NewCourseRepo(db)
	enrollmentRepo := repo.NewEnrollmentRepo(db)
	progressRepo := repo.NewProgressRepo(db)
	purchaseRepo := repo.NewPurchaseRepo(db)
	refundRepo := repo.NewRefundRepo(db)

	gate := access.NewGate(enrollmentRepo)
	codes := otp.NewService(rdb, otp.Options{TTL: cfg.OTPTTL})

	providers := map[billing.PaymentMethod]payments.CheckoutProvider{}
	verifiers := map[payments.Channel]payments.SignatureVerifier{}
	if cfg.Stripe.Enabled() {
		providers[billing.MethodStripe] = stripe.NewCheckout(cfg.Stripe.SecretKey, cfg.AppURL, cfg.ProviderTimeout)
		if cfg.Stripe.WebhookSecret != "" {
			verifiers[payments.ChannelStripeWebhook] = stripe.NewWebhookVerifier(cfg.Stripe.WebhookSecret)
		}
	}
	if cfg.Razorpay.Enabled() {
		providers[billing.MethodRazorpay] = razorpay.NewCheckout(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret, cfg.ProviderTimeout)
		verifiers[payments.ChannelRazorpayCheckout] = razorpay.NewHMACVerifier(cfg.Razorpay.KeySecret)
		if cfg.Razorpay.WebhookSecret != "" {
			verifiers[payments.ChannelRazorpayWebhook] = razorpay.NewHMACVerifier(cfg.Razorpay.WebhookSecret)
		}
	}
	if len(providers) == 0 {
		log.Warn("no payment provider configured; checkout is disabled")
	}

	receipts := notify.NewReceipts(purchaseRepo, sender, log.WithField("component", "receipts"))
	ledger := payments.NewLedger(payments.LedgerDeps{
		Purchases:   purchaseRepo,
		Enrollments: enrollmentRepo,
		Courses:     courseRepo,
		Providers:   providers,
		Currency:    cfg.Currency,
		Retry:       payments.RetryPolicy{Attempts: cfg.EnrollRetryAttempts, Delay: cfg.EnrollRetryDelay},
		Notifier:    receipts,
		Logger:      log.WithField("component", "ledger"),
	})
	reconciler := payments.NewReconciler(ledger, verifiers, log.WithField("component", "reconciler"))

	var sweep *sweeper.Sweeper
	if cfg.PendingPurchaseTTL > 0 {
		sweep = sweeper.New(ledger, cfg.PendingPurchaseTTL, cfg.SweepSchedule, log)
		if err := sweep.Start(); err != nil {
			log.WithError(err).Fatal("start sweeper")
		}
	}

	deps := routes.Deps{
		JWTSecret: cfg.JWTSecret,
		Gate:      gate,
		Auth:      authapi.NewHandler(userRepo, codes, sender, cfg.JWTSecret, log.WithField("component", "auth")),
		Courses:   coursesapi.NewHandler(courseRepo, gate),
		Purchase:  purchaseapi.NewHandler(ledger, reconciler, purchaseRepo, refundRepo),
		Webhooks:  webhooksapi.NewHandler(reconciler, log.WithField("component", "webhooks")),
		Users:     usersapi.NewHandler(userRepo, enrollmentRepo, progressRepo, courseRepo),
		Educator: educatorapi.NewHandler(educatorapi.Deps{
			Users:     userRepo,
			Courses:   courseRepo,
			Students:  enrollmentRepo,
			Earnings:  purchaseRepo,
			JWTSecret: cfg.JWTSecret,
			Logger:    log.WithField("component", "educator"),
		}),
		Admin: adminapi.NewHandler(userRepo, courseRepo, purchaseRepo, refundRepo, log.WithField("component", "admin")),
	}
	if cfg.Google.Enabled() {
		deps.Google = authapi.NewGoogle(cfg.Google, cfg.IsProduction(), userRepo, cfg.JWTSecret, log.WithField("component", "google"))
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.CORSOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.RequestLogger(log), middleware.RequestTimeout(cfg.RequestTimeout))

	routes.RegisterRoutes(r, deps)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.WithField("port", cfg.Port).Info("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("http server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("http shutdown")
	}
	if sweep != nil {
		sweep.Stop()
	}
	receipts.Wait()
	if err := rdb.Close(); err != nil {
		log.WithError(err).Warn("close redis")
	}
	if err := store.Close(); err != nil {
		log.WithError(err).Warn("close database")
	}
}
