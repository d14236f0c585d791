package routes

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"marathon_backend/internals/configs"
	adminController "marathon_backend/internals/features/admin/controller"
	adminRoute "marathon_backend/internals/features/admin/route"
	adminService "marathon_backend/internals/features/admin/service"
	"marathon_backend/internals/features/admin/sheets"
	marathonController "marathon_backend/internals/features/events/marathons/controller"
	marathonRoute "marathon_backend/internals/features/events/marathons/route"
	participantController "marathon_backend/internals/features/events/participants/controller"
	participantRoute "marathon_backend/internals/features/events/participants/route"
	participantService "marathon_backend/internals/features/events/participants/service"
	resultController "marathon_backend/internals/features/events/results/controller"
	resultRoute "marathon_backend/internals/features/events/results/route"
	"marathon_backend/internals/features/finance/payments/bib"
	paymentController "marathon_backend/internals/features/finance/payments/controller"
	"marathon_backend/internals/features/finance/payments/gateway"
	"marathon_backend/internals/features/finance/payments/repository"
	paymentRoute "marathon_backend/internals/features/finance/payments/route"
	paymentService "marathon_backend/internals/features/finance/payments/service"
	"marathon_backend/internals/features/notifications"
	"marathon_backend/internals/features/notifications/email"
	"marathon_backend/internals/features/notifications/telegram"
	"marathon_backend/internals/features/notifications/whatsapp"
	authController "marathon_backend/internals/features/users/auth/controller"
	authRoute "marathon_backend/internals/features/users/auth/route"
	authService "marathon_backend/internals/features/users/auth/service"
	authMiddleware "marathon_backend/internals/middlewares/auth"
	helper "marathon_backend/internals/helpers"
)

var startTime time.Time

// Container holds the wired services shared by the HTTP server and the CLI commands.
type Container struct {
	Cfg   configs.AppConfig
	DB    *gorm.DB
	Redis *redis.Client
	Log   *zap.Logger

	Gateway  gateway.Client
	Verifier gateway.Verifier
	Events   *repository.GatewayEventRepository
	Orders   *paymentService.OrderService
	Admin    *adminService.AdminService
	Auth     *authService.AuthService
	Register *participantService.RegistrationService
}

func NewContainer(ctx context.Context, cfg configs.AppConfig, db *gorm.DB, rdb *redis.Client, log *zap.Logger) (*Container, error) {
	gw, verifier, err := gateway.New(cfg.Payment)
	if err != nil {
		return nil, err
	}
	log.Info("payment gateway ready", zap.String("provider", gw.Name()))
	if _, stub := gw.(*gateway.StubClient); stub && !cfg.IsDevelopment() {
		log.Warn("stub payment provider enabled outside development; orders can be settled without payment",
			zap.String("env", cfg.Env))
	}

	wa := whatsapp.NewClient(whatsapp.Config{
		Token:            cfg.Notification.WhatsAppToken,
		PhoneNumberID:    cfg.Notification.WhatsAppPhoneNumberID,
		APIVersion:       cfg.Notification.WhatsAppAPIVersion,
		ConfirmationTmpl: cfg.Notification.WhatsAppTemplate,
		OTPTmpl:          cfg.Notification.WhatsAppOTPTemplate,
		RatePerSec:       cfg.Notification.WhatsAppRatePerSec,
		DevMode:          cfg.IsDevelopment(),
	}, log)

	dispatcher := notifications.NewDispatcher(log, cfg.Notification.Timeout,
		email.NewChannel(email.Config{
			Host:     cfg.Notification.SMTPHost,
			Port:     cfg.Notification.SMTPPort,
			Username: cfg.Notification.SMTPUsername,
			Password: cfg.Notification.SMTPPassword,
			From:     cfg.Notification.SMTPFrom,
		}, log),
		whatsapp.NewChannel(wa),
	)
	alert, err := telegram.NewAlertChannel(cfg.Notification.TelegramBotToken, cfg.Notification.TelegramAdminChatID, log)
	if err != nil {
		log.Warn("telegram alerts disabled", zap.Error(err))
	}
	if alert != nil {
		dispatcher = dispatcher.WithAlerts(alert)
	}

	var cache paymentService.StatusCache = paymentService.NopStatusCache{}
	if rdb != nil {
		cache = paymentService.NewRedisStatusCache(rdb, cfg.Payment.StatusCacheTTL, log)
	}

	orders := paymentService.NewOrderService(paymentService.Deps{
		Store:          repository.NewGormOrderStore(db),
		Gateway:        gw,
		Allocator:      bib.NewAllocator(cfg.Payment.BibWidth),
		Notifier:       dispatcher,
		Cache:          cache,
		Log:            log,
		GatewayTimeout: cfg.Payment.GatewayTimeout,
		PublicBaseURL:  cfg.Payment.PublicBaseURL,
	})

	var sheet adminService.SheetWriter
	exporter, err := sheets.NewExporter(ctx, cfg.Sheets)
	switch {
	case err == nil:
		sheet = exporter
	case errors.Is(err, sheets.ErrNotConfigured):
	default:
		log.Warn("google sheets export disabled", zap.Error(err))
	}

	return &Container{
		Cfg:      cfg,
		DB:       db,
		Redis:    rdb,
		Log:      log,
		Gateway:  gw,
		Verifier: verifier,
		Events:   repository.NewGatewayEventRepository(db),
		Orders:   orders,
		Admin:    adminService.NewAdminService(db, sheet, log),
		Auth:     authService.NewAuthService(db, cfg.Auth, wa, rdb, log),
		Register: participantService.NewRegistrationService(db, log),
	}, nil
}

func SetupRoutes(app *fiber.App, k *Container) {
	startTime = time.Now()
	log := k.Log

	BaseRoutes(app, k)

	userAuth := authMiddleware.AuthMiddleware(k.Cfg.Auth.JWTSecret, k.DB, log)
	adminAuth := authMiddleware.AdminMiddleware(k.Cfg.Auth, k.DB, log)
	onlyUsers := authMiddleware.OnlyRoles("registration is for runner accounts", helper.RoleUser)

	api := app.Group("/api")

	// ===================== PUBLIC =====================
	log.Info("setting up public routes")
	authRoute.AuthRoutes(api.Group("/auth"), authController.NewAuthController(k.Auth), userAuth)

	marathons := marathonController.NewMarathonController(k.DB)
	marathonRoute.PublicMarathonRoutes(api.Group("/marathons"), marathons)

	results := resultController.NewResultController(k.DB, k.Cfg.UploadDir, log)
	resultRoute.PublicResultRoutes(api.Group("/results"), results)

	pay := paymentController.NewPaymentController(k.Orders, k.Events, k.Cfg.Payment, log)
	webhook := paymentController.NewWebhookController(k.Orders, k.Gateway, k.Verifier, k.Events, log)
	payments := api.Group("/payments")
	_, stubCheckout := k.Gateway.(*gateway.StubClient)
	paymentRoute.PublicPaymentRoutes(payments, pay, webhook, stubCheckout)

	// ===================== USER =====================
	log.Info("setting up user routes")
	paymentRoute.UserPaymentRoutes(payments, userAuth, pay)
	participantRoute.UserParticipantRoutes(
		api.Group("/participants", userAuth, onlyUsers),
		participantController.NewParticipantController(k.Register),
	)

	// ===================== ADMIN =====================
	log.Info("setting up admin routes")
	admin := api.Group("/admin", adminAuth)
	marathonRoute.AdminMarathonRoutes(admin, marathons)
	resultRoute.AdminResultRoutes(admin, results)
	paymentRoute.AdminPaymentRoutes(admin, paymentController.NewAdminPaymentController(k.Orders, k.Events))
	adminRoute.AdminRoutes(admin, adminController.NewAdminController(k.Admin))
}
