package configs

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =======================
// ENV LOADER
// =======================
func LoadEnv() {
	if os.Getenv("RAILWAY_ENVIRONMENT") == "" {
		if err := godotenv.Load(); err != nil {
			log.Println("⚠️ .env not found, using system ENV")
		} else {
			log.Println("✅ .env loaded")
		}
	} else {
		log.Println("🚀 Running in Railway, using system ENV")
	}
}

func GetEnv(key string, defaultValue ...string) string {
	value, exists := os.LookupEnv(key)
	if (!exists || strings.TrimSpace(value) == "") && len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return strings.TrimSpace(value)
}

func GetEnvInt(key string, def int) int {
	v := GetEnv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func GetEnvBool(key string, def bool) bool {
	v := GetEnv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// GetEnvDuration accepts Go durations ("10s") or a bare number of seconds.
func GetEnvDuration(key string, def time.Duration) time.Duration {
	v := GetEnv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return def
}

func GetEnvList(key string, def []string) []string {
	v := GetEnv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// =======================
// APP CONFIG
// =======================

type DBConfig struct {
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type AuthConfig struct {
	JWTSecret      string
	JWTExpiresIn   time.Duration
	OTPExpiry      time.Duration
	OTPResendAfter time.Duration
	AdminMobile    string
	AdminPassword  string
	DevMode        bool
}

type PaymentConfig struct {
	Provider          string // midtrans | stub
	MidtransServerKey string
	MidtransUseProd   bool
	GatewayTimeout    time.Duration
	CallbackUsername  string
	CallbackPassword  string
	RedirectMode      string // json | redirect
	FrontendURL       string
	SuccessURL        string
	FailureURL        string
	PendingURL        string
	PublicBaseURL     string
	BibWidth          int
	StatusCacheTTL    time.Duration
}

type NotificationConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	WhatsAppToken         string
	WhatsAppPhoneNumberID string
	WhatsAppAPIVersion    string
	WhatsAppTemplate      string
	WhatsAppOTPTemplate   string
	WhatsAppRatePerSec    int

	TelegramBotToken    string
	TelegramAdminChatID int64

	Timeout time.Duration
}

type SheetsConfig struct {
	CredentialsFile string
	SpreadsheetID   string
	SheetName       string
}

type AppConfig struct {
	Env         string
	Port        string
	CORSOrigins []string
	UploadDir   string
	RedisURL    string

	DB           DBConfig
	Auth         AuthConfig
	Payment      PaymentConfig
	Notification NotificationConfig
	Sheets       SheetsConfig
}

func (c AppConfig) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development") || strings.EqualFold(c.Env, "dev")
}

// Load reads every setting from the environment. Call LoadEnv first.
func Load() AppConfig {
	env := GetEnv("APP_ENV", "development")
	frontend := strings.TrimRight(GetEnv("FRONTEND_URL", "http://localhost:5173"), "/")

	cfg := AppConfig{
		Env:         env,
		Port:        GetEnv("PORT", "3000"),
		CORSOrigins: GetEnvList("CORS_ORIGINS", []string{"http://localhost:5173", "http://localhost:3000"}),
		UploadDir:   GetEnv("UPLOAD_DIR", "./uploads"),
		RedisURL:    GetEnv("REDIS_URL"),
		DB: DBConfig{
			URL:      GetEnv("DATABASE_URL"),
			Host:     GetEnv("DB_HOST", "localhost"),
			Port:     GetEnv("DB_PORT", "5432"),
			User:     GetEnv("DB_USER", "postgres"),
			Password: GetEnv("DB_PASSWORD"),
			Name:     GetEnv("DB_NAME", "marathon"),
			SSLMode:  GetEnv("DB_SSLMODE", "disable"),
		},
		Auth: AuthConfig{
			JWTSecret:      GetEnv("JWT_SECRET"),
			JWTExpiresIn:   GetEnvDuration("JWT_EXPIRES_IN", 7*24*time.Hour),
			OTPExpiry:      time.Duration(GetEnvInt("OTP_EXPIRY_MINUTES", 10)) * time.Minute,
			OTPResendAfter: GetEnvDuration("OTP_RESEND_AFTER", 30*time.Second),
			AdminMobile:    GetEnv("ADMIN_MOBILE"),
			AdminPassword:  GetEnv("ADMIN_PASSWORD"),
		},
		Payment: PaymentConfig{
			Provider:          strings.ToLower(GetEnv("PAYMENT_PROVIDER")),
			MidtransServerKey: GetEnv("MIDTRANS_SERVER_KEY"),
			MidtransUseProd:   GetEnvBool("MIDTRANS_USE_PROD", false),
			GatewayTimeout:    GetEnvDuration("PAYMENT_GATEWAY_TIMEOUT", 10*time.Second),
			CallbackUsername:  GetEnv("PAYMENT_CALLBACK_USERNAME"),
			CallbackPassword:  GetEnv("PAYMENT_CALLBACK_PASSWORD"),
			RedirectMode:      strings.ToLower(GetEnv("PAYMENT_REDIRECT_MODE", "json")),
			FrontendURL:       frontend,
			SuccessURL:        GetEnv("PAYMENT_SUCCESS_URL", frontend+"/payment/success"),
			FailureURL:        GetEnv("PAYMENT_FAILURE_URL", frontend+"/payment/failure"),
			PendingURL:        GetEnv("PAYMENT_PENDING_URL", frontend+"/payment/pending"),
			PublicBaseURL:     strings.TrimRight(GetEnv("PUBLIC_BASE_URL", "http://localhost:3000"), "/"),
			BibWidth:          GetEnvInt("BIB_WIDTH", 4),
			StatusCacheTTL:    GetEnvDuration("PAYMENT_STATUS_CACHE_TTL", 24*time.Hour),
		},
		Notification: NotificationConfig{
			SMTPHost:              GetEnv("SMTP_HOST"),
			SMTPPort:              GetEnvInt("SMTP_PORT", 587),
			SMTPUsername:          GetEnv("SMTP_USERNAME"),
			SMTPPassword:          GetEnv("SMTP_PASSWORD"),
			SMTPFrom:              GetEnv("SMTP_FROM"),
			WhatsAppToken:         GetEnv("WHATSAPP_TOKEN"),
			WhatsAppPhoneNumberID: GetEnv("WHATSAPP_PHONE_NUMBER_ID"),
			WhatsAppAPIVersion:    GetEnv("WHATSAPP_API_VERSION", "v21.0"),
			WhatsAppTemplate:      GetEnv("WHATSAPP_CONFIRMATION_TEMPLATE", "registration_confirmed"),
			WhatsAppOTPTemplate:   GetEnv("WHATSAPP_OTP_TEMPLATE", "otp_login"),
			WhatsAppRatePerSec:    GetEnvInt("WHATSAPP_RATE_PER_SEC", 20),
			TelegramBotToken:      GetEnv("TELEGRAM_BOT_TOKEN"),
			TelegramAdminChatID:   int64(GetEnvInt("TELEGRAM_ADMIN_CHAT_ID", 0)),
			Timeout:               GetEnvDuration("NOTIFICATION_TIMEOUT", 15*time.Second),
		},
		Sheets: SheetsConfig{
			CredentialsFile: GetEnv("GOOGLE_SHEETS_CREDENTIALS"),
			SpreadsheetID:   GetEnv("GOOGLE_SHEETS_SPREADSHEET_ID"),
			SheetName:       GetEnv("GOOGLE_SHEETS_SHEET_NAME", "Participants"),
		},
	}
	cfg.Auth.DevMode = cfg.IsDevelopment()
	// stub is implied only in development
	if cfg.Payment.Provider == "" && cfg.IsDevelopment() {
		cfg.Payment.Provider = "stub"
	}

	if cfg.Auth.JWTSecret == "" {
		log.Println("❌ JWT_SECRET is not set!")
	}
	if cfg.Payment.BibWidth <= 0 {
		cfg.Payment.BibWidth = 4
	}
	return cfg
}
