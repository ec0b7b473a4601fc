// Package config, uygulamanın tüm ayarlarını environment variable'lardan okur.
// Geliştirme ortamında .env dosyası da desteklenir.
//
// Her alt bölüm ayrı bir struct'tır; service'lere sadece ihtiyaç duydukları
// bölüm geçirilir (ör. OrderService → LoyaltyConfig + WorkloadConfig).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config, uygulamanın tüm konfigürasyon değerlerini taşır.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Upload   UploadConfig
	Email    EmailConfig
	Security SecurityConfig
	Loyalty  LoyaltyConfig
	Workload WorkloadConfig
	Log      LogConfig
	Admin    AdminConfig
	Jobs     JobsConfig
}

// ServerConfig, HTTP server ayarları.
type ServerConfig struct {
	Host        string
	Port        int
	PublicURL   string   // e-postalardaki linkler için (ör: https://pastane.example.com)
	CORSOrigins []string // virgülle ayrılmış liste
}

// DatabaseConfig, SQLite ayarları.
type DatabaseConfig struct {
	Path string
}

// JWTConfig, token ayarları.
type JWTConfig struct {
	Secret             string
	Issuer             string
	AccessTokenExpiry  int // dakika
	RefreshTokenExpiry int // gün
}

// UploadConfig, ürün görseli yükleme ayarları.
type UploadConfig struct {
	Dir     string
	MaxSize int64 // byte
}

// EmailConfig, Resend ayarları. APIKey boşsa e-posta gönderimi kapalıdır.
type EmailConfig struct {
	ResendAPIKey string
	From         string
	NotifyTo     string // iletişim mesajı ve günlük özetin gideceği adres
}

// SecurityConfig, şifreleme, CSRF ve rate limit ayarları.
type SecurityConfig struct {
	EncryptionKey     string // 64 hex karakter, TOTP secret'ları için AES-256 anahtarı
	CSRFKey           string // 64 hex karakter
	CSRFSecure        bool   // cookie'ler sadece HTTPS üzerinden
	TOTPIssuer        string
	LoginMaxAttempts  int
	LoginWindowMin    int
	PublicRatePerMin  int // IP başına dakikalık istek
	PublicBurst       int
	ContactRatePerMin int
	// LoyaltyRatePerMin, telefon numarası taramasına karşı sadakat sorgusu
	// sınırı.
	LoyaltyRatePerMin int
	LoyaltyBurst      int
	// TrustedProxies, X-Forwarded-For'una güvenilen proxy adresleri (CIDR
	// veya tek IP). Listede olmayan bağlantılarda header'lar yok sayılır.
	TrustedProxies []string
}

// LoyaltyConfig, sadakat programı ayarları.
type LoyaltyConfig struct {
	GiftEvery int // kaç tamamlanan siparişte bir hediye
}

// WorkloadConfig, takvim doluluk eşikleri (günlük Puan toplamı).
//
//	0                 → Boş
//	1 .. Busy-1       → Uygun
//	Busy .. Full-1    → Yoğun
//	Full ve üstü      → Dolu
type WorkloadConfig struct {
	BusyThreshold int
	FullThreshold int
}

// LogConfig, zap/lumberjack ayarları.
type LogConfig struct {
	Level      string
	Format     string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// AdminConfig, ilk çalıştırmada oluşturulacak sahip hesabı.
type AdminConfig struct {
	BootstrapUsername string
	BootstrapPassword string
}

// JobsConfig, zamanlanmış görev ayarları (cron ifadeleri).
type JobsConfig struct {
	SessionCleanup string
	DailyDigest    string
}

// Load, environment variable'lardan Config oluşturur.
func Load() (*Config, error) {
	// .env yoksa sessizce devam, production'da gerçek env kullanılır
	_ = godotenv.Load()

	var errs []string
	intVar := func(key, fallback string) int {
		v, err := strconv.Atoi(getEnv(key, fallback))
		if err != nil {
			errs = append(errs, fmt.Sprintf("invalid %s: %v", key, err))
		}
		return v
	}
	boolVar := func(key, fallback string) bool {
		v, err := strconv.ParseBool(getEnv(key, fallback))
		if err != nil {
			errs = append(errs, fmt.Sprintf("invalid %s: %v", key, err))
		}
		return v
	}

	maxSize, err := strconv.ParseInt(getEnv("UPLOAD_MAX_SIZE", "5242880"), 10, 64) // 5MB
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid UPLOAD_MAX_SIZE: %v", err))
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:        getEnv("SERVER_HOST", "0.0.0.0"),
			Port:        intVar("SERVER_PORT", "8080"),
			PublicURL:   strings.TrimRight(getEnv("PUBLIC_URL", "http://localhost:8080"), "/"),
			CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		},
		Database: DatabaseConfig{
			Path: getEnv("DATABASE_PATH", "./data/pastane.db"),
		},
		JWT: JWTConfig{
			Secret:             getEnv("JWT_SECRET", ""),
			Issuer:             getEnv("JWT_ISSUER", "pastane"),
			AccessTokenExpiry:  intVar("JWT_ACCESS_EXPIRY_MINUTES", "15"),
			RefreshTokenExpiry: intVar("JWT_REFRESH_EXPIRY_DAYS", "7"),
		},
		Upload: UploadConfig{
			Dir:     getEnv("UPLOAD_DIR", "./data/uploads"),
			MaxSize: maxSize,
		},
		Email: EmailConfig{
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
			From:         getEnv("EMAIL_FROM", "siparis@pastane.example.com"),
			NotifyTo:     getEnv("EMAIL_NOTIFY_TO", ""),
		},
		Security: SecurityConfig{
			EncryptionKey:     getEnv("ENCRYPTION_KEY", ""),
			CSRFKey:           getEnv("CSRF_KEY", ""),
			CSRFSecure:        boolVar("CSRF_SECURE", "false"),
			TOTPIssuer:        getEnv("TOTP_ISSUER", "Pastane"),
			LoginMaxAttempts:  intVar("LOGIN_MAX_ATTEMPTS", "5"),
			LoginWindowMin:    intVar("LOGIN_WINDOW_MINUTES", "15"),
			PublicRatePerMin:  intVar("PUBLIC_RATE_PER_MINUTE", "120"),
			PublicBurst:       intVar("PUBLIC_RATE_BURST", "30"),
			ContactRatePerMin: intVar("CONTACT_RATE_PER_MINUTE", "2"),
			LoyaltyRatePerMin: intVar("LOYALTY_RATE_PER_MINUTE", "5"),
			LoyaltyBurst:      intVar("LOYALTY_RATE_BURST", "3"),
			TrustedProxies:    splitList(getEnv("TRUSTED_PROXIES", "127.0.0.1,::1")),
		},
		Loyalty: LoyaltyConfig{
			GiftEvery: intVar("LOYALTY_GIFT_EVERY", "5"),
		},
		Workload: WorkloadConfig{
			BusyThreshold: intVar("WORKLOAD_BUSY_THRESHOLD", "40"),
			FullThreshold: intVar("WORKLOAD_FULL_THRESHOLD", "80"),
		},
		Log: LogConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Format:     getEnv("LOG_FORMAT", "console"),
			File:       getEnv("LOG_FILE", ""),
			MaxSizeMB:  intVar("LOG_MAX_SIZE_MB", "10"),
			MaxBackups: intVar("LOG_MAX_BACKUPS", "5"),
			MaxAgeDays: intVar("LOG_MAX_AGE_DAYS", "14"),
		},
		Admin: AdminConfig{
			BootstrapUsername: getEnv("ADMIN_USERNAME", ""),
			BootstrapPassword: getEnv("ADMIN_PASSWORD", ""),
		},
		Jobs: JobsConfig{
			SessionCleanup: getEnv("JOB_SESSION_CLEANUP", "@every 1h"),
			DailyDigest:    getEnv("JOB_DAILY_DIGEST", "0 20 * * *"),
		},
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid config: %s", strings.Join(errs, "; "))
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET environment variable is required")
	}
	if c.Security.EncryptionKey == "" {
		return fmt.Errorf("ENCRYPTION_KEY environment variable is required")
	}
	if c.Loyalty.GiftEvery < 1 {
		return fmt.Errorf("LOYALTY_GIFT_EVERY must be at least 1")
	}
	if c.Workload.BusyThreshold < 1 || c.Workload.FullThreshold <= c.Workload.BusyThreshold {
		return fmt.Errorf("workload thresholds must satisfy 0 < busy < full")
	}
	return nil
}

// Addr, HTTP server'ın dinleyeceği adresi döner (ör: "0.0.0.0:8080").
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// getEnv, environment variable'ı okur, yoksa fallback değeri döner.
func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
