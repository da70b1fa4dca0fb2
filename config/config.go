package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	JWTSecret        string
	DBHost           string
	DBPort           string
	DBUser           string
	DBPass           string
	DBName           string
	RedisHost        string
	RedisPort        string
	RedisPassword    string
	RedisDB          int
	MinioHost        string
	MinioPort        string
	MinioUsername    string
	MinioPassword    string
	MinioUseSSL      bool
	BucketName       string
	RabbitMQURL      string
	RabbitMQPrefetch int
	HTTPAddr         string

	Core       CoreConfig
	Uploader   UploaderConfig
	Chunks     ChunksConfig
	Exif       ExifConfig
	Datasource DatasourceConfig
	Notify     NotifyConfig
	Finalize   FinalizeConfig
}

// CoreConfig controls how public URLs are built.
type CoreConfig struct {
	HTTPS bool
}

type UploaderConfig struct {
	DefaultFormat      string
	Route              string
	Length             int
	AdminLimit         int64
	UserLimit          int64
	DisabledExtensions []string
	AssumeMimetypes    bool
	AdminRatelimit     time.Duration
	UserRatelimit      time.Duration
	DefaultExpiration  string
	DateFormat         string
	InvisibleLength    int
}

type ChunksConfig struct {
	Enabled    bool
	MaxSize    int64
	TempDir    string
	Staleness  time.Duration
	SweepEvery time.Duration
}

type ExifConfig struct {
	RemoveGPS bool
}

// DatasourceConfig selects the blob backend: "minio" or "local".
type DatasourceConfig struct {
	Type     string
	LocalDir string
}

type NotifyConfig struct {
	WebhookURL string
	MailTo     []string
	SMTPHost   string
	SMTPPort   string
	SMTPUser   string
	SMTPPass   string
	SMTPFrom   string
	SMTPTLS    bool
}

// FinalizeConfig controls the deferred finalize of chunked uploads.
// Mode "local" runs an in-process worker pool, "mq" publishes to RabbitMQ
// for cmd/worker.
type FinalizeConfig struct {
	Mode        string
	Concurrency int
	QueueSize   int
	Rate        float64
	Burst       int
	RetryMax    int
	RetryDelays []time.Duration
}

var AppConfig Config

// getEnv returns the environment value or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvBool(key string, defaultValue bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	if value == "" {
		return defaultValue
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return defaultValue
	}
}

func getEnvInt64(key string, defaultValue int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvList(key string, defaultValue []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func getEnvDurationList(key string, defaultValue []time.Duration) []time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	parts := strings.Split(raw, ",")
	out := make([]time.Duration, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		parsed, err := time.ParseDuration(part)
		if err != nil {
			return defaultValue
		}
		out = append(out, parsed)
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// InitConfig loads configuration from the environment.
func InitConfig() {
	rabbitHost := getEnv("RABBITMQ_HOST", "localhost")
	rabbitPort := getEnv("RABBITMQ_PORT", "5672")
	rabbitUser := getEnv("RABBITMQ_USER", "guest")
	rabbitPass := getEnv("RABBITMQ_PASSWORD", "guest")
	rabbitVhost := getEnv("RABBITMQ_VHOST", "/")
	rabbitURL := getEnv("RABBITMQ_URL", "")
	if rabbitURL == "" {
		rabbitURL = fmt.Sprintf(
			"amqp://%s:%s@%s:%s/%s",
			url.PathEscape(rabbitUser),
			url.PathEscape(rabbitPass),
			rabbitHost,
			rabbitPort,
			url.PathEscape(rabbitVhost),
		)
	}
	retryDelays := getEnvDurationList(
		"FINALIZE_RETRY_DELAYS",
		[]time.Duration{5 * time.Second, 30 * time.Second, 2 * time.Minute},
	)
	AppConfig = Config{
		JWTSecret:        getEnv("JWT_SECRET", "l=ax+b"),
		DBHost:           getEnv("DB_HOST", "localhost"),
		DBPort:           getEnv("DB_PORT", "3306"),
		DBUser:           getEnv("DB_USER", "root"),
		DBPass:           getEnv("DB_PASS", "root"),
		DBName:           getEnv("DB_NAME", "Go_Share"),
		RedisHost:        getEnv("REDIS_HOST", "localhost"),
		RedisPort:        getEnv("REDIS_PORT", "6379"),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisDB:          getEnvInt("REDIS_DB", 0),
		MinioHost:        getEnv("MINIO_HOST", "localhost"),
		MinioPort:        getEnv("MINIO_PORT", "9000"),
		MinioUsername:    getEnv("MINIO_USERNAME", "minioadmin"),
		MinioPassword:    getEnv("MINIO_PASSWORD", "minioadmin"),
		MinioUseSSL:      getEnvBool("MINIO_USE_SSL", false),
		BucketName:       getEnv("BUCKET_NAME", "uploads"),
		RabbitMQURL:      rabbitURL,
		RabbitMQPrefetch: getEnvInt("RABBITMQ_PREFETCH", 8),
		HTTPAddr:         getEnv("HTTP_ADDR", ":8000"),
		Core: CoreConfig{
			HTTPS: getEnvBool("CORE_HTTPS", false),
		},
		Uploader: UploaderConfig{
			DefaultFormat:      getEnv("UPLOADER_DEFAULT_FORMAT", "random"),
			Route:              getEnv("UPLOADER_ROUTE", "/u"),
			Length:             getEnvInt("UPLOADER_LENGTH", 6),
			AdminLimit:         getEnvInt64("UPLOADER_ADMIN_LIMIT", 100*1024*1024*1024),
			UserLimit:          getEnvInt64("UPLOADER_USER_LIMIT", 100*1024*1024*1024),
			DisabledExtensions: getEnvList("UPLOADER_DISABLED_EXTENSIONS", nil),
			AssumeMimetypes:    getEnvBool("UPLOADER_ASSUME_MIMETYPES", false),
			AdminRatelimit:     getEnvDuration("UPLOADER_ADMIN_RATELIMIT", 0),
			UserRatelimit:      getEnvDuration("UPLOADER_USER_RATELIMIT", 0),
			DefaultExpiration:  getEnv("UPLOADER_DEFAULT_EXPIRATION", ""),
			DateFormat:         getEnv("UPLOADER_DATE_FORMAT", "2006-01-02_15-04-05"),
			InvisibleLength:    getEnvInt("UPLOADER_INVISIBLE_LENGTH", 6),
		},
		Chunks: ChunksConfig{
			Enabled:    getEnvBool("CHUNKS_ENABLED", true),
			MaxSize:    getEnvInt64("CHUNKS_MAX_SIZE", 90*1024*1024),
			TempDir:    getEnv("CHUNKS_TEMP_DIR", os.TempDir()),
			Staleness:  getEnvDuration("CHUNKS_STALENESS", 24*time.Hour),
			SweepEvery: getEnvDuration("CHUNKS_SWEEP_EVERY", 10*time.Minute),
		},
		Exif: ExifConfig{
			RemoveGPS: getEnvBool("EXIF_REMOVE_GPS", false),
		},
		Datasource: DatasourceConfig{
			Type:     strings.ToLower(getEnv("DATASOURCE_TYPE", "local")),
			LocalDir: getEnv("DATASOURCE_LOCAL_DIR", "./uploads"),
		},
		Notify: NotifyConfig{
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
			MailTo:     getEnvList("NOTIFY_MAIL_TO", nil),
			SMTPHost:   getEnv("SMTP_HOST", ""),
			SMTPPort:   getEnv("SMTP_PORT", ""),
			SMTPUser:   getEnv("SMTP_USER", ""),
			SMTPPass:   getEnv("SMTP_PASS", ""),
			SMTPFrom:   getEnv("SMTP_FROM", ""),
			SMTPTLS:    getEnvBool("SMTP_TLS", false),
		},
		Finalize: FinalizeConfig{
			Mode:        strings.ToLower(getEnv("FINALIZE_MODE", "local")),
			Concurrency: getEnvInt("FINALIZE_CONCURRENCY", 4),
			QueueSize:   getEnvInt("FINALIZE_QUEUE_SIZE", 64),
			Rate:        getEnvFloat("FINALIZE_RATE", 0),
			Burst:       getEnvInt("FINALIZE_BURST", 4),
			RetryMax:    getEnvInt("FINALIZE_RETRY_MAX", 3),
			RetryDelays: retryDelays,
		},
	}
}

// SizeLimit returns the per-file byte limit for the user class.
func (c UploaderConfig) SizeLimit(administrator bool) int64 {
	if administrator {
		return c.AdminLimit
	}
	return c.UserLimit
}

// Cooldown returns the upload cooldown for the user class.
func (c UploaderConfig) Cooldown(administrator bool) time.Duration {
	if administrator {
		return c.AdminRatelimit
	}
	return c.UserRatelimit
}
