package config

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/viper"
)

// Config хранит все настройки приложения
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	AI       AIConfig
	Email    EmailConfig
	CORS     CORSConfig
	Limits   LimitsConfig
}

// ServerConfig содержит настройки HTTP сервера
type ServerConfig struct {
	Port         string
	ReadTimeout  int
	WriteTimeout int
}

// DatabaseConfig содержит настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig содержит унифицированные настройки подключения к Redis
// Поддерживает режимы: single, sentinel, cluster
type RedisConfig struct {
	// Mode: режим работы Redis ("single", "sentinel", "cluster"). По умолчанию "single".
	Mode string `mapstructure:"mode"`

	// Addrs: список адресов Redis (хост:порт). Используется для всех режимов.
	Addrs []string `mapstructure:"addrs"`

	// Addr: альтернативный адрес для режима 'single'.
	Addr string `mapstructure:"addr"`

	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// MasterName: имя мастер-сервера (только для режима "sentinel")
	MasterName string `mapstructure:"master_name"`

	// MaxRetries: максимальное количество попыток переподключения (-1 - бесконечно)
	MaxRetries int `mapstructure:"max_retries"`

	// MinRetryBackoff: минимальный интервал между попытками (мс)
	MinRetryBackoff int `mapstructure:"min_retry_backoff"`

	// MaxRetryBackoff: максимальный интервал между попытками (мс)
	MaxRetryBackoff int `mapstructure:"max_retry_backoff"`
}

// JWTConfig содержит настройки выпуска токенов
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	// AccessExpirationMin: время жизни access-токена в минутах
	AccessExpirationMin int `mapstructure:"access_expiration_min"`
	// RefreshExpirationDays: время жизни refresh-токена в днях
	RefreshExpirationDays int    `mapstructure:"refresh_expiration_days"`
	Issuer                string `mapstructure:"issuer"`
}

// AIConfig содержит настройки внешнего генеративного AI-сервиса
type AIConfig struct {
	APIKey string `mapstructure:"api_key"`
	// APIURL: базовый URL REST API (без завершающего слеша)
	APIURL string `mapstructure:"api_url"`
	Model  string `mapstructure:"model"`
	// TimeoutSec: таймаут HTTP-клиента в секундах
	TimeoutSec int `mapstructure:"timeout_sec"`
	// WikipediaURL: базовый URL Wikipedia REST API для контекста ассистента
	WikipediaURL string `mapstructure:"wikipedia_url"`
}

// EmailConfig содержит настройки отправки почты
type EmailConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	ResendAPIKey string `mapstructure:"resend_api_key"`
	FromAddress  string `mapstructure:"from_address"`
	FromName     string `mapstructure:"from_name"`
}

// CORSConfig содержит настройки CORS
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LimitsConfig содержит прикладные ограничения
type LimitsConfig struct {
	// MaxQuestionsPerRequest: верхняя граница на генерацию и пакетные операции
	MaxQuestionsPerRequest int `mapstructure:"max_questions_per_request"`
}

// PostgresConnectionString формирует строку подключения к PostgreSQL
func (d *DatabaseConfig) PostgresConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// Load загружает конфигурацию из файла и переменных окружения
func Load(configPath string) (*Config, error) {
	vip := viper.New() // Новый экземпляр Viper, чтобы избежать глобального состояния

	// 1. Значения по умолчанию
	vip.SetDefault("server.port", "8000")
	vip.SetDefault("server.readtimeout", 15)
	// WriteTimeout должен перекрывать таймаут AI-клиента, иначе длинные
	// генерации обрываются на стороне HTTP сервера
	vip.SetDefault("server.writetimeout", 180)
	vip.SetDefault("database.port", "5432")
	vip.SetDefault("database.sslmode", "disable")
	vip.SetDefault("jwt.access_expiration_min", 30)
	vip.SetDefault("jwt.refresh_expiration_days", 7)
	vip.SetDefault("jwt.issuer", "eduai-api")
	vip.SetDefault("ai.api_url", "https://generativelanguage.googleapis.com/v1beta")
	vip.SetDefault("ai.model", "gemini-2.0-flash")
	vip.SetDefault("ai.timeout_sec", 120)
	vip.SetDefault("ai.wikipedia_url", "https://en.wikipedia.org/api/rest_v1")
	vip.SetDefault("limits.max_questions_per_request", 50)

	// 2. Явная привязка переменных окружения
	vip.BindEnv("database.host", "DATABASE_HOST")
	vip.BindEnv("database.port", "DATABASE_PORT")
	vip.BindEnv("database.user", "DATABASE_USER")
	vip.BindEnv("database.password", "DATABASE_PASSWORD")
	vip.BindEnv("database.dbname", "DATABASE_DBNAME")
	vip.BindEnv("database.sslmode", "DATABASE_SSLMODE")

	vip.BindEnv("redis.mode", "REDIS_MODE")
	vip.BindEnv("redis.addrs", "REDIS_ADDRS")
	vip.BindEnv("redis.addr", "REDIS_ADDR")
	vip.BindEnv("redis.password", "REDIS_PASSWORD")
	vip.BindEnv("redis.db", "REDIS_DB")
	vip.BindEnv("redis.master_name", "REDIS_MASTER_NAME")

	vip.BindEnv("jwt.secret", "JWT_SECRET")
	vip.BindEnv("jwt.access_expiration_min", "JWT_ACCESS_EXPIRATION_MIN")
	vip.BindEnv("jwt.refresh_expiration_days", "JWT_REFRESH_EXPIRATION_DAYS")
	vip.BindEnv("jwt.issuer", "JWT_ISSUER")

	vip.BindEnv("ai.api_key", "AI_API_KEY")
	vip.BindEnv("ai.api_url", "AI_API_URL")
	vip.BindEnv("ai.model", "AI_MODEL")
	vip.BindEnv("ai.timeout_sec", "AI_TIMEOUT_SEC")
	vip.BindEnv("ai.wikipedia_url", "AI_WIKIPEDIA_URL")

	vip.BindEnv("email.enabled", "EMAIL_ENABLED")
	vip.BindEnv("email.resend_api_key", "RESEND_API_KEY")
	vip.BindEnv("email.from_address", "EMAIL_FROM_ADDRESS")
	vip.BindEnv("email.from_name", "EMAIL_FROM_NAME")

	vip.BindEnv("cors.allowed_origins", "CORS_ALLOWED_ORIGINS")

	vip.BindEnv("server.port", "SERVER_PORT")

	// 3. Файл конфигурации (не страшно, если его нет, есть BindEnv)
	if configPath != "" {
		vip.SetConfigFile(configPath)
		if err := vip.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok {
				log.Printf("Файл конфигурации '%s' не найден, используются переменные окружения/умолчания.", configPath)
			} else {
				log.Printf("Предупреждение: не удалось прочитать файл конфигурации '%s': %v", configPath, err)
			}
		}
	}

	// 4. Анмаршалим (Viper объединит файл и привязанные env vars)
	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 5. Логирование конфигурации (только в debug режиме)
	if os.Getenv("GIN_MODE") != "release" {
		log.Printf("--- Загруженные значения конфигурации ---")
		log.Printf("Database Host: %s", cfg.Database.Host)
		log.Printf("Database Port: %s", cfg.Database.Port)
		log.Printf("Database Name: %s", cfg.Database.DBName)
		log.Printf("Redis Addr: %s", cfg.Redis.Addr)
		log.Printf("Redis Mode: %s", cfg.Redis.Mode)
		log.Printf("JWT Secret Set: %t", cfg.JWT.Secret != "")
		log.Printf("AI Model: %s", cfg.AI.Model)
		log.Printf("AI API Key Set: %t", cfg.AI.APIKey != "")
		log.Printf("Email Enabled: %t", cfg.Email.Enabled)
		log.Printf("Server Port: %s", cfg.Server.Port)
		log.Printf("-----------------------------------------")
	}

	// 6. Проверка обязательных параметров
	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("JWT secret is required in config (check JWT_SECRET env var)")
	}
	if cfg.Database.Host == "" || cfg.Database.DBName == "" || cfg.Database.User == "" {
		return nil, fmt.Errorf("database configuration (host, dbname, user) is incomplete in config (check DATABASE_HOST, DATABASE_DBNAME, DATABASE_USER env vars)")
	}
	if os.Getenv("GIN_MODE") == "release" && cfg.Database.Password == "" {
		return nil, fmt.Errorf("database password is required in release mode (check DATABASE_PASSWORD env var)")
	}
	if cfg.Email.Enabled && cfg.Email.ResendAPIKey == "" {
		return nil, fmt.Errorf("email is enabled but Resend API key is missing (check RESEND_API_KEY env var)")
	}
	if cfg.Limits.MaxQuestionsPerRequest <= 0 {
		cfg.Limits.MaxQuestionsPerRequest = 50
	}

	return &cfg, nil
}
