package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	HTTPAddr string
	Env      string
	LogLevel string
	Timezone string

	DB    DBConfig
	Auth  AuthConfig
	Redis RedisConfig
	ZAPI  ZAPIConfig

	AllowedOrigins    []string
	N8NLeadWebhookURL string
	PortalURL         string
	PipedriveRefField string
	ProofS3Bucket     string
	AWSRegion         string
	CleanupInterval   time.Duration
}

type DBConfig struct {
	Host       string
	Port       uint
	Name       string
	User       string
	Password   string
	SecretID   string
	SSLDisable bool
}

type AuthConfig struct {
	JWTSecret      string
	RSAPrivatePath string
	KID            string
	Issuer         string
	Audience       string
	AccessTTL      time.Duration
	RefreshTTL     time.Duration
	CookieSecure   bool
}

type RedisConfig struct {
	Addr string
	Pass string
}

// Enabled indica se a presença/fan-out do chat deve usar Redis.
func (r RedisConfig) Enabled() bool { return r.Addr != "" }

type ZAPIConfig struct {
	Instance    string
	Token       string
	ClientToken string
}

func (z ZAPIConfig) Enabled() bool { return z.Instance != "" && z.Token != "" }

// Load lê o .env (quando existir) e as variáveis de ambiente.
func Load() AppConfig {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading configuration from environment")
	}

	return AppConfig{
		HTTPAddr: getEnv("HTTP_ADDR", ":5000"),
		Env:      getEnv("APP_ENV", "production"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Timezone: getEnv("APP_TIMEZONE", "America/Sao_Paulo"),
		DB: DBConfig{
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       uint(getEnvInt("DB_PORT", 5432)),
			Name:       getEnv("DB_NAME", "tirvu_partners"),
			User:       os.Getenv("DB_USERNAME"),
			Password:   os.Getenv("DB_PASSWORD"),
			SecretID:   os.Getenv("DB_SECRET_ID"),
			SSLDisable: getEnvBool("DB_SSL_MODE_DISABLE", false),
		},
		Auth: AuthConfig{
			JWTSecret:      os.Getenv("JWT_SECRET"),
			RSAPrivatePath: os.Getenv("AUTH_RSA_PRIVATE_PATH"),
			KID:            getEnv("AUTH_KID", "tirvu-1"),
			Issuer:         getEnv("AUTH_ISSUER", "tirvu-partners"),
			Audience:       getEnv("AUTH_AUDIENCE", "tirvu-partners-web"),
			AccessTTL:      getEnvDuration("ACCESS_TOKEN_TTL", 24*time.Hour),
			RefreshTTL:     getEnvDuration("REFRESH_TOKEN_TTL", 30*24*time.Hour),
			CookieSecure:   getEnvBool("COOKIE_SECURE", false),
		},
		Redis: RedisConfig{
			Addr: os.Getenv("REDIS_ADDR"),
			Pass: os.Getenv("REDIS_PASS"),
		},
		ZAPI: ZAPIConfig{
			Instance:    os.Getenv("ZAPI_INSTANCE"),
			Token:       os.Getenv("ZAPI_TOKEN"),
			ClientToken: os.Getenv("ZAPI_CLIENT_TOKEN"),
		},
		AllowedOrigins:    splitList(getEnv("ALLOWED_ORIGINS", "*")),
		N8NLeadWebhookURL: os.Getenv("N8N_LEAD_WEBHOOK_URL"),
		PortalURL:         os.Getenv("PORTAL_URL"),
		PipedriveRefField: os.Getenv("PIPEDRIVE_REF_FIELD"),
		ProofS3Bucket:     os.Getenv("PROOF_S3_BUCKET"),
		AWSRegion:         getEnv("AWS_REGION", "sa-east-1"),
		CleanupInterval:   getEnvDuration("CLEANUP_INTERVAL", time.Hour),
	}
}

// Location devolve o fuso usado para limites de mês e filtros por dia.
func (c AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
