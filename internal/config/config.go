package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config centraliza a configuração carregada do ambiente.
type Config struct {
	Port          int
	DBDSN         string
	RedisURL      string
	JWTAccessTTL  time.Duration
	JWTRefreshTTL time.Duration
	JWTSecret     string
	AllowOrigins  []string

	RateLimitPublic RateLimitConfig
	RateLimitAuth   RateLimitConfig

	// SessaoAssinaturaTTL limita a vida de uma sessão de posicionamento
	// de assinatura; expirada, as posições são descartadas sem efeito.
	SessaoAssinaturaTTL time.Duration

	// UploadMaxBytes limita o tamanho de documentos e comprovantes.
	UploadMaxBytes int64

	Storage     StorageConfig
	Diretorio   DiretorioConfig
	Notificacao NotificacaoConfig
}

// RateLimitConfig representa limites simples para throttling.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// StorageConfig descreve o backend de artefatos (original/assinado/comprovantes).
type StorageConfig struct {
	Provider          string
	S3Endpoint        string
	S3Region          string
	S3Bucket          string
	S3AccessKey       string
	S3SecretKey       string
	S3PublicURL       string
	FinalizadosPrefix string
}

// DiretorioConfig aponta para o serviço de diretório usado na autenticação.
type DiretorioConfig struct {
	Enabled bool
	BaseURL string
	Timeout time.Duration
}

// NotificacaoConfig configura o webhook de avisos aos aprovadores.
type NotificacaoConfig struct {
	WebhookURL string
}

// Load carrega variáveis de ambiente e aplica defaults seguros.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 {
		return nil, errors.New("PORT inválida")
	}
	cfg.Port = port

	cfg.DBDSN = getEnv("DB_DSN", "")
	if cfg.DBDSN == "" {
		return nil, errors.New("DB_DSN obrigatório")
	}

	cfg.RedisURL = getEnv("REDIS_URL", "")
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL obrigatório")
	}

	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", ""))
	if len(cfg.JWTSecret) < 32 {
		return nil, errors.New("JWT_SECRET deve ter pelo menos 32 caracteres")
	}

	accessTTL, err := parseDurationEnv("JWT_ACCESS_TTL", 15*time.Minute)
	if err != nil {
		return nil, err
	}
	cfg.JWTAccessTTL = accessTTL

	refreshTTL, err := parseDurationEnv("JWT_REFRESH_TTL", 30*24*time.Hour)
	if err != nil {
		return nil, err
	}
	cfg.JWTRefreshTTL = refreshTTL

	sessaoTTL, err := parseDurationEnv("SESSAO_ASSINATURA_TTL", 30*time.Minute)
	if err != nil {
		return nil, err
	}
	cfg.SessaoAssinaturaTTL = sessaoTTL

	maxMBStr := getEnv("UPLOAD_MAX_MB", "25")
	maxMB, err := strconv.Atoi(maxMBStr)
	if err != nil || maxMB <= 0 {
		return nil, errors.New("UPLOAD_MAX_MB inválido")
	}
	cfg.UploadMaxBytes = int64(maxMB) << 20

	allowOrigins := strings.Split(getEnv("ALLOW_ORIGINS", ""), ",")
	cfg.AllowOrigins = nil
	for _, origin := range allowOrigins {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			cfg.AllowOrigins = append(cfg.AllowOrigins, origin)
		}
	}

	cfg.RateLimitPublic = RateLimitConfig{RequestsPerSecond: 10, Burst: 20}
	cfg.RateLimitAuth = RateLimitConfig{RequestsPerSecond: 10, Burst: 40}

	cfg.Storage = StorageConfig{
		Provider:          getEnv("STORAGE_PROVIDER", "noop"),
		S3Endpoint:        getEnv("STORAGE_S3_ENDPOINT", ""),
		S3Region:          getEnv("STORAGE_S3_REGION", "auto"),
		S3Bucket:          getEnv("STORAGE_S3_BUCKET", ""),
		S3AccessKey:       getEnv("STORAGE_S3_ACCESS_KEY", ""),
		S3SecretKey:       getEnv("STORAGE_S3_SECRET_KEY", ""),
		S3PublicURL:       getEnv("STORAGE_S3_PUBLIC_URL", ""),
		FinalizadosPrefix: getEnv("STORAGE_FINALIZADOS_PREFIX", "finalizados"),
	}

	dirTimeout, err := parseDurationEnv("DIRETORIO_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}
	dirURL := strings.TrimRight(strings.TrimSpace(getEnv("DIRETORIO_URL", "")), "/")
	cfg.Diretorio = DiretorioConfig{
		Enabled: dirURL != "",
		BaseURL: dirURL,
		Timeout: dirTimeout,
	}

	cfg.Notificacao = NotificacaoConfig{
		WebhookURL: strings.TrimSpace(getEnv("NOTIFICACAO_WEBHOOK_URL", "")),
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	val := getEnv(key, "")
	if val == "" {
		return def, nil
	}
	dur, err := time.ParseDuration(val)
	if err != nil {
		return 0, errors.New(key + " inválido")
	}
	return dur, nil
}
