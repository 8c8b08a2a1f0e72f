package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Configはアプリ全体の設定
type Config struct {
	Port   string // サーバーポート（8080）
	GoEnv  string // development/production
	AppURL string // 決済後の戻り先・通知URLの組み立てに使う

	JWTSecret string // JWT署名シークレット

	// 起動時に作る管理者。どちらか空なら作らない
	AdminEmail    string
	AdminPassword string

	// Mercado Pago
	MPAccessToken        string
	MPAPIBase            string
	MPWebhookSecret      string        // 空なら署名検証はmissing_secret扱い
	MPWebhookPolicy      string        // strict / compat / skip_signature
	MPHTTPTimeout        time.Duration // 支払い取得のタイムアウト
	WebhookInflightLease time.Duration // RECEIVEDのまま他の配信を待たせる時間

	// Redis（ログイン失敗回数）。空なら制限なし
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	LoginMaxAttempts int
	LoginWindow      time.Duration

	// Kafka（注文イベント）。空なら送らない
	KafkaBrokers          []string
	KafkaTopicOrderEvents string
}

// Loadは環境変数
func Load() (Config, error) {
	redisDB, err := atoiDefault("REDIS_DB", 0)
	if err != nil {
		return Config{}, err
	}
	maxAttempts, err := atoiDefault("LOGIN_MAX_ATTEMPTS", 5)
	if err != nil {
		return Config{}, err
	}
	mpTimeout, err := durationDefault("MP_HTTP_TIMEOUT", 10*time.Second)
	if err != nil {
		return Config{}, err
	}
	lease, err := durationDefault("WEBHOOK_INFLIGHT_LEASE", 60*time.Second)
	if err != nil {
		return Config{}, err
	}
	loginWindow, err := durationDefault("LOGIN_WINDOW", 15*time.Minute)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port:   strings.TrimPrefix(getenv("PORT", "8080"), ":"),
		GoEnv:  getenv("GO_ENV", "development"),
		AppURL: strings.TrimRight(getenv("APP_URL", "http://localhost:3000"), "/"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		AdminEmail:    strings.TrimSpace(os.Getenv("ADMIN_EMAIL")),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),

		MPAccessToken:        os.Getenv("MP_ACCESS_TOKEN"),
		MPAPIBase:            getenv("MP_API_BASE", "https://api.mercadopago.com"),
		MPWebhookSecret:      os.Getenv("MP_WEBHOOK_SECRET"),
		MPWebhookPolicy:      getenv("MP_WEBHOOK_POLICY", "compat"),
		MPHTTPTimeout:        mpTimeout,
		WebhookInflightLease: lease,

		RedisAddr:        os.Getenv("REDIS_ADDR"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		RedisDB:          redisDB,
		LoginMaxAttempts: maxAttempts,
		LoginWindow:      loginWindow,

		KafkaBrokers:          splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopicOrderEvents: getenv("KAFKA_TOPIC_ORDER_EVENTS", "order-events"),
	}

	//必須チェック
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.LoginMaxAttempts <= 0 {
		return Config{}, fmt.Errorf("LOGIN_MAX_ATTEMPTS must be positive")
	}
	if cfg.WebhookInflightLease < 0 {
		return Config{}, fmt.Errorf("WEBHOOK_INFLIGHT_LEASE must not be negative")
	}

	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.GoEnv == "production"
}

func getenv(key string, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func atoiDefault(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

// "10s" などのDuration表記。数字だけなら秒
func durationDefault(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be duration: %w", key, err)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
