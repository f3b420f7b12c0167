package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Settings contains the application config
type Settings struct {
	Port        int    `env:"PORT" envDefault:"8080"`
	MonPort     int    `env:"MON_PORT" envDefault:"8888"`
	EnablePprof bool   `env:"ENABLE_PPROF"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"wecom-relay"`

	// WeCom server API and callback credentials.
	WecomAPIBaseURL string `env:"WECOM_API_BASE_URL" envDefault:"https://qyapi.weixin.qq.com"`
	WecomCorpID     string `env:"WECOM_CORP_ID"`
	WecomCorpSecret string `env:"WECOM_CORP_SECRET"`
	WecomAgentID    int64  `env:"WECOM_AGENT_ID"`
	// CallbackToken is the shared token the callback signature scheme
	// is computed over.
	CallbackToken string `env:"WECOM_CALLBACK_TOKEN"`
	// EncodingAESKey is the 43-character key material for challenge
	// decryption, as issued in the WeCom app's callback settings.
	EncodingAESKey string `env:"WECOM_ENCODING_AES_KEY"`

	// Backend function host that verified callbacks are forwarded to.
	BackendBaseURL string        `env:"BACKEND_BASE_URL"`
	BackendTimeout time.Duration `env:"BACKEND_TIMEOUT" envDefault:"30s"`

	// TokenSafetyWindow is subtracted from the token TTL reported by
	// the platform so a cached token is refreshed before it expires.
	TokenSafetyWindow time.Duration `env:"TOKEN_SAFETY_WINDOW" envDefault:"60s"`
}

// LoadSettings reads the optional env file and parses Settings from the
// environment.
func LoadSettings(envFile string) (Settings, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return Settings{}, fmt.Errorf("failed to load env file %q: %w", envFile, err)
		}
	}
	settings, err := env.ParseAs[Settings]()
	if err != nil {
		return Settings{}, fmt.Errorf("failed to parse settings from environment: %w", err)
	}
	return settings, nil
}
