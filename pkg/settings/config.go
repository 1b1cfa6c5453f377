package settings

import (
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// consts
const (
	Name = "Typist"
)

// Config ...
type Config struct {
	Name    string `ignored:"true"`
	Version string `ignored:"true"`
	Develop bool   `envconfig:"DEVELOP"`

	HTTPListen   string   `envconfig:"HTTP_LISTEN" default:":3001"`
	AllowOrigins []string `envconfig:"allow_origins" default:"*"` // websocket: 允许的 Origin 调用来源

	DeepSeekAPIKey string        `envconfig:"DEEPSEEK_API_KEY"`
	OpenAIAPIKey   string        `envconfig:"openAi_Api_Key"`
	LLMBaseURL     string        `envconfig:"LLM_BASE_URL"`
	ChatModel      string        `envconfig:"CHAT_MODEL"`
	LLMTimeout     time.Duration `envconfig:"LLM_TIMEOUT" default:"60s"`
	Temperature    float32       `envconfig:"TEMPERATURE" default:"0.7"`
	SystemPrompt   string        `envconfig:"SYSTEM_PROMPT" default:"You are a helpful assistant."`
	PresetFile     string        `envconfig:"preset_file"`

	HistoryCap    int `envconfig:"HISTORY_CAP" default:"20"`
	ContextWindow int `envconfig:"CONTEXT_WINDOW" default:"10"`

	RateLimit       string `envconfig:"RATE_LIMIT" default:"60-M"`
	LimiterRedisURI string `envconfig:"LIMITER_REDIS_URI"`

	// client side
	ServerURL     string        `envconfig:"SERVER_URL" default:"http://localhost:3001"`
	TypingCadence time.Duration `envconfig:"TYPING_CADENCE" default:"30ms"`
	LogFile       string        `envconfig:"LOG_FILE" default:"typist-chat.log"`
}

var (
	// Current 当前配置
	Current = new(Config)
)

func init() {
	if err := envconfig.Process(Name, Current); err != nil {
		log.Printf("envconfig process fail: %s", err)
	}

	Current.Name = Name
	Current.Version = version
}

// Usage 打印配置帮助
func Usage() error {
	log.Printf("ver: %s", Current.Version)
	return envconfig.Usage(Current.Name, Current)
}

// InDevelop ...
func InDevelop() bool {
	return Current.Develop
}

// AllowAllOrigins ...
func AllowAllOrigins() bool {
	return 0 == len(Current.AllowOrigins) ||
		1 == len(Current.AllowOrigins) && Current.AllowOrigins[0] == "*"
}

// AllowOrigin reports whether origin is listed in AllowOrigins
func AllowOrigin(origin string) bool {
	if AllowAllOrigins() {
		return true
	}
	for _, o := range Current.AllowOrigins {
		if o == origin {
			return true
		}
	}
	return false
}
