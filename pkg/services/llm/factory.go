package llm

import (
	"github.com/liut/typist/pkg/models/aigc"
	"github.com/liut/typist/pkg/settings"
)

// NewFromSettings picks the provider by which key is configured:
// DeepSeek, then OpenAI, then the local responder.
func NewFromSettings(cfg *settings.Config, preset aigc.Preset) Provider {
	oc := OpenAIConfig{
		BaseURL:     cfg.LLMBaseURL,
		Model:       cfg.ChatModel,
		Temperature: cfg.Temperature,
		Timeout:     cfg.LLMTimeout,
	}
	if len(preset.Model) > 0 {
		oc.Model = preset.Model
	}
	if preset.Temperature > 0 {
		oc.Temperature = preset.Temperature
	}
	switch {
	case len(cfg.DeepSeekAPIKey) > 0:
		oc.Name, oc.APIKey = "deepseek", cfg.DeepSeekAPIKey
		if len(oc.BaseURL) == 0 {
			oc.BaseURL = DeepSeekBaseURL
		}
		if len(oc.Model) == 0 {
			oc.Model = DeepSeekModel
		}
		return NewOpenAI(oc)
	case len(cfg.OpenAIAPIKey) > 0:
		oc.Name, oc.APIKey = "openai", cfg.OpenAIAPIKey
		return NewOpenAI(oc)
	}
	return NewLocal(preset)
}
