package aigc

// Reply is a canned answer of the local responder
type Reply struct {
	Keywords []string `json:"keywords" yaml:"keywords"`
	Text     string   `json:"text" yaml:"text"`
}

type Replies []Reply

type Preset struct {
	SystemPrompt string   `json:"systemPrompt,omitempty" yaml:"systemPrompt,omitempty"`
	Welcome      *Message `json:"welcome,omitempty" yaml:"welcome,omitempty"`
	Model        string   `json:"model,omitempty" yaml:"model,omitempty"`
	Temperature  float32  `json:"temperature,omitempty" yaml:"temperature,omitempty"`

	// local responder, used without any provider key
	Replies   Replies  `json:"replies,omitempty" yaml:"replies,omitempty"`
	Fallbacks []string `json:"fallbacks,omitempty" yaml:"fallbacks,omitempty"`
}
