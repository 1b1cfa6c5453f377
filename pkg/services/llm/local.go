package llm

import (
	"context"
	"fmt"
	"hash/fnv"
	"io"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/liut/typist/pkg/models/aigc"
)

// Greeting is the fixed reply to a hello
const Greeting = "您好！我是您的AI助手，很高兴为您服务。有什么我可以帮助您的吗？"

var greetReplies = aigc.Replies{
	{Keywords: []string{"你好", "hello"}, Text: Greeting},
}

// checked after the time keywords
var dftReplies = aigc.Replies{
	{Keywords: []string{"天气", "weather"}, Text: "抱歉，我目前无法获取实时天气信息。建议您查看天气应用或网站获取准确的天气预报。"},
	{Keywords: []string{"帮助", "help"}, Text: "我可以帮助您回答问题、提供建议、进行对话等。请随时向我提问！"},
}

var timeKeywords = []string{"时间", "time"}

var dftFallbacks = []string{
	"我理解您的问题。让我为您详细解释一下...",
	"这是一个很好的问题。根据我的理解...",
	"感谢您的提问。我认为...",
	"关于这个问题，我可以从以下几个方面来回答...",
	"您提到的这一点很重要。让我为您分析一下...",
}

// Local answers with keyword-matched canned replies, used when no provider key is set.
type Local struct {
	replies   aigc.Replies // preset and greeting
	topics    aigc.Replies
	fallbacks []string
	now       func() time.Time
	lower     cases.Caser
}

var _ Provider = (*Local)(nil)

// NewLocal builds a responder, replies from preset take precedence over the built-in ones.
func NewLocal(preset aigc.Preset) *Local {
	l := &Local{
		replies:   append(append(aigc.Replies{}, preset.Replies...), greetReplies...),
		topics:    dftReplies,
		fallbacks: dftFallbacks,
		now:       time.Now,
		lower:     cases.Lower(language.Und),
	}
	if len(preset.Fallbacks) > 0 {
		l.fallbacks = preset.Fallbacks
	}
	return l
}

func (l *Local) Name() string { return "local" }

// Reply returns the canned answer for text. The same text always gets the same answer,
// except for the current time.
func (l *Local) Reply(text string) string {
	msg := l.lower.String(text)
	for _, r := range l.replies {
		if containsAny(msg, r.Keywords) {
			return r.Text
		}
	}
	if containsAny(msg, timeKeywords) {
		return "当前时间是：" + l.now().Format("2006/1/2 15:04:05")
	}
	for _, r := range l.topics {
		if containsAny(msg, r.Keywords) {
			return r.Text
		}
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(text))
	head := l.fallbacks[int(h.Sum32()%uint32(len(l.fallbacks)))]
	return head + fmt.Sprintf(" 您说的是关于\"%s\"的问题，这是一个很有趣的话题。", text)
}

func (l *Local) Complete(ctx context.Context, messages aigc.Messages) (string, error) {
	prompt, _ := messages.LastOf(aigc.RoleUser)
	return l.Reply(prompt), nil
}

// Stream delivers the whole reply as one chunk
func (l *Local) Stream(ctx context.Context, messages aigc.Messages) (ChunkStream, error) {
	text, err := l.Complete(ctx, messages)
	if err != nil {
		return nil, err
	}
	return &onceStream{chunk: Chunk{Content: text, FinishReason: "stop"}}, nil
}

type onceStream struct {
	chunk Chunk
	sent  bool
}

func (s *onceStream) Recv() (Chunk, error) {
	if s.sent {
		return Chunk{}, io.EOF
	}
	s.sent = true
	return s.chunk, nil
}

func (s *onceStream) Close() error { s.sent = true; return nil }

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if len(k) > 0 && strings.Contains(s, strings.ToLower(k)) {
			return true
		}
	}
	return false
}
