package stores

import (
	"sync"

	"github.com/liut/typist/pkg/models/aigc"
)

const (
	HistoryMaxLength = 20
	ContextWindow    = 10
)

// ConversationStore keeps a bounded log of turns per user id, in memory only.
type ConversationStore interface {
	// Append adds turn to the end of the user's log, creating it if absent
	Append(userID string, turn aigc.Message)
	// RecentWindow returns a copy of the last n turns
	RecentWindow(userID string, n int) aigc.Messages
	// Truncate drops turns from the front until length <= max
	Truncate(userID string, max int)
	// Clear removes the whole log, clearing an absent user is fine
	Clear(userID string)
	// History returns a copy of the whole log
	History(userID string) aigc.Messages
}

// NewConversations returns an empty store, build one per process and pass it around.
func NewConversations() *Conversations {
	return &Conversations{logs: make(map[string]aigc.Messages)}
}

// Conversations implements ConversationStore
type Conversations struct {
	mu   sync.RWMutex
	logs map[string]aigc.Messages
}

var _ ConversationStore = (*Conversations)(nil)

func (s *Conversations) Append(userID string, turn aigc.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs[userID] = append(s.logs[userID], turn)
	logger().Debugw("add history ok", "uid", userID, "role", turn.Role, "size", len(s.logs[userID]))
}

func (s *Conversations) RecentWindow(userID string, n int) aigc.Messages {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.logs[userID].Recent(n)
}

func (s *Conversations) Truncate(userID string, max int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.logs[userID]
	if !ok || len(data) <= max {
		return
	}
	logger().Infow("history length overflow", "uid", userID, "count", len(data), "max", max)
	// copy to a fresh slice so the evicted head can be collected
	s.logs[userID] = data.Recent(max)
}

func (s *Conversations) Clear(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.logs, userID)
}

func (s *Conversations) History(userID string) aigc.Messages {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data := s.logs[userID]
	return data.Recent(len(data))
}

// Len returns size of the user's log
func (s *Conversations) Len(userID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.logs[userID])
}
