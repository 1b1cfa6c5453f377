package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/gorilla/websocket"
	"github.com/jpillora/eventsource"
	"github.com/marcsv/go-binder/binder"
	"github.com/spf13/cast"

	"github.com/liut/typist/pkg/models/aigc"
	"github.com/liut/typist/pkg/services/llm"
	"github.com/liut/typist/pkg/services/relay"
	"github.com/liut/typist/pkg/settings"
)

const (
	dftUserID  = "default"
	dftWelcome = llm.Greeting

	msgHistoryCleared = "conversation history cleared"
)

// ChatRequest body of POST /api/chat
type ChatRequest struct {
	Message string `json:"message"`
	UserID  string `json:"userId"`
	Stream  any    `json:"stream,omitempty"` // bool, "true" or 1, default true
}

func (p *ChatRequest) IsStream() bool {
	if p.Stream == nil {
		return true
	}
	return cast.ToBool(p.Stream)
}

func userIDOr(uid string) string {
	if uid = strings.TrimSpace(uid); len(uid) > 0 {
		return uid
	}
	return dftUserID
}

func (s *server) postChat(w http.ResponseWriter, r *http.Request) {
	var param ChatRequest
	if err := binder.BindBody(r, &param); err != nil {
		apiFail(w, r, 400, err)
		return
	}
	req := relay.Request{UserID: userIDOr(param.UserID), Message: param.Message}
	if err := req.Validate(); err != nil {
		apiFail(w, r, 400, err)
		return
	}
	logger().Infow("chat", "uid", req.UserID, "stream", param.Stream, "ip", r.RemoteAddr)

	if flusher, ok := w.(http.Flusher); ok && param.IsStream() {
		s.chatStreamResponse(req, w, flusher, r)
		return
	}

	res, err := s.rl.Complete(r.Context(), req)
	if err != nil {
		apiFail(w, r, 400, err)
		return
	}
	render.JSON(w, r, res)
}

func (s *server) chatStreamResponse(req relay.Request, w http.ResponseWriter, flusher http.Flusher, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	em := relay.EmitterFunc(func(ev aigc.StreamEvent) error {
		if err := writeEvent(w, "", ev); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})
	if err := s.rl.Stream(r.Context(), req, em); err != nil {
		logger().Infow("chat stream end", "uid", req.UserID, "err", err)
	}
}

// writeEvent write one frame, id is omitted when empty
func writeEvent(w io.Writer, id string, m any) error {
	var b []byte
	var err error
	if s, ok := m.(string); ok {
		b = []byte(s)
	} else {
		b, err = json.Marshal(m)
		if err != nil {
			logger().Infow("json marshal fail", "m", m, "err", err)
			return err
		}
	}

	if err = eventsource.WriteEvent(w, eventsource.Event{
		ID:   id,
		Data: b,
	}); err != nil {
		logger().Infow("eventsource write fail", "err", err)
		return err
	}

	return nil
}

type wsRequest struct {
	Message string `json:"message"`
}

// wsEmitter sends one event per text message
type wsEmitter struct {
	conn *websocket.Conn
}

func (e *wsEmitter) Emit(ev aigc.StreamEvent) error {
	return e.conn.WriteJSON(ev)
}

func (s *server) chatWS(w http.ResponseWriter, r *http.Request) {
	uid := userIDOr(r.URL.Query().Get("userId"))
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger().Infow("websocket upgrade fail", "uid", uid, "err", err)
		return
	}
	defer conn.Close()
	logger().Infow("websocket connected", "uid", uid, "ip", r.RemoteAddr)

	em := &wsEmitter{conn: conn}
	for {
		var in wsRequest
		if err = conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger().Infow("websocket read fail", "uid", uid, "err", err)
			}
			return
		}
		err = s.rl.Stream(r.Context(), relay.Request{UserID: uid, Message: in.Message}, em)
		if errors.Is(err, relay.ErrInvalidInput) {
			if err = em.Emit(aigc.ErrorEvent(err.Error())); err != nil {
				return
			}
			continue
		}
		if err != nil {
			logger().Infow("websocket stream end", "uid", uid, "err", err)
			return
		}
	}
}

func (s *server) getWelcome(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, M{"message": s.cfg.Welcome})
}

func (s *server) getInfo(w http.ResponseWriter, r *http.Request) {
	apiOk(w, r, M{
		"name":     settings.Current.Name,
		"version":  settings.Current.Version,
		"provider": s.rl.Provider().Name(),
	})
}

func (s *server) getHistory(w http.ResponseWriter, r *http.Request) {
	data := s.sto.History(chi.URLParam(r, "uid"))
	if data == nil {
		data = aigc.Messages{}
	}
	render.JSON(w, r, M{"history": data})
}

func (s *server) deleteHistory(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")
	s.sto.Clear(uid)
	logger().Infow("history cleared", "uid", uid)
	render.JSON(w, r, M{"message": msgHistoryCleared})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, M{"status": "ok", "timestamp": time.Now()})
}
