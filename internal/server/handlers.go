package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"lunastars/internal/accounts"
	"lunastars/internal/plays"
	"lunastars/internal/reveal"
	"lunastars/internal/session"
	"lunastars/internal/starfield"
	"lunastars/internal/wshub"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	playerCookie = "player_id"
	playCookie   = "play_id"

	maxStarfieldSide = 8192
)

// getPlay resolves the current play from the play_id cookie.
func (s *Server) getPlay(r *http.Request) *plays.Play {
	cookie, err := r.Cookie(playCookie)
	if err != nil {
		return nil
	}
	p := s.Plays.Get(cookie.Value)
	if p != nil {
		p.Touch(time.Now())
	}
	return p
}

// playerID returns the browser's player id, issuing one if it has none.
func (s *Server) playerID(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(playerCookie); err == nil {
		if _, err := uuid.Parse(cookie.Value); err == nil {
			return cookie.Value
		}
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     playerCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   365 * 24 * 60 * 60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

type homeData struct {
	User      *accounts.User
	HasPlay   bool
	Recipient string
	Threshold int
	Duration  int
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	data := homeData{
		HasPlay:   s.getPlay(r) != nil,
		Recipient: s.Config.Recipient,
		Threshold: s.Config.WinThreshold,
		Duration:  s.Config.GameDuration,
	}
	if cookie, err := r.Cookie(playerCookie); err == nil {
		sess := s.accountSession(cookie.Value)
		if err := sess.Load(); err == nil {
			data.User = sess.User()
		}
	}
	if err := s.Tmpl.ExecuteTemplate(w, "home", data); err != nil {
		s.Logger.Error("render home", zap.Error(err))
		http.Error(w, "Error rendering home page", http.StatusInternalServerError)
	}
}

func (s *Server) handleNewPlay(w http.ResponseWriter, r *http.Request) {
	playerID := s.playerID(w, r)

	if old := s.getPlay(r); old != nil {
		s.Plays.Delete(old.ID)
	}

	if s.DB != nil {
		name := "guest"
		sess := s.accountSession(playerID)
		if err := sess.Load(); err == nil && sess.IsAuthenticated() {
			name = sess.User().Username
		}
		if err := s.DB.UpsertPlayer(playerID, name); err != nil {
			s.Logger.Error("upsert player", zap.Error(err))
		}
	}

	p, err := s.Plays.Create(playerID)
	if err != nil {
		s.Logger.Error("create play", zap.Error(err))
		http.Error(w, "Failed to create play", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     playCookie,
		Value:    p.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/play", http.StatusSeeOther)
}

type playData struct {
	PlayID    string
	State     session.Snapshot
	Recipient string
	Sender    string
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	p := s.getPlay(r)
	if p == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	data := playData{
		PlayID:    p.ID,
		State:     p.Controller.Snapshot(),
		Recipient: s.Letter.Recipient,
		Sender:    s.Letter.Sender,
	}
	if err := s.Tmpl.ExecuteTemplate(w, "play", data); err != nil {
		s.Logger.Error("render play", zap.Error(err))
		http.Error(w, "Error rendering play page", http.StatusInternalServerError)
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	p := s.getPlay(r)
	if p == nil {
		http.Error(w, "Play not found", http.StatusNotFound)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.Logger.Warn("websocket accept", zap.Error(err))
		return
	}
	defer conn.CloseNow()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	client := &wshub.Client{
		ID:   uuid.NewString(),
		Conn: conn,
		Send: make(chan []byte, 64),
	}
	p.Hub.Register(client)
	defer p.Hub.Unregister(client.ID)
	s.Metrics.SocketClients.Inc()
	defer s.Metrics.SocketClients.Dec()

	go client.WritePump(ctx)
	s.sendState(p, client.ID)

	for {
		var msg wshub.ClientMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			return
		}
		p.Touch(time.Now())

		switch msg.Type {
		case wshub.MsgStart:
			if !p.Controller.Start() {
				// deferred or refused: the client still needs to see it
				s.sendState(p, client.ID)
			}
		case wshub.MsgCollect:
			p.Controller.Collect(msg.ItemID)
		case wshub.MsgReset:
			p.Controller.Reset()
		case wshub.MsgResize:
			p.Controller.Resize(msg.Width, msg.Height)
		default:
			s.Logger.Debug("unknown client message", zap.String("type", msg.Type))
		}
	}
}

func (s *Server) sendState(p *plays.Play, clientID string) {
	snap := p.Controller.Snapshot()
	p.Hub.SendTo(clientID, wshub.ServerMessage{Type: wshub.MsgState, State: &snap})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	p := s.getPlay(r)
	if p == nil {
		http.Error(w, "Play not found", http.StatusNotFound)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	msgChan := p.Broadcaster.Subscribe()
	defer p.Broadcaster.Unsubscribe(msgChan)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-msgChan:
			if !ok {
				return
			}
			if err := writeEvent(w, msg.Event, msg.Data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, event, data string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "event: %s\n", event)
	for _, line := range strings.Split(data, "\n") {
		fmt.Fprintf(&b, "data: %s\n", line)
	}
	b.WriteString("\n")
	_, err := io.WriteString(w, b.String())
	return err
}

// completedPlay returns the current play if its letter has been earned.
func (s *Server) completedPlay(w http.ResponseWriter, r *http.Request) *plays.Play {
	p := s.getPlay(r)
	if p == nil {
		http.Error(w, "Play not found", http.StatusNotFound)
		return nil
	}
	if p.Controller.Phase() != session.PhaseCompleted {
		http.Error(w, "Collect the stars first", http.StatusConflict)
		return nil
	}
	return p
}

// handleLetterStream types the letter out as server-sent events. Each letter
// event carries the newly revealed characters as a JSON string; done follows
// the last one. ?skip=1 sends the whole text at once.
func (s *Server) handleLetterStream(w http.ResponseWriter, r *http.Request) {
	if s.completedPlay(w, r) == nil {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	tw := reveal.NewTypewriter(s.Letter.Text())
	sent := 0
	emit := func(visible string) error {
		chunk, err := json.Marshal(visible[sent:])
		if err != nil {
			return err
		}
		sent = len(visible)
		if err := writeEvent(w, "letter", string(chunk)); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	var err error
	if r.URL.Query().Get("skip") == "1" {
		err = emit(tw.Skip())
	} else {
		err = tw.Run(r.Context(), reveal.DefaultInterval, emit)
	}
	if err != nil {
		s.Logger.Debug("letter stream ended early", zap.Error(err))
		return
	}
	if err := writeEvent(w, "done", "{}"); err != nil {
		return
	}
	flusher.Flush()
}

func (s *Server) handleLetterDownload(w http.ResponseWriter, r *http.Request) {
	if s.completedPlay(w, r) == nil {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", s.Letter.Filename()))
	fmt.Fprint(w, s.Letter.Text())
}

type starfieldResponse struct {
	Width  float64          `json:"width"`
	Height float64          `json:"height"`
	Stars  []starfield.Star `json:"stars"`
}

// validSide rejects NaN, infinities and sizes outside [0, maxStarfieldSide].
func validSide(v float64) bool {
	return v >= 0 && v <= maxStarfieldSide
}

// handleStarfield returns a fresh star layout for a canvas of w by h pixels.
func (s *Server) handleStarfield(w http.ResponseWriter, r *http.Request) {
	width, errW := strconv.ParseFloat(r.URL.Query().Get("w"), 64)
	height, errH := strconv.ParseFloat(r.URL.Query().Get("h"), 64)
	if errW != nil || errH != nil || !validSide(width) || !validSide(height) {
		http.Error(w, "w and h must be sizes in pixels", http.StatusBadRequest)
		return
	}

	rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	writeJSON(w, http.StatusOK, starfieldResponse{
		Width:  width,
		Height: height,
		Stars:  starfield.Generate(width, height, rng),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{"status": "ok", "plays": s.Plays.Len()}
	if s.DB != nil {
		if err := s.DB.Ping(); err != nil {
			status["status"] = "db_error"
			status["error"] = err.Error()
			writeJSON(w, http.StatusServiceUnavailable, status)
			return
		}
	}
	writeJSON(w, http.StatusOK, status)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
