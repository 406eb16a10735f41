// Package desktop runs a game session frame by frame for a native window. It
// holds no rendering code: the window adapter feeds it input once per update
// and draws the View it returns.
package desktop

import (
	"errors"
	"fmt"
	"lunastars/internal/accounts"
	"lunastars/internal/items"
	"lunastars/internal/reveal"
	"lunastars/internal/session"
	"lunastars/internal/starfield"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// GameID names this game in a user's high scores.
const GameID = "luna-stars"

const (
	DefaultTPS = 60
	toastTicks = 150 // 2.5s at 60 TPS
)

// ErrQuit is returned from Update when the player asks to leave.
var ErrQuit = errors.New("quit")

// Rand is the random source for item placement and the starfield.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

// Input is what the player did since the previous update.
type Input struct {
	Clicked bool
	X, Y    float64
	Primary bool // space or enter
	Reset   bool
	Save    bool
	Quit    bool
}

type Toast struct {
	Title   string
	Message string
}

// View is everything the window needs to draw one frame.
type View struct {
	Phase      session.Phase
	Score      int
	TimeLeft   int
	Threshold  int
	Items      []items.Item
	Stars      []starfield.Point
	Toast      *Toast
	Letter     string
	LetterDone bool
	User       string
	Notice     string
}

type Options struct {
	Config  session.Config
	Letter  reveal.Letter
	Account *accounts.Session // nil plays signed out
	Logger  *zap.Logger
	Rand    Rand
	TPS     int
	SaveDir string // where the letter is saved, default the working directory
}

type Game struct {
	c       *session.Controller
	field   *starfield.Field
	stars   *starfield.Animator
	letter  reveal.Letter
	account *accounts.Session
	logger  *zap.Logger
	tps     int
	saveDir string

	ticks      int
	startTick  int
	toast      *Toast
	toastUntil int
	tw         *reveal.Typewriter
	notice     string
	width      int
	height     int
}

func New(opts Options) *Game {
	if opts.TPS <= 0 {
		opts.TPS = DefaultTPS
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	g := &Game{
		c:       session.NewController(opts.Config, items.NewStore(), nil, opts.Rand),
		field:   starfield.New(opts.Rand),
		letter:  opts.Letter,
		account: opts.Account,
		logger:  opts.Logger.Named("desktop"),
		tps:     opts.TPS,
		saveDir: opts.SaveDir,
	}
	g.stars = starfield.NewAnimator(g.field, time.Second/time.Duration(opts.TPS))
	g.c.SetHooks(session.Hooks{
		OnStart:   g.onStart,
		OnCollect: g.onCollect,
		OnEnd:     g.onEnd,
	})
	return g
}

func (g *Game) Controller() *session.Controller {
	return g.c
}

// Resize is called with the window size; it regenerates the starfield and may
// run a deferred start.
func (g *Game) Resize(width, height int) {
	if width == g.width && height == g.height {
		return
	}
	g.width, g.height = width, height
	g.field.Resize(float64(width), float64(height))
	g.c.Resize(float64(width), float64(height))
}

// Update advances one frame.
func (g *Game) Update(in Input) error {
	if in.Quit {
		return ErrQuit
	}
	g.ticks++
	g.stars.Step()
	if g.toast != nil && g.ticks >= g.toastUntil {
		g.toast = nil
	}

	switch g.c.Phase() {
	case session.PhaseNotStarted:
		if in.Primary || in.Clicked {
			g.c.Start()
		}
	case session.PhaseStarted:
		if in.Clicked {
			if it, ok := g.c.Items.ItemAt(in.X, in.Y, items.ItemSize/2); ok {
				g.c.Collect(it.ID)
			}
		}
		if g.c.Config.Motion {
			g.c.Advance()
		}
		// the countdown may have been ended by a click above
		if g.c.Phase() == session.PhaseStarted && (g.ticks-g.startTick)%g.tps == 0 {
			g.c.Tick()
		}
	case session.PhaseCompleted:
		g.updateReveal(in)
	}
	return nil
}

func (g *Game) updateReveal(in Input) {
	switch {
	case in.Reset:
		g.c.Reset()
		g.tw = nil
		g.notice = ""
		return
	case in.Save:
		if path, err := g.SaveLetter(); err != nil {
			g.logger.Error("save letter", zap.Error(err))
			g.notice = "Could not save the letter"
		} else {
			g.notice = "Saved to " + path
		}
	}
	if g.tw == nil {
		return
	}
	if in.Primary || in.Clicked {
		g.tw.Skip()
		return
	}
	step := g.tps * int(reveal.DefaultInterval) / int(time.Second)
	if step < 1 {
		step = 1
	}
	if g.ticks%step == 0 {
		g.tw.Next()
	}
}

// SaveLetter writes the letter to the save directory and returns its path.
func (g *Game) SaveLetter() (string, error) {
	path := filepath.Join(g.saveDir, g.letter.Filename())
	if err := os.WriteFile(path, []byte(g.letter.Text()), 0o644); err != nil {
		return "", fmt.Errorf("writing letter: %w", err)
	}
	return path, nil
}

func (g *Game) onStart(attempt int, _ time.Time) {
	g.startTick = g.ticks
	g.toast = nil
	g.logger.Debug("attempt started", zap.Int("attempt", attempt))
}

func (g *Game) onCollect(item items.Item, _ int, _ time.Time) {
	g.showToast(item.Category.Title(), item.Category.Message())
}

func (g *Game) onEnd(res session.Result) {
	g.logger.Info("attempt ended",
		zap.String("outcome", string(res.Outcome)),
		zap.Int("score", res.Score))

	if res.Outcome == session.OutcomeTimeout {
		g.showToast("Time's up!", fmt.Sprintf("You collected %d stars. Try again to collect at least %d!",
			res.Score, g.c.Config.WinThreshold))
		return
	}

	g.toast = nil
	g.tw = reveal.NewTypewriter(g.letter.Text())
	if g.account != nil && g.account.RecordScore(GameID, res.Score) {
		if err := g.account.Save(); err != nil {
			g.logger.Error("save high score", zap.Error(err))
		}
	}
}

func (g *Game) showToast(title, message string) {
	g.toast = &Toast{Title: title, Message: message}
	g.toastUntil = g.ticks + toastTicks
}

func (g *Game) View() View {
	snap := g.c.Snapshot()
	v := View{
		Phase:     snap.Phase,
		Score:     snap.Score,
		TimeLeft:  snap.TimeLeft,
		Threshold: snap.Threshold,
		Stars:     g.stars.Current(),
		Toast:     g.toast,
		Notice:    g.notice,
	}
	if snap.Phase == session.PhaseStarted {
		v.Items = g.c.Items.Remaining()
	}
	if g.tw != nil && snap.Phase == session.PhaseCompleted {
		v.Letter = g.tw.Visible()
		v.LetterDone = g.tw.Done()
	}
	if g.account != nil {
		if u := g.account.User(); u != nil {
			v.User = u.Username
		}
	}
	return v
}
