package main

import (
	"errors"
	"fmt"
	"image/color"
	"lunastars/internal/accounts"
	"lunastars/internal/config"
	"lunastars/internal/desktop"
	"lunastars/internal/logging"
	"lunastars/internal/reveal"
	"lunastars/internal/server"
	"lunastars/internal/session"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	appName      = "lunastars"
	deviceKey    = "desktop"
	windowWidth  = 960
	windowHeight = 640
)

var (
	verbose    bool
	configPath string
	email      string
	password   string

	cfg     config.Config
	logger  *zap.Logger
	account *accounts.Session
)

var background = color.RGBA{R: 11, G: 16, B: 38, A: 255}

// window adapts desktop.Game to ebiten.
type window struct {
	game *desktop.Game
}

func (w *window) Update() error {
	in := desktop.Input{
		Primary: inpututil.IsKeyJustPressed(ebiten.KeySpace) || inpututil.IsKeyJustPressed(ebiten.KeyEnter),
		Reset:   inpututil.IsKeyJustPressed(ebiten.KeyR),
		Save:    inpututil.IsKeyJustPressed(ebiten.KeyS),
		Quit:    inpututil.IsKeyJustPressed(ebiten.KeyEscape),
	}
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		x, y := ebiten.CursorPosition()
		in.Clicked, in.X, in.Y = true, float64(x), float64(y)
	}
	err := w.game.Update(in)
	if errors.Is(err, desktop.ErrQuit) {
		return ebiten.Termination
	}
	return err
}

func (w *window) Draw(screen *ebiten.Image) {
	screen.Fill(background)
	v := w.game.View()

	for _, p := range v.Stars {
		a := uint8(p.Opacity * 255)
		vector.DrawFilledCircle(screen, float32(p.X), float32(p.Y), float32(p.Radius)+0.5, color.RGBA{R: a, G: a, B: a, A: a}, true)
	}

	for _, it := range v.Items {
		vector.DrawFilledCircle(screen, float32(it.X), float32(it.Y), float32(it.Size/2), parseHex(it.Color), true)
	}

	hud := fmt.Sprintf("Score: %d / %d    Time: %ds", v.Score, v.Threshold, v.TimeLeft)
	if v.User != "" {
		hud += "    " + v.User
	}
	ebitenutil.DebugPrintAt(screen, hud, 10, 10)

	sw, sh := screen.Bounds().Dx(), screen.Bounds().Dy()
	switch {
	case v.Letter != "" || v.LetterDone:
		vector.DrawFilledRect(screen, 40, 40, float32(sw-80), float32(sh-80), color.RGBA{R: 20, G: 24, B: 60, A: 230}, true)
		ebitenutil.DebugPrintAt(screen, v.Letter, 60, 60)
		hint := "click to show all"
		if v.LetterDone {
			hint = "S: save letter    R: play again    Esc: quit"
		}
		ebitenutil.DebugPrintAt(screen, hint, 60, sh-70)
	case v.Phase == session.PhaseNotStarted:
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("Hi %s! Collect %d stars to reveal a message.", cfg.Recipient, v.Threshold), sw/2-150, sh/2-10)
		ebitenutil.DebugPrintAt(screen, "Click or press space to start", sw/2-100, sh/2+10)
	}

	if v.Toast != nil {
		vector.DrawFilledRect(screen, float32(sw/2-220), float32(sh-90), 440, 50, color.RGBA{R: 49, G: 46, B: 129, A: 230}, true)
		ebitenutil.DebugPrintAt(screen, v.Toast.Title, sw/2-210, sh-85)
		ebitenutil.DebugPrintAt(screen, v.Toast.Message, sw/2-210, sh-65)
	}
	if v.Notice != "" {
		ebitenutil.DebugPrintAt(screen, v.Notice, 10, sh-20)
	}
}

func (w *window) Layout(outsideWidth, outsideHeight int) (int, int) {
	w.game.Resize(outsideWidth, outsideHeight)
	return outsideWidth, outsideHeight
}

// parseHex turns "#rrggbb" into a color; anything else is white.
func parseHex(s string) color.Color {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return color.White
	}
	n, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.White
	}
	return color.RGBA{R: uint8(n >> 16), G: uint8(n >> 8), B: uint8(n), A: 255}
}

var rootCmd = &cobra.Command{
	Use:          "lunastars-desktop",
	Short:        "Play the star collection game in a window",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configPath != "" {
			if _, err := config.LoadFile(configPath); err != nil {
				return err
			}
			os.Setenv("LUNASTARS_CONFIG", configPath)
		}
		cfg = config.Load()
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		var err error
		if logger, err = logging.New(cfg.LogLevel, verbose); err != nil {
			return err
		}

		store, err := accounts.OpenLocalStore(appName)
		if err != nil {
			logger.Warn("local data unavailable, profile will not be kept", zap.Error(err))
			store = accounts.NewLocalStore(nil)
		}
		account = accounts.NewSession(store, deviceKey, rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())))
		return account.Load()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		game := desktop.New(desktop.Options{
			Config:  server.SessionConfig(cfg),
			Letter:  reveal.NewLetter(cfg.Recipient, cfg.Sender, cfg.Signature),
			Account: account,
			Logger:  logger,
			Rand:    rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
			TPS:     ebiten.DefaultTPS,
		})

		ebiten.SetWindowSize(windowWidth, windowHeight)
		ebiten.SetWindowTitle("Stars for " + cfg.Recipient)
		ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
		return ebiten.RunGame(&window{game: game})
	},
}

var signInCmd = &cobra.Command{
	Use:   "signin",
	Short: "Sign in and keep the profile on this computer",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := account.SignIn(email, password); err != nil {
			return err
		}
		if err := account.Save(); err != nil {
			return err
		}
		fmt.Println("Signed in as", account.User().Username)
		return nil
	},
}

var signOutCmd = &cobra.Command{
	Use:   "signout",
	Short: "Forget the saved profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		account.SignOut()
		return account.Save()
	},
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show the saved profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		u := account.User()
		if u == nil {
			return accounts.ErrNotSignedIn
		}
		fmt.Printf("%s <%s>\n", u.Username, u.Email)
		for game, score := range u.HighScores {
			fmt.Printf("  %-12s %d\n", game, score)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (or set LUNASTARS_CONFIG)")
	signInCmd.Flags().StringVar(&email, "email", "", "Account email")
	signInCmd.Flags().StringVar(&password, "password", "", "Account password")
	signInCmd.MarkFlagRequired("email")
	signInCmd.MarkFlagRequired("password")

	rootCmd.AddCommand(signInCmd)
	rootCmd.AddCommand(signOutCmd)
	rootCmd.AddCommand(profileCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
