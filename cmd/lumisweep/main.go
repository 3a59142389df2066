package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"periph.io/x/host/v3"

	"github.com/coreman2200/lumisweep/internal/app"
	"github.com/coreman2200/lumisweep/internal/config"
	diag "github.com/coreman2200/lumisweep/internal/diagnostics"
	"github.com/coreman2200/lumisweep/internal/ws"
)

// openOutput is replaced in tests.
var openOutput = app.OpenOutput

func main() {
	if err := run(os.Args[1:]); err != nil {
		os.Exit(1)
	}
}

// run owns every deferred cleanup, so failures return here instead of
// exiting with the output still open.
func run(args []string) error {
	// ---- Flags (remain usable; config.yaml overrides them) ----
	fs := flag.NewFlagSet("lumisweep", flag.ContinueOnError)
	var (
		x          = fs.Int("x", 8, "LEDs per row (X)")
		y          = fs.Int("y", 8, "LED rows per panel (Y)")
		z          = fs.Int("z", 1, "panels (Z)")
		effect     = fs.String("effect", "wipe", "effect: wipe | whirlpool")
		shape      = fs.String("shape", "horizontal", "wipe shape")
		movement   = fs.String("movement", "count", "wipe movement: count | pulse_length | curve | audio | marks")
		durationMs = fs.Int("duration-ms", 2000, "effect window (ms)")
		frameMs    = fs.Int("frame-ms", 50, "frame period (ms)")
		driver     = fs.String("driver", "sim", "output: sim | screen | nrzled | png")
		addr       = fs.String("addr", "", "preview HTTP listen address, empty disables it")
		configPath = fs.String("config", "config.yaml", "path to config.yaml")
		loop       = fs.Bool("loop", false, "replay the effect until interrupted")
		debug      = fs.Bool("debug", false, "debug logging")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	// ---- Logging ----
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	// ---- Config: flags first, config.yaml over them when it loads ----
	cfg := config.Default()
	cfg.Layout.Dim = config.Dim{X: *x, Y: *y, Z: *z}
	cfg.Effect = *effect
	cfg.Wipe.Shape = *shape
	cfg.Wipe.Movement = *movement
	cfg.DurationMs = *durationMs
	cfg.FrameMs = *frameMs
	cfg.Output.Driver = *driver
	if err := config.LoadInto(*configPath, cfg); err != nil {
		log.Warn().Err(err).Str("path", *configPath).Msg("config load failed; proceeding with flags")
	}

	if strings.EqualFold(cfg.Output.Driver, "nrzled") {
		if _, err := host.Init(); err != nil {
			log.Warn().Err(err).Msg("periph host init failed")
		}
	}

	l := app.Layout(cfg)
	out, selected, err := openOutput(cfg, l)
	if err != nil {
		log.Error().Err(err).Str("driver", cfg.Output.Driver).Msg("open output")
		return err
	}
	defer func() {
		if err := out.Close(); err != nil {
			log.Warn().Err(err).Msg("close output")
		}
	}()

	// ---- State: brightness, preview and control sit in front of the output ----
	state := ws.NewState(l, cfg.Brightness)
	state.Next = out
	state.Config = cfg
	state.ConfigPath = *configPath
	state.CurrentDriver = selected
	controls := make(chan ws.Control, 1)
	state.OnControl = func(c ws.Control) {
		select {
		case controls <- c:
		default:
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var srv *http.Server
	if *addr != "" {
		srv = &http.Server{
			Addr:         *addr,
			Handler:      withCORS(state.Mux()),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		}
		go func() {
			log.Info().Str("addr", *addr).Str("driver", selected).Msg("HTTP server starting")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("http server crashed")
				stop()
			}
		}()
		defer srv.Close()
	}

	for {
		core, err := app.Build(cfg, state)
		if err != nil {
			log.Error().Err(err).Msg("build engine")
			return err
		}
		core.Eng.Hooks.OnDone = func(frames int, err error) {
			log.Info().Str("effect", cfg.Effect).Int("frames", frames).AnErr("err", err).Msg("run finished")
		}

		runCtx, cancel := context.WithCancel(ctx)
		done := make(chan error, 1)
		go func() { done <- core.Eng.Run(runCtx) }()

		restart := false
		select {
		case err = <-done:
		case c := <-controls:
			if c.Effect != "" {
				cfg.Effect = c.Effect
			}
			restart = c.Effect != "" || c.Restart
			if restart {
				cancel()
			}
			err = <-done
		}
		cancel()

		if err != nil && !errors.Is(err, context.Canceled) {
			state.Diag(diag.Diagnostic{Severity: diag.Err, Code: "RUN.FAILED", Summary: "Effect run failed", Detail: err.Error()})
			log.Error().Err(err).Msg("run failed")
			return err
		}
		state.Diag(diag.Diagnostic{Severity: diag.Info, Code: "RUN.DONE", Summary: "Effect run complete", Evidence: map[string]any{"effect": cfg.Effect}})
		if ctx.Err() != nil || (!restart && !*loop) {
			break
		}
	}

	log.Info().Msg("shutting down")
	return nil
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(200)
			return
		}
		h.ServeHTTP(w, r)
	})
}
