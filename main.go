// tokentools — JSON conversion and token accounting daemon.
// Entry point: the CLI dispatches to the one-shot commands or the server.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/iptoux/tokentools/internal/api"
	"github.com/iptoux/tokentools/internal/auth"
	"github.com/iptoux/tokentools/internal/config"
	"github.com/iptoux/tokentools/internal/convert"
	"github.com/iptoux/tokentools/internal/jsonval"
	"github.com/iptoux/tokentools/internal/platform"
	"github.com/iptoux/tokentools/internal/retention"
	"github.com/iptoux/tokentools/internal/session"
	"github.com/iptoux/tokentools/internal/store"
	"github.com/iptoux/tokentools/internal/tokenizer"
	"github.com/iptoux/tokentools/internal/ws"
)

// Version is set via -ldflags at build time.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "tokentools",
	Short: "JSON conversion and token accounting",
	Long: "tokentools converts JSON into pretty/minified JSON, YAML, TOON and TOML\n" +
		"and measures each output in characters, bytes and tokens.",
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("tokentools " + Version)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and WebSocket server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

var (
	flagFormat     string
	flagTokenAware bool
	flagDelimiter  string
	flagKeyFolding string
	flagCounts     bool
)

var convertCmd = &cobra.Command{
	Use:   "convert [file]",
	Short: "Convert JSON from a file or stdin to one format",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConvert(args)
	},
}

var countCmd = &cobra.Command{
	Use:   "count [file]",
	Short: "Show character, byte and token counts for every format",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCount(args)
	},
}

func init() {
	convertCmd.Flags().StringVarP(&flagFormat, "format", "f", string(convert.FormatPrettyJSON),
		"output format: pretty-json, minified-json, yaml, toon, toml")
	convertCmd.Flags().BoolVar(&flagTokenAware, "token-aware", false,
		"emit bare-word-safe strings unquoted")
	convertCmd.Flags().StringVar(&flagDelimiter, "delimiter", "",
		"TOON row delimiter: comma, tab or pipe")
	convertCmd.Flags().StringVar(&flagKeyFolding, "key-folding", "",
		"TOON key folding: off or safe")
	convertCmd.Flags().BoolVar(&flagCounts, "counts", false,
		"print size counts for the output on stderr")

	countCmd.Flags().BoolVar(&flagTokenAware, "token-aware", false,
		"emit bare-word-safe strings unquoted")

	rootCmd.AddCommand(serveCmd, convertCmd, countCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// readInput returns the JSON text from the file argument or stdin. An
// interactive terminal with no file argument is refused instead of hanging.
func readInput(args []string) (string, error) {
	if len(args) == 1 {
		b, err := os.ReadFile(args[0])
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	if term.IsTerminal(int(os.Stdin.Fd())) {
		return "", fmt.Errorf("no input: pass a file or pipe JSON on stdin")
	}
	b, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func runConvert(args []string) error {
	f := convert.Format(flagFormat)
	if !f.Valid() {
		return fmt.Errorf("unknown format %q", flagFormat)
	}
	input, err := readInput(args)
	if err != nil {
		return err
	}
	v, err := jsonval.Parse(input)
	if err != nil {
		return err
	}

	out := convert.Render(f, v, convert.Options{
		TokenAware: flagTokenAware,
		Delimiter:  flagDelimiter,
		KeyFolding: flagKeyFolding,
	})
	fmt.Println(out)

	if flagCounts {
		c := tokenizer.Count(out)
		fmt.Fprintf(os.Stderr, "%d chars  %d bytes  ~%d tokens\n", c.Characters, c.Bytes, c.Tokens)
	}
	return nil
}

func runCount(args []string) error {
	input, err := readInput(args)
	if err != nil {
		return err
	}
	snap := session.Convert(input, session.Config{
		TokenAware: flagTokenAware,
		WantCounts: true,
	})
	if snap.Error != "" {
		return fmt.Errorf("%s", snap.Error)
	}

	formats := make([]string, 0, len(snap.Formats))
	for f := range snap.Formats {
		formats = append(formats, string(f))
	}
	sort.Strings(formats)

	fmt.Printf("%-15s %8s %8s %8s\n", "format", "chars", "bytes", "~tokens")
	for _, f := range formats {
		c := snap.Formats[convert.Format(f)].Counts
		fmt.Printf("%-15s %8d %8d %8d\n", f, c.Characters, c.Bytes, c.Tokens)
	}
	return nil
}

func runServe() error {
	log.Printf("tokentools %s starting…", Version)

	// ── 1. Load configuration ────────────────────────────────────────────────
	cfg := config.Load()
	log.Printf("Config: port=%s workDir=%s", cfg.Port, cfg.WorkDir)

	if err := platform.EnsureDir(cfg.WorkDir); err != nil {
		return fmt.Errorf("EnsureDir %s: %w", cfg.WorkDir, err)
	}

	// ── 2. Open database + migrate ───────────────────────────────────────────
	st, err := store.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("store.New: %w", err)
	}
	defer st.Close()
	if err := st.Migrate(); err != nil {
		return fmt.Errorf("store.Migrate: %w", err)
	}
	log.Printf("Database ready: %s", cfg.DBPath)

	// Root context — cancelled on shutdown signal.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── 3. API key guard ─────────────────────────────────────────────────────
	guard, err := auth.NewGuard(cfg.APIKey)
	if err != nil {
		return fmt.Errorf("auth.NewGuard: %w", err)
	}
	if guard.Open() {
		log.Println("⚠  No API_KEY set — API runs in open mode")
	}

	// ── 4. Exact tokenizer ───────────────────────────────────────────────────
	exact, err := tokenizer.NewExact()
	if err != nil {
		return fmt.Errorf("tokenizer.NewExact: %w", err)
	}

	// ── 5. WebSocket hub + session engine ────────────────────────────────────
	hub := ws.NewHub()
	engine := session.NewEngine(exact, hub, time.Duration(cfg.TokenizeTimeoutSecs)*time.Second)
	hub.AttachEngine(engine)
	go hub.Run(ctx)
	defer engine.Close()

	// ── 6. History retention ─────────────────────────────────────────────────
	pruner := retention.New(st, cfg.HistoryRetentionDays)
	if err := pruner.Start(ctx); err != nil {
		log.Printf("retention.Start: %v", err)
	}
	pruner.Prune(ctx)

	// ── 7. HTTP router ───────────────────────────────────────────────────────
	mux := http.NewServeMux()
	api.SetupRoutes(mux, &api.Deps{
		Store:   st,
		Config:  cfg,
		Hub:     hub,
		Exact:   exact,
		Guard:   guard,
		Version: Version,
	})
	mux.HandleFunc("GET /ws", hub.ServeWS)

	handler := loggingMiddleware(recoveryMiddleware(mux))

	// ── 8. Start HTTP server ─────────────────────────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("Received %s — shutting down…", sig)
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP shutdown: %v", err)
		}
	}()

	log.Printf("tokentools listening on http://0.0.0.0:%s", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("ListenAndServe: %w", err)
	}
	log.Printf("tokentools stopped.")
	return nil
}

// loggingMiddleware logs each request.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

// recoveryMiddleware recovers from panics and returns 500.
func recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rv := recover(); rv != nil {
				log.Printf("panic: %v", rv)
				http.Error(w, `{"success":false,"error":"internal server error"}`, http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
