package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	"github.com/pavelanni/reassess/internal/extract"
	"github.com/pavelanni/reassess/internal/handler"
	appI18n "github.com/pavelanni/reassess/internal/i18n"
	"github.com/pavelanni/reassess/internal/llm"
	"github.com/pavelanni/reassess/internal/llm/prompts"
	"github.com/pavelanni/reassess/internal/model"
	"github.com/pavelanni/reassess/internal/store"
	"github.com/pavelanni/reassess/internal/wizard"
)

const (
	defaultOpenAIURL   = "http://localhost:11434/v1"
	defaultOpenAIModel = "llama3.2"
)

func main() {
	// A missing .env file is fine; real environment variables still apply.
	_ = godotenv.Load()

	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "reassess",
		Short: "Redesign assignments for the AI era with an LLM-backed wizard",
	}

	serve := serveCmd()
	root.AddCommand(serve, exportCmd(), analyzeCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `reassess --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func addLLMFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("llm-provider", "gemini", "Model backend (gemini, openai)")
	f.String("api-key", "", "API key (falls back to GEMINI_API_KEY or OPENAI_API_KEY)")
	f.String("llm-url", "", "OpenAI-compatible API base URL (openai provider only)")
	f.String("model", "", "Model name (default depends on the provider)")
	f.StringP("language", "l", string(prompts.LanguageHebrew), "Output and UI language (he, en)")
}

func addLogFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP wizard server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "reassess.db", "SQLite database path")
	f.Int("students", wizard.DefaultStudents, "Default number of students")
	f.Int("max-sessions", 500, "Maximum number of wizard sessions held in memory")
	f.Duration("session-ttl", 4*time.Hour, "Idle wizard sessions are dropped after this long")
	f.String("base-path", "", "URL prefix for sub-path deployments (e.g. /reassess)")
	f.Bool("secure-cookies", true, "Set Secure flag on session cookies")
	f.String("admin-password", "", "Initial admin password (or set REASSESS_ADMIN_PASSWORD)")
	addLLMFlags(cmd)
	addLogFlags(cmd)
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export archived redesigns as JSON",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("db", "reassess.db", "SQLite database path")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	addLogFlags(cmd)
	return cmd
}

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Classify an assignment's skills once and print the result as JSON",
		RunE:  runAnalyze,
	}
	f := cmd.Flags()
	f.StringP("file", "f", "", "Assignment document (.docx, .txt, .md, .pdf, image)")
	f.StringP("text", "t", "", "Assignment text")
	addLLMFlags(cmd)
	addLogFlags(cmd)
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("REASSESS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("reassess")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/reassess")
	v.AddConfigPath("/etc/reassess")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func outputLanguage(v *viper.Viper) prompts.Language {
	lang := strings.ToLower(strings.TrimSpace(v.GetString("language")))
	if !prompts.IsValidLanguage(lang) {
		slog.Warn("unsupported language, using Hebrew", "language", lang)
		return prompts.LanguageHebrew
	}
	return prompts.Language(lang)
}

// newGenerator builds the model backend selected by --llm-provider.
func newGenerator(v *viper.Viper) (llm.Generator, error) {
	provider := strings.ToLower(v.GetString("llm-provider"))
	key := v.GetString("api-key")
	modelName := v.GetString("model")

	switch provider {
	case "gemini":
		if key == "" {
			key = os.Getenv("GEMINI_API_KEY")
		}
		if modelName == "" {
			modelName = llm.DefaultGeminiModel
		}
		if key == "" {
			slog.Warn("no Gemini API key configured; model requests will fail until one is set")
		}
		return llm.NewGeminiGenerator(key, modelName), nil
	case "openai":
		if key == "" {
			key = os.Getenv("OPENAI_API_KEY")
		}
		url := v.GetString("llm-url")
		if url == "" {
			url = defaultOpenAIURL
		}
		if modelName == "" {
			modelName = defaultOpenAIModel
		}
		return llm.NewOpenAIGenerator(url, key, modelName), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q (want gemini or openai)", provider)
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := seedAdmin(db, v.GetString("admin-password")); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	lang := outputLanguage(v)
	if err := appI18n.Init(string(lang)); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	gen, err := newGenerator(v)
	if err != nil {
		return err
	}
	llmClient, err := llm.New(gen, lang, llm.WithObserver(llm.MultiObserver{
		llm.NewLogObserver(slog.Default()),
		db,
	}))
	if err != nil {
		return fmt.Errorf("create LLM client: %w", err)
	}

	if err := db.SetInstance(store.Instance{
		Language: string(lang),
		Provider: v.GetString("llm-provider"),
		Model:    gen.Model(),
	}); err != nil {
		return fmt.Errorf("record instance metadata: %w", err)
	}

	// Normalize base path.
	basePath := strings.TrimRight(v.GetString("base-path"), "/")
	if basePath != "" && !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}

	cfg := model.WizardConfig{
		Language:        string(lang),
		DefaultStudents: v.GetInt("students"),
		MaxSessions:     v.GetInt("max-sessions"),
		SessionTTL:      v.GetDuration("session-ttl"),
		MaxUploadBytes:  extract.MaxUploadBytes,
		BasePath:        basePath,
		SecureCookies:   v.GetBool("secure-cookies"),
	}

	sessions := wizard.NewManager(llmClient, wizard.Options{
		Language:    cfg.Language,
		NumStudents: cfg.DefaultStudents,
	}, cfg.MaxSessions, cfg.SessionTTL)

	h, err := handler.New(db, sessions, cfg)
	if err != nil {
		return fmt.Errorf("create handler: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(string(lang)))

	if basePath != "" {
		r.Route(basePath, func(sub chi.Router) {
			sub.Use(h.BasePathMiddleware)
			h.Routes(sub)
		})
		r.Get(basePath, func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, basePath+"/", http.StatusMovedPermanently)
		})
	} else {
		r.Use(h.BasePathMiddleware)
		h.Routes(r)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go cleanupSessions(ctx, db, time.Hour)

	addr := v.GetString("addr")
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server",
			"addr", addr,
			"provider", v.GetString("llm-provider"),
			"model", gen.Model(),
			"language", lang,
			"max_sessions", cfg.MaxSessions,
			"session_ttl", cfg.SessionTTL,
			"base_path", basePath,
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// cleanupSessions removes expired login sessions until ctx is done.
func cleanupSessions(ctx context.Context, db *store.Store, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := db.CleanupExpiredSessions()
			if err != nil {
				slog.Error("failed to clean up sessions", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("removed expired sessions", "count", n)
			}
		}
	}
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	export, err := db.ExportRedesigns()
	if err != nil {
		return fmt.Errorf("export redesigns: %w", err)
	}

	return writeJSON(v.GetString("output"), export)
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	text := v.GetString("text")
	var file *model.FilePayload
	if path := v.GetString("file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		doc, err := extract.Extract(path, data)
		if err != nil {
			return fmt.Errorf("extract %s: %w", path, err)
		}
		if doc.IsBinary() {
			file = doc.File
		} else if text != "" {
			text += "\n\n" + doc.Text
		} else {
			text = doc.Text
		}
	}

	var in model.InputPayload
	switch {
	case file != nil:
		in = model.BinaryInput{Text: text, Upload: *file}
	case strings.TrimSpace(text) != "":
		in = model.TextInput{Text: text}
	default:
		return errors.New("nothing to analyze: pass --text or --file")
	}

	gen, err := newGenerator(v)
	if err != nil {
		return err
	}
	client, err := llm.New(gen, outputLanguage(v), llm.WithObserver(llm.NewLogObserver(slog.Default())))
	if err != nil {
		return fmt.Errorf("create LLM client: %w", err)
	}

	analysis, err := client.AnalyzeSkills(cmd.Context(), in)
	if err != nil {
		var malformed *llm.MalformedError
		if errors.As(err, &malformed) {
			slog.Debug("raw model response", "raw", malformed.Raw)
		}
		return fmt.Errorf("analyze: %w", err)
	}
	return writeJSON("-", analysis)
}

func writeJSON(outPath string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	// Ensure trailing newline.
	_, _ = fmt.Fprintln(w)
	return nil
}

func seedAdmin(db *store.Store, password string) error {
	count, err := db.UserCount()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if password == "" {
		return fmt.Errorf("admin password is required: set --admin-password flag or REASSESS_ADMIN_PASSWORD env var")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	_, err = db.CreateUser(model.User{
		Username:     "admin",
		DisplayName:  "Administrator",
		PasswordHash: string(hash),
		Role:         model.UserRoleAdmin,
		Active:       true,
	})
	if err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}

	slog.Info("seeded default admin user", "username", "admin")
	return nil
}
