package apiapp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jis-kmc-pg/JISOWMS-sub001/internal/batch"
	"github.com/jis-kmc-pg/JISOWMS-sub001/internal/envutil"
	"github.com/jis-kmc-pg/JISOWMS-sub001/internal/logging"
	"github.com/jis-kmc-pg/JISOWMS-sub001/internal/middleware"
	"github.com/jis-kmc-pg/JISOWMS-sub001/internal/report"
	"github.com/jis-kmc-pg/JISOWMS-sub001/internal/security"
	"github.com/jis-kmc-pg/JISOWMS-sub001/internal/source"
	"go.uber.org/zap"
)

const (
	failuresHeader = "X-Report-Failures"
	maxNoteBody    = 16 << 10
)

type Config struct {
	Addr           string
	DBPath         string
	TemplatePath   string
	LayoutPath     string
	LogoPath       string
	APIKeyHash     string
	BatchWorkers   int
	MaxExtraBlocks int
	LogLevel       string
	ArchiveFormat  string
}

// Store is the data the API reads reports from and saves weekly notes to.
type Store interface {
	source.Source
	SaveWeeklyNote(ctx context.Context, userID int64, weekStart time.Time, content string) error
}

type server struct {
	store      Store
	renderer   batch.Renderer
	packager   *batch.Packager
	apiKeyHash string
	logger     *zap.Logger
}

type saveWeeklyNoteRequest struct {
	UserID    int64  `json:"userId"`
	WeekStart string `json:"weekStart"`
	Content   string `json:"content"`
}

func DefaultConfigFromEnv() Config {
	return Config{
		Addr:           envutil.String("REPORT_ADDR", ":8080"),
		DBPath:         envutil.String("REPORT_DB_PATH", "data.db"),
		TemplatePath:   envutil.String("REPORT_TEMPLATE_PATH", "templates/weekly-report.xlsx"),
		LayoutPath:     envutil.String("REPORT_LAYOUT_PATH", ""),
		LogoPath:       envutil.String("REPORT_LOGO_PATH", ""),
		APIKeyHash:     envutil.String("REPORT_API_KEY_HASH", ""),
		BatchWorkers:   envutil.Int("REPORT_BATCH_WORKERS", batch.DefaultWorkers),
		MaxExtraBlocks: envutil.Int("REPORT_MAX_EXTRA_BLOCKS", 0),
		LogLevel:       envutil.String("REPORT_LOG_LEVEL", "info"),
		ArchiveFormat:  envutil.String("REPORT_ARCHIVE_FORMAT", string(batch.FormatZip)),
	}
}

func Run(ctx context.Context, cfg Config) error {
	logger, err := logging.New(cfg.LogLevel, "json")
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	layout, err := report.LoadLayout(cfg.LayoutPath)
	if err != nil {
		return err
	}
	if cfg.MaxExtraBlocks > 0 {
		layout.MaxExtraBlocks = cfg.MaxExtraBlocks
	}
	var logo []byte
	if cfg.LogoPath != "" {
		if logo, err = report.LoadLogo(cfg.LogoPath); err != nil {
			return err
		}
	}
	if _, err := os.Stat(cfg.TemplatePath); err != nil {
		logger.Warn("report template not readable; downloads will fail until it is deployed", zap.Error(err))
	}
	renderer, err := report.NewRenderer(report.Options{
		TemplatePath: cfg.TemplatePath,
		Layout:       layout,
		Logo:         logo,
		Logger:       logger.Named("report"),
	})
	if err != nil {
		return err
	}
	format, err := batch.ParseFormat(cfg.ArchiveFormat)
	if err != nil {
		return err
	}

	store, err := source.OpenSQLite(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	if err := store.InitSchema(ctx); err != nil {
		return fmt.Errorf("initialize schema: %w", err)
	}

	s := &server{
		store:    store,
		renderer: renderer,
		packager: batch.NewPackager(store, renderer, batch.Options{
			Workers: cfg.BatchWorkers,
			Format:  format,
			Logger:  logger.Named("batch"),
		}),
		apiKeyHash: cfg.APIKeyHash,
		logger:     logger,
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api listening", zap.String("addr", cfg.Addr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/health", http.HandlerFunc(s.health))
	mux.Handle("/api/excel/weekly-report", middleware.Chain(http.HandlerFunc(s.weeklyReport), s.requireAPIKey))
	mux.Handle("/api/excel/team-weekly-report", middleware.Chain(http.HandlerFunc(s.teamWeeklyReport), s.requireAPIKey))
	mux.Handle("/api/weekly-notes", middleware.Chain(http.HandlerFunc(s.saveWeeklyNote), s.requireAPIKey))

	return middleware.Chain(
		mux,
		middleware.RequestLogger(s.logger),
		middleware.SecurityHeaders(middleware.SecurityHeadersConfig{ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'"}),
	)
}

func (s *server) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) weeklyReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, err := parseID(r.URL.Query().Get("userId"), "userId")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	date, ref, err := parseDateParam(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	data, err := s.store.LoadReport(r.Context(), userID, ref)
	if err != nil {
		s.writeReportError(w, err)
		return
	}
	doc, err := s.renderer.Render(r.Context(), data)
	if err != nil {
		s.writeReportError(w, err)
		return
	}
	writeDownload(w, report.ContentType, fmt.Sprintf("WeeklyReport_%d_%s.xlsx", userID, date), doc)
}

func (s *server) teamWeeklyReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	teamID, err := parseID(r.URL.Query().Get("teamId"), "teamId")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	_, ref, err := parseDateParam(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.packager.Package(r.Context(), teamID, ref)
	if err != nil {
		s.writeReportError(w, err)
		return
	}
	w.Header().Set(failuresHeader, strconv.Itoa(len(res.Manifest.Failures)))
	writeDownload(w, res.Manifest.Format.ContentType(), res.FileName(), res.Archive)
}

func (s *server) saveWeeklyNote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req saveWeeklyNoteRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxNoteBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.UserID <= 0 {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}
	weekStart, err := source.ParseDate(strings.TrimSpace(req.WeekStart))
	if err != nil {
		writeError(w, http.StatusBadRequest, "weekStart must be YYYY-MM-DD")
		return
	}
	if err := s.store.SaveWeeklyNote(r.Context(), req.UserID, weekStart, req.Content); err != nil {
		s.writeReportError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

func (s *server) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKeyHash == "" {
			next.ServeHTTP(w, r)
			return
		}
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || !security.VerifyAPIKey(strings.TrimSpace(token), s.apiKeyHash) {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// writeReportError maps engine and source errors to responses. Template
// problems are deployment faults and never echo their details.
func (s *server) writeReportError(w http.ResponseWriter, err error) {
	var verr *report.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Message)
	case errors.Is(err, batch.ErrNoMembers):
		writeError(w, http.StatusNotFound, batch.ErrNoMembers.Error())
	case errors.Is(err, source.ErrNotFound):
		writeError(w, http.StatusNotFound, "employee not found")
	case errors.Is(err, report.ErrContentTooLarge):
		writeError(w, http.StatusUnprocessableEntity, report.ErrContentTooLarge.Error())
	case errors.Is(err, report.ErrTemplate):
		s.logger.Error("report template unavailable", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "excel generation failed")
	default:
		s.logger.Error("report generation failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "excel generation failed")
	}
}

func parseID(raw, name string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%s is required", name)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", name)
	}
	return id, nil
}

func parseDateParam(raw string) (string, time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", time.Time{}, errors.New("date is required")
	}
	t, err := source.ParseDate(raw)
	if err != nil {
		return "", time.Time{}, errors.New("date must be YYYY-MM-DD")
	}
	return raw, t, nil
}

func writeDownload(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
