package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/printflow/printflow/internal/catalog"
	"github.com/printflow/printflow/internal/config"
	"github.com/printflow/printflow/internal/db"
	"github.com/printflow/printflow/internal/migrations"
	"github.com/printflow/printflow/internal/pricing"
	"github.com/printflow/printflow/internal/quotes"
	"github.com/printflow/printflow/internal/seed"
)

type server struct {
	log     *zap.SugaredLogger
	catalog *catalog.Store
	quotes  *quotes.Store
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	log := logger.Sugar()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Fatalw("failed to open database", "path", cfg.DBPath, "error", err)
	}
	defer database.Close()

	if err := migrations.Up(database); err != nil {
		log.Fatalw("failed to run database migrations", "error", err)
	}

	if cfg.SeedDemo {
		stats, err := seed.Run(database)
		if err != nil {
			log.Fatalw("failed to seed demo catalog", "error", err)
		}
		log.Infow("demo catalog seeded", "inserts", stats.Inserts)
	}

	srv := &server{
		log:     log,
		catalog: catalog.NewStore(database),
		quotes:  quotes.NewStore(database),
	}

	addr := ":" + cfg.Port
	log.Infow("listening", "addr", addr, "env", cfg.Env)
	if err := http.ListenAndServe(addr, srv.routes(cfg.AdminToken)); err != nil {
		log.Fatalw("server stopped", "error", err)
	}
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	if cfg.IsDev() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func (s *server) routes(adminToken string) http.Handler {
	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/calculations", s.handleCalculate)
		r.Get("/calculations/templates", s.handleActiveTemplates)

		r.Get("/materials", s.handleMaterialsList)
		r.Get("/materials/{id}", s.handleMaterialGet)
		r.Get("/processes", s.handleProcessesList)
		r.Get("/processes/{id}", s.handleProcessGet)
		r.Get("/templates", s.handleTemplatesList)
		r.Get("/templates/{id}", s.handleTemplateGet)

		r.Get("/quotes", s.handleQuotesList)
		r.Get("/quotes/{id}", s.handleQuoteGet)
		r.Post("/quotes", s.handleQuoteCreate)

		r.Group(func(r chi.Router) {
			r.Use(requireAdmin(adminToken, s.log))

			r.Post("/materials", s.handleMaterialCreate)
			r.Put("/materials/{id}", s.handleMaterialUpdate)
			r.Delete("/materials/{id}", s.handleMaterialDelete)

			r.Post("/processes", s.handleProcessCreate)
			r.Put("/processes/{id}", s.handleProcessUpdate)
			r.Delete("/processes/{id}", s.handleProcessDelete)

			r.Post("/templates", s.handleTemplateCreate)
			r.Put("/templates/{id}", s.handleTemplateUpdate)
			r.Delete("/templates/{id}", s.handleTemplateDelete)

			r.Patch("/quotes/{id}/status", s.handleQuoteStatus)
		})
	})
	return r
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func (s *server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Errorw("failed to encode response", "error", err)
	}
}

func (s *server) writeError(w http.ResponseWriter, status int, kind, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg, Kind: kind})
}

// writeDomainError maps engine and store errors onto HTTP statuses: bad
// request input is 400, broken catalog data is 422, missing entities 404.
func (s *server) writeDomainError(w http.ResponseWriter, err error) {
	var (
		validationErr    *pricing.ValidationError
		configurationErr *pricing.ConfigurationError
		notFoundErr      *pricing.NotFoundError
	)
	switch {
	case errors.As(err, &validationErr):
		s.writeError(w, http.StatusBadRequest, "validation", validationErr.Msg)
	case errors.As(err, &configurationErr):
		s.writeError(w, http.StatusUnprocessableEntity, "configuration", configurationErr.Msg)
	case errors.As(err, &notFoundErr):
		s.writeError(w, http.StatusNotFound, "not_found", notFoundErr.Error())
	case errors.Is(err, catalog.ErrNotFound), errors.Is(err, quotes.ErrNotFound):
		s.writeError(w, http.StatusNotFound, "not_found", err.Error())
	default:
		s.log.Errorw("internal error", "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal", "internal server error")
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
