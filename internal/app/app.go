// Package app assembles the store, the aggregation engine and the ingestion
// facade from a loaded configuration.
package app

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/abhisek/repertoire/internal/api"
	"github.com/abhisek/repertoire/internal/config"
	"github.com/abhisek/repertoire/internal/ingest"
	"github.com/abhisek/repertoire/internal/logging"
	"github.com/abhisek/repertoire/internal/mastery"
	"github.com/abhisek/repertoire/internal/practice"
	"github.com/abhisek/repertoire/internal/store"
)

// ErrNoTokenSecret is returned by Handler when no signing secret is configured.
var ErrNoTokenSecret = errors.New("token secret is not configured (set token.secret or REPERTOIRE_TOKEN_SECRET)")

// App holds every long-lived dependency of one process.
type App struct {
	Config     *config.Config
	Log        *slog.Logger
	Store      *store.Store
	Rules      mastery.RuleSet
	Tokens     *ingest.TokenResolver
	Aggregator *practice.Aggregator
	Goals      *practice.Goals
	Service    *ingest.Service

	ephemeralSecret bool
}

// New opens the database and wires the engine. The aggregator and goal
// manager share one lock table so their writes to a pair serialize.
func New(cfg *config.Config, log *slog.Logger) (*App, error) {
	if log == nil {
		log = logging.Discard()
	}

	dbPath := cfg.DB.Path
	if dbPath == "" {
		p, err := store.DefaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("resolve DB path: %w", err)
		}
		dbPath = p
	} else if err := store.EnsureDir(dbPath); err != nil {
		return nil, fmt.Errorf("create DB directory: %w", err)
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	log.Debug("store opened", "path", dbPath)

	secret := cfg.Token.Secret
	ephemeral := secret == ""
	if ephemeral {
		// Tokens issued by this process stay valid only within it.
		secret = uuid.NewString()
	}

	rules := mastery.DefaultRules()
	locks := &practice.KeyedMutex{}
	opts := append(cfg.EngineOptions(),
		practice.WithLocks(locks),
		practice.WithLogger(log),
		practice.WithRules(rules),
	)
	aggregator, err := practice.NewAggregator(st.SkillRepo(), opts...)
	if err != nil {
		st.Close()
		return nil, err
	}
	goals, err := practice.NewGoals(st.SkillRepo(), opts...)
	if err != nil {
		st.Close()
		return nil, err
	}

	a := &App{
		Config:          cfg,
		Log:             log,
		Store:           st,
		Rules:           rules,
		Tokens:          ingest.NewTokenResolver(secret, cfg.Token.TTL, st.PerformerRepo()),
		Aggregator:      aggregator,
		Goals:           goals,
		ephemeralSecret: ephemeral,
	}
	a.Service = ingest.NewService(ingest.Deps{
		Identity:   a.Tokens,
		Pieces:     st.PieceRepo(),
		History:    st.HistoryRepo(),
		Aggregator: a.Aggregator,
		Goals:      a.Goals,
		Logger:     log,
	})
	return a, nil
}

// Handler returns the HTTP API. Serving requires a configured secret so
// tokens survive restarts and can be issued by other processes.
func (a *App) Handler(accessLog io.Writer) (http.Handler, error) {
	if a.ephemeralSecret {
		return nil, ErrNoTokenSecret
	}
	return api.NewRouter(a.Service, a.Log, accessLog), nil
}

// ServerConfig returns the listener settings from the configuration.
func (a *App) ServerConfig() api.ServerConfig {
	return api.ServerConfig{
		Addr:            a.Config.HTTP.Addr,
		ReadTimeout:     a.Config.HTTP.ReadTimeout,
		WriteTimeout:    a.Config.HTTP.WriteTimeout,
		ShutdownTimeout: a.Config.HTTP.ShutdownTimeout,
	}
}

// Close releases the database.
func (a *App) Close() error {
	return a.Store.Close()
}
