package main

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"

	"github.com/redis/go-redis/v9"

	"greenMarketBack/internal/cache"
	"greenMarketBack/internal/config"
	"greenMarketBack/internal/handlers"
	"greenMarketBack/internal/repositories"
	"greenMarketBack/internal/services"
)

type application struct {
	errorLog      *log.Logger
	infoLog       *log.Logger
	db            *sql.DB
	itemRepo      *repositories.ItemRepository
	searchService *services.ProximitySearchService
	searchHandler *handlers.SearchHandler
	healthHandler *handlers.HealthHandler
}

// appLogger adapts the log.Logger pair to services.Logger.
type appLogger struct {
	infoLog  *log.Logger
	errorLog *log.Logger
}

func (l appLogger) Infof(format string, args ...interface{}) {
	l.infoLog.Output(2, fmt.Sprintf(format, args...))
}

func (l appLogger) Errorf(format string, args ...interface{}) {
	l.errorLog.Output(2, fmt.Sprintf(format, args...))
}

func initializeApp(db *sql.DB, rdb *redis.Client, cfg config.Config, errorLog *log.Logger, infoLog *log.Logger) (*application, error) {
	logger := appLogger{infoLog: infoLog, errorLog: errorLog}

	dialect, err := repositories.NewDialect(cfg.Database.Driver)
	if err != nil {
		return nil, err
	}
	itemRepo := repositories.NewItemRepository(db, dialect)

	var searchCache services.SearchCache
	if rc := cache.NewRedisSearchCache(rdb, cfg.Search.CacheTTL()); rc != nil {
		searchCache = rc
	}

	searchService := services.NewProximitySearchService(itemRepo, searchCache, logger, services.SearchConfig{
		DefaultRadiusKm: cfg.Search.DefaultRadiusKm,
		MaxLimit:        cfg.Search.MaxLimit,
		MapMaxLimit:     cfg.Search.MapMaxLimit,
		QueryTimeout:    cfg.Search.QueryTimeout(),
		RetryAttempts:   cfg.Search.RetryAttempts,
		RetryDelay:      cfg.Search.RetryDelay(),
	})

	return &application{
		errorLog:      errorLog,
		infoLog:       infoLog,
		db:            db,
		itemRepo:      itemRepo,
		searchService: searchService,
		searchHandler: &handlers.SearchHandler{Service: searchService, Logger: logger},
		healthHandler: &handlers.HealthHandler{Store: itemRepo, Logger: logger},
	}, nil
}

func addSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
		w.Header().Set("Cross-Origin-Resource-Policy", "same-origin")
		next.ServeHTTP(w, r)
	})
}
