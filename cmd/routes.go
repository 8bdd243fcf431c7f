package main

import (
	"net/http"

	"github.com/bmizerany/pat"
	"github.com/justinas/alice"
)

func (app *application) routes() http.Handler {
	standardMiddleware := alice.New(app.recoverPanic, app.logRequest, secureHeaders, makeResponseJSON)

	mux := pat.New()

	// Items
	mux.Get("/api/items/search", standardMiddleware.ThenFunc(app.searchHandler.Search))
	mux.Get("/api/items/map", standardMiddleware.ThenFunc(app.searchHandler.Map))

	mux.Get("/healthz", standardMiddleware.ThenFunc(app.healthHandler.Health))

	return mux
}
