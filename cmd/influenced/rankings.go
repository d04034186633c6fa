package main

import (
	"net/http"

	"influence-backend/lib/roster"
	"influence-backend/lib/scorestore"
	"influence-backend/lib/util/serviceutil"
	"influence-backend/services/rankings"

	"connectrpc.com/connect"
)

func InitRankings(mux *http.ServeMux, cfg roster.Config, store scorestore.Store) {
	path, handler := rankings.NewHandler(
		rankings.NewService(store),
		connect.WithInterceptors(
			serviceutil.NewConnectOtelInterceptor(),
			serviceutil.VerifyAccessTokenInterceptor(cfg.ApiToken()),
		),
	)
	mux.Handle(path, handler)
}
