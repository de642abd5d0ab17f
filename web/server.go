package web

import (
	"github.com/avercourt/windlass/activitypub"
	"github.com/avercourt/windlass/db"
	"github.com/avercourt/windlass/util"
	"go.uber.org/zap"
)

// Server carries the application context every handler needs: config,
// logger, store, keyring and the federation engine. Built once in main
// and injected, never reached through globals.
type Server struct {
	conf   *util.AppConfig
	log    *zap.SugaredLogger
	db     *db.DB
	engine *activitypub.Engine
	keys   *util.Keyring
}

func NewServer(conf *util.AppConfig, log *zap.SugaredLogger, database *db.DB, engine *activitypub.Engine, keys *util.Keyring) *Server {
	return &Server{
		conf:   conf,
		log:    log,
		db:     database,
		engine: engine,
		keys:   keys,
	}
}
