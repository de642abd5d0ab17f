package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/avercourt/windlass/activitypub"
	"github.com/avercourt/windlass/db"
	"github.com/avercourt/windlass/util"
	"github.com/avercourt/windlass/web"
	daemon "github.com/coreos/go-systemd/v22/daemon"
	"go.uber.org/zap"
)

// Exit codes are distinct per failure class so a unit file can tell
// them apart.
const (
	exitConfig  = 2
	exitStorage = 4
	exitKeys    = 6
)

const firstStartKey = "first-start"
const deliveryWorkers = 4

func main() {
	conf, err := util.ReadConf()
	if err != nil {
		os.Stderr.WriteString("configuration error: " + err.Error() + "\n")
		os.Exit(exitConfig)
	}

	logger := util.NewLogger(os.Getenv("WINDLASS_DEBUG") != "")
	defer logger.Sync()

	logger.Infof("Starting %s", util.GetNameAndVersion())
	logger.Infof("Serving as %s", conf.ActorURL())

	database, err := db.Open(util.ResolveFilePath(conf.Conf.DbPath), logger)
	if err != nil {
		logger.Errorf("Could not open database: %v", err)
		os.Exit(exitStorage)
	}
	defer database.Close()

	keys, err := util.LoadKeyring(util.ResolveDirPath(conf.Conf.KeyringDir), !conf.Conf.AllowMissingKeys)
	if err != nil {
		if conf.Conf.AllowMissingKeys {
			logger.Warnf("No signing keys loaded, federation will not work: %v", err)
			keys = &util.Keyring{}
		} else {
			logger.Errorf("Could not load signing keys: %v", err)
			os.Exit(exitKeys)
		}
	}

	stampFirstStart(database, logger)

	engine := activitypub.NewEngine(conf, logger, database, keys)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engine.StartDeliveryWorkers(ctx, deliveryWorkers)

	server := web.NewServer(conf, logger, database, engine, keys)
	httpServer := &http.Server{
		Addr:    conf.Conf.Host + ":" + strconv.Itoa(conf.Conf.HttpPort),
		Handler: server.Router(),
	}

	go func() {
		logger.Infof("Starting HTTP server on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("HTTP server failed: %v", err)
			stop()
		}
	}()

	// Tell systemd we are up once the listener goroutine is running.
	if sent, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		logger.Warnf("sd_notify failed: %v", err)
	} else if sent {
		logger.Debug("sd_notify: READY")
	}

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Shutdown incomplete: %v", err)
	}
}

// stampFirstStart records the very first boot; later starts leave the
// stamp untouched.
func stampFirstStart(database *db.DB, logger *zap.SugaredLogger) {
	err, existing := database.ReadKv(firstStartKey)
	if err != nil {
		return
	}
	if existing != "" {
		return
	}
	now := time.Now().UTC().Format(time.RFC3339)
	if err := database.PutKv(firstStartKey, now); err == nil {
		logger.Infof("First start at %s", now)
	}
}
