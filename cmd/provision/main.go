package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"treasure-hunt/internal/config"
	"treasure-hunt/internal/provision"
	"treasure-hunt/internal/store"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	seedFlag := flag.String("seed", "", "seed document: a local yaml/json/toml file or s3://bucket/key")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if *seedFlag != "" {
		cfg.Seed.Location = *seedFlag
	}
	if cfg.Seed.Location == "" {
		logger.Fatalf("seed location is required (-seed or HUNT_SEED_LOCATION)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("open store: %v", err)
	}
	defer st.Close(context.Background())

	res, err := provision.Load(ctx, cfg, st, logger)
	if err != nil {
		logger.Fatalf("provision: %v", err)
	}
	logger.WithFields(logrus.Fields{
		"rounds":        res.Rounds,
		"users_created": res.UsersCreated,
		"users_skipped": res.UsersSkipped,
	}).Info("provisioning complete")
}
