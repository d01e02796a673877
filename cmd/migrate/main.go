package main

import (
	"errors"
	"flag"
	"fmt"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog/log"

	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/shared/config"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/shared/utils"
)

func main() {
	var module string
	var command string

	flag.StringVar(&module, "module", "ledger", "Module to migrate")
	flag.StringVar(&command, "cmd", "up", "Migration command (up, down, version, force)")
	flag.Parse()

	// Load config
	cfg := config.LoadConfig()
	utils.InitLogger(cfg.Env, cfg.LogLevel)

	// Migration path
	migrationPath := fmt.Sprintf("file://migrations/%s", module)

	log.Info().Str("module", module).Str("path", migrationPath).Str("database", maskDatabaseURL(cfg.DatabaseURL)).Msg("running migrations")

	// Create migrate instance
	m, err := migrate.New(migrationPath, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create migrate instance")
	}
	defer m.Close()

	// Execute command
	switch command {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatal().Err(err).Msg("migration up failed")
		}
		log.Info().Msg("migrations up completed")

	case "down":
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatal().Err(err).Msg("migration down failed")
		}
		log.Info().Msg("migrations down completed")

	case "version":
		version, dirty, err := m.Version()
		if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
			log.Fatal().Err(err).Msg("failed to get version")
		}
		log.Info().Uint("version", version).Bool("dirty", dirty).Msg("current version")

	case "force":
		if len(flag.Args()) < 1 {
			log.Fatal().Msg("force needs a version number")
		}
		forceVersion, err := strconv.Atoi(flag.Arg(0))
		if err != nil {
			log.Fatal().Err(err).Str("version", flag.Arg(0)).Msg("invalid version")
		}
		if err := m.Force(forceVersion); err != nil {
			log.Fatal().Err(err).Msg("force failed")
		}
		log.Info().Int("version", forceVersion).Msg("forced version")

	default:
		log.Fatal().Str("cmd", command).Msg("unknown command (use: up, down, version, force)")
	}
}

// maskDatabaseURL hides password in database URL for logging
func maskDatabaseURL(url string) string {
	if len(url) < 20 {
		return "***"
	}
	return url[:20] + "***" + url[len(url)-10:]
}
