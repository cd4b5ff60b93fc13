package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/read-it-later/internal/config"
	"github.com/read-it-later/internal/database"
	"github.com/read-it-later/pkg/logger"
)

func main() {
	var (
		path    = flag.String("path", "", "Migrations directory (defaults to MIGRATIONS_PATH)")
		verbose = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: migrate [flags] up | down | goto <version> | version")
		flag.PrintDefaults()
	}
	flag.Parse()

	// Load environment variables
	envErr := godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to load configuration:", err)
		os.Exit(1)
	}

	level := cfg.Log.Level
	if *verbose {
		level = "debug"
	}
	log := logger.New(level, cfg.Log.Format)
	if envErr != nil && !os.IsNotExist(envErr) {
		log.Warn().Err(envErr).Msg("Could not load .env file")
	}

	migrationsPath := cfg.Database.MigrationsPath
	if *path != "" {
		migrationsPath = *path
	}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	switch args[0] {
	case "up":
		err = db.RunMigrations(migrationsPath)

	case "down":
		err = db.MigrateDown(migrationsPath)

	case "goto":
		if len(args) != 2 {
			flag.Usage()
			os.Exit(2)
		}
		version, convErr := strconv.ParseUint(args[1], 10, 32)
		if convErr != nil {
			log.Fatal().Err(convErr).Str("version", args[1]).Msg("Invalid version")
		}
		err = db.MigrateToVersion(migrationsPath, uint(version))

	case "version":
		version, dirty, verErr := db.MigrationVersion(migrationsPath)
		if verErr == nil {
			fmt.Printf("version %d (dirty: %t)\n", version, dirty)
		}
		err = verErr

	default:
		flag.Usage()
		os.Exit(2)
	}

	if err != nil {
		log.Fatal().Err(err).Str("command", args[0]).Msg("Migration failed")
	}
}
