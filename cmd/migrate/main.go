package main

import (
	"errors"
	"flag"
	"log"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/kiwari-pos/resto/internal/config"
)

func usage() {
	log.Println("usage: migrate [-path file://migrations] up|down|version|force N")
	os.Exit(2)
}

func main() {
	cfg := config.Load()

	path := flag.String("path", cfg.MigrationsPath, "Migration source URL")
	flag.Parse()
	if flag.NArg() < 1 {
		usage()
	}

	m, err := migrate.New(*path, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to create migrator: %v", err)
	}
	defer m.Close()

	switch cmd := flag.Arg(0); cmd {
	case "up":
		err = m.Up()
	case "down":
		err = m.Steps(-1)
	case "force":
		if flag.NArg() < 2 {
			usage()
		}
		v, convErr := strconv.Atoi(flag.Arg(1))
		if convErr != nil {
			log.Fatalf("Invalid version %q: %v", flag.Arg(1), convErr)
		}
		err = m.Force(v)
	case "version":
		version, dirty, verr := m.Version()
		if errors.Is(verr, migrate.ErrNilVersion) {
			log.Println("No migrations applied")
			return
		}
		if verr != nil {
			log.Fatalf("Unable to read version: %v", verr)
		}
		log.Printf("Version %d (dirty: %t)", version, dirty)
		return
	default:
		log.Printf("Unknown command %q", cmd)
		usage()
	}

	if errors.Is(err, migrate.ErrNoChange) {
		log.Println("No change")
		return
	}
	if err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Println("Migration completed successfully")
}
