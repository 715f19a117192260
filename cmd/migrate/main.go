package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/talentprobe/talentprobe-backend/internal/config"
)

// Schema migration runner. Reads DATABASE_URL through the normal config
// loader so it honors the same .env as the server.
//
//	migrate up
//	migrate down
//	migrate version
//	migrate force <version>
//	migrate steps <n>       (negative n rolls back)
//
// MIGRATIONS_DIR overrides the default ./migrations source.
func main() {
	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	dir := os.Getenv("MIGRATIONS_DIR")
	if dir == "" {
		dir = "migrations"
	}

	m, err := migrate.New("file://"+dir, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("migrate init: %v", err)
	}

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch cmd := os.Args[1]; cmd {
	case "up":
		report(m.Up(), "schema is up to date")
	case "down":
		report(m.Down(), "schema rolled back")
	case "version":
		v, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			fmt.Println("no migrations applied")
			return
		}
		if err != nil {
			log.Fatalf("version: %v", err)
		}
		fmt.Printf("version %d (dirty: %t)\n", v, dirty)
	case "force":
		v := intArg(2, "force requires a version argument")
		if err := m.Force(v); err != nil {
			log.Fatalf("force: %v", err)
		}
		fmt.Printf("forced version to %d\n", v)
	case "steps":
		n := intArg(2, "steps requires a count argument")
		report(m.Steps(n), fmt.Sprintf("applied %d step(s)", n))
	default:
		usage()
		os.Exit(2)
	}
}

func report(err error, ok string) {
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatal(err)
	}
	if errors.Is(err, migrate.ErrNoChange) {
		fmt.Println("no change")
		return
	}
	fmt.Println(ok)
}

func intArg(pos int, missing string) int {
	if len(os.Args) <= pos {
		log.Fatal(missing)
	}
	n, err := strconv.Atoi(os.Args[pos])
	if err != nil {
		log.Fatalf("not a number: %q", os.Args[pos])
	}
	return n
}

func usage() {
	fmt.Println("usage: migrate <up|down|version|force <version>|steps <n>>")
}
