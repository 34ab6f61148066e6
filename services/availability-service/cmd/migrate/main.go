package main

import (
	"database/sql"
	"errors"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/md-rashed-zaman/bookavail/libs/config"
	"github.com/md-rashed-zaman/bookavail/libs/runtime"
	"github.com/md-rashed-zaman/bookavail/services/availability-service/migrations"
)

// Usage: migrate [up | down <steps> | force <version> | version]
func main() {
	_ = godotenv.Load()
	logger := runtime.NewLogger("availability-migrate", config.String("LOG_LEVEL", "info"))
	fatal := func(msg string, err error) {
		logger.Error(msg, "err", err)
		os.Exit(1)
	}

	databaseURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		fatal("configuration", err)
	}

	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		fatal("open db", err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		fatal("ping db", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		fatal("db driver", err)
	}
	srcDriver, err := iofs.New(migrations.FS, ".")
	if err != nil {
		fatal("source driver", err)
	}
	m, err := migrate.NewWithInstance("iofs", srcDriver, "postgres", dbDriver)
	if err != nil {
		fatal("create migrator", err)
	}
	defer func() { _, _ = m.Close() }()

	cmd := "up"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}
	arg := func() int {
		if len(os.Args) < 3 {
			fatal(cmd, errors.New("missing numeric argument"))
		}
		n, err := strconv.Atoi(os.Args[2])
		if err != nil {
			fatal(cmd, err)
		}
		return n
	}

	switch cmd {
	case "up":
		err = m.Up()
	case "down":
		err = m.Steps(-arg())
	case "force":
		err = m.Force(arg())
	case "version":
		version, dirty, verr := m.Version()
		if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
			fatal("version", verr)
		}
		logger.Info("schema version", "version", version, "dirty", dirty)
		return
	default:
		fatal("unknown command", errors.New(cmd))
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		fatal("migrate "+cmd, err)
	}
	logger.Info("migrations complete", "command", cmd)
}
