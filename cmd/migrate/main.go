package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"

	"content-engine/pkg/config"
	"content-engine/pkg/database"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

func main() {
	var (
		dir     = flag.String("dir", "migrations", "directory with migration files")
		command = flag.String("command", "up", "migration command (up, down, redo, status, version, create)")
		name    = flag.String("name", "", "name for new migration (used with create command)")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, dialect, err := open(cfg)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := goose.SetDialect(dialect); err != nil {
		log.Fatalf("Failed to set dialect: %v", err)
	}

	if err := run(db, *dir, *command, *name); err != nil {
		log.Fatalf("migrate %s: %v", *command, err)
	}
}

func run(db *sql.DB, dir, command, name string) error {
	switch command {
	case "create":
		if name == "" {
			return fmt.Errorf("-name is required")
		}
		if err := goose.Create(db, dir, name, "sql"); err != nil {
			return err
		}
		fmt.Printf("Created migration %s in %s\n", name, dir)
	case "up":
		if err := goose.Up(db, dir); err != nil {
			return err
		}
		fmt.Println("storage_records schema is up to date")
	case "down":
		if err := goose.Down(db, dir); err != nil {
			return err
		}
		fmt.Println("Rolled back one migration")
	case "redo":
		return goose.Redo(db, dir)
	case "status":
		return goose.Status(db, dir)
	case "version":
		return goose.Version(db, dir)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
	return nil
}

// open returns a handle for the configured driver. SQLite goes through the
// gorm driver so the binary needs no second cgo sqlite package.
func open(cfg *config.Config) (*sql.DB, string, error) {
	switch cfg.DBDriver {
	case "", "postgres":
		db, err := sql.Open("postgres", database.PostgresDSN(cfg))
		return db, "postgres", err
	case "sqlite":
		gdb, err := database.NewSQLiteDB(cfg.SQLitePath)
		if err != nil {
			return nil, "", err
		}
		db, err := gdb.DB()
		return db, "sqlite3", err
	default:
		return nil, "", fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
	}
}
