package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"tenure.app/internal/migrate"
)

func main() {
	var (
		dsn = flag.String("dsn", os.Getenv("TENURE_PG_DSN"), "PostgreSQL DSN")
		dir = flag.String("migrations", "migrations", "path to SQL migrations")
	)
	flag.Parse()

	if *dsn == "" {
		log.Fatal("migrate: -dsn or TENURE_PG_DSN is required")
	}
	if len(flag.Args()) == 0 {
		log.Fatal("migrate: expected a command: up, down or status")
	}

	db, err := sql.Open("pgx", *dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	mgr := migrate.NewManager(db, *dir)

	switch flag.Arg(0) {
	case "up":
		err = mgr.Up(ctx)
	case "down":
		err = mgr.Down(ctx)
	case "status":
		var applied []string
		applied, err = mgr.Status(ctx)
		if err == nil {
			if len(applied) == 0 {
				fmt.Println("no migrations applied")
			}
			for _, name := range applied {
				fmt.Println(name)
			}
		}
	default:
		log.Fatalf("unknown command %q", flag.Arg(0))
	}
	if err != nil {
		log.Fatalf("migrate %s: %v", flag.Arg(0), err)
	}
}
