// Command ledgerctl administers the license ledger from a shell:
// schema migrations, account provisioning, pools and access codes.
package main

import (
	"os"

	"github.com/karnika-s/heart-temp-sub000/internal/config"
	"github.com/karnika-s/heart-temp-sub000/internal/database"
	"github.com/karnika-s/heart-temp-sub000/internal/logger"
	"github.com/karnika-s/heart-temp-sub000/internal/repository"
	"github.com/karnika-s/heart-temp-sub000/internal/service"
)

var log *logger.Logger

func main() {
	log = logger.New(logger.Options{Prefix: "ledgerctl", Output: os.Stderr})

	// set up DB
	cfg := config.LoadDB()
	db, err := database.Connect(cfg)
	errAndDie(err)
	defer db.Close()

	// start CLI
	store := repository.NewStore(db)
	cli := commandLine{
		db:    db,
		users: store.Users(),
		svc:   service.New(store),
		cost:  cfg.BcryptCost,
		out:   os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			log.Errorf("%v", err)
		}
		db.Close()
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
