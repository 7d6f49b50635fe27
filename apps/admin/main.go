package main

import (
	"log"
	"os"

	"github.com/inaciofernandocosta/ignite-corp-catalog-sub001/core"
	"github.com/inaciofernandocosta/ignite-corp-catalog-sub001/core/user"
	emailsvc "github.com/inaciofernandocosta/ignite-corp-catalog-sub001/services/email"
	"github.com/inaciofernandocosta/ignite-corp-catalog-sub001/storage/database"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	// set up DB
	db, err := database.OpenAdmin(core.Conf)
	errAndDie(err)
	defer db.Close()
	errAndDie(database.Ping(db))

	usrRepo := database.NewUserRepository(db)
	enrRepo := database.NewEnrollmentRepository(db)

	// start CLI
	cli := commandLine{
		db:      db,
		usrRepo: usrRepo,
		usrSvc:  user.NewService(usrRepo, emailsvc.NewConsoleService()),
		enrDir:  enrRepo,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
