package main

import (
	"log"
	"os"

	"github.com/eduplatform/backend/core"
	"github.com/eduplatform/backend/core/platform"
	"github.com/eduplatform/backend/services/export"
	"github.com/eduplatform/backend/services/logger"
	"github.com/eduplatform/backend/storage/database/inmem"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "EDUPLATFORM : ", log.LstdFlags|log.Lmicroseconds),
		conf,
	)

	// set up DB & repos
	db := inmemdb.Open()
	svc := platform.NewService(
		conf,
		logger,
		inmemdb.NewUserRepository(db),
		inmemdb.NewAssignmentRepository(db),
		inmemdb.NewGradeRepository(db),
		inmemdb.NewScheduleRepository(db),
	)
	if _, _, err := svc.EnsureDefaultAdmin(); err != nil {
		logger.Fatal("creating default admin", err)
	}

	// start CLI
	cli := commandLine{
		conf:     conf,
		logger:   logger,
		svc:      svc,
		exporter: export.NewExporter(conf, logger),
		out:      os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error("command failed", err)
		}
		os.Exit(1)
	}
}
