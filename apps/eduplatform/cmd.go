package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"golang.org/x/term"

	"github.com/eduplatform/backend/core"
	"github.com/eduplatform/backend/core/platform"
	"github.com/eduplatform/backend/services/export"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	conf     *core.Config
	logger   core.Logger
	svc      *platform.Service
	exporter *export.Exporter
	out      io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  demo [-seed FILE] [-export]              - replay a seed scenario and print its reports")
	fmt.Fprintln(cli.out, "  report -email EMAIL -type TYPE [-seed FILE] - print a report as an admin")
	fmt.Fprintln(cli.out, "        TYPE: student_success | teacher_workload | class_statistics")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	demoCmd := flag.NewFlagSet("demo", flag.ContinueOnError)
	demoSeed := demoCmd.String("seed", cli.conf.SeedFile, "The YAML seed file to replay.")
	demoExport := demoCmd.Bool("export", false, "Export the resulting data as CSV, XLSX and SQL.")

	reportCmd := flag.NewFlagSet("report", flag.ContinueOnError)
	reportEmail := reportCmd.String("email", "", "The admin's email. The password will be prompted next.")
	reportType := reportCmd.String("type", string(platform.ReportStudentSuccess), "The report type.")
	reportSeed := reportCmd.String("seed", "", "An optional YAML seed file to replay first.")

	demoCmd.SetOutput(cli.out)
	reportCmd.SetOutput(cli.out)

	switch args[1] {
	case "demo":
		if err := demoCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		return cli.demo(*demoSeed, *demoExport)
	case "report":
		if err := reportCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *reportEmail == "" {
			reportCmd.Usage()
			return errHelp
		}
		fmt.Fprint(cli.out, "Enter password:")
		pwd, err := readPasswordFunc(int(syscall.Stdin))
		fmt.Fprintln(cli.out)
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			reportCmd.Usage()
			return errHelp
		}
		return cli.report(*reportEmail, string(pwd), platform.ReportType(*reportType), *reportSeed)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) replay(seedFile string) (seedResult, error) {
	s, err := loadSeed(seedFile, cli.conf.WorkDir)
	if err != nil {
		return seedResult{}, err
	}
	res := newSeeder(cli.svc, cli.logger, platform.NowFunc()).run(s)
	cli.logger.Info("seed replayed", map[string]interface{}{"applied": res.Applied, "failed": res.Failed})
	return res, nil
}

// demo replays the seed, prints every report as the default admin and optionally exports the data.
func (cli *commandLine) demo(seedFile string, withExport bool) error {
	if _, err := cli.replay(seedFile); err != nil {
		return err
	}

	admin, err := cli.svc.Authenticate(cli.conf.DefaultAdmin.Email, cli.conf.DefaultAdmin.Password)
	if err != nil {
		return err
	}
	for _, rt := range []platform.ReportType{
		platform.ReportStudentSuccess,
		platform.ReportTeacherWorkload,
		platform.ReportClassStatistics,
	} {
		rep, err := cli.svc.GenerateReport(admin.ID, rt)
		if err != nil {
			return err
		}
		if err := cli.printJSON(rep); err != nil {
			return err
		}
	}

	if withExport {
		snap, err := cli.svc.Snapshot()
		if err != nil {
			return err
		}
		paths, err := cli.exporter.ExportAll(snap)
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Fprintln(cli.out, "exported:", p)
		}
	}
	return nil
}

func (cli *commandLine) report(email, pwd string, rt platform.ReportType, seedFile string) error {
	if seedFile != "" {
		if _, err := cli.replay(seedFile); err != nil {
			return err
		}
	}
	admin, err := cli.svc.Authenticate(email, pwd)
	if err != nil {
		return err
	}
	rep, err := cli.svc.GenerateReport(admin.ID, rt)
	if err != nil {
		return err
	}
	return cli.printJSON(rep)
}

func (cli *commandLine) printJSON(v interface{}) error {
	enc := json.NewEncoder(cli.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
