package main

import (
	"bytes"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduplatform/backend/core/notification"
	"github.com/eduplatform/backend/core/platform"
	"github.com/eduplatform/backend/core/user"
	"github.com/eduplatform/backend/services/export"
	"github.com/eduplatform/backend/storage/database/inmem"
	"github.com/eduplatform/backend/tests"
)

var now = time.Date(2024, 9, 10, 10, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*commandLine, *bytes.Buffer) {
	conf := testutil.NewConfig()
	conf.Export.Dir = t.TempDir()
	logger := testutil.NewLogger(conf)

	platform.NowFunc = func() time.Time { return now }
	t.Cleanup(func() { platform.NowFunc = time.Now })

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
		t.Fatalf("EnsureDefaultAdmin() failed: %v", err)
	}

	out := new(bytes.Buffer)
	return &commandLine{
		conf:     conf,
		logger:   logger,
		svc:      svc,
		exporter: export.NewExporter(conf, logger),
		out:      out,
	}, out
}

type cliTest struct {
	name    string
	args    []string // without program name
	wantErr error
	extra   interface{}
}

// decodeReports reads the JSON reports printed to `out`.
func decodeReports(t *testing.T, out io.Reader) []platform.Report {
	reports := make([]platform.Report, 0)
	dec := json.NewDecoder(out)
	for dec.More() {
		var rep platform.Report
		require.NoError(t, dec.Decode(&rep))
		reports = append(reports, rep)
	}
	return reports
}

func Test_commandLine_usage(t *testing.T) {
	cli, _ := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "demo: unknown flag", args: []string{"demo", "-lol"}, wantErr: errHelp},
		{name: "report: no args", args: []string{"report"}, wantErr: errHelp},
		{name: "report: unknown flag", args: []string{"report", "-lol"}, wantErr: errHelp},
	}
	for _, tt := range tests {
		args := append([]string{"eduplatform"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func Test_commandLine_demo(t *testing.T) {
	t.Run("reports", func(t *testing.T) {
		cli, out := setup(t)
		require.NoError(t, cli.run([]string{"eduplatform", "demo"}))

		reports := decodeReports(t, out)
		require.Len(t, reports, 3)
		assert.Equal(t, platform.ReportStudentSuccess, reports[0].Type)
		assert.Equal(t, platform.ReportTeacherWorkload, reports[1].Type)
		assert.Equal(t, platform.ReportClassStatistics, reports[2].Type)

		ali := reports[0].StudentSuccess["Ali Valiyev"]
		assert.Equal(t, 3.0, ali.Average)
		assert.Equal(t, []int{4, 2}, ali.Grades["Math"])
		assert.NotContains(t, reports[0].StudentSuccess, "Dilnoza Karimova")

		assert.Equal(t, platform.TeacherWorkload{Subjects: 3, Classes: 2, Assignments: 2, WorkloadHours: 18},
			reports[1].TeacherWorkload["Sarvar Saidov"])

		class := reports[2].ClassStatistics["9-A"]
		assert.Equal(t, 1, class.StudentCount)
		assert.Equal(t, 3.0, class.ClassAverage)
	})

	t.Run("export", func(t *testing.T) {
		cli, out := setup(t)
		require.NoError(t, cli.run([]string{"eduplatform", "demo", "-export"}))

		exported := make([]string, 0)
		for _, line := range strings.Split(out.String(), "\n") {
			if strings.HasPrefix(line, "exported: ") {
				exported = append(exported, strings.TrimPrefix(line, "exported: "))
			}
		}
		assert.Equal(t, []string{
			filepath.Join(cli.exporter.Dir(), "users.csv"),
			filepath.Join(cli.exporter.Dir(), "assignments.csv"),
			filepath.Join(cli.exporter.Dir(), "grades.csv"),
			filepath.Join(cli.exporter.Dir(), "schedules.csv"),
			filepath.Join(cli.exporter.Dir(), "eduplatform.xlsx"),
			filepath.Join(cli.exporter.Dir(), "eduplatform.sql"),
		}, exported)

		events, err := export.ReadLog(cli.exporter.LogPath())
		require.NoError(t, err)
		assert.Len(t, events, 6)
	})

	t.Run("missing seed file", func(t *testing.T) {
		cli, _ := setup(t)
		err := cli.run([]string{"eduplatform", "demo", "-seed", "nope.yaml"})
		assert.Error(t, err)
		assert.NotEqual(t, errHelp, err)
	})
}

func Test_commandLine_report(t *testing.T) {
	origReadPassword := readPasswordFunc
	t.Cleanup(func() { readPasswordFunc = origReadPassword })

	type extra struct {
		pwd string
	}
	seedFile := filepath.Join("assets", "seed.yaml")
	tests := []cliTest{
		{name: "no email", args: []string{"report", "-type", "student_success"}, extra: extra{pwd: "adminpass"}, wantErr: errHelp},
		{name: "no password", args: []string{"report", "-email", "admin@eduplatform.com"}, wantErr: errHelp},
		{name: "unknown email", args: []string{"report", "-email", "nobody@school.com"}, extra: extra{pwd: "adminpass"}, wantErr: user.ErrNotFound},
		{name: "wrong password", args: []string{"report", "-email", "admin@eduplatform.com"}, extra: extra{pwd: "lol"}, wantErr: user.ErrInvalidCredentials},
		{
			name:    "not an admin",
			args:    []string{"report", "-email", "sarvar@teacher.com", "-seed", seedFile},
			extra:   extra{pwd: "teachpass"},
			wantErr: platform.ErrNotAdmin,
		},
		{
			name:    "unknown report type",
			args:    []string{"report", "-email", "admin@eduplatform.com", "-type", "attendance"},
			extra:   extra{pwd: "adminpass"},
			wantErr: platform.ErrUnknownReportType,
		},
		{name: "default type", args: []string{"report", "-email", "ADMIN@eduplatform.com"}, extra: extra{pwd: "adminpass"}},
		{
			name:  "teacher workload",
			args:  []string{"report", "-email", "admin@eduplatform.com", "-type", "teacher_workload", "-seed", seedFile},
			extra: extra{pwd: "adminpass"},
		},
	}
	for _, tt := range tests {
		args := append([]string{"eduplatform"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			cli, out := setup(t)
			err := cli.run(args)
			if err != tt.wantErr {
				t.Fatalf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}

			_, _ = out.ReadString(':') // password prompt
			reports := decodeReports(t, out)
			require.Len(t, reports, 1)
			if tt.name == "teacher workload" {
				assert.Equal(t, platform.ReportTeacherWorkload, reports[0].Type)
				assert.Contains(t, reports[0].TeacherWorkload, "Sarvar Saidov")
			} else {
				assert.Equal(t, platform.ReportStudentSuccess, reports[0].Type)
				assert.Empty(t, reports[0].StudentSuccess)
			}
		})
	}
}

func Test_seeder_run(t *testing.T) {
	cli, _ := setup(t)

	s, err := loadSeed(cli.conf.SeedFile, cli.conf.WorkDir)
	require.NoError(t, err)
	res := newSeeder(cli.svc, cli.logger, now).run(s)
	assert.Equal(t, seedResult{Applied: 15, Failed: 3}, res)

	users, err := cli.svc.QueryUsers(user.QueryFilter{})
	require.NoError(t, err)
	emails := make([]string, 0, len(users))
	for _, u := range users {
		emails = append(emails, u.Email)
	}
	assert.Equal(t, []string{
		"admin@eduplatform.com", "ali@student.com", "sarvar@teacher.com", "gulnora@parent.com",
	}, emails)

	ali, parent := users[1], users[3]
	assert.Equal(t, "998901234567", ali.Phone)
	assert.Equal(t, []int{ali.ID}, parent.Parent.Children)

	alerts, err := cli.svc.Notifications(parent.ID, notification.Filter{Priority: notification.PriorityImportant})
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Contains(t, alerts[0].Message, "low grade of 2")

	snap, err := cli.svc.Snapshot()
	require.NoError(t, err)
	require.Len(t, snap.Schedules, 1)
	assert.JSONEq(t,
		`{"09:00":{"subject":"Math","teacher_id":4},"10:00":{"subject":"Physics","teacher_id":4}}`,
		snap.Schedules[0]["lessons"].(string),
	)
}
