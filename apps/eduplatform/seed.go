package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/eduplatform/backend/core"
	"github.com/eduplatform/backend/core/assignment"
	"github.com/eduplatform/backend/core/platform"
	"github.com/eduplatform/backend/core/schedule"
	"github.com/eduplatform/backend/core/user"
)

type (
	seedUser struct {
		Ref        string   `yaml:"ref"`
		FullName   string   `yaml:"full_name"`
		Email      string   `yaml:"email"`
		Password   string   `yaml:"password"`
		Role       string   `yaml:"role"`
		GradeLevel string   `yaml:"grade_level"`
		Children   []string `yaml:"children"`
	}

	seedProfile struct {
		User     string   `yaml:"user"`
		Phone    *string  `yaml:"phone"`
		Address  *string  `yaml:"address"`
		Subjects []string `yaml:"subjects"`
		Classes  []string `yaml:"classes"`
		Workload *int     `yaml:"workload"`
	}

	seedAssignment struct {
		Ref         string `yaml:"ref"`
		Teacher     string `yaml:"teacher"`
		Title       string `yaml:"title"`
		Description string `yaml:"description"`
		DueInDays   int    `yaml:"due_in_days"`
		Subject     string `yaml:"subject"`
		ClassID     string `yaml:"class_id"`
		Difficulty  string `yaml:"difficulty"`
	}

	seedSubmission struct {
		Student    string `yaml:"student"`
		Assignment string `yaml:"assignment"`
		Content    string `yaml:"content"`
	}

	seedGrade struct {
		Teacher    string `yaml:"teacher"`
		Student    string `yaml:"student"`
		Assignment string `yaml:"assignment"`
		Value      int    `yaml:"value"`
		Comment    string `yaml:"comment"`
	}

	seedLesson struct {
		Time    string `yaml:"time"`
		Subject string `yaml:"subject"`
		Teacher string `yaml:"teacher"`
	}

	seedSchedule struct {
		ClassID string       `yaml:"class_id"`
		Day     string       `yaml:"day"`
		Lessons []seedLesson `yaml:"lessons"`
	}

	seed struct {
		Users       []seedUser       `yaml:"users"`
		Profiles    []seedProfile    `yaml:"profiles"`
		Assignments []seedAssignment `yaml:"assignments"`
		Submissions []seedSubmission `yaml:"submissions"`
		Grades      []seedGrade      `yaml:"grades"`
		Schedules   []seedSchedule   `yaml:"schedules"`
		Removals    []string         `yaml:"removals"`
	}

	// seedResult counts the replayed steps. Failed steps are logged and skipped.
	seedResult struct {
		Applied int
		Failed  int
	}
)

func loadSeed(path, workDir string) (seed, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(workDir, path)
	}
	var s seed
	b, err := os.ReadFile(path)
	if err != nil {
		return s, errors.Wrap(err, "reading seed file")
	}
	if err := yaml.Unmarshal(b, &s); err != nil {
		return s, errors.Wrap(err, "parsing seed file")
	}
	return s, nil
}

// seeder replays a seed against the platform, resolving refs to the ids it creates.
type seeder struct {
	svc    *platform.Service
	logger core.Logger
	now    time.Time

	users       map[string]int
	assignments map[string]int
	res         seedResult
}

func newSeeder(svc *platform.Service, logger core.Logger, now time.Time) *seeder {
	return &seeder{
		svc:         svc,
		logger:      logger,
		now:         now,
		users:       make(map[string]int),
		assignments: make(map[string]int),
	}
}

func (sd *seeder) step(name string, err error) {
	if err != nil {
		sd.res.Failed++
		sd.logger.Warn(fmt.Sprintf("seed: %s failed", name), err)
		return
	}
	sd.res.Applied++
}

func (sd *seeder) userID(ref string) int {
	return sd.users[ref] // 0 never matches a user
}

func (sd *seeder) run(s seed) seedResult {
	for _, su := range s.Users {
		children := make([]int, 0, len(su.Children))
		for _, ref := range su.Children {
			children = append(children, sd.userID(ref))
		}
		usr, err := sd.svc.Register(user.NewUser{
			FullName:    su.FullName,
			Email:       su.Email,
			Password:    su.Password,
			Role:        user.Role(su.Role),
			GradeLevel:  su.GradeLevel,
			ChildrenIDs: children,
		})
		if err == nil {
			sd.users[su.Ref] = usr.ID
		}
		sd.step("registering "+su.Email, err)
	}

	for _, sp := range s.Profiles {
		_, err := sd.svc.UpdateProfile(sd.userID(sp.User), user.UpdateUser{
			Phone:    sp.Phone,
			Address:  sp.Address,
			Subjects: sp.Subjects,
			Classes:  sp.Classes,
			Workload: sp.Workload,
		})
		sd.step("updating profile of "+sp.User, err)
	}

	for _, sa := range s.Assignments {
		asg, err := sd.svc.CreateAssignment(assignment.NewAssignment{
			TeacherID:   sd.userID(sa.Teacher),
			Title:       sa.Title,
			Description: sa.Description,
			Deadline:    sd.now.UTC().AddDate(0, 0, sa.DueInDays).Format(time.RFC3339),
			Subject:     sa.Subject,
			ClassID:     sa.ClassID,
			Difficulty:  assignment.Difficulty(sa.Difficulty),
		})
		if err == nil {
			sd.assignments[sa.Ref] = asg.ID
		}
		sd.step("creating assignment "+sa.Ref, err)
	}

	for _, ss := range s.Submissions {
		_, err := sd.svc.SubmitAssignment(sd.userID(ss.Student), sd.assignments[ss.Assignment], ss.Content)
		sd.step(fmt.Sprintf("submitting %s for %s", ss.Assignment, ss.Student), err)
	}

	for _, sg := range s.Grades {
		_, err := sd.svc.GradeAssignment(
			sd.userID(sg.Teacher), sd.userID(sg.Student), sd.assignments[sg.Assignment], sg.Value, sg.Comment,
		)
		sd.step(fmt.Sprintf("grading %s for %s", sg.Assignment, sg.Student), err)
	}

	for _, ssch := range s.Schedules {
		sched, err := sd.svc.CreateSchedule(schedule.NewSchedule{ClassID: ssch.ClassID, Day: ssch.Day})
		sd.step(fmt.Sprintf("creating schedule %s %s", ssch.ClassID, ssch.Day), err)
		if err != nil {
			continue
		}
		for _, sl := range ssch.Lessons {
			_, err := sd.svc.AddLessonToSchedule(sched.ID, schedule.NewLesson{
				Time:      sl.Time,
				Subject:   sl.Subject,
				TeacherID: sd.userID(sl.Teacher),
			})
			sd.step(fmt.Sprintf("adding %s lesson at %s", sl.Subject, sl.Time), err)
		}
	}

	for _, ref := range s.Removals {
		sd.step("removing "+ref, sd.svc.RemoveUser(sd.userID(ref)))
	}
	return sd.res
}
