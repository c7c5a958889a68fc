package inmemdb

import (
	"sort"

	"github.com/eduplatform/backend/core/schedule"
)

type scheduleRepository struct {
	db *scheduleTable
}

func NewScheduleRepository(db *DB) schedule.Repository {
	return &scheduleRepository{db: db.schedule}
}

func (repo *scheduleRepository) query() []schedule.Schedule {
	res := make([]schedule.Schedule, 0, len(repo.db.table))
	for _, s := range repo.db.table {
		res = append(res, s.Clone())
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

func (repo *scheduleRepository) CreateSchedule(s schedule.Schedule) (schedule.Schedule, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	s = s.Clone()
	s.ID = repo.db.pk.next()
	repo.db.table[s.ID] = &s
	return s.Clone(), nil
}

func (repo *scheduleRepository) QueryAllSchedules() ([]schedule.Schedule, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.query(), nil
}

func (repo *scheduleRepository) FilterSchedules(day string, classID ...string) ([]schedule.Schedule, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	res := make([]schedule.Schedule, 0)
	for _, s := range repo.query() {
		if !s.SameDay(day) {
			continue
		}
		if len(classID) > 0 && s.ClassID != classID[0] {
			continue
		}
		res = append(res, s)
	}
	return res, nil
}

func (repo *scheduleRepository) GetScheduleByID(id int) (schedule.Schedule, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if s, ok := repo.db.table[id]; ok {
		return s.Clone(), nil
	}
	return schedule.Schedule{}, schedule.ErrNotFound
}

func (repo *scheduleRepository) UpdateSchedule(s schedule.Schedule) (schedule.Schedule, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[s.ID]; !ok {
		return schedule.Schedule{}, schedule.ErrNotFound
	}
	s = s.Clone()
	repo.db.table[s.ID] = &s
	return s.Clone(), nil
}
