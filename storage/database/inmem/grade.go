package inmemdb

import "github.com/eduplatform/backend/core/grade"

type gradeRepository struct {
	db *gradeTable
}

func NewGradeRepository(db *DB) grade.Repository {
	return &gradeRepository{db: db.grade}
}

func (repo *gradeRepository) CreateGrade(g grade.Grade) (grade.Grade, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	g.ID = repo.db.pk.next()
	repo.db.rows = append(repo.db.rows, g)
	return g, nil
}

func (repo *gradeRepository) QueryAllGrades() ([]grade.Grade, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return append([]grade.Grade{}, repo.db.rows...), nil
}

func (repo *gradeRepository) FilterGrades(filter grade.QueryFilter) ([]grade.Grade, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	res := make([]grade.Grade, 0)
	for _, g := range repo.db.rows {
		if filter.Match(g) {
			res = append(res, g)
		}
	}
	return res, nil
}

func (repo *gradeRepository) DeleteGrades(filter grade.QueryFilter) (int, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	kept := make([]grade.Grade, 0, len(repo.db.rows))
	for _, g := range repo.db.rows {
		if !filter.Match(g) {
			kept = append(kept, g)
		}
	}
	removed := len(repo.db.rows) - len(kept)
	repo.db.rows = kept
	return removed, nil
}
