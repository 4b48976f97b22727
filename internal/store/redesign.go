package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pavelanni/reassess/internal/model"
)

const redesignColumns = `id, user_id, title, assignment_text, num_students, skills, strategies,
	sections, practical_tips, rubric, created_at`

// SaveRedesign archives a finished redesign and returns its ID.
func (s *Store) SaveRedesign(r model.Redesign) (int64, error) {
	skills, err := json.Marshal(orEmpty(r.Skills))
	if err != nil {
		return 0, fmt.Errorf("encode skills: %w", err)
	}
	strategies, err := json.Marshal(orEmpty(r.Strategies))
	if err != nil {
		return 0, fmt.Errorf("encode strategies: %w", err)
	}
	sections, err := json.Marshal(orEmpty(r.Sections))
	if err != nil {
		return 0, fmt.Errorf("encode sections: %w", err)
	}
	rubric, err := json.Marshal(orEmpty(r.Rubric))
	if err != nil {
		return 0, fmt.Errorf("encode rubric: %w", err)
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	res, err := s.db.Exec(
		`INSERT INTO redesigns (user_id, title, assignment_text, num_students, skills, strategies,
		 sections, practical_tips, rubric, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.UserID, r.Title, r.AssignmentText, r.NumStudents, string(skills), string(strategies),
		string(sections), r.PracticalTips, string(rubric), r.CreatedAt,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func orEmpty[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}

func scanRedesign(r rowScanner) (*model.Redesign, error) {
	var (
		rd                                   model.Redesign
		skills, strategies, sections, rubric string
	)
	err := r.Scan(&rd.ID, &rd.UserID, &rd.Title, &rd.AssignmentText, &rd.NumStudents,
		&skills, &strategies, &sections, &rd.PracticalTips, &rubric, &rd.CreatedAt)
	if err != nil {
		return nil, err
	}
	for _, f := range []struct {
		name string
		raw  string
		dst  any
	}{
		{"skills", skills, &rd.Skills},
		{"strategies", strategies, &rd.Strategies},
		{"sections", sections, &rd.Sections},
		{"rubric", rubric, &rd.Rubric},
	} {
		if err := json.Unmarshal([]byte(f.raw), f.dst); err != nil {
			return nil, fmt.Errorf("decode %s of redesign %d: %w", f.name, rd.ID, err)
		}
	}
	return &rd, nil
}

// GetRedesign returns an archived redesign, or nil if there is none.
func (s *Store) GetRedesign(id int64) (*model.Redesign, error) {
	rd, err := scanRedesign(s.db.QueryRow(`SELECT `+redesignColumns+` FROM redesigns WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return rd, err
}

// ListRedesigns returns archived redesigns, newest first. userID 0 lists all.
func (s *Store) ListRedesigns(userID int64) ([]model.Redesign, error) {
	query := `SELECT ` + redesignColumns + ` FROM redesigns`
	var args []any
	if userID != 0 {
		query += ` WHERE user_id = ?`
		args = append(args, userID)
	}
	query += ` ORDER BY id DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Redesign
	for rows.Next() {
		rd, err := scanRedesign(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rd)
	}
	return out, rows.Err()
}

// DeleteRedesign removes an archived redesign owned by userID.
func (s *Store) DeleteRedesign(id, userID int64) error {
	res, err := s.db.Exec(`DELETE FROM redesigns WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ExportRedesigns builds the archive export with every redesign and its author.
func (s *Store) ExportRedesigns() (model.RedesignExport, error) {
	redesigns, err := s.ListRedesigns(0)
	if err != nil {
		return model.RedesignExport{}, fmt.Errorf("list redesigns: %w", err)
	}
	info, err := s.GetInstance()
	if err != nil {
		return model.RedesignExport{}, fmt.Errorf("read instance metadata: %w", err)
	}

	authors := make(map[int64]string)
	records := make([]model.RedesignRecord, 0, len(redesigns))
	for _, rd := range redesigns {
		name, ok := authors[rd.UserID]
		if !ok {
			u, err := s.GetUserByID(rd.UserID)
			if err != nil {
				return model.RedesignExport{}, fmt.Errorf("get user %d: %w", rd.UserID, err)
			}
			if u != nil {
				name = u.Username
			}
			authors[rd.UserID] = name
		}
		records = append(records, model.RedesignRecord{Instructor: name, Redesign: rd})
	}

	return model.RedesignExport{
		ExportedAt: time.Now().UTC(),
		Language:   info.Language,
		Count:      len(records),
		Redesigns:  records,
	}, nil
}
