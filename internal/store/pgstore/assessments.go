package pgstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/talentprobe/talentprobe-backend/internal/model"
	"github.com/talentprobe/talentprobe-backend/internal/store"
)

// ─── Tests ──────────────────────────────────────────────────────────────

const testColumns = `id, organization_id, name, description, created_by,
	time_limit_minutes, is_active, passing_score, created_at, updated_at`

func scanTest(row pgx.Row) (*model.Test, error) {
	t := &model.Test{}
	err := row.Scan(&t.ID, &t.OrganizationID, &t.Name, &t.Description, &t.CreatedBy,
		&t.TimeLimitMins, &t.IsActive, &t.PassingScore, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return t, nil
}

func (s *Store) CreateTest(ctx context.Context, orgID int64, t *model.Test) error {
	t.OrganizationID = orgID
	err := s.pool.QueryRow(ctx,
		`INSERT INTO tests (organization_id, name, description, created_by, time_limit_minutes, is_active, passing_score)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at`,
		orgID, t.Name, t.Description, t.CreatedBy, t.TimeLimitMins, t.IsActive, t.PassingScore,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	return mapErr(err)
}

func (s *Store) Test(ctx context.Context, orgID, id int64) (*model.Test, error) {
	return scanTest(s.pool.QueryRow(ctx,
		`SELECT `+testColumns+` FROM tests
		 WHERE id = $1 AND organization_id = $2`, id, orgID))
}

func (s *Store) Tests(ctx context.Context, orgID int64) ([]model.Test, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+testColumns+` FROM tests
		 WHERE organization_id = $1
		 ORDER BY id`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tests []model.Test
	for rows.Next() {
		var t model.Test
		if err := rows.Scan(&t.ID, &t.OrganizationID, &t.Name, &t.Description, &t.CreatedBy,
			&t.TimeLimitMins, &t.IsActive, &t.PassingScore, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		tests = append(tests, t)
	}
	return tests, rows.Err()
}

func (s *Store) UpdateTest(ctx context.Context, orgID, id int64, upd model.UpdateTestRequest) (*model.Test, error) {
	// COALESCE merges only the supplied fields; organization_id is never
	// part of the SET list.
	return scanTest(s.pool.QueryRow(ctx,
		`UPDATE tests SET
			name = COALESCE($3, name),
			description = COALESCE($4, description),
			time_limit_minutes = COALESCE($5, time_limit_minutes),
			is_active = COALESCE($6, is_active),
			passing_score = COALESCE($7, passing_score),
			updated_at = NOW()
		 WHERE id = $1 AND organization_id = $2
		 RETURNING `+testColumns,
		id, orgID, upd.Name, upd.Description, upd.TimeLimitMins, upd.IsActive, upd.PassingScore))
}

func (s *Store) DeleteTest(ctx context.Context, orgID, id int64) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM tests WHERE id = $1 AND organization_id = $2`, id, orgID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ─── Questions ──────────────────────────────────────────────────────────

const questionColumns = `id, test_id, organization_id, content, type, options, correct_answer, points, order_num`

func scanQuestion(row pgx.Row) (*model.Question, error) {
	q := &model.Question{}
	var options []byte
	err := row.Scan(&q.ID, &q.TestID, &q.OrganizationID, &q.Content, &q.Type,
		&options, &q.CorrectAnswer, &q.Points, &q.Order)
	if err != nil {
		return nil, mapErr(err)
	}
	if len(options) > 0 {
		if err := json.Unmarshal(options, &q.Options); err != nil {
			return nil, fmt.Errorf("decode options: %w", err)
		}
	}
	return q, nil
}

func (s *Store) CreateQuestion(ctx context.Context, orgID int64, q *model.Question) error {
	// Ownership check doubles as the tenant check for the parent test.
	if _, err := s.Test(ctx, orgID, q.TestID); err != nil {
		return err
	}

	q.OrganizationID = orgID
	if q.Points <= 0 {
		q.Points = model.DefaultQuestionPoints
	}

	options, err := json.Marshal(q.Options)
	if err != nil {
		return fmt.Errorf("encode options: %w", err)
	}

	if q.Order <= 0 {
		err = s.pool.QueryRow(ctx,
			`INSERT INTO questions (test_id, organization_id, content, type, options, correct_answer, points, order_num)
			 VALUES ($1, $2, $3, $4, $5, $6, $7,
				(SELECT COALESCE(MAX(order_num), 0) + 1 FROM questions WHERE test_id = $1))
			 RETURNING id, order_num`,
			q.TestID, orgID, q.Content, q.Type, options, q.CorrectAnswer, q.Points,
		).Scan(&q.ID, &q.Order)
	} else {
		err = s.pool.QueryRow(ctx,
			`INSERT INTO questions (test_id, organization_id, content, type, options, correct_answer, points, order_num)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 RETURNING id`,
			q.TestID, orgID, q.Content, q.Type, options, q.CorrectAnswer, q.Points, q.Order,
		).Scan(&q.ID)
	}
	return mapErr(err)
}

func (s *Store) Question(ctx context.Context, orgID, id int64) (*model.Question, error) {
	return scanQuestion(s.pool.QueryRow(ctx,
		`SELECT `+questionColumns+` FROM questions
		 WHERE id = $1 AND organization_id = $2`, id, orgID))
}

func (s *Store) QuestionsByTest(ctx context.Context, orgID, testID int64) ([]model.Question, error) {
	if _, err := s.Test(ctx, orgID, testID); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+questionColumns+` FROM questions
		 WHERE test_id = $1 AND organization_id = $2
		 ORDER BY order_num`, testID, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		var options []byte
		if err := rows.Scan(&q.ID, &q.TestID, &q.OrganizationID, &q.Content, &q.Type,
			&options, &q.CorrectAnswer, &q.Points, &q.Order); err != nil {
			return nil, err
		}
		if len(options) > 0 {
			if err := json.Unmarshal(options, &q.Options); err != nil {
				return nil, fmt.Errorf("decode options: %w", err)
			}
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func (s *Store) UpdateQuestion(ctx context.Context, orgID, id int64, upd model.UpdateQuestionRequest) (*model.Question, error) {
	var options []byte
	if upd.Options != nil {
		var err error
		options, err = json.Marshal(upd.Options)
		if err != nil {
			return nil, fmt.Errorf("encode options: %w", err)
		}
	}

	return scanQuestion(s.pool.QueryRow(ctx,
		`UPDATE questions SET
			content = COALESCE($3, content),
			options = COALESCE($4, options),
			correct_answer = COALESCE($5, correct_answer),
			points = COALESCE($6, points)
		 WHERE id = $1 AND organization_id = $2
		 RETURNING `+questionColumns,
		id, orgID, upd.Content, options, upd.CorrectAnswer, upd.Points))
}

func (s *Store) DeleteQuestion(ctx context.Context, orgID, id int64) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM questions WHERE id = $1 AND organization_id = $2`, id, orgID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ReorderQuestions reassigns order_num 1..N per the supplied sequence in
// one transaction. The id set must exactly match the test's questions or
// nothing changes.
func (s *Store) ReorderQuestions(ctx context.Context, orgID, testID int64, orderedIDs []int64) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var owner int64
	if err := tx.QueryRow(ctx,
		`SELECT organization_id FROM tests WHERE id = $1 AND organization_id = $2`,
		testID, orgID).Scan(&owner); err != nil {
		return mapErr(err)
	}

	rows, err := tx.Query(ctx,
		`SELECT id FROM questions WHERE test_id = $1 FOR UPDATE`, testID)
	if err != nil {
		return err
	}
	existing := make(map[int64]struct{})
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		existing[id] = struct{}{}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	if len(orderedIDs) != len(existing) {
		return store.ErrReorderMismatch
	}
	seen := make(map[int64]struct{}, len(orderedIDs))
	for _, id := range orderedIDs {
		if _, ok := existing[id]; !ok {
			return store.ErrReorderMismatch
		}
		if _, dup := seen[id]; dup {
			return store.ErrReorderMismatch
		}
		seen[id] = struct{}{}
	}

	orders := make([]int, len(orderedIDs))
	for i := range orderedIDs {
		orders[i] = i + 1
	}

	if _, err := tx.Exec(ctx,
		`UPDATE questions AS q
		 SET order_num = t.order_num
		 FROM (
			SELECT u.id, u.order_num
			FROM UNNEST($1::bigint[], $2::int[]) AS u (id, order_num)
		 ) AS t
		 WHERE q.id = t.id`, orderedIDs, orders); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
