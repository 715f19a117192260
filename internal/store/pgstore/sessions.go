package pgstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/talentprobe/talentprobe-backend/internal/model"
	"github.com/talentprobe/talentprobe-backend/internal/store"
)

const sessionColumns = `id, organization_id, test_id, candidate_id, access_token,
	status, started_at, completed_at, score, percent_score, passed, expires_at, created_at`

func scanSession(row pgx.Row) (*model.TestSession, error) {
	sess := &model.TestSession{}
	err := row.Scan(&sess.ID, &sess.OrganizationID, &sess.TestID, &sess.CandidateID,
		&sess.AccessToken, &sess.Status, &sess.StartedAt, &sess.CompletedAt,
		&sess.Score, &sess.PercentScore, &sess.Passed, &sess.ExpiresAt, &sess.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return sess, nil
}

func (s *Store) CreateSession(ctx context.Context, orgID int64, sess *model.TestSession) error {
	if _, err := s.Test(ctx, orgID, sess.TestID); err != nil {
		return err
	}
	if _, err := s.Candidate(ctx, orgID, sess.CandidateID); err != nil {
		return err
	}

	sess.OrganizationID = orgID
	sess.Status = model.SessionStatusPending
	err := s.pool.QueryRow(ctx,
		`INSERT INTO test_sessions (organization_id, test_id, candidate_id, access_token, status, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		orgID, sess.TestID, sess.CandidateID, sess.AccessToken, sess.Status, sess.ExpiresAt,
	).Scan(&sess.ID, &sess.CreatedAt)
	return mapErr(err)
}

func (s *Store) Session(ctx context.Context, orgID, id int64) (*model.TestSession, error) {
	return scanSession(s.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM test_sessions
		 WHERE id = $1 AND organization_id = $2`, id, orgID))
}

// SessionByToken is the one org-agnostic session lookup: the token is a
// globally unique bearer credential held by the candidate.
func (s *Store) SessionByToken(ctx context.Context, token string) (*model.TestSession, error) {
	return scanSession(s.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM test_sessions
		 WHERE access_token = $1`, token))
}

func (s *Store) SessionsByTest(ctx context.Context, orgID, testID int64, limit, offset int) ([]store.SessionResult, int, error) {
	if _, err := s.Test(ctx, orgID, testID); err != nil {
		return nil, 0, err
	}

	var total int
	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM test_sessions WHERE test_id = $1 AND organization_id = $2`,
		testID, orgID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT ts.id, ts.organization_id, ts.test_id, ts.candidate_id, ts.access_token,
			ts.status, ts.started_at, ts.completed_at, ts.score, ts.percent_score,
			ts.passed, ts.expires_at, ts.created_at,
			c.name, c.email
		 FROM test_sessions ts
		 JOIN candidates c ON ts.candidate_id = c.id
		 WHERE ts.test_id = $1 AND ts.organization_id = $2
		 ORDER BY ts.id
		 LIMIT $3 OFFSET $4`, testID, orgID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var results []store.SessionResult
	for rows.Next() {
		var r store.SessionResult
		sess := &r.Session
		if err := rows.Scan(&sess.ID, &sess.OrganizationID, &sess.TestID, &sess.CandidateID,
			&sess.AccessToken, &sess.Status, &sess.StartedAt, &sess.CompletedAt,
			&sess.Score, &sess.PercentScore, &sess.Passed, &sess.ExpiresAt, &sess.CreatedAt,
			&r.CandidateName, &r.CandidateEmail); err != nil {
			return nil, 0, err
		}
		results = append(results, r)
	}
	return results, total, rows.Err()
}

// StartSession moves a session into in_progress and stamps the start
// time. The status guard keeps a racing start from resurrecting a
// completed session.
func (s *Store) StartSession(ctx context.Context, sessionID int64, startedAt time.Time) (*model.TestSession, error) {
	sess, err := scanSession(s.pool.QueryRow(ctx,
		`UPDATE test_sessions
		 SET status = $2, started_at = $3
		 WHERE id = $1 AND status <> $4
		 RETURNING `+sessionColumns,
		sessionID, model.SessionStatusInProgress, startedAt, model.SessionStatusCompleted))
	if errors.Is(err, store.ErrNotFound) {
		return nil, s.disambiguate(ctx, sessionID)
	}
	return sess, err
}

// CompleteSession performs the exactly-once completed transition: a
// guarded UPDATE wins only while status is not completed, and the answer
// rows are inserted in the same transaction.
func (s *Store) CompleteSession(ctx context.Context, sessionID int64, completion store.SessionCompletion) (*model.TestSession, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	sess, err := scanSession(tx.QueryRow(ctx,
		`UPDATE test_sessions
		 SET status = $2, completed_at = $3, score = $4, percent_score = $5, passed = $6
		 WHERE id = $1 AND status <> $7
		 RETURNING `+sessionColumns,
		sessionID, model.SessionStatusCompleted, completion.CompletedAt,
		completion.Score, completion.PercentScore, completion.Passed,
		model.SessionStatusCompleted))
	if errors.Is(err, store.ErrNotFound) {
		return nil, s.disambiguate(ctx, sessionID)
	}
	if err != nil {
		return nil, err
	}

	if len(completion.Answers) > 0 {
		n := len(completion.Answers)
		questionIDs := make([]int64, 0, n)
		answers := make([][]byte, 0, n)
		answerTexts := make([]*string, 0, n)
		corrects := make([]bool, 0, n)
		points := make([]int, 0, n)

		for _, a := range completion.Answers {
			questionIDs = append(questionIDs, a.QuestionID)
			answers = append(answers, normalizedJSON(a.Answer))
			answerTexts = append(answerTexts, a.AnswerText)
			corrects = append(corrects, a.IsCorrect)
			points = append(points, a.PointsAwarded)
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO candidate_answers (session_id, question_id, answer, answer_text, is_correct, points_awarded)
			 SELECT $1, u.question_id, u.answer, u.answer_text, u.is_correct, u.points_awarded
			 FROM UNNEST(
				$2::bigint[],
				$3::jsonb[],
				$4::text[],
				$5::boolean[],
				$6::int[]
			 ) AS u (question_id, answer, answer_text, is_correct, points_awarded)`,
			sessionID, questionIDs, answers, answerTexts, corrects, points); err != nil {
			return nil, mapErr(err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return sess, nil
}

// disambiguate decides whether a failed guarded UPDATE means the session
// is absent (NotFound) or already completed (Conflict).
func (s *Store) disambiguate(ctx context.Context, sessionID int64) error {
	var status model.SessionStatus
	err := s.pool.QueryRow(ctx,
		`SELECT status FROM test_sessions WHERE id = $1`, sessionID).Scan(&status)
	if err != nil {
		return mapErr(err)
	}
	if status == model.SessionStatusCompleted {
		return store.ErrConflict
	}
	return store.ErrNotFound
}

func (s *Store) AnswersBySession(ctx context.Context, orgID, sessionID int64) ([]model.CandidateAnswer, error) {
	if _, err := s.Session(ctx, orgID, sessionID); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT session_id, question_id, answer, answer_text, is_correct, points_awarded
		 FROM candidate_answers
		 WHERE session_id = $1
		 ORDER BY question_id`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []model.CandidateAnswer
	for rows.Next() {
		var a model.CandidateAnswer
		if err := rows.Scan(&a.SessionID, &a.QuestionID, &a.Answer, &a.AnswerText, &a.IsCorrect, &a.PointsAwarded); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

func normalizedJSON(raw json.RawMessage) []byte {
	if len(raw) == 0 {
		return []byte("null")
	}
	return raw
}
