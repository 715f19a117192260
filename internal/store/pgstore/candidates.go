package pgstore

import (
	"context"

	"github.com/talentprobe/talentprobe-backend/internal/model"
)

const candidateColumns = `id, organization_id, name, email, position, created_at`

func (s *Store) CreateCandidate(ctx context.Context, orgID int64, c *model.Candidate) error {
	c.OrganizationID = orgID
	// Uniqueness is enforced per organization by the
	// (organization_id, email) constraint; mapErr turns it into ErrConflict.
	err := s.pool.QueryRow(ctx,
		`INSERT INTO candidates (organization_id, name, email, position)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		orgID, c.Name, c.Email, c.Position,
	).Scan(&c.ID, &c.CreatedAt)
	return mapErr(err)
}

func (s *Store) Candidate(ctx context.Context, orgID, id int64) (*model.Candidate, error) {
	c := &model.Candidate{}
	err := s.pool.QueryRow(ctx,
		`SELECT `+candidateColumns+` FROM candidates
		 WHERE id = $1 AND organization_id = $2`, id, orgID,
	).Scan(&c.ID, &c.OrganizationID, &c.Name, &c.Email, &c.Position, &c.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return c, nil
}

func (s *Store) Candidates(ctx context.Context, orgID int64) ([]model.Candidate, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+candidateColumns+` FROM candidates
		 WHERE organization_id = $1
		 ORDER BY id`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candidates []model.Candidate
	for rows.Next() {
		var c model.Candidate
		if err := rows.Scan(&c.ID, &c.OrganizationID, &c.Name, &c.Email, &c.Position, &c.CreatedAt); err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

func (s *Store) UpdateCandidate(ctx context.Context, orgID, id int64, upd model.UpdateCandidateRequest) (*model.Candidate, error) {
	c := &model.Candidate{}
	err := s.pool.QueryRow(ctx,
		`UPDATE candidates SET
			name = COALESCE($3, name),
			position = COALESCE($4, position)
		 WHERE id = $1 AND organization_id = $2
		 RETURNING `+candidateColumns,
		id, orgID, upd.Name, upd.Position,
	).Scan(&c.ID, &c.OrganizationID, &c.Name, &c.Email, &c.Position, &c.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return c, nil
}
