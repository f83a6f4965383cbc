package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/talentbase/signoff/pkg/models"
)

const voteColumns = `id, step_id, member_id, weight, vote, comments, voted_at`

// VoteRepository stores committee vote slots.
type VoteRepository struct {
	q      querier
	logger *slog.Logger
}

func (r *VoteRepository) ByStep(ctx context.Context, stepID string) ([]*models.CommitteeVote, error) {
	query := fmt.Sprintf("SELECT %s FROM committee_votes WHERE step_id = $1 ORDER BY member_id", voteColumns)

	rows, err := r.q.QueryContext(ctx, query, stepID)
	if err != nil {
		return nil, fmt.Errorf("failed to query committee votes: %w", err)
	}
	defer rows.Close()

	var votes []*models.CommitteeVote

	for rows.Next() {
		var (
			vote    models.CommitteeVote
			votedAt sql.NullTime
		)

		err = rows.Scan(&vote.ID, &vote.StepID, &vote.MemberID, &vote.Weight, &vote.Vote,
			&vote.Comments, &votedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan committee vote: %w", err)
		}

		if votedAt.Valid {
			vote.VotedAt = &votedAt.Time
		}

		votes = append(votes, &vote)
	}

	return votes, rows.Err()
}

func (r *VoteRepository) Save(ctx context.Context, vote *models.CommitteeVote) error {
	query := `
		INSERT INTO committee_votes (id, step_id, member_id, weight, vote, comments, voted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (step_id, member_id) DO UPDATE SET
			vote = EXCLUDED.vote,
			comments = EXCLUDED.comments,
			voted_at = EXCLUDED.voted_at
	`

	_, err := r.q.ExecContext(ctx, query,
		vote.ID, vote.StepID, vote.MemberID, vote.Weight, string(vote.Vote), vote.Comments, vote.VotedAt)
	if err != nil {
		return fmt.Errorf("failed to save committee vote: %w", err)
	}

	return nil
}
