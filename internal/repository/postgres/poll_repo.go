package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/nikitashlyahktin/VotingSystem/internal/domain/poll"
)

type PollRepo struct {
	db *sql.DB
}

func NewPollRepo(db *sql.DB) *PollRepo {
	return &PollRepo{db: db}
}

func (r *PollRepo) Create(ctx context.Context, p *poll.Poll) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	p.Version = 1
	_, err = tx.ExecContext(ctx, `
        INSERT INTO polls (id, creator_id, title, choice_mode, status, closes_at, created_at, version)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `, p.ID, p.CreatorID, p.Title, p.ChoiceMode, p.Status, p.ClosesAt, p.CreatedAt, p.Version)
	if err != nil {
		return err
	}

	for i, opt := range p.Options {
		if _, err := tx.ExecContext(ctx, `
            INSERT INTO options (id, poll_id, label, position)
            VALUES ($1, $2, $3, $4)
        `, opt.ID, p.ID, opt.Label, i); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *PollRepo) GetByID(ctx context.Context, id string) (*poll.Poll, error) {
	p := &poll.Poll{}
	err := r.db.QueryRowContext(ctx, `
        SELECT id, creator_id, title, choice_mode, status, closes_at, created_at, version
        FROM polls WHERE id = $1
    `, id).Scan(
		&p.ID, &p.CreatorID, &p.Title, &p.ChoiceMode,
		&p.Status, &p.ClosesAt, &p.CreatedAt, &p.Version,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, poll.ErrPollNotFound
		}
		return nil, err
	}

	if p.Options, err = r.loadOptions(ctx, id); err != nil {
		return nil, err
	}
	if p.Ballots, err = r.loadBallots(ctx, id); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PollRepo) List(ctx context.Context) ([]poll.Poll, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, creator_id, title, choice_mode, status, closes_at, created_at, version
        FROM polls ORDER BY created_at DESC
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []poll.Poll
	for rows.Next() {
		var p poll.Poll
		if err := rows.Scan(&p.ID, &p.CreatorID, &p.Title, &p.ChoiceMode,
			&p.Status, &p.ClosesAt, &p.CreatedAt, &p.Version); err != nil {
			return nil, err
		}
		if p.Options, err = r.loadOptions(ctx, p.ID); err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

// Save writes the whole aggregate back under a version check. The UPDATE
// only matches when the stored version equals the one the aggregate was
// loaded with; zero rows affected means another writer got there first.
func (r *PollRepo) Save(ctx context.Context, p *poll.Poll) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
        UPDATE polls SET status = $1, version = version + 1
        WHERE id = $2 AND version = $3
    `, p.Status, p.ID, p.Version)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		var exists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM polls WHERE id = $1)`, p.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return poll.ErrPollNotFound
		}
		return poll.ErrConcurrentModification
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM ballots WHERE poll_id = $1`, p.ID); err != nil {
		return err
	}
	for voterID, b := range p.Ballots {
		if _, err := tx.ExecContext(ctx, `
            INSERT INTO ballots (poll_id, voter_id, cast_at, updated_at)
            VALUES ($1, $2, $3, $4)
        `, p.ID, voterID, b.CastAt, b.UpdatedAt); err != nil {
			return err
		}
		for _, optionID := range b.OptionIDs {
			if _, err := tx.ExecContext(ctx, `
                INSERT INTO ballot_choices (poll_id, voter_id, option_id)
                VALUES ($1, $2, $3)
            `, p.ID, voterID, optionID); err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	p.Version++
	return nil
}

func (r *PollRepo) loadOptions(ctx context.Context, pollID string) ([]poll.Option, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, label FROM options WHERE poll_id = $1 ORDER BY position
    `, pollID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var opts []poll.Option
	for rows.Next() {
		var o poll.Option
		if err := rows.Scan(&o.ID, &o.Label); err != nil {
			return nil, err
		}
		opts = append(opts, o)
	}
	return opts, rows.Err()
}

func (r *PollRepo) loadBallots(ctx context.Context, pollID string) (map[string]poll.Ballot, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT voter_id, cast_at, updated_at FROM ballots WHERE poll_id = $1
    `, pollID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ballots := make(map[string]poll.Ballot)
	for rows.Next() {
		var b poll.Ballot
		if err := rows.Scan(&b.VoterID, &b.CastAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		b.PollID = pollID
		ballots[b.VoterID] = b
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	choiceRows, err := r.db.QueryContext(ctx, `
        SELECT voter_id, option_id FROM ballot_choices WHERE poll_id = $1
    `, pollID)
	if err != nil {
		return nil, err
	}
	defer choiceRows.Close()

	for choiceRows.Next() {
		var voterID, optionID string
		if err := choiceRows.Scan(&voterID, &optionID); err != nil {
			return nil, err
		}
		b := ballots[voterID]
		b.OptionIDs = append(b.OptionIDs, optionID)
		ballots[voterID] = b
	}
	return ballots, choiceRows.Err()
}
