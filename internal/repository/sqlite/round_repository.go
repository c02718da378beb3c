package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/vytor/sandplay/internal/emotion"
	"github.com/vytor/sandplay/internal/logger"
	"github.com/vytor/sandplay/internal/models"
	"github.com/vytor/sandplay/internal/repository"
)

type roundRepository struct {
	db *sql.DB
}

// NewRoundRepository creates a new RoundRepository implementation
func NewRoundRepository(db *sql.DB) repository.RoundRepository {
	return &roundRepository{db: db}
}

func applyRoundFilter(q squirrel.SelectBuilder, f models.RoundFilter) squirrel.SelectBuilder {
	if f.PlayerID != "" {
		q = q.Where(squirrel.Eq{"r.player_id": f.PlayerID})
	}
	if f.Since != nil {
		q = q.Where(squirrel.GtOrEq{"r.created_at": f.Since.UTC()})
	}
	return q
}

func (r *roundRepository) Insert(ctx context.Context, round models.Round) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("round_repo")
	log.Debug("inserting round: number=%d, player=%s, results=%d", round.Number, round.PlayerID, len(round.Results))

	createdAt := round.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	var id int64
	err := tx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO rounds (round_number, player_id, created_at) VALUES (?, ?, ?)`,
			round.Number, round.PlayerID, createdAt.UTC())
		if err != nil {
			log.Error("failed to insert round: %v", err)
			return err
		}
		if id, err = res.LastInsertId(); err != nil {
			return err
		}

		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO round_results (round_id, position, correct, selected) VALUES (?, ?, ?, ?)`)
		if err != nil {
			log.Error("failed to prepare result insert: %v", err)
			return err
		}
		defer stmt.Close()

		for i, a := range round.Results {
			var selected sql.NullString
			if a.Selected != nil {
				selected = sql.NullString{String: string(*a.Selected), Valid: true}
			}
			if _, err := stmt.ExecContext(ctx, id, i, string(a.Correct), selected); err != nil {
				log.Error("failed to insert result %d of round %d: %v", i, id, err)
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	log.Debug("round inserted: id=%d", id)
	return id, nil
}

func (r *roundRepository) Get(ctx context.Context, id int64) (*models.Round, error) {
	log := logger.FromContext(ctx).WithPrefix("round_repo")
	log.Debug("getting round: id=%d", id)

	var round models.Round
	err := r.db.QueryRowContext(ctx,
		`SELECT id, round_number, player_id, created_at FROM rounds WHERE id = ?`, id,
	).Scan(&round.ID, &round.Number, &round.PlayerID, &round.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("round not found: id=%d", id)
		} else {
			log.Error("failed to get round: %v", err)
		}
		return nil, err
	}

	results, err := r.resultsFor(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	round.Results = results[id]
	return &round, nil
}

func (r *roundRepository) List(ctx context.Context, filter models.RoundFilter) ([]models.Round, error) {
	log := logger.FromContext(ctx).WithPrefix("round_repo")
	log.Debug("listing rounds: player=%s, limit=%d, offset=%d", filter.PlayerID, filter.Limit, filter.Offset)

	limit, offset := pageBounds(filter.Limit, filter.Offset)
	query := applyRoundFilter(
		sqlBuilder.Select("r.id", "r.round_number", "r.player_id", "r.created_at").From("rounds r"),
		filter,
	).OrderBy("r.created_at DESC", "r.id DESC").Limit(limit).Offset(offset)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error("failed to list rounds: %v", err)
		return nil, err
	}
	defer rows.Close()

	var rounds []models.Round
	var ids []int64
	for rows.Next() {
		var round models.Round
		if err := rows.Scan(&round.ID, &round.Number, &round.PlayerID, &round.CreatedAt); err != nil {
			log.Error("failed to scan round row: %v", err)
			return nil, err
		}
		rounds = append(rounds, round)
		ids = append(ids, round.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return rounds, nil
	}

	results, err := r.resultsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range rounds {
		rounds[i].Results = results[rounds[i].ID]
	}

	log.Debug("found %d rounds", len(rounds))
	return rounds, nil
}

func (r *roundRepository) Count(ctx context.Context, filter models.RoundFilter) (int, error) {
	log := logger.FromContext(ctx).WithPrefix("round_repo")

	sqlStr, args, err := applyRoundFilter(sqlBuilder.Select("COUNT(*)").From("rounds r"), filter).ToSql()
	if err != nil {
		log.Error("failed to build count query: %v", err)
		return 0, err
	}
	var n int
	if err := r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&n); err != nil {
		log.Error("failed to count rounds: %v", err)
		return 0, err
	}
	return n, nil
}

func (r *roundRepository) Answers(ctx context.Context, filter models.RoundFilter) ([]models.AnswerRecord, error) {
	log := logger.FromContext(ctx).WithPrefix("round_repo")
	log.Debug("loading answers: player=%s", filter.PlayerID)

	query := applyRoundFilter(
		sqlBuilder.Select("rr.correct", "rr.selected").
			From("round_results rr").
			Join("rounds r ON r.id = rr.round_id"),
		filter,
	).OrderBy("r.created_at", "rr.round_id", "rr.position")

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error("failed to load answers: %v", err)
		return nil, err
	}
	defer rows.Close()

	var out []models.AnswerRecord
	for rows.Next() {
		a, err := scanAnswer(rows)
		if err != nil {
			log.Error("failed to scan answer row: %v", err)
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *roundRepository) resultsFor(ctx context.Context, ids []int64) (map[int64][]models.AnswerRecord, error) {
	sqlStr, args, err := sqlBuilder.Select("round_id", "correct", "selected").
		From("round_results").
		Where(squirrel.Eq{"round_id": ids}).
		OrderBy("round_id", "position").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		logger.FromContext(ctx).WithPrefix("round_repo").Error("failed to load round results: %v", err)
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64][]models.AnswerRecord, len(ids))
	for rows.Next() {
		var roundID int64
		var correct string
		var selected sql.NullString
		if err := rows.Scan(&roundID, &correct, &selected); err != nil {
			return nil, err
		}
		out[roundID] = append(out[roundID], answer(correct, selected))
	}
	return out, rows.Err()
}

func scanAnswer(rows *sql.Rows) (models.AnswerRecord, error) {
	var correct string
	var selected sql.NullString
	if err := rows.Scan(&correct, &selected); err != nil {
		return models.AnswerRecord{}, err
	}
	return answer(correct, selected), nil
}

func answer(correct string, selected sql.NullString) models.AnswerRecord {
	a := models.AnswerRecord{Correct: emotion.Emotion(correct)}
	if selected.Valid {
		s := emotion.Emotion(selected.String)
		a.Selected = &s
	}
	return a
}
