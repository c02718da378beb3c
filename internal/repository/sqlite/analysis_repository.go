package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/vytor/sandplay/internal/logger"
	"github.com/vytor/sandplay/internal/models"
	"github.com/vytor/sandplay/internal/repository"
)

type analysisRepository struct {
	db *sql.DB
}

// NewAnalysisRepository creates a new AnalysisRepository implementation
func NewAnalysisRepository(db *sql.DB) repository.AnalysisRepository {
	return &analysisRepository{db: db}
}

func (r *analysisRepository) Insert(ctx context.Context, a models.SandboxAnalysis) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("analysis_repo")
	log.Debug("inserting analysis: user=%s, items=%d", a.UserID, len(a.Items))

	items := a.Items
	if items == nil {
		items = []models.PlacedItem{}
	}
	encoded, err := json.Marshal(items)
	if err != nil {
		return 0, err
	}
	ts := a.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO sandbox_analyses (user_id, caption, analysis, placed_items, created_at) VALUES (?, ?, ?, ?, ?)`,
		a.UserID, a.Caption, a.Analysis, string(encoded), ts.UTC())
	if err != nil {
		log.Error("failed to insert analysis: %v", err)
		return 0, err
	}
	return res.LastInsertId()
}

func (r *analysisRepository) List(ctx context.Context, filter models.AnalysisFilter) ([]models.SandboxAnalysis, error) {
	log := logger.FromContext(ctx).WithPrefix("analysis_repo")
	log.Debug("listing analyses: user=%s, limit=%d", filter.UserID, filter.Limit)

	limit, _ := pageBounds(filter.Limit, 0)
	query := sqlBuilder.Select("id", "user_id", "caption", "analysis", "placed_items", "created_at").
		From("sandbox_analyses")
	if filter.UserID != "" {
		query = query.Where(squirrel.Eq{"user_id": filter.UserID})
	}
	query = query.OrderBy("created_at DESC", "id DESC").Limit(limit)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error("failed to list analyses: %v", err)
		return nil, err
	}
	defer rows.Close()

	var out []models.SandboxAnalysis
	for rows.Next() {
		var a models.SandboxAnalysis
		var items string
		if err := rows.Scan(&a.ID, &a.UserID, &a.Caption, &a.Analysis, &items, &a.Timestamp); err != nil {
			log.Error("failed to scan analysis row: %v", err)
			return nil, err
		}
		if err := json.Unmarshal([]byte(items), &a.Items); err != nil {
			log.Warn("analysis %d has unreadable placed items: %v", a.ID, err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
