package sqlite_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/vytor/sandplay/internal/emotion"
	"github.com/vytor/sandplay/internal/models"
	"github.com/vytor/sandplay/internal/repository"
	"github.com/vytor/sandplay/internal/repository/sqlite"
	"github.com/vytor/sandplay/internal/testutil"
)

type RoundRepositorySuite struct {
	suite.Suite
	db   *sql.DB
	repo repository.RoundRepository
}

func (s *RoundRepositorySuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.repo = sqlite.NewRoundRepository(s.db)
}

func (s *RoundRepositorySuite) TearDownTest() {
	testutil.MustClose(s.T(), s.db)
}

func sel(e emotion.Emotion) *emotion.Emotion { return &e }

func sampleRound(player string, at time.Time) models.Round {
	return models.Round{
		Number:   1,
		PlayerID: player,
		Results: []models.AnswerRecord{
			{Correct: emotion.Happy, Selected: sel(emotion.Happy)},
			{Correct: emotion.Sad, Selected: sel(emotion.Angry)},
			{Correct: emotion.Fear, Selected: nil},
		},
		CreatedAt: at,
	}
}

func (s *RoundRepositorySuite) TestInsertAndGet() {
	ctx := context.Background()

	id, err := s.repo.Insert(ctx, sampleRound("kid-1", time.Now()))
	s.Require().NoError(err)
	s.Assert().Greater(id, int64(0))

	round, err := s.repo.Get(ctx, id)
	s.Require().NoError(err)
	s.Assert().Equal(1, round.Number)
	s.Assert().Equal("kid-1", round.PlayerID)
	s.Require().Len(round.Results, 3)
	s.Assert().Equal(emotion.Happy, round.Results[0].Correct)
	s.Assert().True(round.Results[0].IsCorrect())
	s.Require().NotNil(round.Results[1].Selected)
	s.Assert().Equal(emotion.Angry, *round.Results[1].Selected)
	s.Assert().Nil(round.Results[2].Selected)
	s.Assert().Equal(1, round.Score())
}

func (s *RoundRepositorySuite) TestGet_NotFound() {
	round, err := s.repo.Get(context.Background(), 99999)
	s.Assert().ErrorIs(err, sql.ErrNoRows)
	s.Assert().Nil(round)
}

func (s *RoundRepositorySuite) TestInsert_RollsBackOnBadResult() {
	ctx := context.Background()
	round := sampleRound("", time.Now())
	round.Number = 0 // violates CHECK (round_number >= 1)

	_, err := s.repo.Insert(ctx, round)
	s.Require().Error(err)

	n, err := s.repo.Count(ctx, models.RoundFilter{})
	s.Require().NoError(err)
	s.Assert().Zero(n)

	var results int
	s.Require().NoError(s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM round_results`).Scan(&results))
	s.Assert().Zero(results)
}

func (s *RoundRepositorySuite) TestList_NewestFirstWithFilters() {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for i, player := range []string{"a", "b", "a"} {
		r := sampleRound(player, base.Add(time.Duration(i)*time.Hour))
		r.Number = i + 1
		_, err := s.repo.Insert(ctx, r)
		s.Require().NoError(err)
	}

	all, err := s.repo.List(ctx, models.RoundFilter{})
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Assert().Equal(3, all[0].Number)
	s.Assert().Equal(1, all[2].Number)
	for _, r := range all {
		s.Assert().Len(r.Results, 3)
	}

	onlyA, err := s.repo.List(ctx, models.RoundFilter{PlayerID: "a"})
	s.Require().NoError(err)
	s.Assert().Len(onlyA, 2)

	since := base.Add(90 * time.Minute)
	recent, err := s.repo.List(ctx, models.RoundFilter{Since: &since})
	s.Require().NoError(err)
	s.Require().Len(recent, 1)
	s.Assert().Equal(3, recent[0].Number)

	page, err := s.repo.List(ctx, models.RoundFilter{Limit: 1, Offset: 1})
	s.Require().NoError(err)
	s.Require().Len(page, 1)
	s.Assert().Equal(2, page[0].Number)

	n, err := s.repo.Count(ctx, models.RoundFilter{PlayerID: "a"})
	s.Require().NoError(err)
	s.Assert().Equal(2, n)
}

func (s *RoundRepositorySuite) TestList_Empty() {
	rounds, err := s.repo.List(context.Background(), models.RoundFilter{})
	s.Require().NoError(err)
	s.Assert().Empty(rounds)
}

func (s *RoundRepositorySuite) TestAnswers() {
	ctx := context.Background()
	_, err := s.repo.Insert(ctx, sampleRound("a", time.Now()))
	s.Require().NoError(err)
	_, err = s.repo.Insert(ctx, sampleRound("b", time.Now()))
	s.Require().NoError(err)

	all, err := s.repo.Answers(ctx, models.RoundFilter{})
	s.Require().NoError(err)
	s.Assert().Len(all, 6)

	mine, err := s.repo.Answers(ctx, models.RoundFilter{PlayerID: "b"})
	s.Require().NoError(err)
	s.Require().Len(mine, 3)
	s.Assert().Equal(emotion.Happy, mine[0].Correct)
	s.Assert().Nil(mine[2].Selected)
}

func TestRoundRepositorySuite(t *testing.T) {
	suite.Run(t, new(RoundRepositorySuite))
}
