package parse

import (
	"testing"

	"github.com/scrubdub/hewbot/internal/category"
	"github.com/scrubdub/hewbot/internal/models"
	"github.com/stretchr/testify/suite"
)

type ParseInitiationTestSuite struct {
	suite.Suite
	cat *category.Category
}

func (s *ParseInitiationTestSuite) SetupTest() {
	s.cat = category.FromChannel("games")
}

func TestParseInitiationTestSuite(t *testing.T) {
	suite.Run(t, new(ParseInitiationTestSuite))
}

func (s *ParseInitiationTestSuite) TestPlainInitiation() {
	init, err := ParseInitiation("big game at 3", s.cat)
	s.Require().NoError(err)
	s.Require().NotNil(init)

	s.Equal(models.TimeOfDay{Hour: 15, Minute: 0}, init.When)
	s.Equal("big game", init.Description)
	s.Equal(s.cat.DefaultMaxPlayers, init.MaxPlayers)
	s.Equal(s.cat.DefaultPlayTime, init.PlayTime)
	s.Empty(init.Mode)
}

func (s *ParseInitiationTestSuite) TestNoTimeIsNotACommand() {
	init, err := ParseInitiation("how do I use this thing", s.cat)
	s.Require().NoError(err)
	s.Nil(init)
}

func (s *ParseInitiationTestSuite) TestSeparatorWinsSpecificity() {
	// "2:00" carries a separator, so it beats the bare numbers
	init, err := ParseInitiation("3 5 game at 2:00", s.cat)
	s.Require().NoError(err)
	s.Require().NotNil(init)

	s.Equal(models.TimeOfDay{Hour: 14, Minute: 0}, init.When)
	s.Equal("3 5 game", init.Description)
}

func (s *ParseInitiationTestSuite) TestEqualSpecificityIsAmbiguous() {
	_, err := ParseInitiation("3pm or 2:30", s.cat)

	var tooMany *TooManyTimeSpecsError
	s.Require().ErrorAs(err, &tooMany)
	s.ElementsMatch([]string{"3pm", "2:30"}, tooMany.Specs)
}

func (s *ParseInitiationTestSuite) TestIdenticalResolvedTimesDoNotConflict() {
	// two spellings of the same time are not ambiguous
	init, err := ParseInitiation("3pm or 15:00", s.cat)
	s.Require().NoError(err)
	s.Require().NotNil(init)
	s.Equal(models.TimeOfDay{Hour: 15, Minute: 0}, init.When)
}

func (s *ParseInitiationTestSuite) TestInvalidTimesAreDiscarded() {
	init, err := ParseInitiation("game at 1.9an", s.cat)
	s.Require().NoError(err)
	s.Nil(init)
}

func (s *ParseInitiationTestSuite) TestNegativeNumbersAreNotTimes() {
	init, err := ParseInitiation("score was -3.40pm related", s.cat)
	s.Require().NoError(err)
	s.Nil(init)
}

func (s *ParseInitiationTestSuite) TestHalfModifier() {
	init, err := ParseInitiation("game at half 3", s.cat)
	s.Require().NoError(err)
	s.Require().NotNil(init)
	s.Equal(models.TimeOfDay{Hour: 15, Minute: 30}, init.When)
	s.Equal("game", init.Description)
}

func (s *ParseInitiationTestSuite) TestSextuple() {
	init, err := ParseInitiation("sextuple game at 3", s.cat)
	s.Require().NoError(err)
	s.Require().NotNil(init)
	s.Equal(6, init.MaxPlayers)
	s.Equal("game", init.Description)
}

func (s *ParseInitiationTestSuite) TestCompetitiveKeyword() {
	init, err := ParseInitiation("competitive game at 3", s.cat)
	s.Require().NoError(err)
	s.Require().NotNil(init)

	s.Equal(2, init.MaxPlayers)
	s.Equal(20, init.PlayTime)
	s.Equal("compet", init.Mode)
	s.Equal("game", init.Description)
}

func (s *ParseInitiationTestSuite) TestTournamentCategoryOverride() {
	tournament := category.FromChannel("football-tournament")

	init, err := ParseInitiation("quick game at 3", tournament)
	s.Require().NoError(err)
	s.Require().NotNil(init)

	s.Equal(2, init.MaxPlayers)
	s.Equal(10, init.PlayTime)
	s.Empty(init.Mode)
}

type ParseStatsRequestTestSuite struct {
	suite.Suite
}

func TestParseStatsRequestTestSuite(t *testing.T) {
	suite.Run(t, new(ParseStatsRequestTestSuite))
}

func (s *ParseStatsRequestTestSuite) TestEmpty() {
	req, ok := ParseStatsRequest("")
	s.Require().True(ok)
	s.Empty(req.Channel)
	s.Zero(req.Year)
}

func (s *ParseStatsRequestTestSuite) TestYearAndChannel() {
	req, ok := ParseStatsRequest("2019 towerfall")
	s.Require().True(ok)
	s.Equal(2019, req.Year)
	s.Equal("towerfall", req.Channel)
}

func (s *ParseStatsRequestTestSuite) TestParameters() {
	req, ok := ParseStatsRequest("towerfall k=32")
	s.Require().True(ok)
	s.Equal("towerfall", req.Channel)
	s.Equal(32, req.Params["k"])
}

func (s *ParseStatsRequestTestSuite) TestUnrecognised() {
	_, ok := ParseStatsRequest("too many channel names here")
	s.False(ok)

	_, ok = ParseStatsRequest("k=notanumber")
	s.False(ok)
}
