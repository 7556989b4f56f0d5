package mmr_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/okian/mmr/internal/domain/mmr"
	"github.com/okian/mmr/internal/domain/model"
	"github.com/okian/mmr/internal/domain/performance"
	"github.com/okian/mmr/internal/domain/rating"
	. "github.com/smartystreets/goconvey/convey"
)

// shiftOracle moves winners up and losers down by one mu, leaving sigma
// alone. drop discards the second team's results.
type shiftOracle struct {
	drop bool
}

func (o shiftOracle) Update(a, b []model.Rating, rank [2]int) ([]model.Rating, []model.Rating) {
	shift := func(in []model.Rating, r int) []model.Rating {
		out := make([]model.Rating, len(in))
		for i, v := range in {
			d := -1.0
			if r == 1 {
				d = 1
			}
			out[i] = model.Rating{Mu: v.Mu + d, Sigma: v.Sigma}
		}
		return out
	}
	if o.drop {
		return shift(a, rank[0]), nil
	}
	return shift(a, rank[0]), shift(b, rank[1])
}

func player(id string, team model.Team, kills, deaths int, damage float64) *model.Participation {
	return &model.Participation{
		PlayerID: id,
		Team:     team,
		Stats:    model.Stats{Kills: kills, Deaths: deaths, Damage: damage},
	}
}

func established(mmrValue int, ids ...string) map[model.PlayerID]model.History {
	h := make(map[model.PlayerID]model.History, len(ids))
	for _, id := range ids {
		h[id] = model.Established{MMR: mmrValue}
	}
	return h
}

func TestCalculator_ProcessMatch(t *testing.T) {
	ctx := context.Background()

	Convey("Given the 1v1 example with a favored winner", t, func() {
		calc := mmr.NewCalculator()
		calc.EnsurePlayerRatings([]rating.Seed{
			{ID: "blue", Mu: 25, Sigma: 5},
			{ID: "red", Mu: 20, Sigma: 6},
		})
		records := []*model.Participation{
			player("blue", model.TeamBlue, 12, 4, 1800),
			player("red", model.TeamRed, 4, 12, 700),
		}

		out, err := calc.ProcessMatch(ctx, records, established(1000, "blue", "red"))

		Convey("the balance factor dampens the expected result", func() {
			So(mmr.BalanceFactor(25, 20, true), ShouldAlmostEqual, 0.6, 1e-9)
		})

		Convey("both deltas are clamped to their side", func() {
			So(err, ShouldBeNil)
			So(out, ShouldHaveLength, 2)
			So(out[0].MMRDelta, ShouldBeBetweenOrEqual, 2, 40)
			So(out[1].MMRDelta, ShouldBeBetweenOrEqual, -40, -2)
			So(out[0].MMRAfterMatch, ShouldEqual, 1000+out[0].MMRDelta)
			So(out[1].MMRAfterMatch, ShouldEqual, 1000+out[1].MMRDelta)
		})

		Convey("the winner's rating moves up and the loser's down", func() {
			blue, _ := calc.Ratings().Get("blue")
			red, _ := calc.Ratings().Get("red")
			So(blue.Mu, ShouldBeGreaterThan, 25)
			So(red.Mu, ShouldBeLessThan, 20)
		})

		Convey("performance is attached to every record", func() {
			So(out[0].Performance, ShouldNotBeNil)
			So(out[1].Performance, ShouldNotBeNil)
			So(out[0].Performance.Score, ShouldBeGreaterThan, out[1].Performance.Score)
		})
	})

	Convey("Given an even 1v1 and a deterministic oracle", t, func() {
		calc := mmr.NewCalculator(mmr.WithOracle(shiftOracle{}))
		calc.EnsurePlayerRatings([]rating.Seed{
			{ID: "a", Mu: 25, Sigma: 5},
			{ID: "b", Mu: 25, Sigma: 5},
		})
		records := []*model.Participation{
			player("a", model.TeamBlue, 10, 2, 1500),
			player("b", model.TeamRed, 2, 10, 500),
		}

		_, err := calc.ProcessMatch(ctx, records, established(1000, "a", "b"))
		So(err, ShouldBeNil)

		Convey("the delta combines base change and performance at neutral balance", func() {
			a, b := records[0], records[1]
			wantA := mmr.ClampDelta(int(math.Round(5+mmr.PerformanceAdjustment(a.Performance.Score, true, 1))), true)
			wantB := mmr.ClampDelta(int(math.Round(-5+mmr.PerformanceAdjustment(b.Performance.Score, false, 1))), false)
			So(a.MMRDelta, ShouldEqual, wantA)
			So(b.MMRDelta, ShouldEqual, wantB)
		})

		Convey("solo players get no carry adjustment", func() {
			a := records[0]
			So(a.Performance.Adjustment, ShouldEqual, mmr.PerformanceAdjustment(a.Performance.Score, true, 1))
		})
	})

	Convey("Given a 2v2 where one winner did all the work", t, func() {
		calc := mmr.NewCalculator(mmr.WithOracle(shiftOracle{}))
		records := []*model.Participation{
			player("star", model.TeamBlue, 20, 0, 3000),
			player("passenger", model.TeamBlue, 0, 10, 0),
			player("r1", model.TeamRed, 5, 5, 1000),
			player("r2", model.TeamRed, 5, 5, 1000),
		}
		calc.EnsurePlayerRatings([]rating.Seed{
			{ID: "star", Mu: 25, Sigma: 5}, {ID: "passenger", Mu: 25, Sigma: 5},
			{ID: "r1", Mu: 25, Sigma: 5}, {ID: "r2", Mu: 25, Sigma: 5},
		})

		_, err := calc.ProcessMatch(ctx, records, established(1000, "star", "passenger", "r1", "r2"))
		So(err, ShouldBeNil)

		carry := func(p *model.Participation, won bool) float64 {
			return p.Performance.Adjustment - mmr.PerformanceAdjustment(p.Performance.Score, won, 2)
		}

		Convey("the carrier is rewarded and the passenger is charged", func() {
			So(carry(records[0], true), ShouldBeGreaterThan, 0.5)
			So(carry(records[1], true), ShouldBeLessThan, -0.5)
		})

		Convey("identical teammates get no carry adjustment", func() {
			So(carry(records[2], false), ShouldEqual, 0)
			So(carry(records[3], false), ShouldEqual, 0)
		})

		Convey("every established delta stays in bounds", func() {
			for _, p := range records[:2] {
				So(p.MMRDelta, ShouldBeBetweenOrEqual, 2, 40)
			}
			for _, p := range records[2:] {
				So(p.MMRDelta, ShouldBeBetweenOrEqual, -40, -2)
			}
		})
	})

	Convey("Given players on their first match", t, func() {
		calc := mmr.NewCalculator()
		records := []*model.Participation{
			player("n1", model.TeamBlue, 9, 3, 1200),
			player("n2", model.TeamRed, 3, 9, 600),
		}

		_, err := calc.ProcessMatch(ctx, records, nil)
		So(err, ShouldBeNil)

		Convey("ratings are created for them", func() {
			So(calc.Ratings().Len(), ShouldEqual, 2)
		})

		Convey("delta and total both come from placement", func() {
			for _, p := range records {
				r, ok := calc.Ratings().Get(p.PlayerID)
				So(ok, ShouldBeTrue)
				want := performance.InitialMMR(r, *p.Performance)
				So(p.MMRDelta, ShouldEqual, want)
				So(p.MMRAfterMatch, ShouldEqual, want)
			}
		})
	})

	Convey("Given a mix of first-match and established players", t, func() {
		calc := mmr.NewCalculator(mmr.WithOracle(shiftOracle{}))
		records := []*model.Participation{
			player("vet", model.TeamBlue, 8, 4, 1000),
			player("new", model.TeamRed, 4, 8, 800),
		}
		history := map[model.PlayerID]model.History{
			"vet": model.Established{MMR: 1200},
			"new": model.FirstMatch{},
		}

		_, err := calc.ProcessMatch(ctx, records, history)
		So(err, ShouldBeNil)
		So(records[0].MMRAfterMatch, ShouldEqual, 1200+records[0].MMRDelta)
		So(records[1].MMRDelta, ShouldEqual, records[1].MMRAfterMatch)
	})

	Convey("Given a loser with almost no MMR left", t, func() {
		calc := mmr.NewCalculator(mmr.WithOracle(shiftOracle{}))
		records := []*model.Participation{
			player("w", model.TeamBlue, 10, 1, 2000),
			player("l", model.TeamRed, 1, 10, 100),
		}
		_, err := calc.ProcessMatch(ctx, records, established(1, "w", "l"))
		So(err, ShouldBeNil)

		Convey("the total is floored at zero but the delta is still reported", func() {
			So(records[1].MMRAfterMatch, ShouldEqual, 0)
			So(records[1].MMRDelta, ShouldBeLessThanOrEqualTo, -2)
		})
	})

	Convey("Given an oracle that drops a team", t, func() {
		calc := mmr.NewCalculator(mmr.WithOracle(shiftOracle{drop: true}))
		calc.EnsurePlayerRatings([]rating.Seed{
			{ID: "a", Mu: 25, Sigma: 5},
			{ID: "b", Mu: 25, Sigma: 5},
		})
		records := []*model.Participation{
			player("a", model.TeamBlue, 10, 2, 1500),
			player("b", model.TeamRed, 2, 10, 500),
		}

		_, err := calc.ProcessMatch(ctx, records, established(1000, "a", "b"))

		Convey("the match still completes", func() {
			So(err, ShouldBeNil)
			So(records[1].MMRDelta, ShouldBeBetweenOrEqual, -40, -2)
		})

		Convey("the dropped player's rating is unchanged", func() {
			b, _ := calc.Ratings().Get("b")
			So(b, ShouldResemble, model.Rating{Mu: 25, Sigma: 5})
			a, _ := calc.Ratings().Get("a")
			So(a.Mu, ShouldEqual, 26)
		})
	})

	Convey("Given a malformed match", t, func() {
		calc := mmr.NewCalculator()
		records := []*model.Participation{
			player("a", model.TeamBlue, 10, 2, 1500),
			player("b", model.TeamBlue, 2, 10, 500),
		}

		out, err := calc.ProcessMatch(ctx, records, nil)

		Convey("it fails without touching the store", func() {
			So(errors.Is(err, mmr.ErrMalformedMatch), ShouldBeTrue)
			So(out, ShouldBeNil)
			So(calc.Ratings().Len(), ShouldEqual, 0)
			So(records[0].Performance, ShouldBeNil)
		})
	})
}

func TestCalculator_EnsurePlayerRatings(t *testing.T) {
	Convey("Seeding twice keeps the first ratings", t, func() {
		store := rating.NewStore()
		calc := mmr.NewCalculator(mmr.WithStore(store))

		So(calc.EnsurePlayerRatings([]rating.Seed{{ID: "p", Mu: 30, Sigma: 4}}), ShouldEqual, 1)
		So(calc.EnsurePlayerRatings([]rating.Seed{{ID: "p", Mu: 10, Sigma: 2}}), ShouldEqual, 0)

		r, ok := store.Get("p")
		So(ok, ShouldBeTrue)
		So(r, ShouldResemble, model.Rating{Mu: 30, Sigma: 4})
		So(calc.Ratings(), ShouldEqual, store)
	})
}
