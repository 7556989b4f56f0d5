package performance_test

import (
	"errors"
	"testing"

	"github.com/okian/mmr/internal/domain/model"
	"github.com/okian/mmr/internal/domain/performance"
	. "github.com/smartystreets/goconvey/convey"
)

func TestEvaluator_Score(t *testing.T) {
	Convey("Given an evaluator with default weights", t, func() {
		ev := performance.NewEvaluator()

		star := model.Stats{Kills: 20, Deaths: 2, Assists: 8, Damage: 4200, Objective: 300, Efficiency: 0.9}
		avg := model.Stats{Kills: 10, Deaths: 10, Assists: 5, Damage: 2100, Objective: 150, Efficiency: 0.5}
		weak := model.Stats{Kills: 2, Deaths: 18, Assists: 1, Damage: 400, Objective: 10, Efficiency: 0.1}
		population := []model.Stats{star, avg, weak}

		Convey("When scoring each player against the whole match", func() {
			s, errS := ev.Score(star, population)
			a, errA := ev.Score(avg, population)
			w, errW := ev.Score(weak, population)

			Convey("Then scores are ordered by contribution", func() {
				So(errS, ShouldBeNil)
				So(errA, ShouldBeNil)
				So(errW, ShouldBeNil)
				So(s, ShouldBeGreaterThan, a)
				So(a, ShouldBeGreaterThan, w)
			})

			Convey("Then scores stay within bounds", func() {
				for _, v := range []float64{s, a, w} {
					So(v, ShouldBeBetweenOrEqual, performance.MinScore, performance.MaxScore)
				}
			})
		})

		Convey("When every player has identical stats", func() {
			score, err := ev.Score(avg, []model.Stats{avg, avg, avg})

			Convey("Then the score is exactly average", func() {
				So(err, ShouldBeNil)
				So(score, ShouldEqual, performance.AverageScore)
			})
		})

		Convey("When the population has a single entry", func() {
			score, err := ev.Score(star, []model.Stats{weak})

			Convey("Then there is no spread and the score is average", func() {
				So(err, ShouldBeNil)
				So(score, ShouldEqual, performance.AverageScore)
			})
		})

		Convey("When the population is empty", func() {
			_, err := ev.Score(star, nil)

			Convey("Then ErrInsufficientData is returned", func() {
				So(errors.Is(err, performance.ErrInsufficientData), ShouldBeTrue)
			})
		})

		Convey("When scoring is repeated", func() {
			first, _ := ev.Score(star, population)
			second, _ := ev.Score(star, population)

			Convey("Then it is deterministic", func() {
				So(first, ShouldEqual, second)
			})
		})
	})

	Convey("Given an evaluator that only weighs kills", t, func() {
		ev := performance.NewEvaluator(performance.WithWeights(performance.Weights{Kills: 1}))

		Convey("When two players differ only in deaths", func() {
			a := model.Stats{Kills: 5, Deaths: 1}
			b := model.Stats{Kills: 5, Deaths: 9}
			sa, _ := ev.Score(a, []model.Stats{a, b})
			sb, _ := ev.Score(b, []model.Stats{a, b})

			Convey("Then deaths are ignored", func() {
				So(sa, ShouldEqual, sb)
				So(ev.Weights().Deaths, ShouldEqual, 0)
			})
		})

		Convey("When kills are far apart", func() {
			a := model.Stats{Kills: 100}
			b := model.Stats{Kills: 0}
			sa, _ := ev.Score(a, []model.Stats{a, b})
			sb, _ := ev.Score(b, []model.Stats{a, b})

			Convey("Then one standard deviation moves the score by half a point", func() {
				// Two samples sit 1/sqrt(2) standard deviations from the mean.
				So(sa, ShouldAlmostEqual, 1+0.5*0.7071067811865476, 1e-9)
				So(sb, ShouldAlmostEqual, 1-0.5*0.7071067811865476, 1e-9)
			})
		})
	})

	Convey("Given negative weight overrides", t, func() {
		ev := performance.NewEvaluator(performance.WithWeights(performance.Weights{Kills: -1, Deaths: -1, Assists: -1, Damage: -1, Objective: -1, Efficiency: -1}))

		Convey("Then the defaults are kept", func() {
			So(ev.Weights(), ShouldResemble, performance.DefaultWeights())
		})
	})
}

func TestPlacement(t *testing.T) {
	Convey("Given the placement helpers", t, func() {
		Convey("When the first match was average", func() {
			proxy := performance.SkillProxy(1.0)
			r := performance.InitialRating(proxy)

			Convey("Then the player starts at the default rating", func() {
				So(proxy, ShouldEqual, 1.0)
				So(r.Mu, ShouldEqual, performance.DefaultMu)
				So(r.Sigma, ShouldEqual, performance.DefaultSigma)
				So(performance.InitialMMR(r, model.Performance{Score: 1.0}), ShouldEqual, 1000)
			})
		})

		Convey("When the first match was exceptional", func() {
			proxy := performance.SkillProxy(2.5)

			Convey("Then the proxy is shrunk and capped", func() {
				So(proxy, ShouldEqual, 1.75)
				So(performance.InitialRating(proxy).Mu, ShouldEqual, 43.75)
			})
		})

		Convey("When the first match was poor", func() {
			proxy := performance.SkillProxy(0.2)

			Convey("Then the proxy is floored", func() {
				So(proxy, ShouldAlmostEqual, 0.6, 1e-9)
				So(performance.SkillProxy(-5), ShouldEqual, 0.5)
			})
		})

		Convey("When the updated rating is far below default", func() {
			mmr := performance.InitialMMR(model.Rating{Mu: -40, Sigma: 8}, model.Performance{Score: 0.2})

			Convey("Then placement MMR is floored at zero", func() {
				So(mmr, ShouldEqual, 0)
			})
		})

		Convey("When rating and performance are above default", func() {
			mmr := performance.InitialMMR(model.Rating{Mu: 27.5, Sigma: 7}, model.Performance{Score: 1.6})

			Convey("Then placement MMR rises from the base", func() {
				// 1000 + 2.5*20 + 0.6*50
				So(mmr, ShouldEqual, 1080)
			})
		})
	})
}
