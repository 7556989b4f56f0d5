package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/mmr/internal/adapters/repository"
	service "github.com/okian/mmr/internal/app"
	"github.com/okian/mmr/internal/domain/mmr"
	"github.com/okian/mmr/internal/domain/types"
	"github.com/okian/mmr/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func line(id, team string, kills, deaths int, damage float64) types.PlayerResult {
	return types.PlayerResult{PlayerID: id, Team: team, Kills: kills, Deaths: deaths, Damage: damage}
}

func duel(matchID string) types.MatchRequest {
	return types.MatchRequest{
		MatchID: matchID,
		Players: []types.PlayerResult{
			line("alice", "blue", 14, 5, 2100),
			line("bob", "blue", 6, 7, 1100),
			line("carol", "red", 7, 9, 1300),
			line("dan", "red", 5, 10, 900),
		},
	}
}

func started(opts ...service.Option) *service.Service {
	opts = append([]service.Option{service.WithLogger(logger.Named("service"))}, opts...)
	svc := service.New(opts...)
	So(svc.Start(context.Background()), ShouldBeNil)
	return svc
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New(
			service.WithQueueSize(16),
			service.WithDedupeSize(32),
			service.WithProcessTimeout(time.Second),
			service.WithOpenSkillTau(0.05),
		)
		defer svc.Stop()

		Convey("When it has not been started", func() {
			_, err := svc.ProcessMatch(context.Background(), duel("m1"))

			Convey("Then matches are refused", func() {
				So(errors.Is(err, types.ErrNotStarted), ShouldBeTrue)
				So(svc.GetStats()["started"], ShouldEqual, false)
			})
		})

		Convey("When starting the service", func() {
			So(svc.Start(context.Background()), ShouldBeNil)
			So(svc.Start(context.Background()), ShouldBeNil)

			Convey("Then it should be marked as started", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, true)
				So(stats["queueSize"], ShouldEqual, 16)
				So(stats["queueLength"], ShouldEqual, 0)
			})

			Convey("And stopping it refuses further matches", func() {
				svc.Stop()
				_, err := svc.ProcessMatch(context.Background(), duel("m1"))
				So(errors.Is(err, types.ErrNotStarted), ShouldBeTrue)
				So(svc.GetStats()["started"], ShouldEqual, false)
			})
		})
	})
}

func TestService_ProcessMatch(t *testing.T) {
	ctx := context.Background()

	Convey("Given a started service", t, func() {
		svc := started()
		defer svc.Stop()

		Convey("When a first match is submitted", func() {
			res, err := svc.ProcessMatch(ctx, duel("m1"))
			So(err, ShouldBeNil)

			Convey("Then every player is placed", func() {
				So(res.MatchID, ShouldEqual, "m1")
				So(res.Players, ShouldHaveLength, 4)
				for _, p := range res.Players {
					So(p.MMRDelta, ShouldEqual, p.MMRAfterMatch)
					So(p.MMRAfterMatch, ShouldBeGreaterThanOrEqualTo, 0)
					So(p.Sigma, ShouldBeGreaterThan, 0)
				}
			})

			Convey("Then the players enter the standings", func() {
				entry, err := svc.Rank(ctx, "alice")
				So(err, ShouldBeNil)
				So(entry.MMR, ShouldEqual, res.Players[0].MMRAfterMatch)
				So(entry.Matches, ShouldEqual, 1)

				top, err := svc.TopN(ctx, 10)
				So(err, ShouldBeNil)
				So(top, ShouldHaveLength, 4)
			})

			Convey("Then ratings are readable", func() {
				r, err := svc.Rating(ctx, "alice")
				So(err, ShouldBeNil)
				So(r.Mu, ShouldEqual, res.Players[0].Mu)
				So(svc.Ratings(), ShouldHaveLength, 4)
			})

			Convey("And a second match uses the standings as history", func() {
				before := res.Players[0].MMRAfterMatch
				next, err := svc.ProcessMatch(ctx, duel("m2"))
				So(err, ShouldBeNil)

				alice := next.Players[0]
				So(alice.MMRDelta, ShouldBeBetweenOrEqual, 2, 40)
				So(alice.MMRAfterMatch, ShouldEqual, before+alice.MMRDelta)

				dan := next.Players[3]
				So(dan.MMRDelta, ShouldBeBetweenOrEqual, -40, -2)

				entry, _ := svc.Rank(ctx, "alice")
				So(entry.Matches, ShouldEqual, 2)
			})

			Convey("And resubmitting the same match id is rejected", func() {
				_, err := svc.ProcessMatch(ctx, duel("m1"))
				So(errors.Is(err, types.ErrDuplicateMatch), ShouldBeTrue)
			})
		})

		Convey("When a supplied previous MMR is given", func() {
			req := duel("m-prev")
			prev := 1500
			req.Players[0].PreviousMMR = &prev

			res, err := svc.ProcessMatch(ctx, req)
			So(err, ShouldBeNil)

			Convey("Then it is used instead of placement", func() {
				So(res.Players[0].MMRAfterMatch, ShouldEqual, 1500+res.Players[0].MMRDelta)
				So(res.Players[0].MMRDelta, ShouldBeBetweenOrEqual, 2, 40)
			})
		})

		Convey("When a match has no id", func() {
			res, err := svc.ProcessMatch(ctx, duel(""))

			Convey("Then one is generated", func() {
				So(err, ShouldBeNil)
				So(res.MatchID, ShouldNotBeEmpty)
			})
		})

		Convey("When a malformed match is submitted", func() {
			req := types.MatchRequest{
				MatchID: "bad",
				Players: []types.PlayerResult{line("solo", "blue", 1, 1, 1)},
			}
			_, err := svc.ProcessMatch(ctx, req)

			Convey("Then it fails without rating anyone", func() {
				So(errors.Is(err, mmr.ErrMalformedMatch), ShouldBeTrue)
				_, err := svc.Rating(ctx, "solo")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})

			Convey("And the match id can be reused", func() {
				req.Players = append(req.Players, line("other", "red", 0, 2, 0))
				_, err := svc.ProcessMatch(ctx, req)
				So(err, ShouldBeNil)
			})
		})
	})
}

func TestService_ProcessTimeout(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service that gives up waiting almost at once", t, func() {
		svc := started(service.WithProcessTimeout(time.Nanosecond))
		defer svc.Stop()

		Convey("When a match without an id times out", func() {
			_, err := svc.ProcessMatch(ctx, duel(""))

			var te *types.TimeoutError
			So(errors.As(err, &te), ShouldBeTrue)
			So(errors.Is(err, types.ErrProcessTimeout), ShouldBeTrue)
			So(te.MatchID, ShouldNotBeEmpty)

			Convey("Then a retry under the reported id is a duplicate", func() {
				_, err := svc.ProcessMatch(ctx, duel(te.MatchID))
				So(errors.Is(err, types.ErrDuplicateMatch), ShouldBeTrue)
			})

			Convey("Then the match is still rated", func() {
				deadline := time.Now().Add(2 * time.Second)
				var rankErr error
				for time.Now().Before(deadline) {
					if _, rankErr = svc.Rank(ctx, "alice"); rankErr == nil {
						break
					}
					time.Sleep(5 * time.Millisecond)
				}
				So(rankErr, ShouldBeNil)
			})
		})
	})
}

func TestService_Ratings(t *testing.T) {
	ctx := context.Background()

	Convey("Given seeded ratings", t, func() {
		svc := started()
		defer svc.Stop()

		added := svc.SeedRatings(ctx, []types.Rating{
			{PlayerID: "alice", Mu: 30, Sigma: 4},
			{PlayerID: "bob", Mu: 22, Sigma: 5},
		})
		So(added, ShouldEqual, 2)

		Convey("Then seeding again keeps the originals", func() {
			So(svc.SeedRatings(ctx, []types.Rating{{PlayerID: "alice", Mu: 1, Sigma: 1}}), ShouldEqual, 0)
			r, err := svc.Rating(ctx, "alice")
			So(err, ShouldBeNil)
			So(r, ShouldResemble, types.Rating{PlayerID: "alice", Mu: 30, Sigma: 4})
		})

		Convey("Then an unknown player is not found", func() {
			_, err := svc.Rating(ctx, "nobody")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			_, err = svc.Rank(ctx, "nobody")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("Then the seeded mu is the starting point of the update", func() {
			res, err := svc.ProcessMatch(ctx, duel("seeded"))
			So(err, ShouldBeNil)
			So(res.Players[0].Mu, ShouldBeGreaterThan, 30)
		})
	})
}

func TestService_Concurrency(t *testing.T) {
	Convey("Given many concurrent submissions", t, func() {
		svc := started(service.WithQueueSize(256))
		defer svc.Stop()

		const matches = 50
		var wg sync.WaitGroup
		errs := make(chan error, matches)
		for i := 0; i < matches; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := svc.ProcessMatch(context.Background(), duel(fmt.Sprintf("m%d", i)))
				errs <- err
			}(i)
		}
		wg.Wait()
		close(errs)

		Convey("Then every match is rated once", func() {
			for err := range errs {
				So(err, ShouldBeNil)
			}
			entry, err := svc.Rank(context.Background(), "alice")
			So(err, ShouldBeNil)
			So(entry.Matches, ShouldEqual, matches)
			So(svc.GetStats()["seenMatches"], ShouldEqual, int64(matches))
		})
	})
}
