package rating_test

import (
	"testing"

	"github.com/okian/mmr/internal/domain/model"
	"github.com/okian/mmr/internal/domain/performance"
	"github.com/okian/mmr/internal/domain/rating"
	. "github.com/smartystreets/goconvey/convey"
)

func TestStore_Ensure(t *testing.T) {
	Convey("Given an empty store", t, func() {
		store := rating.NewStore()
		seeds := []rating.Seed{
			{ID: "p1", Mu: 30, Sigma: 4},
			{ID: "p2", Mu: 18, Sigma: 6},
			{ID: "", Mu: 99, Sigma: 1},
		}

		Convey("When seeding players", func() {
			added := store.Ensure(seeds)

			Convey("Then players with an id are stored", func() {
				So(added, ShouldEqual, 2)
				So(store.Len(), ShouldEqual, 2)
				r, ok := store.Get("p1")
				So(ok, ShouldBeTrue)
				So(r, ShouldResemble, model.Rating{Mu: 30, Sigma: 4})
			})

			Convey("And seeding the same players again", func() {
				store.Set("p1", model.Rating{Mu: 33, Sigma: 3.5})
				again := store.Ensure(seeds)

				Convey("Then existing ratings are not overwritten", func() {
					So(again, ShouldEqual, 0)
					r, _ := store.Get("p1")
					So(r, ShouldResemble, model.Rating{Mu: 33, Sigma: 3.5})
					r2, _ := store.Get("p2")
					So(r2, ShouldResemble, model.Rating{Mu: 18, Sigma: 6})
				})
			})
		})
	})
}

func TestStore_GetOrCreate(t *testing.T) {
	Convey("Given a store with one seeded player", t, func() {
		store := rating.NewStore()
		store.Ensure([]rating.Seed{{ID: "known", Mu: 28, Sigma: 5}})

		Convey("When the player is known", func() {
			r, created := store.GetOrCreate("known", model.Performance{Score: 2.5})

			Convey("Then the stored rating is returned untouched", func() {
				So(created, ShouldBeFalse)
				So(r, ShouldResemble, model.Rating{Mu: 28, Sigma: 5})
			})
		})

		Convey("When the player is new", func() {
			r, created := store.GetOrCreate("rookie", model.Performance{Score: 2.0})

			Convey("Then a rating is created from the performance proxy and stored", func() {
				So(created, ShouldBeTrue)
				So(r, ShouldResemble, performance.InitialRating(performance.SkillProxy(2.0)))
				stored, ok := store.Get("rookie")
				So(ok, ShouldBeTrue)
				So(stored, ShouldResemble, r)
			})
		})

		Convey("When taking a snapshot", func() {
			snap := store.Snapshot()
			snap["known"] = model.Rating{Mu: 1, Sigma: 1}

			Convey("Then the copy does not alias the store", func() {
				r, _ := store.Get("known")
				So(r.Mu, ShouldEqual, 28)
			})
		})
	})
}
