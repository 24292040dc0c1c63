package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

type game struct {
	Date string `json:"date"`
	Win  bool   `json:"win"`
}

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time          { return f.t }
func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

func TestMemoryCache(t *testing.T) {
	Convey("Given a memory cache with a controlled clock", t, func() {
		ctx := context.Background()
		clock := &fakeClock{t: time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)}
		mc := NewMemoryCache(WithMemoryMaxSize(2), WithMemoryCleanup(0), WithMemoryClock(clock.Now))
		Reset(func() { _ = mc.Close() })

		Convey("Typed values round-trip through Get", func() {
			in := []game{{Date: "2024-03-09", Win: true}}
			So(mc.Set(ctx, "games:1", in, time.Minute), ShouldBeNil)

			var out []game
			So(mc.Get(ctx, "games:1", &out), ShouldBeNil)
			So(out, ShouldResemble, in)
		})

		Convey("Entries expire", func() {
			So(mc.Set(ctx, "k", 1, time.Minute), ShouldBeNil)
			clock.Advance(2 * time.Minute)

			var v int
			So(errors.Is(mc.Get(ctx, "k", &v), ErrCacheMiss), ShouldBeTrue)
			ok, err := mc.Exists(ctx, "k")
			So(err, ShouldBeNil)
			So(ok, ShouldBeFalse)
		})

		Convey("The least recently used entry is evicted when full", func() {
			So(mc.Set(ctx, "a", 1, 0), ShouldBeNil)
			clock.Advance(time.Second)
			So(mc.Set(ctx, "b", 2, 0), ShouldBeNil)
			clock.Advance(time.Second)

			var v int
			So(mc.Get(ctx, "a", &v), ShouldBeNil)
			clock.Advance(time.Second)
			So(mc.Set(ctx, "c", 3, 0), ShouldBeNil)

			So(mc.Len(), ShouldEqual, 2)
			ok, _ := mc.Exists(ctx, "b")
			So(ok, ShouldBeFalse)
			ok, _ = mc.Exists(ctx, "a", "c")
			So(ok, ShouldBeTrue)
		})

		Convey("Delete removes keys", func() {
			So(mc.Set(ctx, "a", 1, 0), ShouldBeNil)
			So(mc.Delete(ctx, "a"), ShouldBeNil)
			ok, _ := mc.Exists(ctx, "a")
			So(ok, ShouldBeFalse)
		})
	})
}

func TestLayeredCache(t *testing.T) {
	Convey("Given a layered cache over a second memory store", t, func() {
		ctx := context.Background()
		shared := NewMemoryCache(WithMemoryCleanup(0))
		lc := NewLayeredCache(shared, WithLayeredMemory(8, time.Minute))
		Reset(func() { _ = lc.Close() })

		Convey("Writes go through to the shared store", func() {
			So(lc.Set(ctx, "games:7", []game{{Date: "2024-01-01"}}, time.Hour), ShouldBeNil)
			var out []game
			So(shared.Get(ctx, "games:7", &out), ShouldBeNil)
			So(out, ShouldHaveLength, 1)
		})

		Convey("Shared hits are copied into memory", func() {
			So(shared.Set(ctx, "games:8", []game{{Win: true}}, time.Hour), ShouldBeNil)
			var out []game
			So(lc.Get(ctx, "games:8", &out), ShouldBeNil)
			So(out[0].Win, ShouldBeTrue)

			So(shared.Delete(ctx, "games:8"), ShouldBeNil)
			var again []game
			So(lc.Get(ctx, "games:8", &again), ShouldBeNil)
			So(again, ShouldResemble, out)
		})

		Convey("Misses in both layers report ErrCacheMiss", func() {
			var out []game
			So(errors.Is(lc.Get(ctx, "nope", &out), ErrCacheMiss), ShouldBeTrue)
		})
	})
}

func TestGetOrLoad(t *testing.T) {
	Convey("GetOrLoad only calls the loader on a miss", t, func() {
		ctx := context.Background()
		mc := NewMemoryCache(WithMemoryCleanup(0))
		defer mc.Close()

		calls := 0
		load := func(context.Context) ([]game, error) {
			calls++
			return []game{{Date: "2024-02-02", Win: true}}, nil
		}

		v, hit, err := GetOrLoad(ctx, mc, "games:1", time.Minute, load, nil)
		So(err, ShouldBeNil)
		So(hit, ShouldBeFalse)
		So(v, ShouldHaveLength, 1)

		v, hit, err = GetOrLoad(ctx, mc, "games:1", time.Minute, load, nil)
		So(err, ShouldBeNil)
		So(hit, ShouldBeTrue)
		So(v[0].Win, ShouldBeTrue)
		So(calls, ShouldEqual, 1)
	})

	Convey("Loader errors are returned and nothing is cached", t, func() {
		ctx := context.Background()
		mc := NewMemoryCache(WithMemoryCleanup(0))
		defer mc.Close()

		boom := errors.New("upstream down")
		_, _, err := GetOrLoad(ctx, mc, "games:2", time.Minute, func(context.Context) ([]game, error) {
			return nil, boom
		}, nil)
		So(errors.Is(err, boom), ShouldBeTrue)
		ok, _ := mc.Exists(ctx, "games:2")
		So(ok, ShouldBeFalse)
	})
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_HOST")
	if addr == "" {
		t.Skip("REDIS_TEST_HOST not set")
	}
	rc, err := NewRedisCache(WithRedisAddr(addr, 0), WithRedisPrefix("courtedge-test"))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer rc.Close()

	ctx := context.Background()
	if err := rc.Set(ctx, "games:1", []game{{Date: "2024-01-01", Win: true}}, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	var out []game
	if err := rc.Get(ctx, "games:1", &out); err != nil || len(out) != 1 || !out[0].Win {
		t.Fatalf("get: %v %v", out, err)
	}
	_ = rc.Delete(ctx, "games:1")
	if err := rc.Get(ctx, "games:1", &out); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss, got %v", err)
	}
}
