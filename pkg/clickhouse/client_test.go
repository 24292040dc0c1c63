package clickhouse

import (
	"context"
	"net/url"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestBuildDSN(t *testing.T) {
	Convey("Given a native connection config", t, func() {
		cfg := *defaultClientConfig()
		WithAddress("ch.local", 9440)(&cfg)
		WithDatabase("courtedge")(&cfg)
		WithCredentials("svc", "p@ss word")(&cfg)

		Convey("The DSN carries address, database and escaped credentials", func() {
			u, err := url.Parse(buildDSN(cfg))
			So(err, ShouldBeNil)
			So(u.Scheme, ShouldEqual, "clickhouse")
			So(u.Host, ShouldEqual, "ch.local:9440")
			So(u.Path, ShouldEqual, "/courtedge")
			So(u.User.Username(), ShouldEqual, "svc")
			pw, _ := u.User.Password()
			So(pw, ShouldEqual, "p@ss word")
			So(u.Query().Get("dial_timeout"), ShouldEqual, "5s")
			So(u.Query().Get("read_timeout"), ShouldEqual, "10s")
			So(u.Query().Has("write_timeout"), ShouldBeFalse)
		})

		Convey("Async insert and execution limits become settings", func() {
			WithAsyncInsert(true, true)(&cfg)
			WithMaxExecutionTime(30 * time.Second)(&cfg)
			u, err := url.Parse(buildDSN(cfg))
			So(err, ShouldBeNil)
			So(u.Query().Get("async_insert"), ShouldEqual, "1")
			So(u.Query().Get("wait_for_async_insert"), ShouldEqual, "1")
			So(u.Query().Get("max_execution_time"), ShouldEqual, "30")
		})

		Convey("HTTP mode switches the scheme", func() {
			WithHTTP(true)(&cfg)
			u, err := url.Parse(buildDSN(cfg))
			So(err, ShouldBeNil)
			So(u.Scheme, ShouldEqual, "http")
		})
	})

	Convey("A client without host is rejected", t, func() {
		_, err := NewClient(context.Background())
		So(err, ShouldNotBeNil)
	})
}
