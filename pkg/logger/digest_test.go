package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

type captureSink struct {
	mu      sync.Mutex
	topic   string
	batches [][]DigestEntry
}

func (s *captureSink) Publish(_ context.Context, topic string, _ []byte, value interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.topic = topic
	s.batches = append(s.batches, value.([]DigestEntry))
	return nil
}

func TestDigest(t *testing.T) {
	Convey("Given a logger with an attached digest", t, func() {
		sink := &captureSink{}
		d := NewDigest(DigestConfig{Interval: time.Hour, MaxKeys: 50, Topic: "courtedge.logs", Sink: sink})
		var buf bytes.Buffer
		l := NewWriter(&buf, "debug")
		l.AttachDigest(d)

		Convey("Repeated errors collapse into one counted entry", func() {
			for i := 0; i < 3; i++ {
				l.Error("fetch failed", String("team", "LAL"), Error(errors.New("boom")))
			}
			l.Warn("cache bypassed")
			l.Info("not collected")
			d.Flush()

			So(sink.topic, ShouldEqual, "courtedge.logs")
			So(sink.batches, ShouldHaveLength, 1)
			batch := sink.batches[0]
			So(batch, ShouldHaveLength, 2)
			So(batch[0].Message, ShouldEqual, "fetch failed")
			So(batch[0].Count, ShouldEqual, 3)
			So(batch[0].Fields["team"], ShouldEqual, "LAL")
			So(batch[0].Fields["error"], ShouldEqual, "boom")
			So(batch[0].Caller, ShouldContainSubstring, "digest_test.go")
			So(batch[1].Level, ShouldEqual, "warn")
		})

		Convey("Flushing an empty digest sends nothing", func() {
			d.Flush()
			So(sink.batches, ShouldBeEmpty)
		})

		Reset(func() {
			l.DetachDigest()
		})
	})
}

func TestLoggerWritesJSON(t *testing.T) {
	Convey("Named loggers tag their component", t, func() {
		var buf bytes.Buffer
		NewWriter(&buf, "info").Named("matchup").Info("scored", Float64("home_probability", 0.66), Int64("team_id", 1610612747))

		var line map[string]interface{}
		So(json.Unmarshal(buf.Bytes(), &line), ShouldBeNil)
		So(line["component"], ShouldEqual, "matchup")
		So(line["message"], ShouldEqual, "scored")
		So(line["team_id"], ShouldEqual, float64(1610612747))
	})

	Convey("Entries below the level are dropped", t, func() {
		var buf bytes.Buffer
		NewWriter(&buf, "warn").Info("hidden")
		So(buf.Len(), ShouldEqual, 0)
	})
}
