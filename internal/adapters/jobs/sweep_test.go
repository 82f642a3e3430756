package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/arisium-chains/aurum-miniapp-prod-sub001/internal/adapters/repository"
	. "github.com/smartystreets/goconvey/convey"
)

type stubSweeper struct {
	calls atomic.Int32
	err   error
}

func (s *stubSweeper) Sweep(context.Context) (repository.SweepReport, error) {
	n := s.calls.Add(1)
	return repository.SweepReport{RunID: "run", Scanned: int(n)}, s.err
}

func waitFor(cond func() bool, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestSweepJob(t *testing.T) {
	Convey("Given a sweep job", t, func() {
		ctx := context.Background()

		Convey("When the interval is short", func() {
			stub := &stubSweeper{}
			job := NewSweepJob(stub, WithInterval(20*time.Millisecond))
			So(job.Start(ctx), ShouldBeNil)
			So(job.Start(ctx), ShouldBeNil)

			Convey("Then sweeps run on schedule until stopped", func() {
				So(waitFor(func() bool { return job.Runs() >= 2 }, 2*time.Second), ShouldBeTrue)
				So(job.Stop(), ShouldBeNil)
				So(job.Stop(), ShouldBeNil)

				report, ok := job.LastReport()
				So(ok, ShouldBeTrue)
				So(report.RunID, ShouldEqual, "run")
				So(job.LastError(), ShouldBeNil)
			})
		})

		Convey("When the interval is zero", func() {
			stub := &stubSweeper{}
			job := NewSweepJob(stub, WithInterval(0))
			So(job.Start(ctx), ShouldBeNil)
			time.Sleep(30 * time.Millisecond)

			Convey("Then nothing is scheduled but RunOnce still works", func() {
				So(job.Runs(), ShouldEqual, 0)
				_, ok := job.LastReport()
				So(ok, ShouldBeFalse)

				report, err := job.RunOnce(ctx)
				So(err, ShouldBeNil)
				So(report.Scanned, ShouldEqual, 1)
				So(job.Runs(), ShouldEqual, 1)
				So(job.Stop(), ShouldBeNil)
			})
		})

		Convey("When a sweep fails", func() {
			stub := &stubSweeper{err: errors.New("list failed")}
			job := NewSweepJob(stub)
			_, err := job.RunOnce(ctx)

			Convey("Then the error is returned and remembered", func() {
				So(err, ShouldNotBeNil)
				So(job.LastError(), ShouldEqual, stub.err)
				So(job.Interval(), ShouldEqual, DefaultSweepInterval)
			})
		})
	})
}
