package blobstore

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

var errBackendDown = errors.New("backend down")

// flakyBackend fails every call while down is set.
type flakyBackend struct {
	*MemoryBackend
	down  bool
	calls int
}

func (f *flakyBackend) Get(ctx context.Context, key string) ([]byte, error) {
	f.calls++
	if f.down {
		return nil, errBackendDown
	}
	return f.MemoryBackend.Get(ctx, key)
}

func (f *flakyBackend) Put(ctx context.Context, key string, data []byte) error {
	f.calls++
	if f.down {
		return errBackendDown
	}
	return f.MemoryBackend.Put(ctx, key, data)
}

func TestBreakerBackend(t *testing.T) {
	Convey("Given a breaker with a threshold of two", t, func() {
		ctx := context.Background()
		flaky := &flakyBackend{MemoryBackend: NewMemoryBackend()}
		b := NewBreakerBackend(flaky,
			WithBreakerName("test"),
			WithFailureThreshold(2),
			WithOpenTimeout(time.Hour),
		)

		Convey("When calls pass through while healthy", func() {
			So(b.Put(ctx, "k", []byte("v")), ShouldBeNil)
			data, err := b.Get(ctx, "k")

			Convey("Then results are unchanged", func() {
				So(err, ShouldBeNil)
				So(string(data), ShouldEqual, "v")
				So(b.State(), ShouldEqual, "closed")
			})
		})

		Convey("When missing keys are read repeatedly", func() {
			for i := 0; i < 5; i++ {
				_, err := b.Get(ctx, "missing")
				So(err, ShouldEqual, ErrNotFound)
			}

			Convey("Then the breaker stays closed", func() {
				So(b.State(), ShouldEqual, "closed")
			})
		})

		Convey("When the backend fails past the threshold", func() {
			flaky.down = true
			_, err1 := b.Get(ctx, "k")
			_, err2 := b.Get(ctx, "k")
			calls := flaky.calls
			_, err3 := b.Get(ctx, "k")
			err4 := b.Put(ctx, "k", []byte("v"))

			Convey("Then later calls fail fast as unavailable", func() {
				So(errors.Is(err1, errBackendDown), ShouldBeTrue)
				So(errors.Is(err2, errBackendDown), ShouldBeTrue)
				So(errors.Is(err3, ErrUnavailable), ShouldBeTrue)
				So(errors.Is(err4, ErrUnavailable), ShouldBeTrue)
				So(flaky.calls, ShouldEqual, calls)
				So(b.State(), ShouldEqual, "open")
			})
		})

		Convey("When listing and closing through the breaker", func() {
			So(b.Put(ctx, "p/1", nil), ShouldBeNil)
			page, err := b.List(ctx, ListInput{Prefix: "p/"})

			Convey("Then both pass through", func() {
				So(err, ShouldBeNil)
				So(len(page.Objects), ShouldEqual, 1)
				So(b.Delete(ctx, "p/1"), ShouldBeNil)
				So(b.Close(), ShouldBeNil)
			})
		})
	})
}
