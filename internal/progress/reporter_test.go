package progress_test

import (
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/skaphos/gg/internal/model"
	"github.com/skaphos/gg/internal/progress"
)

var _ = Describe("Reporter", func() {
	var (
		surface *recordingSurface
		clock   *fakeClock
		tracker *progress.Tracker
		r       *progress.Reporter
	)

	BeforeEach(func() {
		surface = &recordingSurface{}
		clock = newFakeClock()
		tracker = progress.NewTracker(surface, progress.WithClock(clock.Now))
		r = tracker.NewReporter("repo")
	})

	It("starts out waiting and publishes it", func() {
		Expect(r.State()).To(Equal(progress.Waiting))
		Expect(surface.States()).To(Equal([]progress.State{progress.Waiting}))
	})

	It("walks waiting, running, done", func() {
		Expect(r.Start()).To(Succeed())
		Expect(surface.Last().Message).To(Equal(progress.StartMessage))
		clock.Advance(1500 * time.Millisecond)
		Expect(r.Done("no changes")).To(Succeed())

		Expect(surface.States()).To(Equal([]progress.State{progress.Waiting, progress.Running, progress.Done}))
		last := surface.Last()
		Expect(last.Message).To(Equal("no changes"))
		Expect(last.Elapsed).To(Equal(1500 * time.Millisecond))
	})

	It("records failures", func() {
		Expect(r.Start()).To(Succeed())
		Expect(r.Fail(errors.New("boom"))).To(Succeed())
		last := surface.Last()
		Expect(last.State).To(Equal(progress.Failed))
		Expect(last.Err).To(MatchError("boom"))
		Expect(last.Message).To(Equal("boom"))
	})

	DescribeTable("rejects illegal transitions without mutating",
		func(setup func(*progress.Reporter), op func(*progress.Reporter) error, want progress.State) {
			setup(r)
			before := len(surface.States())
			Expect(errors.Is(op(r), progress.ErrInvalidTransition)).To(BeTrue())
			Expect(r.State()).To(Equal(want))
			Expect(surface.States()).To(HaveLen(before))
		},
		Entry("done before start", func(*progress.Reporter) {}, func(r *progress.Reporter) error { return r.Done("x") }, progress.Waiting),
		Entry("fail before start", func(*progress.Reporter) {}, func(r *progress.Reporter) error { return r.Fail(errors.New("x")) }, progress.Waiting),
		Entry("progress before start", func(*progress.Reporter) {}, func(r *progress.Reporter) error { return r.Progress(model.TransferProgress{}) }, progress.Waiting),
		Entry("start twice", func(r *progress.Reporter) { _ = r.Start() }, func(r *progress.Reporter) error { return r.Start() }, progress.Running),
		Entry("done after done", func(r *progress.Reporter) { _ = r.Start(); _ = r.Done("ok") }, func(r *progress.Reporter) error { return r.Done("again") }, progress.Done),
		Entry("fail after done", func(r *progress.Reporter) { _ = r.Start(); _ = r.Done("ok") }, func(r *progress.Reporter) error { return r.Fail(errors.New("x")) }, progress.Done),
		Entry("progress after fail", func(r *progress.Reporter) { _ = r.Start(); _ = r.Fail(errors.New("x")) }, func(r *progress.Reporter) error { return r.Progress(model.TransferProgress{}) }, progress.Failed),
		Entry("start after fail", func(r *progress.Reporter) { _ = r.Start(); _ = r.Fail(errors.New("x")) }, func(r *progress.Reporter) error { return r.Start() }, progress.Failed),
		Entry("abort after start", func(r *progress.Reporter) { _ = r.Start() }, func(r *progress.Reporter) error { return r.Abort(errors.New("x")) }, progress.Running),
	)

	It("aborts a waiting reporter straight to failed", func() {
		Expect(r.Abort(errors.New("context canceled"))).To(Succeed())
		Expect(surface.States()).To(Equal([]progress.State{progress.Waiting, progress.Failed}))
	})

	Describe("phases", func() {
		BeforeEach(func() {
			Expect(r.Start()).To(Succeed())
		})

		It("moves from transferring to indexing", func() {
			Expect(r.Progress(model.TransferProgress{TotalObjects: 10, ReceivedObjects: 2, ReceivedBytes: 2048})).To(Succeed())
			s := r.Snapshot()
			Expect(s.Phase).To(Equal(progress.PhaseTransferring))
			Expect(s.Position).To(Equal(2))
			Expect(s.Length).To(Equal(10))
			Expect(s.Message).To(Equal("Receiving objects 2/10 (2.0 KiB)"))

			Expect(r.Progress(model.TransferProgress{TotalObjects: 10, ReceivedObjects: 10, TotalDeltas: 4, IndexedDeltas: 1})).To(Succeed())
			s = r.Snapshot()
			Expect(s.Phase).To(Equal(progress.PhaseIndexing))
			Expect(s.Position).To(Equal(1))
			Expect(s.Length).To(Equal(4))
			Expect(s.Message).To(Equal("Resolving deltas 1/4"))
		})

		It("never lets counters go backwards", func() {
			Expect(r.Progress(model.TransferProgress{TotalObjects: 10, ReceivedObjects: 6})).To(Succeed())
			Expect(r.Progress(model.TransferProgress{TotalObjects: 10, ReceivedObjects: 3})).To(Succeed())
			Expect(r.Snapshot().Position).To(Equal(6))
		})

		It("estimates from the current phase only", func() {
			Expect(r.Progress(model.TransferProgress{TotalObjects: 100, ReceivedObjects: 10})).To(Succeed())
			clock.Advance(10 * time.Second)
			Expect(r.Progress(model.TransferProgress{TotalObjects: 100, ReceivedObjects: 60})).To(Succeed())
			// 50 objects in 10s leaves 40 objects for 8s.
			Expect(r.Snapshot().ETA).To(Equal(8 * time.Second))

			Expect(r.Progress(model.TransferProgress{TotalObjects: 100, ReceivedObjects: 100, TotalDeltas: 10})).To(Succeed())
			Expect(r.Snapshot().ETA).To(BeZero())
			clock.Advance(2 * time.Second)
			Expect(r.Progress(model.TransferProgress{TotalObjects: 100, ReceivedObjects: 100, TotalDeltas: 10, IndexedDeltas: 5})).To(Succeed())
			Expect(r.Snapshot().ETA).To(Equal(2 * time.Second))
		})

		It("fills the bar on done", func() {
			Expect(r.Progress(model.TransferProgress{TotalObjects: 10, ReceivedObjects: 4})).To(Succeed())
			Expect(r.Done("fetched")).To(Succeed())
			Expect(r.Snapshot().Position).To(Equal(10))
		})
	})
})

var _ = Describe("Tracker", func() {
	It("counts reporters per state and closes the surface", func() {
		surface := &recordingSurface{closeErr: errors.New("flush failed")}
		tracker := progress.NewTracker(surface)
		a := tracker.NewReporter("a")
		b := tracker.NewReporter("b")
		tracker.NewReporter("c")
		Expect(a.Start()).To(Succeed())
		Expect(a.Done("ok")).To(Succeed())
		Expect(b.Start()).To(Succeed())
		Expect(b.Fail(errors.New("no"))).To(Succeed())

		Expect(tracker.Summary()).To(Equal(progress.Summary{Total: 3, Waiting: 1, Done: 1, Failed: 1}))
		Expect(tracker.Reporters()).To(HaveLen(3))
		Expect(tracker.Close()).To(MatchError("flush failed"))
		Expect(surface.closed).To(Equal(1))
	})

	It("discards updates without a surface", func() {
		tracker := progress.NewTracker(nil)
		r := tracker.NewReporter("a")
		Expect(r.Start()).To(Succeed())
		Expect(tracker.Close()).To(Succeed())
	})
})
