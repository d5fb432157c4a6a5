package monitoring

import (
	"github.com/scarv/xcsim/axi"
	"github.com/scarv/xcsim/sim"
	"github.com/scarv/xcsim/sim/queueing"
)

// queueTracker counts the requests that wait in the port queues of a
// transactor.
type queueTracker struct {
	bar *ProgressBar
}

func (t *queueTracker) Func(ctx sim.HookCtx) {
	switch ctx.Pos {
	case queueing.HookPosBufPush:
		t.bar.IncrementInProgress(1)
	case queueing.HookPosBufPop:
		t.bar.MoveInProgressToFinished(1)
	case queueing.HookPosBufClear:
		t.bar.DropInProgress(uint64(ctx.Item.(int)))
	}
}

// TrackQueues creates a progress bar that follows the request queues of
// every port attached to the transactor. Queued requests are in progress and
// answered requests are finished. A total of 0 means unknown.
func (m *Monitor) TrackQueues(t *axi.Transactor, total uint64) *ProgressBar {
	bar := m.CreateProgressBar(t.Name()+" requests", total)
	tracker := &queueTracker{bar: bar}

	for _, p := range t.Ports() {
		p.Reads().Buffer().AcceptHook(tracker)
		p.Writes().Buffer().AcceptHook(tracker)
	}

	return bar
}
