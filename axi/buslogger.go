package axi

import (
	"log"
	"strconv"

	"github.com/scarv/xcsim/sim"
)

// BusLogger is a hook that prints every bus transaction of a transactor.
type BusLogger struct {
	sim.LogHookBase

	timeTeller sim.TimeTeller
}

// NewBusLogger returns a BusLogger that writes into the logger. The time
// teller may be nil, in which case steps are not printed.
func NewBusLogger(logger *log.Logger, timeTeller sim.TimeTeller) *BusLogger {
	return &BusLogger{
		LogHookBase: sim.MakeLogHookBase(logger),
		timeTeller:  timeTeller,
	}
}

// Func writes the transaction information into the logger.
func (h *BusLogger) Func(ctx sim.HookCtx) {
	txn, ok := ctx.Item.(Transaction)
	if !ok {
		return
	}

	prefix := ""
	if h.timeTeller != nil {
		prefix = formatStep(h.timeTeller.CurrentStep())
	}

	switch ctx.Pos {
	case HookPosReadAccepted, HookPosWriteAddrAccepted:
		h.Printf("%s%s, %s, 0x%08X", prefix, txn.Port, ctx.Pos.Name, txn.Addr)
	case HookPosReadResponded:
		h.Printf("%s%s, %s, 0x%08X, 0x%08X",
			prefix, txn.Port, ctx.Pos.Name, txn.Addr, txn.Data)
	case HookPosWriteDataAccepted, HookPosWriteCommitted:
		h.Printf("%s%s, %s, 0x%08X, 0x%08X, %04b",
			prefix, txn.Port, ctx.Pos.Name, txn.Addr, txn.Data, txn.Strb)
	case HookPosReset:
		h.Printf("%s%s", prefix, ctx.Pos.Name)
	case HookPosByteOut:
		h.Printf("%s%s, %s, %q", prefix, txn.Port, ctx.Pos.Name, rune(txn.Data))
	}
}

func formatStep(step uint64) string {
	return "step " + strconv.FormatUint(step, 10) + ", "
}
