package axi

import "github.com/scarv/xcsim/mem"

// The channel handlers below run once per rising clock edge. Each one only
// looks at its own channel signals and queue.

// handleReadAddr accepts every valid read address.
func handleReadAddr(ar *ReadAddrChannel, q *ReadQueue) bool {
	if !ar.Valid {
		ar.Ready = false
		return false
	}

	ar.Ready = true
	q.Push(ar.Addr)

	return true
}

// handleWriteAddr accepts a valid write address unless the previous write is
// still waiting for its data.
func handleWriteAddr(aw *WriteAddrChannel, q *WriteQueue) (bool, error) {
	if q.TailIncomplete() || !aw.Valid {
		aw.Ready = false
		return false, nil
	}

	aw.Ready = true

	err := q.PushAddress(aw.Addr)
	if err != nil {
		return false, err
	}

	return true, nil
}

// handleWriteData attaches valid write data to the pending write address.
func handleWriteData(w *WriteDataChannel, q *WriteQueue) (WriteReq, bool, error) {
	if !w.Valid {
		w.Ready = false
		return WriteReq{}, false, nil
	}

	w.Ready = true

	req, err := q.FillData(w.Data, w.Strb)
	if err != nil {
		return WriteReq{}, false, err
	}

	return req, true, nil
}

// handleReadResp drives the response of the oldest pending read. A response
// that the master has not taken yet is held.
func handleReadResp(
	r *ReadDataChannel,
	q *ReadQueue,
	storage *mem.Storage,
) (addr uint32, responded, stalled bool) {
	if r.Valid && !r.Ready {
		return 0, false, true
	}

	addr, ok := q.Pop()
	if !ok {
		r.Valid = false
		return 0, false, false
	}

	r.Data = storage.ReadWord(addr)
	r.Valid = true

	return addr, true, false
}

// handleWriteResp acknowledges the oldest complete write and commits it to
// the storage. A response that the master has not taken yet is held.
func handleWriteResp(
	b *WriteRespChannel,
	q *WriteQueue,
	storage *mem.Storage,
) (req WriteReq, responded, stalled bool) {
	if b.Valid && !b.Ready {
		return WriteReq{}, false, true
	}

	front, ok := q.Front()
	if !ok || !front.Complete {
		b.Valid = false
		return WriteReq{}, false, false
	}

	b.Valid = true
	q.Pop()
	storage.WriteWord(front.Addr, front.Data, front.Strb)

	return front, true, false
}
