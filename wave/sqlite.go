package wave

import (
	"context"
	"fmt"

	"github.com/scarv/xcsim/axi"
	"github.com/scarv/xcsim/datarecording"
)

// SignalTable is the table that SQLiteRecorder writes.
const SignalTable = "signals"

// SignalRow is the state of one port at one step.
type SignalRow struct {
	Step    uint64
	Port    string
	Clock   bool
	ResetN  bool
	ARValid bool
	ARReady bool
	ARAddr  uint32
	RValid  bool
	RReady  bool
	RData   uint32
	AWValid bool
	AWReady bool
	AWAddr  uint32
	WValid  bool
	WReady  bool
	WData   uint32
	WStrb   uint8
	BValid  bool
	BReady  bool
}

func makeSignalRow(step uint64, clock, resetN bool, p PortSample) SignalRow {
	s := &p.Signals

	return SignalRow{
		Step:    step,
		Port:    p.Name,
		Clock:   clock,
		ResetN:  resetN,
		ARValid: s.AR.Valid,
		ARReady: s.AR.Ready,
		ARAddr:  s.AR.Addr,
		RValid:  s.R.Valid,
		RReady:  s.R.Ready,
		RData:   s.R.Data,
		AWValid: s.AW.Valid,
		AWReady: s.AW.Ready,
		AWAddr:  s.AW.Addr,
		WValid:  s.W.Valid,
		WReady:  s.W.Ready,
		WData:   s.W.Data,
		WStrb:   s.W.Strb,
		BValid:  s.B.Valid,
		BReady:  s.B.Ready,
	}
}

// Signals returns the port signals stored in the row.
func (r SignalRow) Signals() axi.PortSignals {
	return axi.PortSignals{
		AR: axi.ReadAddrChannel{Valid: r.ARValid, Ready: r.ARReady, Addr: r.ARAddr},
		R:  axi.ReadDataChannel{Valid: r.RValid, Ready: r.RReady, Data: r.RData},
		AW: axi.WriteAddrChannel{Valid: r.AWValid, Ready: r.AWReady, Addr: r.AWAddr},
		W: axi.WriteDataChannel{
			Valid: r.WValid, Ready: r.WReady, Data: r.WData, Strb: r.WStrb,
		},
		B: axi.WriteRespChannel{Valid: r.BValid, Ready: r.BReady},
	}
}

// SQLiteRecorder stores snapshots in a SQLite database. A port gets a row
// only at the steps where any of its signals, the clock or the reset changed.
type SQLiteRecorder struct {
	recorder datarecording.DataRecorder
	last     map[string]SignalRow
}

// NewSQLiteRecorder creates the database at path.
func NewSQLiteRecorder(path string) (*SQLiteRecorder, error) {
	recorder, err := datarecording.New(path)
	if err != nil {
		return nil, fmt.Errorf("create waveform: %w", err)
	}

	return NewSQLiteRecorderWith(recorder), nil
}

// NewSQLiteRecorderWith records into an existing DataRecorder.
func NewSQLiteRecorderWith(recorder datarecording.DataRecorder) *SQLiteRecorder {
	recorder.CreateTable(SignalTable, SignalRow{})

	return &SQLiteRecorder{
		recorder: recorder,
		last:     make(map[string]SignalRow),
	}
}

// Record inserts a row for every port that changed.
func (r *SQLiteRecorder) Record(s Snapshot) error {
	for _, p := range s.Ports {
		row := makeSignalRow(s.Step, s.Clock, s.ResetN, p)

		last, ok := r.last[p.Name]
		last.Step = row.Step

		if ok && last == row {
			continue
		}

		r.last[p.Name] = row
		r.recorder.InsertData(SignalTable, row)
	}

	return nil
}

// Close flushes and closes the database.
func (r *SQLiteRecorder) Close() error {
	return r.recorder.Close()
}

// ReadSignals returns the rows recorded for port in step order, and the
// number of rows for the port. An empty port selects every port. A limit of
// 0 returns all rows.
func ReadSignals(
	ctx context.Context,
	path string,
	port string,
	limit int,
) ([]SignalRow, int, error) {
	reader, err := datarecording.NewReader(path)
	if err != nil {
		return nil, 0, err
	}
	defer reader.Close()

	reader.MapTable(SignalTable, SignalRow{})

	params := datarecording.QueryParams{
		OrderBy: "Step, Port",
		Limit:   limit,
	}

	if port != "" {
		params.Where = "Port = ?"
		params.Args = []any{port}
	}

	results, total, err := reader.Query(ctx, SignalTable, params)
	if err != nil {
		return nil, 0, fmt.Errorf("read %s: %w", path, err)
	}

	rows := make([]SignalRow, 0, len(results))
	for _, res := range results {
		rows = append(rows, *res.(*SignalRow))
	}

	return rows, total, nil
}
