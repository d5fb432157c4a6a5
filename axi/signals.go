// Package axi implements the slave side of a lightweight AXI-style memory bus.
//
// Each master port has five independent channels. Every channel is a
// valid/ready handshake: the sender drives Valid together with its payload and
// the receiver answers with Ready. The transactor in this package plays the
// receiver on the address and write data channels and the sender on the read
// data and write response channels. Only single-beat transfers are modeled.
package axi

// ReadAddrChannel carries read addresses from the master (AR).
type ReadAddrChannel struct {
	Valid bool   // driven by master
	Ready bool   // driven by slave
	Addr  uint32 // driven by master
}

// ReadDataChannel carries read data back to the master (R).
type ReadDataChannel struct {
	Valid bool   // driven by slave
	Ready bool   // driven by master
	Data  uint32 // driven by slave
}

// WriteAddrChannel carries write addresses from the master (AW).
type WriteAddrChannel struct {
	Valid bool   // driven by master
	Ready bool   // driven by slave
	Addr  uint32 // driven by master
}

// WriteDataChannel carries write data and byte strobes from the master (W).
type WriteDataChannel struct {
	Valid bool   // driven by master
	Ready bool   // driven by slave
	Data  uint32 // driven by master
	Strb  uint8  // driven by master, bit i enables byte i
}

// WriteRespChannel acknowledges completed writes to the master (B).
type WriteRespChannel struct {
	Valid bool // driven by slave
	Ready bool // driven by master
}

// PortSignals is the full signal set of one master port.
type PortSignals struct {
	AR ReadAddrChannel
	R  ReadDataChannel
	AW WriteAddrChannel
	W  WriteDataChannel
	B  WriteRespChannel
}

// ResetSlaveSide deasserts every signal that the slave drives.
func (p *PortSignals) ResetSlaveSide() {
	p.AR.Ready = false
	p.R.Valid = false
	p.R.Data = 0
	p.AW.Ready = false
	p.W.Ready = false
	p.B.Valid = false
}

// ResetMasterSide deasserts every signal that the master drives.
func (p *PortSignals) ResetMasterSide() {
	p.AR.Valid = false
	p.AR.Addr = 0
	p.R.Ready = false
	p.AW.Valid = false
	p.AW.Addr = 0
	p.W.Valid = false
	p.W.Data = 0
	p.W.Strb = 0
	p.B.Ready = false
}
