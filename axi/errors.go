package axi

import "fmt"

// Channel names one of the five bus channels.
type Channel string

// The bus channels.
const (
	ChannelReadAddr  Channel = "read address"
	ChannelReadData  Channel = "read data"
	ChannelWriteAddr Channel = "write address"
	ChannelWriteData Channel = "write data"
	ChannelWriteResp Channel = "write response"
)

// A ProtocolError reports a master that broke the bus protocol. It is not
// recoverable; the simulation has to stop.
type ProtocolError struct {
	Port    string
	Channel Channel
	Err     error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol violation on port %s, %s channel: %v",
		e.Port, e.Channel, e.Err)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}
