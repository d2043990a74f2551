// Package hwsession holds the plumbing shared by the backend variants: the
// queue of encoded units awaiting delivery and the guard that turns SDK
// panics into errors.
package hwsession

import (
	"fmt"

	"github.com/phoohow/codec/pkg/ports"
)

// Outputs is a FIFO of encoded units produced by the SDK but not yet
// returned to the caller.
type Outputs struct {
	units []ports.OutputUnit
}

// Push appends units in production order.
func (o *Outputs) Push(units ...ports.OutputUnit) {
	o.units = append(o.units, units...)
}

// Len returns the number of queued units.
func (o *Outputs) Len() int { return len(o.units) }

// Pop removes the oldest unit and returns it as a packet with its own copy
// of the bitstream. It returns nil when the queue is empty.
func (o *Outputs) Pop() *ports.CodecPacket {
	if len(o.units) == 0 {
		return nil
	}
	u := o.units[0]
	o.units[0] = ports.OutputUnit{}
	o.units = o.units[1:]
	return Packet(u)
}

// Reset drops all queued units.
func (o *Outputs) Reset() { o.units = nil }

// Packet converts an SDK output unit to a caller-owned packet.
func Packet(u ports.OutputUnit) *ports.CodecPacket {
	data := make([]byte, len(u.Data))
	copy(data, u.Data)
	return &ports.CodecPacket{
		Data:      data,
		Timestamp: u.Timestamp,
		KeyFrame:  u.PictureType == ports.PictureTypeIDR,
	}
}

// Guard runs fn and converts a panic raised inside the SDK into an error
// wrapping ports.ErrSDKFailure.
func Guard(log ports.Logger, op string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("SDK exception during %s: %v", op, r)
			err = fmt.Errorf("%w: %s: %v", ports.ErrSDKFailure, op, r)
		}
	}()
	return fn()
}
