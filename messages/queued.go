package messages

import (
	"fmt"
	"net/netip"
)

// QueuedMessage pairs a verified message with the transport address it
// arrived from. Sender is nil for locally originated messages.
type QueuedMessage struct {
	Message *Message
	Sender  *netip.AddrPort
}

// IntoQueued attaches the sender address a message arrived from.
func (m *Message) IntoQueued(sender *netip.AddrPort) QueuedMessage {
	return QueuedMessage{Message: m, Sender: sender}
}

func (q QueuedMessage) String() string {
	if q.Sender == nil {
		return fmt.Sprintf("QueuedMessage{local, %s}", q.Message)
	}
	return fmt.Sprintf("QueuedMessage{from %s, %s}", q.Sender, q.Message)
}
