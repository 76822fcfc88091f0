package nlsock

import (
	"log/slog"

	"github.com/database64128/nl-go/nlmsg"
	"github.com/database64128/nl-go/tslog"
)

// completeFlags are set on every outbound request.
const completeFlags = nlmsg.FlagRequest | nlmsg.FlagAck

// Complete fills in the fields of msg that the kernel requires to route the
// message and its reply, without overwriting what the caller has set:
//
//   - If msg.Protocol is [nlmsg.ProtocolUnset], it is set to the socket's protocol.
//   - The request and ACK flags are added to the header flags.
//   - If the header port ID is 0, it is set to the socket's local port ID.
//
// Nothing else is modified, so calling Complete again has no effect.
// Neither sk nor msg may be nil.
func Complete(sk *Socket, msg *nlmsg.Message) {
	if msg.Protocol == nlmsg.ProtocolUnset {
		msg.Protocol = sk.proto
	}

	msg.Header.Flags |= completeFlags

	if msg.Header.PortID == 0 {
		msg.Header.PortID = sk.local.PortID
	}

	if sk.logger.Enabled(slog.LevelDebug) {
		sk.logger.Debug("Completed message",
			slog.Any("protocol", msg.Protocol),
			slog.Any("type", msg.Header.Type),
			slog.Any("flags", msg.Header.Flags),
			tslog.Uint("seq", msg.Header.Seq),
			tslog.Uint("portID", msg.Header.PortID),
		)
	}
}
