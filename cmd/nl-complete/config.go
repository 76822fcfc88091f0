package main

import (
	"errors"
	"fmt"

	"github.com/database64128/nl-go/nlmsg"
	"github.com/database64128/nl-go/nlsock"
	"github.com/database64128/nl-go/tslog"
)

// Config is the JSON configuration of nl-complete.
type Config struct {
	// Protocol is the netlink protocol to connect to.
	Protocol nlmsg.Protocol `json:"protocol"`

	// Connect controls whether the socket is bound to Protocol before
	// completing messages. An unconnected socket completes messages
	// with protocol 0.
	Connect bool `json:"connect"`

	// Socket is applied to the kernel socket when connecting.
	Socket nlsock.SocketOptions `json:"socket"`

	// Log configures socket diagnostics.
	Log tslog.Config `json:"log"`

	// Messages are the messages to allocate and complete.
	Messages []MessageConfig `json:"messages"`
}

var errNoMessages = errors.New("no messages to complete")

// CheckAndApplyDefaults checks the configuration.
func (c *Config) CheckAndApplyDefaults() error {
	if c.Protocol < 0 {
		return fmt.Errorf("invalid protocol: %v", c.Protocol)
	}
	if c.Socket.SendBufferSize < 0 {
		return fmt.Errorf("negative send buffer size: %d", c.Socket.SendBufferSize)
	}
	if c.Socket.ReceiveBufferSize < 0 {
		return fmt.Errorf("negative receive buffer size: %d", c.Socket.ReceiveBufferSize)
	}
	if len(c.Messages) == 0 {
		return errNoMessages
	}
	for i := range c.Messages {
		if err := c.Messages[i].CheckAndApplyDefaults(); err != nil {
			return fmt.Errorf("bad message %d: %w", i, err)
		}
	}
	return nil
}

// MessageConfig describes a message to allocate.
//
// Fields left at their zero value are filled in by completion.
type MessageConfig struct {
	// Type is the header message type.
	Type nlmsg.MsgType `json:"type"`

	// Flags are the header flags.
	Flags nlmsg.Flags `json:"flags"`

	// Protocol overrides the socket's protocol if set.
	Protocol *nlmsg.Protocol `json:"protocol,omitempty"`

	// PortID overrides the socket's local port ID if non-zero.
	PortID uint32 `json:"portID"`

	// AutoSeq assigns the next sequence number of the socket.
	AutoSeq bool `json:"autoSeq"`

	// Payload is appended to the message, padded to netlink alignment.
	Payload []byte `json:"payload"`
}

// CheckAndApplyDefaults checks the message configuration.
func (mc *MessageConfig) CheckAndApplyDefaults() error {
	if mc.Protocol != nil && *mc.Protocol < 0 {
		return fmt.Errorf("invalid protocol: %v", *mc.Protocol)
	}
	return nil
}

// Message allocates the configured message for sending on s.
func (mc *MessageConfig) Message(s *nlsock.Socket) *nlmsg.Message {
	msg := nlmsg.Alloc(mc.Type, mc.Flags, nlmsg.HeaderLen+nlmsg.AlignLen(len(mc.Payload)))
	if mc.Protocol != nil {
		msg.Protocol = *mc.Protocol
	}
	msg.Header.PortID = mc.PortID
	if mc.AutoSeq {
		msg.Header.Seq = s.NextSeq()
	}
	if len(mc.Payload) > 0 {
		msg.Append(mc.Payload, nlmsg.Align)
	}
	return msg
}
