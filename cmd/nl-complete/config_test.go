package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/database64128/nl-go/jsoncfg"
	"github.com/database64128/nl-go/nlmsg"
	"github.com/database64128/nl-go/nlsock"
	"github.com/database64128/nl-go/tslogtest"
)

const testConfigJSON = `{
    "protocol": "generic",
    "connect": true,
    "socket": {
        "receiveBufferSize": 65536
    },
    "log": {
        "level": "DEBUG"
    },
    "messages": [
        {
            "type": 16,
            "flags": 768
        },
        {
            "type": 18,
            "protocol": "audit",
            "portID": 10,
            "autoSeq": true,
            "payload": "AQID"
        }
    ]
}`

func loadTestConfig(t *testing.T, text string) (Config, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatalf("os.WriteFile() failed: %v", err)
	}
	var c Config
	err := jsoncfg.Open(path, &c)
	return c, err
}

func TestConfigOpen(t *testing.T) {
	c, err := loadTestConfig(t, testConfigJSON)
	if err != nil {
		t.Fatalf("jsoncfg.Open() failed: %v", err)
	}
	if err = c.CheckAndApplyDefaults(); err != nil {
		t.Fatalf("c.CheckAndApplyDefaults() failed: %v", err)
	}

	if c.Protocol != nlmsg.ProtocolGeneric {
		t.Errorf("c.Protocol = %v, want %v", c.Protocol, nlmsg.ProtocolGeneric)
	}
	if !c.Connect {
		t.Error("c.Connect = false, want true")
	}
	if c.Socket.ReceiveBufferSize != 65536 {
		t.Errorf("c.Socket.ReceiveBufferSize = %d, want 65536", c.Socket.ReceiveBufferSize)
	}
	if c.Log.Level != slog.LevelDebug {
		t.Errorf("c.Log.Level = %v, want %v", c.Log.Level, slog.LevelDebug)
	}
	if len(c.Messages) != 2 {
		t.Fatalf("len(c.Messages) = %d, want 2", len(c.Messages))
	}
	if c.Messages[0].Protocol != nil {
		t.Errorf("c.Messages[0].Protocol = %v, want nil", *c.Messages[0].Protocol)
	}
	if c.Messages[0].Flags != nlmsg.FlagDump {
		t.Errorf("c.Messages[0].Flags = %v, want %v", c.Messages[0].Flags, nlmsg.FlagDump)
	}
	if p := c.Messages[1].Protocol; p == nil || *p != nlmsg.ProtocolAudit {
		t.Errorf("c.Messages[1].Protocol = %v, want %v", p, nlmsg.ProtocolAudit)
	}
	if !bytes.Equal(c.Messages[1].Payload, []byte{1, 2, 3}) {
		t.Errorf("c.Messages[1].Payload = %v, want [1 2 3]", c.Messages[1].Payload)
	}
}

func TestConfigMarshalOpen(t *testing.T) {
	want := Config{
		Protocol: nlmsg.ProtocolNetfilter,
		Messages: []MessageConfig{
			{
				Type:  nlmsg.MsgTypeMinType,
				Flags: nlmsg.FlagDump | nlmsg.FlagEcho,
			},
		},
	}
	b, err := json.Marshal(want)
	if err != nil {
		t.Fatalf("json.Marshal() failed: %v", err)
	}

	c, err := loadTestConfig(t, string(b))
	if err != nil {
		t.Fatalf("jsoncfg.Open(%s) failed: %v", b, err)
	}
	if c.Protocol != want.Protocol {
		t.Errorf("c.Protocol = %v, want %v", c.Protocol, want.Protocol)
	}
	if len(c.Messages) != 1 {
		t.Fatalf("len(c.Messages) = %d, want 1", len(c.Messages))
	}
	if got := c.Messages[0].Flags; got != want.Messages[0].Flags {
		t.Errorf("c.Messages[0].Flags = %v, want %v", got, want.Messages[0].Flags)
	}
}

func TestConfigUnknownField(t *testing.T) {
	if _, err := loadTestConfig(t, `{"protocol": "route", "bogus": 1}`); err == nil {
		t.Error("jsoncfg.Open() = nil, want error")
	}
}

func TestConfigNoMessages(t *testing.T) {
	c, err := loadTestConfig(t, `{"protocol": "route"}`)
	if err != nil {
		t.Fatalf("jsoncfg.Open() failed: %v", err)
	}
	if err = c.CheckAndApplyDefaults(); !errors.Is(err, errNoMessages) {
		t.Errorf("c.CheckAndApplyDefaults() = %v, want errNoMessages", err)
	}
}

func TestConfigInvalidMessageProtocol(t *testing.T) {
	c, err := loadTestConfig(t, `{"messages": [{"protocol": "unset"}]}`)
	if err != nil {
		t.Fatalf("jsoncfg.Open() failed: %v", err)
	}
	if err = c.CheckAndApplyDefaults(); err == nil {
		t.Error("c.CheckAndApplyDefaults() = nil, want error")
	}
}

func TestMessageConfigMessage(t *testing.T) {
	c, err := loadTestConfig(t, testConfigJSON)
	if err != nil {
		t.Fatalf("jsoncfg.Open() failed: %v", err)
	}

	logger := tslogtest.Config{Level: slog.LevelDebug}.NewTestLogger(t)
	s := nlsock.Config{
		Allocator: nlsock.NewPortAllocator(func() uint32 { return 4321 }),
	}.New(logger)
	defer s.Close()

	m0 := c.Messages[0].Message(s)
	s.Complete(m0)
	if m0.Protocol != nlmsg.ProtocolRoute {
		t.Errorf("m0.Protocol = %v, want %v", m0.Protocol, nlmsg.ProtocolRoute)
	}
	if want := nlmsg.FlagDump | nlmsg.FlagRequest | nlmsg.FlagAck; m0.Header.Flags != want {
		t.Errorf("m0.Header.Flags = %v, want %v", m0.Header.Flags, want)
	}
	if m0.Header.PortID != 4321 {
		t.Errorf("m0.Header.PortID = %d, want 4321", m0.Header.PortID)
	}
	if m0.Header.Seq != 0 {
		t.Errorf("m0.Header.Seq = %d, want 0", m0.Header.Seq)
	}

	seq := s.SeqExpect()
	m1 := c.Messages[1].Message(s)
	s.Complete(m1)
	if m1.Protocol != nlmsg.ProtocolAudit {
		t.Errorf("m1.Protocol = %v, want %v", m1.Protocol, nlmsg.ProtocolAudit)
	}
	if m1.Header.PortID != 10 {
		t.Errorf("m1.Header.PortID = %d, want 10", m1.Header.PortID)
	}
	if m1.Header.Seq != seq {
		t.Errorf("m1.Header.Seq = %d, want %d", m1.Header.Seq, seq)
	}
	if got, want := m1.Len(), nlmsg.HeaderLen+nlmsg.Align; got != want {
		t.Errorf("m1.Len() = %d, want %d", got, want)
	}
}
