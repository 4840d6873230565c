package messages

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/sectormesh/routing/location"
	"github.com/sectormesh/routing/xorname"
)

func TestLogVerifyFailureLogsAtErrorLevel(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	logger := zap.New(core)

	id := mustID(t, 0x31)
	dst := location.NodeDst(xorname.FromContent([]byte("log target")))
	msg, err := SingleSrc(id, dst, nil, UserMessage{Content: []byte("log body")})
	if err != nil {
		t.Fatalf("SingleSrc: %v", err)
	}

	verr := newError(KindUntrusted, "MSG-TRUST-301", "src key not reachable from trusted keys")
	LogVerifyFailure(logger, msg, verr, nil)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	if entries[0].Level != zapcore.ErrorLevel {
		t.Fatalf("expected error level, got %v", entries[0].Level)
	}
	fields := entries[0].ContextMap()
	if fields["rule"] != "MSG-TRUST-301" {
		t.Fatalf("rule field: got %v", fields["rule"])
	}
	if fields["hash"] != msg.Hash().String() {
		t.Fatalf("hash field: got %v want %v", fields["hash"], msg.Hash())
	}
}

func TestLogVerifyFailureNilLogger(t *testing.T) {
	id := mustID(t, 0x32)
	dst := location.NodeDst(xorname.FromContent([]byte("log target")))
	msg, err := SingleSrc(id, dst, nil, UserMessage{Content: []byte("log body")})
	if err != nil {
		t.Fatalf("SingleSrc: %v", err)
	}
	LogVerifyFailure(nil, msg, newError(KindSignature, "MSG-SIG-401", "bad signature"), nil)
}
