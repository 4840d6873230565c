package messages

import (
	"go.uber.org/zap"

	"github.com/sectormesh/routing/section"
)

// LogVerifyFailure records a rejected message with enough context to
// reconstruct the trust decision: the message identity, the src claim, the
// rule that fired, and the trust snapshot it was judged against.
func LogVerifyFailure(logger *zap.Logger, m *Message, err error, trusted section.TrustedKeys) {
	if logger == nil {
		return
	}
	logger.Error("message verification failed",
		zap.Stringer("hash", m.Hash()),
		zap.Stringer("src", m.SrcLocation()),
		zap.Stringer("dst", m.Dst()),
		zap.String("rule", RuleID(err)),
		zap.Error(err),
		zap.String("trusted", trusted.String()),
	)
}
