package dispatch

import "context"

// Outcome is the result of handing a one-time code to the mail transport.
type Outcome int

const (
	// OutcomeDelivered means the transport accepted the message.
	OutcomeDelivered Outcome = iota
	// OutcomeFailed means delivery was attempted and did not succeed.
	OutcomeFailed
	// OutcomeSkipped means no transport is configured.
	OutcomeSkipped
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDelivered:
		return "delivered"
	case OutcomeFailed:
		return "failed"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Dispatcher hands a one-time code to an external mail transport. Send never
// returns an error: delivery problems resolve to OutcomeFailed and the
// caller decides how to fall back.
type Dispatcher interface {
	Send(ctx context.Context, toEmail, code string) Outcome
}

// NoopDispatcher is used when no transport is configured; every send is
// skipped.
type NoopDispatcher struct{}

func (NoopDispatcher) Send(ctx context.Context, toEmail, code string) Outcome {
	return OutcomeSkipped
}
