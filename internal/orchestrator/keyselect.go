package orchestrator

import "context"

// KeySelector is the optional host-environment capability for checking and
// choosing a billing-enabled API credential. It is consulted before video
// generation and re-consulted when the remote side rejects the current
// credential.
type KeySelector interface {
	HasSelectedKey(ctx context.Context) (bool, error)
	OpenSelectKey(ctx context.Context) error
}

// NoopKeySelector is the fallback for environments without a selection hook:
// it reports a key as always selected and selection as always successful.
type NoopKeySelector struct{}

func (NoopKeySelector) HasSelectedKey(ctx context.Context) (bool, error) { return true, nil }

func (NoopKeySelector) OpenSelectKey(ctx context.Context) error { return nil }
