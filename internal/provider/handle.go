package provider

import (
	"context"

	shadeerr "github.com/mrz1836/shade/pkg/errors"
)

// Origin names the detection source a provider was found at.
type Origin string

// Handle is the normalized capability object the rest of the client holds.
// It wraps a detected Provider, records where it was found, and converts
// absent optional capabilities into CAPABILITY_UNAVAILABLE errors instead of
// letting calls reach a provider that cannot serve them.
type Handle struct {
	origin   Origin
	provider Provider
	caps     Capabilities
}

// NewHandle wraps a detected provider. The capability flags are snapshotted
// once at detection time; provider capability sets are static per version.
func NewHandle(origin Origin, p Provider) *Handle {
	return &Handle{
		origin:   origin,
		provider: p,
		caps:     p.Capabilities(),
	}
}

// Origin returns the detection source the provider was found at.
func (h *Handle) Origin() Origin {
	return h.origin
}

// Name returns the underlying provider's name.
func (h *Handle) Name() string {
	return h.provider.Name()
}

// APIVersion returns the underlying provider's connector API version.
func (h *Handle) APIVersion() string {
	return h.provider.APIVersion()
}

// Capabilities returns the capability flags snapshotted at detection.
func (h *Handle) Capabilities() Capabilities {
	return h.caps
}

// IsEnabled reports whether the wallet has already authorized this
// application.
func (h *Handle) IsEnabled(ctx context.Context) (bool, error) {
	return h.provider.IsEnabled(ctx)
}

// Enable requests wallet authorization.
func (h *Handle) Enable(ctx context.Context) (*WalletState, error) {
	if !h.caps.Enable {
		return nil, capErr("enable")
	}
	return h.provider.Enable(ctx)
}

// State re-reads the current wallet state.
func (h *Handle) State(ctx context.Context) (*WalletState, error) {
	if !h.caps.State {
		return nil, capErr("state")
	}
	return h.provider.State(ctx)
}

// SignTx signs a contract call intent.
func (h *Handle) SignTx(ctx context.Context, intent TxIntent) (SignedTx, error) {
	if !h.caps.SignTx {
		return SignedTx{}, shadeerr.WithDetails(shadeerr.ErrSigningUnavailable,
			map[string]string{"provider": h.provider.Name()})
	}
	return h.provider.SignTx(ctx, intent)
}

// SubmitTx submits a signed transaction.
func (h *Handle) SubmitTx(ctx context.Context, tx SignedTx) (string, error) {
	if !h.caps.SubmitTx {
		return "", capErr("submitTx")
	}
	return h.provider.SubmitTx(ctx, tx)
}

// On registers a handler for provider events.
func (h *Handle) On(kind EventKind, handler Handler) (Unsubscribe, error) {
	if !h.caps.Subscribe {
		return nil, capErr("subscribe")
	}
	return h.provider.On(kind, handler)
}

// Close releases the underlying provider when it holds resources, such as
// an HTTP client or an event polling loop. Providers without teardown are
// left alone.
func (h *Handle) Close() {
	if c, ok := h.provider.(interface{ Close() }); ok {
		c.Close()
	}
}

func capErr(capability string) error {
	return shadeerr.WithDetails(shadeerr.ErrCapabilityUnavailable,
		map[string]string{"capability": capability})
}
