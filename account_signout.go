package goAccount

import "context"

// SignOut closes the backend session and wipes the local account. The wipe
// happens even when the session request fails: a stale cookie is the
// backend's problem, local state must not stay bound to a dead identity.
//
// With no account present only the local cleanup runs, and Silent suppresses
// the "signout" event for that case.
func (a *Account) SignOut(ctx context.Context, opts SignOutOptions) error {
	if !a.HasAccount() {
		a.cleanup(ctx, cleanupOptions{auth: AuthSignedOut})
		if !opts.Silent {
			a.trigger(EventSignOut)
		}
		return nil
	}

	a.sync.Disconnect()

	op := a.registry.singleFlight(opSignOut, func(ctx context.Context) (string, error) {
		return "", a.sendSignOutRequest(ctx)
	})
	_, _ = op.Wait(ctx)
	if err := ctx.Err(); err != nil {
		return err
	}

	a.cleanup(ctx, cleanupOptions{auth: AuthSignedOut})
	a.metricInc(MetricSignOut)
	a.trigger(EventSignOut)
	return nil
}

func (a *Account) sendSignOutRequest(ctx context.Context) error {
	_, err := a.request(ctx, "DELETE", "/_session", RequestOptions{})
	return err
}
