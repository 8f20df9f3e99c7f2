package goAccount

import "context"

// Authenticate resolves the current authentication state, asking the backend
// only when the state is still unknown. It returns the authenticated username
// or ErrUnauthenticated.
//
// Concurrent calls share one status request. A pending sign-out wins over the
// check: Authenticate waits for it and reports unauthenticated regardless of
// its outcome. A pending sign-in is adopted instead of racing it.
func (a *Account) Authenticate(ctx context.Context) (string, error) {
	switch a.state.Auth() {
	case AuthSignedOut:
		return "", unauthenticatedError()
	case AuthSignedIn:
		return a.state.Username(), nil
	}

	if op := a.registry.pending(opSignOut); op != nil {
		_, _ = op.Wait(ctx)
		if err := ctx.Err(); err != nil {
			return "", err
		}
		return "", unauthenticatedError()
	}
	if op := a.registry.pending(opSignIn); op != nil {
		return op.Wait(ctx)
	}

	if !a.HasAccount() {
		// No local account: drop any server-side session cookie so the
		// local and remote views agree, then settle as signed out.
		op := a.registry.singleFlight(opSignOut, func(ctx context.Context) (string, error) {
			return "", a.sendSignOutRequest(ctx)
		})
		_, _ = op.Wait(ctx)
		if err := ctx.Err(); err != nil {
			return "", err
		}
		a.state.setAuth(AuthSignedOut)
		return "", unauthenticatedError()
	}

	op := a.registry.singleFlight(opAuthenticate, func(ctx context.Context) (string, error) {
		var status sessionStatusResponse
		if err := a.requestJSON(ctx, "GET", "/_session", RequestOptions{}, &status); err != nil {
			return "", err
		}
		return a.handleSessionStatus(ctx, status)
	})
	return op.Wait(ctx)
}

// handleSessionStatus reconciles the local state with the backend's session
// report. An empty userCtx name means no session: an anonymous account can
// recover by signing in with its stored password, a named one cannot.
func (a *Account) handleSessionStatus(ctx context.Context, status sessionStatusResponse) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if status.UserCtx.Name != "" {
		username := stripNamePrefix(status.UserCtx.Name)
		a.setUsername(ctx, username)
		if len(status.UserCtx.Roles) > 0 {
			a.setOwner(ctx, status.UserCtx.Roles[0])
		}
		a.state.setAuth(AuthSignedIn)
		return username, nil
	}

	// Recovering the session for the remembered username is a
	// re-authentication, not a fresh sign-in.
	if password := a.anonymousPassword(ctx); password != "" {
		return a.sendSignIn(ctx, a.state.Username(), password, signInOptions{reauthenticated: true})
	}

	a.state.setAuth(AuthSignedOut)
	a.metricInc(MetricUnauthenticated)
	a.trigger(EventUnauthenticated)
	return "", unauthenticatedError()
}

// IsSignedIn is a convenience wrapper over Authenticate.
func (a *Account) IsSignedIn(ctx context.Context) bool {
	_, err := a.Authenticate(ctx)
	return err == nil
}
