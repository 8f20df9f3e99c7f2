package goAccount

import (
	"context"
	"log"
)

// SignIn opens a backend session for username. Signing in as a user other
// than the remembered one first flushes local state with a silent sign-out,
// even when no account is set: data created before signing in is stamped with
// the current owner hash and must not be merged into the new identity. The
// flush clears the config store and rotates the owner hash before the sign-in
// request goes out. Signing in as the current user re-authenticates and emits
// "reauthenticated" instead.
//
// A second SignIn while one is in flight supersedes it: the first caller
// receives ErrSuperseded.
func (a *Account) SignIn(ctx context.Context, username, password string) (string, error) {
	username = lowercase(username)

	if a.state.Username() == username {
		return a.sendSignIn(ctx, username, password, signInOptions{reauthenticated: true})
	}

	if err := a.SignOut(ctx, SignOutOptions{Silent: true}); err != nil {
		return "", err
	}
	return a.sendSignIn(ctx, username, password, signInOptions{})
}

// sendSignIn performs the session request under the signIn slot and applies
// the response to local state.
func (a *Account) sendSignIn(ctx context.Context, username, password string, opts signInOptions) (string, error) {
	op := a.registry.supersede(opSignIn, func(ctx context.Context) (string, error) {
		body := sessionRequest{
			Name:     a.userTypeAndID(username),
			Password: password,
		}
		var session sessionResponse
		if err := a.requestJSON(ctx, "POST", "/_session", RequestOptions{Body: body}, &session); err != nil {
			a.metricInc(MetricSignInFailure)
			return "", err
		}
		return a.handleSignInResponse(ctx, session, opts)
	})
	return op.Wait(ctx)
}

// handleSignInResponse validates the opened session and commits the identity.
//
// A session can exist for an account the worker flagged as broken (roles
// contain "error") or has not confirmed yet (no "confirmed" role); both are
// failures even though the backend answered 200.
func (a *Account) handleSignInResponse(ctx context.Context, session sessionResponse, opts signInOptions) (string, error) {
	// A superseded request may still receive its response; it must not
	// touch local state.
	if err := ctx.Err(); err != nil {
		return "", err
	}

	username := stripNamePrefix(session.Name)
	roles := roleSet(session.Roles)

	if roles[roleError] {
		doc, err := a.Fetch(ctx, username)
		if err != nil {
			a.metricInc(MetricSignInFailure)
			return "", err
		}
		a.metricInc(MetricSignInFailure)
		return "", remoteError(doc.WorkerError)
	}
	if !roles[roleConfirmed] {
		a.metricInc(MetricSignInFailure)
		return "", unconfirmedError()
	}

	// Whether this was an anonymous session must be decided before the
	// identity is overwritten below.
	anonymous := a.HasAnonymousAccount(ctx)

	a.setUsername(ctx, username)
	if len(session.Roles) > 0 {
		a.setOwner(ctx, session.Roles[0])
	}
	a.state.setAuth(AuthSignedIn)

	switch {
	case opts.silent:
	case opts.reauthenticated:
		a.metricInc(MetricReauthenticated)
		a.trigger(EventReauthenticated, username)
	case anonymous:
		a.trigger(EventSignInAnonymous, username)
	default:
		a.trigger(EventSignIn, username)
	}
	a.metricInc(MetricSignInSuccess)

	// Refresh the cached user document in the background; sign-in must not
	// wait on it and a failure here is not a sign-in failure.
	go func() {
		if _, err := a.Fetch(context.Background(), username); err != nil {
			log.Print("goAccount: user document refresh failed after sign-in")
		}
	}()

	return username, nil
}

func roleSet(roles []string) map[string]bool {
	set := make(map[string]bool, len(roles))
	for _, r := range roles {
		set[r] = true
	}
	return set
}
