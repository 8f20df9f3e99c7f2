package goAccount

import (
	"context"
	"errors"
)

// SignUp creates a new user document and signs the new account in. Usernames
// are case-insensitive and stored lowercase.
//
// When the current account is anonymous, SignUp upgrades it in place instead
// of creating a second account, preserving the owner hash and all user data.
// A confirmed named account must sign out first.
//
// The returned username is only available once the provisioning worker has
// confirmed the account; SignUp retries the initial sign-in at the configured
// interval until then.
func (a *Account) SignUp(ctx context.Context, username, password string) (string, error) {
	if username == "" {
		return "", ErrUsernameRequired
	}
	if a.HasAnonymousAccount(ctx) {
		return a.upgradeAnonymousAccount(ctx, username, password)
	}
	if a.HasAccount() {
		return "", ErrSignOutRequired
	}

	username = lowercase(username)

	doc := UserDocument{
		ID:        a.docKey(username),
		Name:      a.userTypeAndID(username),
		Type:      "user",
		Roles:     []string{},
		Password:  password,
		OwnerHash: a.state.OwnerHash(),
		Database:  a.DB(),
		UpdatedAt: a.now(),
		CreatedAt: a.now(),
	}
	if username != a.state.OwnerHash() {
		t := a.now()
		doc.SignedUpAt = &t
	}

	var w writeResponse
	if err := a.requestJSON(ctx, "PUT", a.docPath(username), RequestOptions{Body: doc}, &w); err != nil {
		a.metricInc(MetricSignUpFailure)
		return "", err
	}

	doc.Rev = w.Rev
	doc.Password = ""
	a.state.setDoc(doc)
	a.setUsername(ctx, username)

	a.metricInc(MetricSignUpSuccess)
	a.trigger(EventSignUp, username)

	return a.delayedSignIn(ctx, username, password, signInOptions{})
}

// AnonymousSignUp creates an account without user-provided credentials. The
// owner hash doubles as username and the password is generated and persisted
// locally, so the session can be re-established transparently.
func (a *Account) AnonymousSignUp(ctx context.Context) (string, error) {
	password := a.ids.UUID(10)
	username := a.state.OwnerHash()

	name, err := a.SignUp(ctx, username, password)
	if err != nil {
		return "", err
	}

	a.setAnonymousPassword(ctx, password)
	a.trigger(EventSignUpAnonymous, name)
	return name, nil
}

// delayedSignIn keeps attempting a sign-in until the provisioning worker has
// confirmed the account. Only the unconfirmed state retries; every other
// failure is terminal.
func (a *Account) delayedSignIn(ctx context.Context, username, password string, opts signInOptions) (string, error) {
	var name string
	err := pollUntil(ctx, a.config.Confirmation.RetryDelay, a.config.Confirmation.MaxAttempts, func(ctx context.Context) error {
		var err error
		name, err = a.sendSignIn(ctx, username, password, opts)
		if errors.Is(err, ErrUnconfirmed) {
			a.metricInc(MetricConfirmationRetry)
			return errPollRetry
		}
		return err
	})
	if err != nil {
		return "", err
	}
	return name, nil
}
