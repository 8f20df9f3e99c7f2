package goAccount

import "context"

// changeRequest stages an update of the /_users document. newPassword is a
// pointer so "change username only" and "set empty password" stay
// distinguishable.
type changeRequest struct {
	currentPassword string
	newUsername     string
	newPassword     *string
}

// ChangePassword replaces the account password. Replication is disconnected
// first so no writes race the credential change, and the session is
// re-established with the new password afterwards.
func (a *Account) ChangePassword(ctx context.Context, currentPassword, newPassword string) (string, error) {
	if !a.HasAccount() {
		return "", unauthenticatedError()
	}

	a.sync.Disconnect()

	if _, err := a.Fetch(ctx, ""); err != nil {
		return "", err
	}
	return a.sendChange(ctx, changeRequest{
		currentPassword: currentPassword,
		newPassword:     &newPassword,
	})
}

// ChangeUsername renames the account. The rename itself is asynchronous: the
// document is marked with the new name and a backend worker moves it, so the
// follow-up sign-in retries until the renamed account is ready.
func (a *Account) ChangeUsername(ctx context.Context, currentPassword, newUsername string) (string, error) {
	return a.changeUsernameAndPassword(ctx, currentPassword, lowercase(newUsername), nil)
}

// changeUsernameAndPassword re-authenticates with the current credentials
// before staging the change, proving the caller knows the password and
// refreshing the session cookie the /_users write runs under.
func (a *Account) changeUsernameAndPassword(ctx context.Context, currentPassword, newUsername string, newPassword *string) (string, error) {
	if _, err := a.sendSignIn(ctx, a.state.Username(), currentPassword, signInOptions{silent: true}); err != nil {
		return "", err
	}
	if _, err := a.Fetch(ctx, ""); err != nil {
		return "", err
	}
	return a.sendChange(ctx, changeRequest{
		currentPassword: currentPassword,
		newUsername:     newUsername,
		newPassword:     newPassword,
	})
}

// sendChange writes the staged document and signs back in with the new
// credentials. Writing a plaintext password requires stripping the server's
// salt and password_sha fields, otherwise the worker keeps the old hash.
func (a *Account) sendChange(ctx context.Context, req changeRequest) (string, error) {
	doc := a.state.Doc()

	if req.newUsername != "" {
		doc.NewUsername = req.newUsername
	}
	doc.UpdatedAt = a.now()
	if doc.SignedUpAt == nil {
		t := a.now()
		doc.SignedUpAt = &t
	}
	if req.newPassword != nil {
		doc.Salt = ""
		doc.PasswordSHA = ""
		doc.Password = *req.newPassword
	}

	op := a.registry.supersede(opUpdateUsersDoc, func(ctx context.Context) (string, error) {
		var w writeResponse
		if err := a.requestJSON(ctx, "PUT", a.docPath(a.state.Username()), RequestOptions{Body: doc}, &w); err != nil {
			return "", err
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
		a.state.setDoc(doc)
		a.state.setDocRev(w.Rev)
		return "", nil
	})
	if _, err := op.Wait(ctx); err != nil {
		return "", err
	}

	a.sync.Disconnect()

	password := req.currentPassword
	if req.newPassword != nil {
		password = *req.newPassword
	}

	if req.newUsername != "" {
		return a.delayedSignIn(ctx, req.newUsername, password, signInOptions{silent: true})
	}
	return a.SignIn(ctx, a.state.Username(), password)
}

// upgradeAnonymousAccount turns the anonymous account into a named one by
// renaming it and setting the user's password in a single staged change. The
// owner hash, the private database, and all data in it are preserved.
func (a *Account) upgradeAnonymousAccount(ctx context.Context, username, password string) (string, error) {
	currentPassword := a.anonymousPassword(ctx)

	name, err := a.changeUsernameAndPassword(ctx, currentPassword, lowercase(username), &password)
	if err != nil {
		return "", err
	}

	a.trigger(EventSignUp, name)
	a.removeAnonymousPassword(ctx)
	return name, nil
}
