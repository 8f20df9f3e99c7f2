package goAccount

import (
	"context"
	"errors"
	"net/url"
)

// ResetPassword files a password-reset ticket for username and waits for the
// backend worker to process it. The ticket id is persisted, so an interrupted
// wait resumes on the next call or on Start.
//
// The ticket is itself a /_users document: a worker picks it up, mails a new
// password, and deletes the ticket. The ticket's own password is its id, which
// is what the status check authenticates with.
func (a *Account) ResetPassword(ctx context.Context, username string) error {
	if a.configGet(ctx, keyResetPasswordID) != "" {
		return a.CheckPasswordResetStatus(ctx)
	}

	resetID := username + "/" + a.ids.UUID(0)
	_ = a.store.Set(ctx, keyResetPasswordID, resetID)

	key := a.config.DocPrefix + ":$passwordReset/" + resetID
	now := a.now()
	doc := UserDocument{
		ID:        key,
		Name:      "$passwordReset/" + resetID,
		Type:      "user",
		Roles:     []string{},
		Password:  resetID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	op := a.registry.supersede(opResetPassword, func(ctx context.Context) (string, error) {
		_, err := a.request(ctx, "PUT", "/_users/"+url.PathEscape(key), RequestOptions{Body: doc})
		return "", err
	})
	if _, err := op.Wait(ctx); err != nil {
		return err
	}

	a.metricInc(MetricResetRequested)
	return a.CheckPasswordResetStatus(ctx)
}

// CheckPasswordResetStatus polls the pending reset ticket until the worker
// has consumed it. Without a persisted ticket it returns ErrResetMissing.
func (a *Account) CheckPasswordResetStatus(ctx context.Context) error {
	err := a.checkPasswordResetStatusOnce(ctx)
	if errors.Is(err, ErrResetPending) {
		err = pollUntil(ctx, a.config.PasswordReset.PollDelay, a.config.PasswordReset.MaxAttempts, func(ctx context.Context) error {
			err := a.checkPasswordResetStatusOnce(ctx)
			if errors.Is(err, ErrResetPending) {
				a.metricInc(MetricResetPollRetry)
				return errPollRetry
			}
			return err
		})
	}
	return a.finishReset(err)
}

// checkPasswordResetStatusOnce reads the ticket document with the ticket's
// own credentials. The worker deletes the ticket and its session when done,
// so a 401 is the success signal, a readable ticket means still pending, and
// a $error attribute on it reports worker failure.
func (a *Account) checkPasswordResetStatusOnce(ctx context.Context) error {
	resetID := a.configGet(ctx, keyResetPasswordID)
	if resetID == "" {
		return ErrResetMissing
	}

	resetUsername := "$passwordReset/" + resetID
	key := a.config.DocPrefix + ":" + resetUsername

	op := a.registry.supersede(opPasswordResetStatus, func(ctx context.Context) (string, error) {
		var doc UserDocument
		err := a.requestJSON(ctx, "GET", "/_users/"+url.PathEscape(key), RequestOptions{
			Username: resetUsername,
			Password: resetID,
		}, &doc)
		if err != nil {
			var se *ServerError
			if errors.As(err, &se) && se.Status == 401 {
				// Ticket consumed: the reset went through.
				_ = a.store.Remove(ctx, keyResetPasswordID)
				a.metricInc(MetricResetComplete)
				a.trigger(EventPasswordReset)
				return "", nil
			}
			return "", err
		}

		if doc.WorkerError != nil {
			return "", remoteError(doc.WorkerError)
		}
		return "", &ServerError{Name: "pending", Reason: "password reset not yet processed"}
	})
	_, err := op.Wait(ctx)
	return err
}

// finishReset maps terminal poll outcomes to events. A missing ticket is not
// a reset failure, so it raises no event.
func (a *Account) finishReset(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrResetMissing) {
		return err
	}
	a.trigger(EventPasswordResetError, err.Error())
	return err
}
