package goAccount

import (
	"context"
	"errors"
)

// Destroy deletes the account's /_users document and resets the local state
// to a fresh anonymous-capable identity.
//
// The delete is best effort: the local wipe runs whether or not the backend
// write succeeds, because the user asked for their account to be gone. Only
// a failure to fetch the current revision aborts, except when the document is
// already missing, which counts as done.
func (a *Account) Destroy(ctx context.Context) error {
	if !a.HasAccount() {
		a.cleanupAndSignOut(ctx)
		return nil
	}

	doc, err := a.Fetch(ctx, "")
	switch {
	case err == nil:
		a.sync.Disconnect()

		doc.Deleted = true
		a.state.setDoc(doc)

		op := a.registry.supersede(opUpdateUsersDoc, func(ctx context.Context) (string, error) {
			_, err := a.request(ctx, "PUT", a.docPath(a.state.Username()), RequestOptions{Body: doc})
			return "", err
		})
		_, _ = op.Wait(ctx)
		if err := ctx.Err(); err != nil {
			return err
		}
	case errors.Is(err, ErrNotFound):
		// Nothing to delete.
	default:
		return err
	}

	a.metricInc(MetricDestroy)
	a.cleanupAndSignOut(ctx)
	return nil
}
