package goAccount

import "context"

// Fetch loads the /_users document for username (default: the current
// account) and caches it. Concurrent fetches share one request.
func (a *Account) Fetch(ctx context.Context, username string) (UserDocument, error) {
	if username == "" {
		username = a.state.Username()
	}
	if username == "" {
		return UserDocument{}, unauthenticatedError()
	}

	op := a.registry.singleFlight(opFetch, func(ctx context.Context) (string, error) {
		var doc UserDocument
		if err := a.requestJSON(ctx, "GET", a.docPath(username), RequestOptions{}, &doc); err != nil {
			a.metricInc(MetricFetchFailure)
			return "", err
		}
		a.state.setDoc(doc)
		a.metricInc(MetricFetchSuccess)
		return username, nil
	})
	if _, err := op.Wait(ctx); err != nil {
		return UserDocument{}, err
	}
	return a.state.Doc(), nil
}
