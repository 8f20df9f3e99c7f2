package goAccount

import (
	"net/url"
	"strings"
)

// userTypeAndID builds the typed document name stored in /_users. Anonymous
// accounts use the username as owner hash, which is what distinguishes them
// on the wire.
func (a *Account) userTypeAndID(username string) string {
	if username == a.state.OwnerHash() {
		return "user_anonymous/" + username
	}
	return "user/" + username
}

// docKey is the full /_users document id for username, including the CouchDB
// namespace prefix.
func (a *Account) docKey(username string) string {
	return a.config.DocPrefix + ":" + a.userTypeAndID(username)
}

// docPath is the request path for username's /_users document. The id contains
// a slash and must travel as a single escaped path segment.
func (a *Account) docPath(username string) string {
	return "/_users/" + url.PathEscape(a.docKey(username))
}

// stripNamePrefix recovers the plain username from a typed document name as
// reported by the session endpoints.
func stripNamePrefix(name string) string {
	name = strings.TrimPrefix(name, "user_anonymous/")
	return strings.TrimPrefix(name, "user/")
}
