// Package flow coordinates the OAuth2 authorization-code exchange with the
// identity provider: building the hosted-UI login redirect, completing the
// callback into session cookies, refreshing sessions, and building the
// logout redirect. Tokens only ever live in cookies; the service keeps no
// session state of its own.
package flow
