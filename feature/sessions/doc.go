// Package sessions manages scanning sessions: bounded units of scanning
// work over one category/bucket scope.
//
// A session moves draft -> active -> closed and never backward; closed is a
// terminal state with no way out. The scanned-item set only grows while the
// session is active, and the session's total item count is computed live
// from the inventory records on every read, since the scope's membership
// keeps changing underneath long-lived sessions.
package sessions
