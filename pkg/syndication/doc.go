// Package syndication defines the contract for copying content items between
// independently operated repositories.
//
// # Overview
//
// An origin repository pushes a local item to a target repository over an
// ExternalConnection and may later pull remote items back. Each connection
// tracks which remote items correspond to which local items (linkage) and
// whether the remote side speaks the same syndication protocol, which it
// signals with the X-Distributor response header or a discovery Link relation.
//
// # Operations
//
//   - Push exports a local item and creates or updates its remote copy.
//   - Pull imports a batch of remote items, isolating per-item failures.
//   - RemoteGet reads a single remote item into a Content value.
//   - CheckConnections inspects the remote without mutating any state.
//
// # Collaborators
//
// The core never talks to storage or the network directly. It depends on an
// AuthHandler to sign requests, a RemoteAPIClient to execute them, a
// ContentPreparer to convert local items to and from Content, and stores for
// linkage and subscriptions. Implementations live in sibling packages:
//
//   - adapters/rest: REST protocol connection
//   - adapters/local: same-process connection between two repositories
//   - adapters/mock: in-memory stores for tests
//
// # Error Handling
//
// Operations return *Error values classified by Kind. Use KindOf or errors.Is
// with the sentinel values (ErrNotFound, ErrUnauthorized, ...) to branch on the
// failure class. Pull never fails as a whole; each PullOutcome carries its own
// error. CheckConnections never returns an error at all.
package syndication
