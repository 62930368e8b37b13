// Package authorizer turns a resolved external identity into a logged-in
// local account.
//
// AuthorizeUser finds or creates the account for the identity's email,
// establishes the current session as that account, and then publishes a
// LoginEvent synchronously to every subscriber on the EventBus (role mapping,
// activity logging). Publication is fail-closed: if any subscriber errors,
// the whole authorization fails and the session is torn down rather than
// completing a login with unsynchronized roles.
package authorizer
