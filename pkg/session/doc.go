// Package session holds the server side of the inactivity-termination
// protocol: the session state store and the HTTP endpoints the client-side
// activity monitor talks to.
//
// A session's LastActivity timestamp only moves forward while the session is
// live; once invalidated a session cannot be revived. The termination
// endpoint answers 204 when it removed a session, 401/404 when the session
// was already gone (the client treats those as success), and 5xx only on a
// store failure.
package session
