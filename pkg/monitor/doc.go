// Package monitor implements the client-resident session activity monitor.
//
// The monitor owns one idle timer and runs a single cooperative loop with at
// most one outstanding asynchronous operation at a time: either the media
// playback probe or the termination round trip. When the idle threshold
// expires it asks the page's media probe for the playback state; while media
// plays termination is suspended and the probe is polled, and once playback
// stops (or there is no player) the monitor POSTs the server's termination
// endpoint. A 2xx response, or a 401/404 meaning the session is already
// dead, triggers the configured redirect; any other failure is swallowed and
// the idle cycle restarts, so a transient network error never breaks the
// page.
//
// A user interaction resets the idle timer but cannot cancel an in-flight
// termination call; a termination response arriving after a late
// interaction still redirects. That tradeoff is deliberate: the monitor
// stays single-threaded and simple at the cost of a rare surprising logout.
package monitor
