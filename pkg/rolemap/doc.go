// Package rolemap synchronizes gated-content roles from external membership
// data on every login.
//
// The engine subscribes to the login event bus. For each login it reads the
// configured membership field from the event's member object, resolves the
// union of all mapping rules that match it, removes every managed role the
// account currently holds, and adds the resolved set. Managed roles (those
// whose identifier contains "virtual_y") are exclusively owned by this
// engine; everything else on the account is left alone. The synchronization
// is idempotent: replaying a login event yields the same final role set.
//
// Mapping rules are configured as "pattern:role;pattern:role;...". Patterns
// are matched with exact string equality. Malformed entries are skipped with
// a warning and the remaining rules still apply.
package rolemap
