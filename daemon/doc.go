// Package daemon keeps keys alive by pinging them on a fixed interval.
//
// A Scheduler reads the key mirror at the start of every cycle and pings each
// key in turn with auto-confirm forced. Keys are processed sequentially so
// transactions from the same signer never race for a nonce. A failed ping is
// logged and the cycle moves on; the key's last_ping_timestamp is only
// updated after a confirmed ping.
//
// A Supervisor runs the daemon detached from the terminal. It records the
// child's PID in .zaphenathd.pid and stops it with SIGTERM. Logs go to
// .zaphenathd.log through a rotating writer and can be shown with ShowLogs.
//
// StatusServer optionally exposes /livez, /readyz and /status for the
// running scheduler.
package daemon
