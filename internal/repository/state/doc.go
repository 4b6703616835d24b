// Package state persists the monitoring flag.
//
// FileRepository keeps it in a small YAML file next to the daemon;
// RedisRepository keeps it in a redis hash so several hosts can share one
// flag. Both implement Repository, which the monitoring service depends on.
package state
