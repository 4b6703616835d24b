// Package inbox surfaces distress records addressed to the signed-in user.
//
// The watcher polls unread records and shows each one once as a local
// notification; records stay unread until the user opens them.
package inbox
