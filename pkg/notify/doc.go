/*
Package notify delivers generation outcomes to the user.

A Dispatcher decides, per session, whether an outcome is announced right away
through a ports.Notifier (sound and/or native notification, according to the
session's Preferences) or queued until the user comes back ("while you were
away"). Preferences, presence, the away queue and the feedback flag all live in
a ports.KeyValueStore so they survive restarts when backed by Redis.
*/
package notify
