/*
Package session implements wizard session management and persistence orchestration.

It serializes access to a session across goroutines (and, with a
DistributedLocker, across replicas) so that every transition is a
load-modify-save cycle that cannot interleave with another one.
*/
package session
