/*
Package session serializes conversation events per user.

Each turn of a conversation is a read-modify-write of the user's state
record; two events for the same user processed concurrently (a duplicate
gateway delivery, a fast double-reply) would race and corrupt the
conversation. The Manager routes all work for a user through a per-user
mutex, garbage collected by reference counting, with an optional
distributed lock for multi-replica deployments.
*/
package session
