// Package events carries row-level change notifications to downstream
// consumers.
//
// Services publish a ChangeEvent after each committed mutation. Delivery is
// at-most-once over Redis pub/sub; a consumer that disconnects misses the
// events sent in between. Consumers therefore treat events as hints to
// re-fetch from the store, never as an authoritative delta stream.
//
// Publishing is best effort: a publish failure is logged by the caller and
// never fails the mutation that triggered it.
package events
