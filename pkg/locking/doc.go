/*
Package locking serializes work on a single client.

A Keyed lock holds one mutex per key (typically "org/client") with reference
counting, so unused entries are garbage collected. When a DistributedLocker is
configured the in-process mutex is taken first and the distributed lock second,
letting several replicas share one store safely.
*/
package locking
