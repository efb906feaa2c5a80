/*
Package storage provides the abstract key/filter persistence layer for
appliances and persistent volumes (Store), plus a bbolt-backed
implementation (BoltStore) and an in-memory implementation (MemStore) used
in tests and single-process demos.

Both entity types are stored whole: an Appliance document embeds its full
Container/Task set, so a scheduler tick or reconciliation pass reads and
writes one appliance at a time rather than joining across buckets.
*/
package storage
