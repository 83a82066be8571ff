// Package snapshot loads channel snapshots from files for reconciliation.
//
// A snapshot document has a single top-level "channels" list:
//
//	channels:
//	  - funding_txid: "123"
//	    short_channel_id: 10x11x12
//	    state: Opened
//	    spendable_msat: 100
//	    receivable_msat: 1000
//
// YAML (.yaml, .yml) and JSON (.json) files are decoded directly with
// unknown fields rejected. CUE (.cue) files are unified with the embedded
// #Snapshot schema, validated as concrete, then decoded through the same
// path. closed_at is never read from a snapshot; the store owns it.
package snapshot
