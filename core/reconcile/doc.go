// Package reconcile detects and repairs holes in a locally mirrored edit history.
//
// The local store holds a subset of a remote, append-only history. Every record
// carries a globally monotonic sequence id and a per-item revision number.
// Records can be lost at ingestion, so the mirror may miss whole id ranges and,
// independently, single revisions of an item.
//
// # Architecture
//
// The package consists of three main components:
//
// 1. Analyzer: a single ascending scan of the store that yields the missing
//    sequence ranges and, per item, the revisions that never became contiguous.
//
// 2. Pack: turns missing ranges into multi-id requests that respect an item
//    cap and an expression cap.
//
// 3. Driver: issues the requests through a Fetcher, gated by a Limiter, and
//    writes results in one transaction per limiter window.
//
// Storage and transport are supplied through the Store and Fetcher interfaces.
// See feature/postversions for the implementation backed by gorm and the
// remote client.
//
// # Usage Example
//
//	d := &reconcile.Driver{
//	    Store:   store,
//	    Fetcher: fetcher,
//	    Limiter: ratelimit.NewWindow(10, time.Second),
//	    Limits:  reconcile.PackLimits{ItemCap: 1000, ExpressionCap: 50},
//	}
//	result, err := d.Run(ctx, reconcile.ModeFillByRange)
package reconcile
