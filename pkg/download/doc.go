// Package download fetches archive page files with bounded concurrency.
//
// An Engine takes a list of archive page ids and a file kind and downloads
// each file through a fixed pool of workers sharing one rate limiter. The
// outcome of every target is recorded in a ledger; a target that fails after
// retries never interrupts its siblings. Files already on disk are skipped,
// so an interrupted run can simply be started again, and CheckDownloads
// reports how much of the set is on disk without touching the network.
package download
