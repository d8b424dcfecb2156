// Package batch runs several search queries concurrently against a shared
// rate limiter, isolating each query's failures from its siblings.
package batch
