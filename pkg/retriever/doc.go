// Package retriever assembles the toolkit from one configuration: a shared
// HTTP client and rate limiter behind the query batch runner, checkpointing,
// and the download engine. The CLI is a thin layer over this package.
package retriever
