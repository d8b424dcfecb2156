// Package query retrieves full search result sets from the archive one page
// at a time.
//
// The Engine fetches pages sequentially through a shared rate limiter,
// retrying transient failures with backoff; every HTTP attempt consumes its
// own rate-limit permit. Progress accumulates in a State: records keyed and
// deduplicated by archive page id, the next unfetched page index, and a
// lifecycle status. A failed run keeps its partial results and can be handed
// back to Run to resume where it stopped.
//
// DumpIDs and DumpJSON persist the collected records of one or more states,
// merging duplicates across sibling queries.
package query
