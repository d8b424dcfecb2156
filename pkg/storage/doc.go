// Package storage provides file management for downloaded archive pages.
//
// The storage package handles:
//   - Creating the data directory and per-title subdirectories
//   - Saving page files with atomic write operations
//   - Detecting files that are already on disk
//   - Thread-safe file operations
//
// The Manager type is the primary interface for storage operations. It keeps
// an in-memory set of saved relative paths for fast duplicate detection and
// writes through a temporary file plus rename so interrupted downloads never
// leave partial files behind.
//
// Usage:
//
//	manager, err := storage.NewManager("./data")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	relPath := "sn86069873/1900-01-05/ed-1/seq-3.txt"
//	if !manager.Exists(relPath) {
//	    err = manager.Save(relPath, fileReader)
//	    if err != nil {
//	        log.Printf("Failed to save file: %v", err)
//	    }
//	}
package storage
