// Package storage manages the on-disk backup tree.
//
// Every question lives in its own file:
//
//	<root>/<site domain>/questions/<question id>.md
//	<root>/<site domain>/answers/<question id>.md
//
// Files are written to a temporary file and renamed into place, so an
// interrupted run never leaves a partial document behind. An existing file
// is never rewritten; rerunning a backup only fills in what is missing.
// Paths are checked against the root, so a hostile site name cannot write
// outside it.
//
//	manager, err := storage.NewManager("q_and_a")
//	if err != nil {
//	    return err
//	}
//
//	if !manager.IsBackedUp("stackoverflow.com", "questions", 11227809) {
//	    written, err := manager.Save("stackoverflow.com", "questions", 11227809, bytes.NewReader(doc))
//	    // ...
//	}
package storage
