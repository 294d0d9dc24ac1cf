// Package writer renders questions to Markdown and stores them using a
// bounded goroutine pool, so file output overlaps the paced API requests.
package writer
