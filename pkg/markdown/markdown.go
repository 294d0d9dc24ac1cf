// Package markdown renders a question, its answers and their comments as
// the Markdown document stored by the backup.
package markdown

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/9ao9ai9ar/stack-exchange-backup/pkg/stackexchange"
)

// DateLayout formats creation dates, always in UTC
const DateLayout = "2006-01-02 at 15:04:05 UTC"

// FormatDate renders unix seconds with DateLayout
func FormatDate(unix int64) string {
	return time.Unix(unix, 0).UTC().Format(DateLayout)
}

// Render returns the document for q
func Render(q *stackexchange.Question) []byte {
	var buf bytes.Buffer
	_ = Write(&buf, q)
	return buf.Bytes()
}

// Write renders q to w. Header lines end in a backslash so Markdown keeps
// them on separate lines without a blank line between them.
func Write(w io.Writer, q *stackexchange.Question) error {
	ew := &errWriter{w: w}
	writeQuestion(ew, q)
	writeAnswers(ew, q.Answers)
	return ew.err
}

func writeQuestion(w *errWriter, q *stackexchange.Question) {
	w.printf("Question downloaded from %s \\\n", q.Link)
	date := FormatDate(q.CreationDate)
	if name := displayName(q.Owner); name != "" {
		w.printf("Question asked by %s on %s.\\\n", name, date)
	} else {
		w.printf("Question asked on %s.\\\n", date)
	}
	w.printf("Number of up votes: %d\\\n", q.UpVoteCount)
	w.printf("Number of down votes: %d\\\n", q.DownVoteCount)
	w.printf("Score: %d\n\n", q.Score)
	w.printf("# %s\n", q.Title)
	w.printf("%s\n", q.BodyMarkdown)
	writeComments(w, q.Comments)
}

func writeAnswers(w *errWriter, answers []stackexchange.Answer) {
	for i, a := range answers {
		w.printf("## Answer %d\n", i+1)
		date := FormatDate(a.CreationDate)
		if name := displayName(a.Owner); name != "" {
			w.printf("Answer given by %s on %s.\\\n", name, date)
		} else {
			w.printf("Answer given on %s.\\\n", date)
		}
		if a.IsAccepted {
			w.printf("This is the accepted answer.\\\n")
		} else {
			w.printf("This is not the accepted answer.\\\n")
		}
		w.printf("Number of up votes: %d\\\n", a.UpVoteCount)
		w.printf("Number of down votes: %d\\\n", a.DownVoteCount)
		w.printf("Score: %d\n\n", a.Score)
		w.printf("%s\n", a.BodyMarkdown)
		writeComments(w, a.Comments)
	}
}

func writeComments(w *errWriter, comments []stackexchange.Comment) {
	for i, c := range comments {
		w.printf("### Comment %d\n", i+1)
		date := FormatDate(c.CreationDate)
		if name := displayName(c.Owner); name != "" {
			w.printf("Comment made by %s on %s.\\\n", name, date)
		} else {
			w.printf("Comment made on %s.\\\n", date)
		}
		w.printf("Comment score: %d\n\n", c.Score)
		w.printf("%s\n", c.BodyMarkdown)
	}
}

func displayName(u *stackexchange.ShallowUser) string {
	if u == nil {
		return ""
	}
	return u.DisplayName
}

// errWriter keeps the first write error and drops everything after it
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...interface{}) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
