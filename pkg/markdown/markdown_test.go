package markdown

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/9ao9ai9ar/stack-exchange-backup/pkg/stackexchange"
)

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "1970-01-01 at 00:00:00 UTC", FormatDate(0))
	assert.Equal(t, "2023-11-14 at 22:13:20 UTC", FormatDate(1700000000))
}

func TestRenderFullQuestion(t *testing.T) {
	q := &stackexchange.Question{
		QuestionID:    11227809,
		Title:         "Why is processing a sorted array faster?",
		Link:          "https://stackoverflow.com/questions/11227809",
		Owner:         &stackexchange.ShallowUser{DisplayName: "GManNickG"},
		CreationDate:  1340805096,
		UpVoteCount:   27000,
		DownVoteCount: 12,
		Score:         26988,
		BodyMarkdown:  "Here is a piece of C++ code.",
		Comments: []stackexchange.Comment{
			{Owner: &stackexchange.ShallowUser{DisplayName: "Mysticial"}, CreationDate: 1340805200, Score: 5, BodyMarkdown: "Branch prediction."},
			{CreationDate: 1340805300, Score: 0, BodyMarkdown: "Anonymous remark."},
		},
		Answers: []stackexchange.Answer{
			{
				Owner:         &stackexchange.ShallowUser{DisplayName: "Mysticial"},
				CreationDate:  1340805400,
				IsAccepted:    true,
				UpVoteCount:   34000,
				DownVoteCount: 3,
				Score:         33997,
				BodyMarkdown:  "You are a victim of branch prediction fail.",
				Comments: []stackexchange.Comment{
					{Owner: &stackexchange.ShallowUser{DisplayName: "GManNickG"}, CreationDate: 1340805500, Score: 2, BodyMarkdown: "Thanks!"},
				},
			},
			{
				CreationDate: 1340805600,
				Score:        -1,
				BodyMarkdown: "Community wiki answer.",
			},
		},
	}

	expected := "Question downloaded from https://stackoverflow.com/questions/11227809 \\\n" +
		"Question asked by GManNickG on 2012-06-27 at 13:51:36 UTC.\\\n" +
		"Number of up votes: 27000\\\n" +
		"Number of down votes: 12\\\n" +
		"Score: 26988\n\n" +
		"# Why is processing a sorted array faster?\n" +
		"Here is a piece of C++ code.\n" +
		"### Comment 1\n" +
		"Comment made by Mysticial on 2012-06-27 at 13:53:20 UTC.\\\n" +
		"Comment score: 5\n\n" +
		"Branch prediction.\n" +
		"### Comment 2\n" +
		"Comment made on 2012-06-27 at 13:55:00 UTC.\\\n" +
		"Comment score: 0\n\n" +
		"Anonymous remark.\n" +
		"## Answer 1\n" +
		"Answer given by Mysticial on 2012-06-27 at 13:56:40 UTC.\\\n" +
		"This is the accepted answer.\\\n" +
		"Number of up votes: 34000\\\n" +
		"Number of down votes: 3\\\n" +
		"Score: 33997\n\n" +
		"You are a victim of branch prediction fail.\n" +
		"### Comment 1\n" +
		"Comment made by GManNickG on 2012-06-27 at 13:58:20 UTC.\\\n" +
		"Comment score: 2\n\n" +
		"Thanks!\n" +
		"## Answer 2\n" +
		"Answer given on 2012-06-27 at 14:00:00 UTC.\\\n" +
		"This is not the accepted answer.\\\n" +
		"Number of up votes: 0\\\n" +
		"Number of down votes: 0\\\n" +
		"Score: -1\n\n" +
		"Community wiki answer.\n"

	assert.Equal(t, expected, string(Render(q)))
}

func TestRenderOwnerWithoutName(t *testing.T) {
	q := &stackexchange.Question{
		Link:  "https://example.com/q/1",
		Owner: &stackexchange.ShallowUser{},
		Title: "T",
	}
	out := string(Render(q))
	assert.Contains(t, out, "Question asked on 1970-01-01 at 00:00:00 UTC.\\\n")
	assert.NotContains(t, out, "## Answer")
	assert.NotContains(t, out, "### Comment")
}

type failingWriter struct{ writes int }

func (f *failingWriter) Write(p []byte) (int, error) {
	f.writes++
	return 0, errors.New("disk full")
}

func TestWriteStopsAtFirstError(t *testing.T) {
	w := &failingWriter{}
	err := Write(w, &stackexchange.Question{Title: "T"})
	assert.EqualError(t, err, "disk full")
	assert.Equal(t, 1, w.writes)
}
