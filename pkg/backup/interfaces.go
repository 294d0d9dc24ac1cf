package backup

import (
	"io"

	se "github.com/9ao9ai9ar/stack-exchange-backup/pkg/stackexchange"
)

// API defines the Stack Exchange methods a backup needs
type API interface {
	AssociatedUsers(p *se.AssociatedUsersParams, fetchAll bool) *se.EnvelopeIterator[se.NetworkUser]
	Sites(p *se.SitesParams, fetchAll bool) *se.EnvelopeIterator[se.Site]
	QuestionsOnUsers(p *se.QuestionsOnUsersParams, fetchAll bool) *se.EnvelopeIterator[se.Question]
	AnswersOnUsers(p *se.AnswersOnUsersParams, fetchAll bool) *se.EnvelopeIterator[se.Answer]
	QuestionsByIDs(p *se.QuestionsByIDsParams, fetchAll bool) *se.EnvelopeIterator[se.Question]
}

// Storage is the backup tree
type Storage interface {
	IsBackedUp(site, kind string, questionID int64) bool
	Save(site, kind string, questionID int64, r io.Reader) (bool, error)
}

// Reporter is told about the progress of a Run
type Reporter interface {
	SitesFound(accountID int64, users []NetworkUserSlim)
	PassStarted(kind string, index, total int, site string)
	PassFinished(kind string, index, total int, site string, written, skipped int)
}
