package backup

import (
	"context"
	"fmt"

	"github.com/9ao9ai9ar/stack-exchange-backup/internal/writer"
	"github.com/9ao9ai9ar/stack-exchange-backup/pkg/logger"
	se "github.com/9ao9ai9ar/stack-exchange-backup/pkg/stackexchange"
)

const (
	// KindQuestions holds the questions the user asked
	KindQuestions = "questions"
	// KindAnswers holds the questions the user answered, with every answer
	KindAnswers = "answers"
)

// NetworkUserSlim is a user on one site of the network
type NetworkUserSlim struct {
	SiteDomain string
	UserID     int64
}

// Backup copies a user's questions and answers into a Storage
type Backup struct {
	api    API
	pool   *writer.Pool
	store  Storage
	logger logger.Logger
}

// New creates a Backup. Files are written through pool, which must use
// store as well.
func New(api API, store Storage, pool *writer.Pool, log logger.Logger) *Backup {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Backup{
		api:    api,
		pool:   pool,
		store:  store,
		logger: log,
	}
}

// NetworkUsers resolves the per-site users of an account, including the
// meta site users the server leaves out.
func (b *Backup) NetworkUsers(ctx context.Context, accountID int64) ([]NetworkUserSlim, error) {
	params, err := se.NewAssociatedUsersParams(se.AssociatedUsersParams{
		Base:  se.Base{Filter: se.FilterNetworkUsers},
		IDs:   []int64{accountID},
		Types: []string{se.SiteTypeMain, se.SiteTypeMeta},
	})
	if err != nil {
		return nil, err
	}

	associated, err := se.Collect(ctx, se.Items(b.api.AssociatedUsers(params, true)))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch associated users: %w", err)
	}

	users := make([]NetworkUserSlim, 0, len(associated))
	for _, u := range associated {
		host := se.Host(u.SiteURL)
		if u.UserID == nil || *u.UserID == 0 || host == "" {
			continue
		}
		users = append(users, NetworkUserSlim{SiteDomain: host, UserID: *u.UserID})
	}

	return b.addMetaSiteUsers(ctx, users)
}

// addMetaSiteUsers appends, for every main site the account has a user on,
// the site's meta companion with the same user id. A meta site already
// present is left alone.
func (b *Backup) addMetaSiteUsers(ctx context.Context, users []NetworkUserSlim) ([]NetworkUserSlim, error) {
	byHost := make(map[string]int64, len(users))
	for _, u := range users {
		byHost[u.SiteDomain] = u.UserID
	}

	params, err := se.NewSitesParams(se.SitesParams{})
	if err != nil {
		return nil, err
	}

	sites := se.Items(b.api.Sites(params, true))
	for sites.Next(ctx) {
		site := sites.Item()
		mainHost := se.Host(site.SiteURL)
		userID, ok := byHost[mainHost]
		if site.SiteType != se.SiteTypeMain || mainHost == "" || !ok {
			continue
		}
		for _, related := range site.RelatedSites {
			metaHost := se.Host(related.SiteURL)
			if related.Relation != se.RelationMeta || metaHost == "" {
				continue
			}
			if _, exists := byHost[metaHost]; exists {
				continue
			}
			users = append(users, NetworkUserSlim{SiteDomain: metaHost, UserID: userID})
			byHost[metaHost] = userID
			b.logger.DebugWithFields("added meta site user", map[string]interface{}{
				"site":    metaHost,
				"user_id": userID,
			})
		}
	}
	if err := sites.Err(); err != nil {
		return nil, fmt.Errorf("failed to fetch sites: %w", err)
	}
	return users, nil
}

// BackupQuestions writes every question user asked to
// <site>/questions/<id>.md
func (b *Backup) BackupQuestions(ctx context.Context, user NetworkUserSlim) (writer.Summary, error) {
	params, err := se.NewQuestionsOnUsersParams(se.QuestionsOnUsersParams{
		Base: se.Base{Filter: se.FilterQuestionBackup},
		IDs:  []int64{user.UserID},
		Site: user.SiteDomain,
	})
	if err != nil {
		return writer.Summary{}, err
	}

	group := b.pool.Group()
	questions := se.Items(b.api.QuestionsOnUsers(params, true))
	for questions.Next(ctx) {
		job := writer.Job{Site: user.SiteDomain, Kind: KindQuestions, Question: questions.Item()}
		if err := group.Submit(job); err != nil {
			break
		}
	}
	summary, writeErr := group.Wait()
	if err := questions.Err(); err != nil {
		return summary, fmt.Errorf("failed to fetch questions from %s: %w", user.SiteDomain, err)
	}
	return summary, writeErr
}

// BackupAnswers writes every question user answered, with all of its
// answers, to <site>/answers/<id>.md. Questions the account asked itself
// are left to BackupQuestions. Questions already on disk are not fetched.
func (b *Backup) BackupAnswers(ctx context.Context, accountID int64, user NetworkUserSlim) (writer.Summary, error) {
	var summary writer.Summary

	answersParams, err := se.NewAnswersOnUsersParams(se.AnswersOnUsersParams{
		Base: se.Base{Filter: se.FilterAnswerQuestionIDs},
		IDs:  []int64{user.UserID},
		Site: user.SiteDomain,
	})
	if err != nil {
		return summary, err
	}

	answers, err := se.Collect(ctx, se.Items(b.api.AnswersOnUsers(answersParams, true)))
	if err != nil {
		return summary, fmt.Errorf("failed to fetch answers from %s: %w", user.SiteDomain, err)
	}

	seen := make(map[int64]bool, len(answers))
	var ids []int64
	for _, a := range answers {
		if seen[a.QuestionID] {
			continue
		}
		seen[a.QuestionID] = true
		if b.store.IsBackedUp(user.SiteDomain, KindAnswers, a.QuestionID) {
			summary.Skipped++
			continue
		}
		ids = append(ids, a.QuestionID)
	}
	if len(ids) == 0 {
		return summary, nil
	}

	questionsParams, err := se.NewQuestionsByIDsParams(se.QuestionsByIDsParams{
		Base: se.Base{Filter: se.FilterQuestionBackup},
		IDs:  ids,
		Site: user.SiteDomain,
	})
	if err != nil {
		return summary, err
	}

	group := b.pool.Group()
	questions := se.Items(b.api.QuestionsByIDs(questionsParams, true))
	for questions.Next(ctx) {
		q := questions.Item()
		if ownedBy(q, accountID) {
			continue
		}
		if err := group.Submit(writer.Job{Site: user.SiteDomain, Kind: KindAnswers, Question: q}); err != nil {
			break
		}
	}
	written, writeErr := group.Wait()
	add(&summary, written)
	if err := questions.Err(); err != nil {
		return summary, fmt.Errorf("failed to fetch answered questions from %s: %w", user.SiteDomain, err)
	}
	return summary, writeErr
}

// ownedBy reports whether the question's owner is known to be the account
func ownedBy(q se.Question, accountID int64) bool {
	return q.Owner != nil && q.Owner.AccountID != nil && *q.Owner.AccountID == accountID
}
