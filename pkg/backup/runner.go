package backup

import (
	"context"
	"fmt"

	"github.com/9ao9ai9ar/stack-exchange-backup/internal/writer"
	"github.com/9ao9ai9ar/stack-exchange-backup/pkg/logger"
)

// Totals sums the passes of a Run
type Totals struct {
	Sites     int
	Questions writer.Summary
	Answers   writer.Summary
}

// Runner backs up every site of an account, one site at a time, questions
// before answers
type Runner struct {
	backup   *Backup
	reporter Reporter
	logger   logger.Logger
}

// NewRunner creates a Runner. A nil reporter reports nothing.
func NewRunner(b *Backup, reporter Reporter) *Runner {
	if reporter == nil {
		reporter = nopReporter{}
	}
	return &Runner{backup: b, reporter: reporter, logger: b.logger}
}

// Run resolves the account's network users and backs up each site in turn.
// A failing site aborts the run.
func (r *Runner) Run(ctx context.Context, accountID int64) (Totals, error) {
	var totals Totals

	users, err := r.backup.NetworkUsers(ctx, accountID)
	if err != nil {
		return totals, err
	}
	totals.Sites = len(users)
	r.reporter.SitesFound(accountID, users)
	r.logger.InfoWithFields("resolved network users", map[string]interface{}{
		"account_id": accountID,
		"sites":      len(users),
	})

	for i, user := range users {
		if err := r.pass(ctx, KindQuestions, i+1, len(users), user, &totals.Questions, func() (writer.Summary, error) {
			return r.backup.BackupQuestions(ctx, user)
		}); err != nil {
			return totals, err
		}
		if err := r.pass(ctx, KindAnswers, i+1, len(users), user, &totals.Answers, func() (writer.Summary, error) {
			return r.backup.BackupAnswers(ctx, accountID, user)
		}); err != nil {
			return totals, err
		}
	}

	return totals, nil
}

func (r *Runner) pass(ctx context.Context, kind string, index, total int, user NetworkUserSlim, sum *writer.Summary, run func() (writer.Summary, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.reporter.PassStarted(kind, index, total, user.SiteDomain)
	summary, err := run()
	if err != nil {
		return fmt.Errorf("%s on %s: %w", kind, user.SiteDomain, err)
	}
	add(sum, summary)
	r.reporter.PassFinished(kind, index, total, user.SiteDomain, summary.Written, summary.Skipped)
	logger.LogBackupProgress(r.logger, user.SiteDomain, kind, summary.Written, summary.Skipped)
	return nil
}

func add(dst *writer.Summary, s writer.Summary) {
	dst.Written += s.Written
	dst.Skipped += s.Skipped
	dst.Bytes += s.Bytes
}

type nopReporter struct{}

func (nopReporter) SitesFound(int64, []NetworkUserSlim)             {}
func (nopReporter) PassStarted(string, int, int, string)            {}
func (nopReporter) PassFinished(string, int, int, string, int, int) {}
