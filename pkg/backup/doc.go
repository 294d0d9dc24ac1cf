// Package backup copies a Stack Exchange account's posts to Markdown files.
//
// An account owns one user per site. NetworkUsers resolves them, adding the
// meta sites the associated users method leaves out. For each site,
// BackupQuestions writes the questions the user asked and BackupAnswers
// writes the questions the user answered, each file rendered with every
// answer and comment:
//
//	<root>/<site>/questions/<question_id>.md
//	<root>/<site>/answers/<question_id>.md
//
// Existing files are never rewritten, so a run can be repeated to pick up
// new posts. Runner drives the passes and reports progress.
package backup
