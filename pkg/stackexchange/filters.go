package stackexchange

// Built-in filters understood by every method
const (
	FilterDefault  = "default"
	FilterWithBody = "withbody"
	FilterNone     = "none"
	FilterTotal    = "total"
)

// Filters created once and baked into the backup
const (
	// FilterWrapper keeps only the common wrapper fields
	FilterWrapper = "!-0ttWpKaHtrB(oS"
	// FilterNetworkUsers adds network_user.site_url and network_user.user_id
	FilterNetworkUsers = "!2SUoF4c)sOul00Zq"
	// FilterAnswerQuestionIDs adds answer.question_id
	FilterAnswerQuestionIDs = "!6aC-iR(QLBu-5SKm"
	// FilterQuestionBackup is the unsafe filter used to render questions.
	// It includes comment.body because the server omits
	// comment.body_markdown without it.
	FilterQuestionBackup = "6(Kf1Nok-_lSPXKCtHLJwx-lErW2vKXX0.cTH70g*TOaJsLcz1fY(j_pvVWgk1G"
)

// BuiltInFilters lists the filters every method understands
var BuiltInFilters = []string{FilterDefault, FilterWithBody, FilterNone, FilterTotal}

var wrapperFields = []string{".backoff", ".has_more", ".items", ".quota_remaining"}

// BakedInFilters maps each baked-in filter to its expected definition.
// IncludedFields are sorted, as the server returns them.
var BakedInFilters = map[string]Filter{
	FilterWrapper: {
		Filter:         FilterWrapper,
		FilterType:     "safe",
		IncludedFields: withWrapper(".total"),
	},
	FilterNetworkUsers: {
		Filter:         FilterNetworkUsers,
		FilterType:     "safe",
		IncludedFields: withWrapper("network_user.site_url", "network_user.user_id"),
	},
	FilterAnswerQuestionIDs: {
		Filter:         FilterAnswerQuestionIDs,
		FilterType:     "safe",
		IncludedFields: withWrapper("answer.question_id"),
	},
	FilterQuestionBackup: {
		Filter:     FilterQuestionBackup,
		FilterType: "unsafe",
		IncludedFields: withWrapper(
			"answer.body_markdown",
			"answer.comments",
			"answer.creation_date",
			"answer.down_vote_count",
			"answer.is_accepted",
			"answer.owner",
			"answer.score",
			"answer.up_vote_count",
			"comment.body",
			"comment.body_markdown",
			"comment.creation_date",
			"comment.owner",
			"comment.score",
			"question.answers",
			"question.body_markdown",
			"question.comments",
			"question.creation_date",
			"question.down_vote_count",
			"question.link",
			"question.owner",
			"question.question_id",
			"question.score",
			"question.title",
			"question.up_vote_count",
			"shallow_user.display_name",
		),
	},
}

// withWrapper prepends the wrapper fields; every argument sorts after them
func withWrapper(fields ...string) []string {
	out := make([]string, 0, len(wrapperFields)+len(fields))
	out = append(out, wrapperFields...)
	return append(out, fields...)
}

// BakedInFilterNames returns the baked-in filter strings in sorted order
func BakedInFilterNames() []string {
	return []string{
		FilterWrapper,
		FilterNetworkUsers,
		FilterAnswerQuestionIDs,
		FilterQuestionBackup,
	}
}
