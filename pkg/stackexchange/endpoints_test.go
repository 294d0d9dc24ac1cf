package stackexchange

import (
	"context"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/9ao9ai9ar/stack-exchange-backup/pkg/errors"
)

// pagedHandler serves pages of questions. pages[i] is the number of items
// on page i+1; has_more is set on every page but the last.
func pagedHandler(pages []int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := 1
		if p := r.URL.Query().Get("page"); p != "" {
			page, _ = strconv.Atoi(p)
		}
		items := []map[string]interface{}{}
		if page <= len(pages) {
			for i := 0; i < pages[page-1]; i++ {
				items = append(items, map[string]interface{}{"question_id": page*100 + i})
			}
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"items":    items,
			"has_more": page < len(pages),
		})
	}
}

func questionsOnUser(t *testing.T, ids ...int64) *QuestionsOnUsersParams {
	t.Helper()
	p, err := NewQuestionsOnUsersParams(QuestionsOnUsersParams{
		Base: Base{Filter: FilterQuestionBackup},
		IDs:  ids,
		Site: "stackoverflow.com",
	})
	require.NoError(t, err)
	return p
}

func TestListByUserWithoutFetchAllGetsOnePage(t *testing.T) {
	srv := newAPIServer(t, pagedHandler([]int{2, 2, 1}))
	client := newTestClient(t, srv)

	questions, err := Collect(context.Background(), Items(client.QuestionsOnUsers(questionsOnUser(t, 7), false)))
	require.NoError(t, err)

	assert.Len(t, questions, 2)
	require.Equal(t, 1, srv.Total())
	q := srv.Queries()[0]
	assert.Empty(t, q.Get("page"))
	assert.Empty(t, q.Get("pagesize"))
	assert.Equal(t, "stackoverflow.com", q.Get("site"))
	assert.Equal(t, FilterQuestionBackup, q.Get("filter"))
	assert.Equal(t, []string{"/users/7/questions"}, srv.Paths())
}

func TestListByUserWithFetchAllWalksPages(t *testing.T) {
	srv := newAPIServer(t, pagedHandler([]int{2, 2, 1}))
	client := newTestClient(t, srv)

	envs, err := CollectEnvelopes(context.Background(), client.QuestionsOnUsers(questionsOnUser(t, 7), true))
	require.NoError(t, err)
	assert.Len(t, envs, 3)

	queries := srv.Queries()
	require.Len(t, queries, 3)
	for i, q := range queries {
		assert.Equal(t, strconv.Itoa(i+1), q.Get("page"))
		assert.Equal(t, "100", q.Get("pagesize"))
	}
}

func TestEmptyPageStopsIteration(t *testing.T) {
	srv := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		// claims more forever but has nothing to give
		writeJSON(w, http.StatusOK, map[string]interface{}{"items": []interface{}{}, "has_more": true})
	})
	client := newTestClient(t, srv)

	answers := Items(client.AnswersOnUsers(mustAnswersParams(t, 3), true))
	assert.False(t, answers.Next(context.Background()))
	require.NoError(t, answers.Err())
	assert.Equal(t, 1, srv.Total())
}

func mustAnswersParams(t *testing.T, ids ...int64) *AnswersOnUsersParams {
	t.Helper()
	p, err := NewAnswersOnUsersParams(AnswersOnUsersParams{
		Base: Base{Filter: FilterAnswerQuestionIDs},
		IDs:  ids,
		Site: "stackoverflow.com",
	})
	require.NoError(t, err)
	return p
}

func TestEveryBatchIsWalked(t *testing.T) {
	srv := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"items":    []map[string]interface{}{{"user_id": 1, "site_url": "https://stackoverflow.com"}},
			"has_more": false,
		})
	})
	client := newTestClient(t, srv)

	ids := make([]int64, 150)
	for i := range ids {
		ids[i] = int64(i + 1)
	}
	p, err := NewAssociatedUsersParams(AssociatedUsersParams{IDs: ids, Types: []string{SiteTypeMain, SiteTypeMeta}})
	require.NoError(t, err)

	users, err := Collect(context.Background(), Items(client.AssociatedUsers(p, true)))
	require.NoError(t, err)
	assert.Len(t, users, 2)

	paths := srv.Paths()
	require.Len(t, paths, 2)
	assert.True(t, strings.HasPrefix(paths[0], "/users/1;2;3;"))
	assert.True(t, strings.HasSuffix(paths[1], ";150/associated"))
	assert.Equal(t, "main_site;meta_site", srv.Queries()[0].Get("types"))

	// only the first batch without fetchAll
	_, err = Collect(context.Background(), Items(client.AssociatedUsers(p, false)))
	require.NoError(t, err)
	assert.Equal(t, 3, srv.Total())
}

func TestQuestionsByIDsOneRequestPerBatch(t *testing.T) {
	srv := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		ids := strings.Split(strings.TrimPrefix(r.URL.Path, "/questions/"), ";")
		items := make([]map[string]interface{}, 0, len(ids))
		for _, id := range ids {
			n, _ := strconv.Atoi(id)
			items = append(items, map[string]interface{}{"question_id": n})
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"items": items, "has_more": false})
	})
	client := newTestClient(t, srv)

	ids := make([]int64, 205)
	for i := range ids {
		ids[i] = int64(1000 + i)
	}
	p, err := NewQuestionsByIDsParams(QuestionsByIDsParams{IDs: ids, Site: "math.stackexchange.com"})
	require.NoError(t, err)

	questions, err := Collect(context.Background(), Items(client.QuestionsByIDs(p, true)))
	require.NoError(t, err)
	assert.Len(t, questions, 205)
	assert.Equal(t, int64(1000), questions[0].QuestionID)
	assert.Equal(t, int64(1204), questions[204].QuestionID)

	queries := srv.Queries()
	require.Len(t, queries, 3)
	for _, q := range queries {
		assert.Equal(t, "1", q.Get("page"))
		assert.Equal(t, "100", q.Get("pagesize"))
	}
}

func TestQuestionsByIDsWarnsWhenBatchOverflows(t *testing.T) {
	srv := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"items":    []map[string]interface{}{{"question_id": 1}},
			"has_more": true,
		})
	})
	client := newTestClient(t, srv)

	p, err := NewQuestionsByIDsParams(QuestionsByIDsParams{IDs: []int64{1}, Site: "stackoverflow.com"})
	require.NoError(t, err)

	_, err = Collect(context.Background(), Items(client.QuestionsByIDs(p, true)))
	require.NoError(t, err)
	assert.Equal(t, 1, srv.Total())
	assert.True(t, client.logger.(interface{ HasMessage(string) bool }).HasMessage("more questions than one page holds"))
}

func TestEmptyIDsMakeNoRequest(t *testing.T) {
	srv := newAPIServer(t, pagedHandler([]int{1}))
	client := newTestClient(t, srv)

	p, err := NewQuestionsByIDsParams(QuestionsByIDsParams{Site: "stackoverflow.com"})
	require.NoError(t, err)
	questions := Items(client.QuestionsByIDs(p, true))
	assert.False(t, questions.Next(context.Background()))
	assert.NoError(t, questions.Err())

	answers := Items(client.AnswersOnUsers(mustAnswersParams(t), true))
	assert.False(t, answers.Next(context.Background()))

	assert.Equal(t, 0, srv.Total())
}

func TestSitesWalkPages(t *testing.T) {
	srv := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"items": []map[string]interface{}{{
				"name":      "site " + strconv.Itoa(page),
				"site_url":  "https://site" + strconv.Itoa(page) + ".example",
				"site_type": SiteTypeMain,
				"related_sites": []map[string]interface{}{
					{"site_url": "https://meta.site" + strconv.Itoa(page) + ".example", "relation": RelationMeta},
				},
			}},
			"has_more": page < 2,
		})
	})
	client := newTestClient(t, srv)

	params, err := NewSitesParams(SitesParams{})
	require.NoError(t, err)

	sites, err := Collect(context.Background(), Items(client.Sites(params, true)))
	require.NoError(t, err)
	require.Len(t, sites, 2)
	assert.Equal(t, "site2.example", Host(sites[1].SiteURL))
	assert.Equal(t, "meta.site1.example", Host(sites[0].RelatedSites[0].SiteURL))
	assert.Equal(t, 2, srv.Hits("/sites"))
}

func TestCreateFilter(t *testing.T) {
	srv := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		fields := map[string]bool{}
		for _, f := range strings.Split(q.Get("include"), ";") {
			fields[f] = true
		}
		for _, f := range strings.Split(q.Get("exclude"), ";") {
			delete(fields, f)
		}
		included := make([]string, 0, len(fields))
		for f := range fields {
			included = append(included, f)
		}
		sort.Strings(included)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"items": []map[string]interface{}{{
				"filter":          "!nNPvSNVZJS",
				"filter_type":     "safe",
				"included_fields": included,
			}},
		})
	})
	client := newTestClient(t, srv)

	params, err := NewCreateFilterParams(CreateFilterParams{
		Include:    []string{".page", ".page_size", ".total", ".items"},
		Exclude:    []string{"question.question_id", ".total"},
		BaseFilter: ptr(FilterNone),
	})
	require.NoError(t, err)

	filter, err := client.CreateFilterItem(context.Background(), params)
	require.NoError(t, err)

	expected := []string{".page", ".page_size", ".items"}
	sort.Strings(expected)
	assert.Equal(t, expected, filter.IncludedFields)
	assert.Equal(t, 1, srv.Hits("/filters/create"))
	assert.Equal(t, "none", srv.Queries()[0].Get("base"))
}

func TestCreateFilterWithoutItemsIsIntegrityError(t *testing.T) {
	srv := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"items": []interface{}{}})
	})
	client := newTestClient(t, srv)

	params, err := NewCreateFilterParams(CreateFilterParams{})
	require.NoError(t, err)

	_, err = client.CreateFilterItem(context.Background(), params)
	var integrityErr *errs.DataIntegrityError
	require.ErrorAs(t, err, &integrityErr)
	assert.Equal(t, "Unexpected exception", integrityErr.Message)
}

func TestReadBakedInFilters(t *testing.T) {
	srv := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		names := strings.Split(strings.TrimPrefix(r.URL.Path, "/filters/"), ";")
		items := make([]Filter, 0, len(names))
		for _, name := range names {
			items = append(items, BakedInFilters[name])
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"items": items, "has_more": false})
	})
	client := newTestClient(t, srv)

	params, err := NewReadFilterParams(ReadFilterParams{Filters: BakedInFilterNames()})
	require.NoError(t, err)

	filters, err := Collect(context.Background(), Items(client.ReadFilter(params, true)))
	require.NoError(t, err)
	require.Len(t, filters, len(BakedInFilters))
	for _, f := range filters {
		assert.Equal(t, BakedInFilters[f.Filter], f)
		assert.True(t, sort.StringsAreSorted(f.IncludedFields), f.Filter)
	}
	assert.Equal(t, 1, srv.Total())
}

func TestParamsBuiltWithoutConstructorArePrepared(t *testing.T) {
	srv := newAPIServer(t, pagedHandler([]int{2, 1}))
	client := newTestClient(t, srv)
	ctx := context.Background()

	questions, err := Collect(ctx, Items(client.QuestionsOnUsers(&QuestionsOnUsersParams{
		IDs:  []int64{7},
		Site: "stackoverflow.com",
	}, true)))
	require.NoError(t, err)
	assert.Len(t, questions, 3)
	assert.Equal(t, []string{"/users/7/questions", "/users/7/questions"}, srv.Paths())

	// invalid literals fail instead of yielding nothing
	answers := client.AnswersOnUsers(&AnswersOnUsersParams{IDs: []int64{-1}, Site: "stackoverflow.com"}, true)
	assert.False(t, answers.Next(ctx))
	var validationErr *errs.ValidationError
	assert.ErrorAs(t, answers.Err(), &validationErr)

	_, err = client.SimulateError(ctx, &SimulateErrorParams{})
	assert.ErrorAs(t, err, &validationErr)

	assert.Equal(t, 2, srv.Total())
}
