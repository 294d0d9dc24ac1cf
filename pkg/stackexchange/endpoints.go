package stackexchange

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	errs "github.com/9ao9ai9ar/stack-exchange-backup/pkg/errors"
)

// pageParams returns the paging override for page, or nil when the caller
// did not ask for every page
func pageParams(fetchAll bool, page int) url.Values {
	if !fetchAll {
		return nil
	}
	return url.Values{
		"page":     {strconv.Itoa(page)},
		"pagesize": {strconv.Itoa(MaxPageSize)},
	}
}

// pathOf escapes a batch for use as a path segment, keeping the ";"
// separators literal
func pathOf(prefix, batch, suffix string) string {
	return prefix + strings.ReplaceAll(url.PathEscape(batch), "%3B", ";") + suffix
}

// QuestionsByIDs returns the questions identified in p.IDs, one request per
// batch of ids.
func (c *Client) QuestionsByIDs(p *QuestionsByIDsParams, fetchAll bool) *EnvelopeIterator[Question] {
	it := newBatchIterator(p, fetchAll, false,
		func(ctx context.Context, batch string, page int) (*Envelope[Question], error) {
			return do[Question](ctx, c, request{
				method:   http.MethodGet,
				endpoint: "questions_by_ids",
				path:     pathOf("/questions/", batch, ""),
				params:   p,
				override: pageParams(fetchAll, page),
			})
		})
	it.onExtra = func(batch string, _ *Envelope[Question]) {
		c.logger.WarnWithFields("more questions than one page holds, the rest were not fetched", map[string]interface{}{
			"ids": batch,
		})
	}
	return it
}

// AnswersOnUsers returns the answers posted by the users in p.IDs
func (c *Client) AnswersOnUsers(p *AnswersOnUsersParams, fetchAll bool) *EnvelopeIterator[Answer] {
	return newBatchIterator(p, fetchAll, true,
		func(ctx context.Context, batch string, page int) (*Envelope[Answer], error) {
			return do[Answer](ctx, c, request{
				method:   http.MethodGet,
				endpoint: "answers_on_users",
				path:     pathOf("/users/", batch, "/answers"),
				params:   p,
				override: pageParams(fetchAll, page),
			})
		})
}

// QuestionsOnUsers returns the questions asked by the users in p.IDs
func (c *Client) QuestionsOnUsers(p *QuestionsOnUsersParams, fetchAll bool) *EnvelopeIterator[Question] {
	return newBatchIterator(p, fetchAll, true,
		func(ctx context.Context, batch string, page int) (*Envelope[Question], error) {
			return do[Question](ctx, c, request{
				method:   http.MethodGet,
				endpoint: "questions_on_users",
				path:     pathOf("/users/", batch, "/questions"),
				params:   p,
				override: pageParams(fetchAll, page),
			})
		})
}

// AssociatedUsers returns the per-site users of the accounts in p.IDs.
// The server does not return meta site users; see the backup package for
// the workaround.
func (c *Client) AssociatedUsers(p *AssociatedUsersParams, fetchAll bool) *EnvelopeIterator[NetworkUser] {
	return newBatchIterator(p, fetchAll, true,
		func(ctx context.Context, batch string, page int) (*Envelope[NetworkUser], error) {
			return do[NetworkUser](ctx, c, request{
				method:   http.MethodGet,
				endpoint: "associated_users",
				path:     pathOf("/users/", batch, "/associated"),
				params:   p,
				override: pageParams(fetchAll, page),
			})
		})
}

// Sites returns every site in the network
func (c *Client) Sites(p *SitesParams, fetchAll bool) *EnvelopeIterator[Site] {
	return newEnvelopeIterator([]string{""}, fetchAll, true,
		func(ctx context.Context, _ string, page int) (*Envelope[Site], error) {
			return do[Site](ctx, c, request{
				method:   http.MethodGet,
				endpoint: "sites",
				path:     "/sites",
				params:   p,
				override: pageParams(fetchAll, page),
			})
		})
}

// ReadFilter returns the definitions of the filters in p.Filters
func (c *Client) ReadFilter(p *ReadFilterParams, fetchAll bool) *EnvelopeIterator[Filter] {
	return newBatchIterator(p, fetchAll, false,
		func(ctx context.Context, batch string, page int) (*Envelope[Filter], error) {
			return do[Filter](ctx, c, request{
				method:   http.MethodGet,
				endpoint: "read_filter",
				path:     pathOf("/filters/", batch, ""),
				params:   p,
				override: pageParams(fetchAll, page),
			})
		})
}

// CreateFilter creates a filter and returns the whole envelope
func (c *Client) CreateFilter(ctx context.Context, p *CreateFilterParams) (*Envelope[Filter], error) {
	return do[Filter](ctx, c, request{
		method:   http.MethodGet,
		endpoint: "create_filter",
		path:     "/filters/create",
		params:   p,
	})
}

// CreateFilterItem creates a filter and returns its definition
func (c *Client) CreateFilterItem(ctx context.Context, p *CreateFilterParams) (*Filter, error) {
	env, err := c.CreateFilter(ctx, p)
	if err != nil {
		return nil, err
	}
	if len(env.Items) == 0 {
		return nil, &errs.DataIntegrityError{Message: "Unexpected exception", Detail: env}
	}
	return &env.Items[0], nil
}

// SimulateError asks the server to fail with error p.ID. A valid id always
// produces an HTTPError.
func (c *Client) SimulateError(ctx context.Context, p *SimulateErrorParams) (*Envelope[Error], error) {
	return do[Error](ctx, c, request{
		method:   http.MethodGet,
		endpoint: "simulate_error",
		path:     "/errors/" + strconv.Itoa(p.ID),
		params:   p,
	})
}
