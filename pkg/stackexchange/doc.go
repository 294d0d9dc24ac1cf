// Package stackexchange is a client for version 2.3 of the Stack Exchange API.
//
// Every method has its own parameter struct. Constructors validate the
// struct and split id lists into batches the server accepts:
//
//	params, err := stackexchange.NewQuestionsOnUsersParams(stackexchange.QuestionsOnUsersParams{
//	    Base: stackexchange.Base{Filter: stackexchange.FilterQuestionBackup},
//	    IDs:  []int64{22656},
//	    Site: "stackoverflow.com",
//	})
//
// Fetchers return lazy iterators. With fetchAll set, they walk every batch
// and every page:
//
//	client := stackexchange.NewClient(stackexchange.DefaultClientConfig())
//	defer client.Close()
//
//	questions := stackexchange.Items(client.QuestionsOnUsers(params, true))
//	for questions.Next(ctx) {
//	    q := questions.Item()
//	    // ...
//	}
//	if err := questions.Err(); err != nil {
//	    return err
//	}
//
// All requests share one pipeline per client. It waits out any backoff the
// server asked for on the same method and attaches the client's request key
// and access token. It then takes a rate limiter slot and dispatches the
// request. Non-2xx responses become *errors.HTTPError. Successful bodies are
// parsed strictly, then the backoff advisory is recorded and the quota is
// checked. Throttling blocks the caller and is never reported as an error.
package stackexchange
