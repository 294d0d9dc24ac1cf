package auth

import (
	"fmt"
	"io"
	"strings"
)

// ShowCredentialGuide explains where the request key and access token come
// from
func ShowCredentialGuide(w io.Writer) {
	rule := strings.Repeat("=", 72)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "STACK EXCHANGE API CREDENTIALS")
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Both values are optional. Without them the built-in request key is used")
	fmt.Fprintln(w, "and requests are anonymous, which is enough to back up public posts.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Request key:")
	fmt.Fprintln(w, "   1. Register an application at https://stackapps.com/apps/oauth/register")
	fmt.Fprintln(w, "   2. Copy the \"Key\" shown on the application page")
	fmt.Fprintln(w, "   A key raises the daily quota from 300 to 10,000 requests per IP.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Access token:")
	fmt.Fprintln(w, "   Obtain one through the OAuth 2.0 flow of your registered application.")
	fmt.Fprintln(w, "   A token must always be sent together with the key it was issued for.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Tokens grant access to your account. Never share them; this tool keeps")
	fmt.Fprintln(w, "them in the system keyring or an encrypted file.")
	fmt.Fprintln(w, rule)
}
