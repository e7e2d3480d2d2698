// Package fragment provides the HTTP client for the remote fragment service.
//
// This package handles:
//   - Fetching a single fragment by index (GET <base>?id=N)
//   - Response validation (index match, non-empty text)
//   - Outcome classification into terminal and transient errors
//   - Retry with exponential backoff and jitter on transient failures
//
// # Usage
//
//	client := fragment.NewClient("http://puzzle-server:8080/fragment", fragment.DefaultOptions())
//
//	frag, err := client.Get(ctx, 7)
//	switch {
//	case err == nil:
//	    // frag.Index, frag.Text
//	case errors.Is(err, fragment.ErrNotFound):
//	    // confirmed absent
//	case fragment.Terminal(err):
//	    // give up on this index
//	default:
//	    // transient, retries already exhausted
//	}
package fragment
