// Package service runs the fetch-and-join flow for users and their posts.
//
// Users and posts are fetched in parallel through a Fetcher, each with its
// own retry budget, and joined once both have arrived. The first failure
// cancels the sibling fetch and is returned as is; there is no partial result.
//
// Example usage:
//
//	c, _ := client.New(client.DefaultConfig("my-app/1.0"))
//	svc, _ := service.NewWithClient(c, service.Config{})
//	users, err := svc.GetUsersAndTheirPosts(ctx)
//
// Errors keep their type through the wrapping:
//   - *client.TransportError when retries are exhausted (errors.Is ErrRetryExhausted)
//   - *client.StatusError for a non-retried 4xx
//   - *client.ParseError when a body does not decode or validate
//   - *join.FormatError when a user lacks an address or company
package service
