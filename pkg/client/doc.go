// Package client is a Go client for the bitsync search API.
//
//	c, _ := client.New("http://localhost:8080", client.WithAPIKey("secret"))
//	resp, _ := c.Search(ctx, api.SearchParams{Q: ptr("react")})
//
// Session coordinates a search screen: every Submit supersedes the previous
// query, and only the most recent query's outcome is ever applied.
//
//	s := c.NewSession(client.WithOnChange(render))
//	go s.Submit(ctx, api.SearchParams{Q: ptr("re")})
//	go s.Submit(ctx, api.SearchParams{Q: ptr("react")}) // wins
package client
