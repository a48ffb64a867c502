package zendesk

import (
	"context"
	"fmt"
	"net/url"
)

type User struct {
	ID     int64  `json:"id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Active bool   `json:"active"`
}

type usersResponse struct {
	Users    []User `json:"users"`
	NextPage string `json:"next_page"`
}

// ListUsers pages through the users endpoint following next_page URLs.
// Passing roles narrows the listing (e.g. agent and admin only).
func (c *client) ListUsers(ctx context.Context, roles []string) ([]User, error) {
	params := url.Values{}
	for _, r := range roles {
		params.Add("role[]", r)
	}
	next := c.cfg.BaseURL + "/users.json"
	if len(params) > 0 {
		next += "?" + params.Encode()
	}

	var all []User
	for next != "" {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		var page usersResponse
		if err := c.get(ctx, next, &page); err != nil {
			return nil, fmt.Errorf("list users: %w", err)
		}
		all = append(all, page.Users...)
		next = page.NextPage
	}
	return all, nil
}
