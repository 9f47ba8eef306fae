// Package join turns fetched users and posts into enriched users.
package join

import (
	"fmt"
	"slices"

	"github.com/Sternrassler/userposts/pkg/logging"
	"github.com/Sternrassler/userposts/pkg/model"
)

// FormatError reports a user whose nested structure cannot be flattened.
type FormatError struct {
	UserID int
	Field  string
}

// Error implements the error interface.
func (e *FormatError) Error() string {
	if e.UserID == 0 {
		return fmt.Sprintf("format: missing %s", e.Field)
	}
	return fmt.Sprintf("format user %d: missing %s", e.UserID, e.Field)
}

// FormatAddress renders an address as "street, suite - zipcode city".
func FormatAddress(addr *model.Address) (string, error) {
	if addr == nil {
		return "", &FormatError{Field: "address"}
	}
	return formatAddress(addr), nil
}

func formatAddress(addr *model.Address) string {
	return fmt.Sprintf("%s, %s - %s %s", addr.Street, addr.Suite, addr.Zipcode, addr.City)
}

// Join enriches every user, in input order, with its formatted address, its
// company name and the posts whose UserID matches. Posts keep their relative
// order; posts matching no user are dropped.
func Join(users []model.User, posts []model.Post) ([]model.EnrichedUser, error) {
	byUser := make(map[int][]model.PostSummary, len(users))
	for _, p := range posts {
		byUser[p.UserID] = append(byUser[p.UserID], p.Summary())
	}

	out := make([]model.EnrichedUser, 0, len(users))
	for _, u := range users {
		enriched, err := enrich(u, byUser[u.ID])
		if err != nil {
			logger := logging.NewLogger("joiner")
			logger.Error().
				Err(err).
				Int("user_id", u.ID).
				Msg("Error formatting user")
			return nil, err
		}
		out = append(out, enriched)
	}
	return out, nil
}

func enrich(u model.User, posts []model.PostSummary) (model.EnrichedUser, error) {
	if u.Address == nil {
		return model.EnrichedUser{}, &FormatError{UserID: u.ID, Field: "address"}
	}
	if u.Company == nil {
		return model.EnrichedUser{}, &FormatError{UserID: u.ID, Field: "company"}
	}

	// each record owns its posts, also when user ids repeat
	posts = slices.Clone(posts)
	if posts == nil {
		posts = []model.PostSummary{}
	}

	return model.EnrichedUser{
		ID:       u.ID,
		Name:     u.Name,
		Username: u.Username,
		Email:    u.Email,
		Address:  formatAddress(u.Address),
		Phone:    u.Phone,
		Website:  u.Website,
		Company:  u.Company.Name,
		Posts:    posts,
	}, nil
}
