// Package model declares the records exchanged with the upstream API and the
// enriched view produced by the join.
package model

// User is a primary record from the /users collection.
//
// Address and Company are optional at decode time; their absence is reported
// when the user is enriched.
type User struct {
	ID       int      `json:"id" validate:"required,gt=0"`
	Name     string   `json:"name"`
	Username string   `json:"username"`
	Email    string   `json:"email" validate:"omitempty,email"`
	Address  *Address `json:"address,omitempty"`
	Phone    string   `json:"phone"`
	Website  string   `json:"website"`
	Company  *Company `json:"company,omitempty"`
}

// Address is the postal sub-structure of a User.
type Address struct {
	Street  string `json:"street"`
	Suite   string `json:"suite"`
	City    string `json:"city"`
	Zipcode string `json:"zipcode"`
	Geo     *Geo   `json:"geo,omitempty"`
}

// Geo holds coordinates as the API sends them (decimal strings).
type Geo struct {
	Lat string `json:"lat"`
	Lng string `json:"lng"`
}

// Company is the organization a User belongs to.
type Company struct {
	Name        string `json:"name"`
	CatchPhrase string `json:"catchPhrase"`
	BS          string `json:"bs"`
}

// Post is a record from the /posts collection, owned by User.ID == UserID.
type Post struct {
	ID     int    `json:"id" validate:"required,gt=0"`
	UserID int    `json:"userId" validate:"required,gt=0"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// PostSummary is the projection of a Post attached to an EnrichedUser.
type PostSummary struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Summary projects p to its id, title and body.
func (p Post) Summary() PostSummary {
	return PostSummary{ID: p.ID, Title: p.Title, Body: p.Body}
}

// EnrichedUser is a User with a display address, its company name flattened
// and the posts that reference it.
type EnrichedUser struct {
	ID       int           `json:"id"`
	Name     string        `json:"name"`
	Username string        `json:"username"`
	Email    string        `json:"email"`
	Address  string        `json:"address"`
	Phone    string        `json:"phone"`
	Website  string        `json:"website"`
	Company  string        `json:"company"`
	Posts    []PostSummary `json:"posts"`
}
