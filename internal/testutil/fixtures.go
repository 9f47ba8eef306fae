package testutil

import (
	"encoding/json"

	"github.com/Sternrassler/userposts/pkg/model"
)

// Users returns three users shaped like the JSONPlaceholder /users payload.
func Users() []model.User {
	return []model.User{
		{
			ID:       1,
			Name:     "Leanne Graham",
			Username: "Bret",
			Email:    "Sincere@april.biz",
			Address: &model.Address{
				Street:  "Kulas Light",
				Suite:   "Apt. 556",
				City:    "Gwenborough",
				Zipcode: "92998-3874",
				Geo:     &model.Geo{Lat: "-37.3159", Lng: "81.1496"},
			},
			Phone:   "1-770-736-8031 x56442",
			Website: "hildegard.org",
			Company: &model.Company{
				Name:        "Romaguera-Crona",
				CatchPhrase: "Multi-layered client-server neural-net",
				BS:          "harness real-time e-markets",
			},
		},
		{
			ID:       2,
			Name:     "Ervin Howell",
			Username: "Antonette",
			Email:    "Shanna@melissa.tv",
			Address: &model.Address{
				Street:  "Victor Plains",
				Suite:   "Suite 879",
				City:    "Wisokyburgh",
				Zipcode: "90566-7771",
			},
			Phone:   "010-692-6593 x09125",
			Website: "anastasia.net",
			Company: &model.Company{Name: "Deckow-Crist"},
		},
		{
			ID:       3,
			Name:     "Clementine Bauch",
			Username: "Samantha",
			Email:    "Nathan@yesenia.net",
			Address: &model.Address{
				Street:  "Douglas Extension",
				Suite:   "Suite 847",
				City:    "McKenziehaven",
				Zipcode: "59590-4157",
			},
			Phone:   "1-463-123-4447",
			Website: "ramiro.info",
			Company: &model.Company{Name: "Romaguera-Jacobson"},
		},
	}
}

// Posts returns posts for users 1 and 2, none for user 3, and one post
// (id 4) owned by a user that does not exist.
func Posts() []model.Post {
	return []model.Post{
		{ID: 1, UserID: 1, Title: "sunt aut facere", Body: "quia et suscipit"},
		{ID: 2, UserID: 2, Title: "qui est esse", Body: "est rerum tempore"},
		{ID: 3, UserID: 1, Title: "ea molestias", Body: "et iusto sed quo"},
		{ID: 4, UserID: 99, Title: "orphan", Body: "nobody owns this"},
		{ID: 5, UserID: 1, Title: "nesciunt quas", Body: "repudiandae veniam"},
		{ID: 6, UserID: 2, Title: "dolorem eum", Body: "ut aspernatur corporis"},
	}
}

// UsersJSON returns Users encoded as the API would send them.
func UsersJSON() string {
	return mustJSON(Users())
}

// PostsJSON returns Posts encoded as the API would send them.
func PostsJSON() string {
	return mustJSON(Posts())
}

func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(data)
}
