// Copyright (c) 2026 Restkit. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package sakila is the bundled sample application: a small film-rental
catalogue (actors, films, staff) exposing the full feature surface of the
framework: list filtering, entity lookup, projection, wire formats,
authenticated actions, and the self-describing help endpoint.

It doubles as the end-to-end fixture for the test suites.
*/
package sakila

import (
	"github.com/taibuivan/restkit/internal/model"
	"github.com/taibuivan/restkit/internal/platform/sec"
	"github.com/taibuivan/restkit/internal/session"
)

// App bundles the catalogue models and the session manager behind the
// sample endpoints.
type App struct {
	Actors   model.Model
	Films    model.Model
	Staff    model.Model
	Sessions *session.Manager
}

// New builds the sample application on seeded in-memory models.
func New(sessions *session.Manager) *App {
	return &App{
		Actors:   seedActors(),
		Films:    seedFilms(),
		Staff:    seedStaff(),
		Sessions: sessions,
	}
}

func seedActors() model.Model {
	actors := model.NewMemoryModel("actor", "actor_id",
		[]string{"actor_id", "first_name", "last_name"})
	actors.Seed(
		map[string]any{"actor_id": 1, "first_name": "Penelope", "last_name": "Guiness"},
		map[string]any{"actor_id": 2, "first_name": "Nick", "last_name": "Wahlberg"},
		map[string]any{"actor_id": 3, "first_name": "Ed", "last_name": "Chase"},
		map[string]any{"actor_id": 4, "first_name": "Jennifer", "last_name": "Davis"},
		map[string]any{"actor_id": 5, "first_name": "Johnny", "last_name": "Lollobrigida"},
		map[string]any{"actor_id": 6, "first_name": "Bette", "last_name": "Nicholson"},
		map[string]any{"actor_id": 7, "first_name": "Grace", "last_name": "Mostel"},
		map[string]any{"actor_id": 8, "first_name": "Matthew", "last_name": "Johansson"},
	)
	return actors
}

func seedFilms() model.Model {
	films := model.NewMemoryModel("film", "film_id",
		[]string{"film_id", "title", "slug", "description", "release_year"})
	films.Seed(
		map[string]any{
			"film_id": 1, "title": "Academy Dinosaur", "slug": "academy-dinosaur",
			"description": "An epic drama of a feminist and a mad scientist",
			"release_year": 2006,
		},
		map[string]any{
			"film_id": 2, "title": "Ace Goldfinger", "slug": "ace-goldfinger",
			"description": "An astounding epistle of a database administrator",
			"release_year": 2006,
		},
		map[string]any{
			"film_id": 3, "title": "Adaptation Holes", "slug": "adaptation-holes",
			"description": "A reflective tale of a car and a composer",
			"release_year": 2007,
		},
	)
	return films
}

func seedStaff() model.Model {
	staff := model.NewMemoryModel("staff", "staff_id",
		[]string{"staff_id", "username", "email", "_password"})

	// The hash lives under a private attribute so the serializer never
	// exports it, whatever projection the client requests.
	mike, _ := sec.HashPassword("mike12345")
	jon, _ := sec.HashPassword("jon12345")
	staff.Seed(
		map[string]any{"staff_id": 1, "username": "Mike", "email": "mike@sakilastaff.com", "_password": mike},
		map[string]any{"staff_id": 2, "username": "Jon", "email": "jon@sakilastaff.com", "_password": jon},
	)
	return staff
}
