// Copyright (c) 2026 Restkit. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sakila

import (
	"net/url"

	"github.com/taibuivan/restkit/internal/filter"
	"github.com/taibuivan/restkit/internal/model"
	"github.com/taibuivan/restkit/internal/platform/apperr"
	"github.com/taibuivan/restkit/internal/platform/sec"
	"github.com/taibuivan/restkit/internal/rest"
	"github.com/taibuivan/restkit/internal/session"
	"github.com/taibuivan/restkit/pkg/slug"
)

// codeBadCredentials is the stable code for a failed login attempt.
const codeBadCredentials = 8410

// Mount declares every sample endpoint on the registry.
func (app *App) Mount(registry *rest.Registry) {
	registry.Endpoint("actors").
		Get(app.listActors).
		Describe("Lists catalogue actors")
	registry.Endpoint("actors").
		Post(app.createActor).
		Auth(true).
		Describe("Adds an actor to the catalogue").
		Param("first_name", rest.ParamString, "Given name", true).
		Param("last_name", rest.ParamString, "Family name", true)
	registry.Endpoint("actors/{id}").
		Get(app.readActor).
		Describe("Reads one actor by its identifier")

	registry.Endpoint("films").
		Get(app.listFilms).
		Describe("Lists catalogue films")
	registry.Endpoint("films").
		Post(app.createFilm).
		Auth(true).
		Describe("Adds a film to the catalogue").
		Param("title", rest.ParamString, "Film title", true).
		Param("description", rest.ParamString, "Synopsis", false).
		Param("release_year", rest.ParamNumber, "Year of first release", false)

	registry.Endpoint("auth").
		Post(app.login).
		Describe("Exchanges staff credentials for a bearer token").
		Param("username", rest.ParamString, "Staff account name", true).
		Param("password", rest.ParamString, "Staff account password", true)
	registry.Endpoint("logout").
		Post(app.logout).
		Auth(true).
		Describe("Revokes the presented token everywhere")
	registry.Endpoint("me").
		Get(app.whoami).
		Auth(true).
		Describe("Returns the authenticated session")

	registry.Help(map[string]any{
		"name": "sakila",
	})
}

// # Catalogue

func (app *App) listActors(c *rest.Ctx) rest.Outcome {
	return app.list(c, app.Actors)
}

func (app *App) listFilms(c *rest.Ctx) rest.Outcome {
	return app.list(c, app.Films)
}

func (app *App) list(c *rest.Ctx, target model.Model) rest.Outcome {
	spec, err := c.List(target)
	if err != nil {
		return rest.Fail(err)
	}
	rows, count, err := spec.Find(c.Context())
	if err != nil {
		return rest.Fail(err)
	}
	return rest.Value(map[string]any{"count": count, "rows": rows})
}

func (app *App) readActor(c *rest.Ctx) rest.Outcome {
	spec, err := c.Entity(app.Actors)
	if err != nil {
		return rest.Fail(err)
	}
	actor, err := spec.Read(c.Context())
	if err != nil {
		return rest.Fail(err)
	}
	return rest.Value(actor)
}

func (app *App) createActor(c *rest.Ctx) rest.Outcome {
	actor, err := app.Actors.Create(c.Context(), map[string]any{
		"first_name": c.String("first_name"),
		"last_name":  c.String("last_name"),
	})
	if err != nil {
		return rest.Fail(err)
	}
	return rest.Value(actor)
}

func (app *App) createFilm(c *rest.Ctx) rest.Outcome {
	title := c.String("title")
	film, err := app.Films.Create(c.Context(), map[string]any{
		"title":        title,
		"slug":         slug.From(title),
		"description":  c.String("description"),
		"release_year": int(c.Number("release_year")),
	})
	if err != nil {
		return rest.Fail(err)
	}
	return rest.Value(film)
}

// # Staff Authentication

func (app *App) login(c *rest.Ctx) rest.Outcome {
	spec, err := filter.List(app.Staff, url.Values{})
	if err != nil {
		return rest.Fail(err)
	}
	spec.SetCriterion("username", "eq", c.String("username"))
	rows, _, err := spec.Find(c.Context())
	if err != nil {
		return rest.Fail(err)
	}
	if len(rows) == 0 {
		return rest.Fail(apperr.Unauthorized("Unknown account or wrong password", codeBadCredentials))
	}

	staff := rows[0].Fields()
	hash, _ := staff["_password"].(string)
	if !sec.CheckPasswordHash(c.String("password"), hash) {
		return rest.Fail(apperr.Unauthorized("Unknown account or wrong password", codeBadCredentials))
	}

	token, err := app.Sessions.Issue(c.Context(), map[string]any{
		"staff_id": staff["staff_id"],
		"username": staff["username"],
	}, session.MetaFromRequest(c.Request))
	if err != nil {
		return rest.Fail(err)
	}
	return rest.Value(map[string]any{"token": token})
}

func (app *App) logout(c *rest.Ctx) rest.Outcome {
	sess := c.Session()
	ctx := c.Context()
	return rest.Defer(func() (any, error) {
		if err := sess.Destroy(ctx); err != nil {
			return nil, err
		}
		return map[string]any{"revoked": true}, nil
	})
}

func (app *App) whoami(c *rest.Ctx) rest.Outcome {
	sess := c.Session()
	return rest.Value(map[string]any{
		"session_id": sess.ID,
		"claims":     sess.Claims,
		"unchecked":  sess.Unchecked,
	})
}
