package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/inaciofernandocosta/ignite-corp-catalog-sub001/core/course"
)

type courseApi struct {
	svc course.Service
}

func registerCourseAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc course.Service) {
	api := courseApi{svc: svc}

	// public catalog endpoints
	g.GET("/banners", api.queryBanners)
	g.GET("/faqs", api.queryFAQs)

	cg := g.Group("/courses")
	cg.GET("", api.query)
	cg.GET("/:id", api.retrieve)

	// admin endpoints
	ag := cg.Group("", jwt, adminMiddleware())
	ag.POST("", api.create)
	ag.PUT("/:id", api.update)
	ag.DELETE("/:id", api.destroy)
}

// Handlers

func (api *courseApi) query(ctx echo.Context) error {
	filter := new(course.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []course.Course{})
	}
	filter.Clean()
	if filter.IsActive == nil {
		// the public catalog only lists active courses
		active := true
		filter.IsActive = &active
	}

	courses, err := api.svc.Filter(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

// retrieve resolves the course by slug first (catalog links), then by ID.
func (api *courseApi) retrieve(ctx echo.Context) error {
	crs, err := resolveCourse(ctx, api.svc)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) create(ctx echo.Context) error {
	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(api.svc); err != nil {
		return err
	}

	crs, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, crs)
}

func (api *courseApi) update(ctx echo.Context) error {
	crs, err := resolveCourse(ctx, api.svc)
	if err != nil {
		return err
	}

	var data course.UpdateCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}
	if err := data.Validate(crs); err != nil {
		return err
	}

	crs, err = api.svc.Update(ctx.Request().Context(), crs, data)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) destroy(ctx echo.Context) error {
	crs, err := resolveCourse(ctx, api.svc)
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), crs.ID); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) queryBanners(ctx echo.Context) error {
	banners, err := api.svc.Banners(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying banners")
	}
	if banners == nil {
		banners = []course.Banner{}
	}
	return ctx.JSON(http.StatusOK, banners)
}

func (api *courseApi) queryFAQs(ctx echo.Context) error {
	faqs, err := api.svc.FAQs(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying faqs")
	}
	if faqs == nil {
		faqs = []course.FAQ{}
	}
	return ctx.JSON(http.StatusOK, faqs)
}

// resolveCourse looks the `:id` path param up as a slug, then as an ID, so
// both catalog links (slugs) and admin tooling (IDs) work.
func resolveCourse(ctx echo.Context, svc course.Service) (course.Course, error) {
	reqCtx := ctx.Request().Context()
	param := ctx.Param("id")

	crs, err := svc.GetBySlug(reqCtx, param)
	if err == nil {
		return crs, nil
	}
	if errors.Cause(err) != course.ErrNotFound {
		return course.Course{}, errors.Wrap(err, "finding course by slug")
	}

	crs, err = svc.GetByID(reqCtx, param)
	if err != nil {
		if errors.Cause(err) == course.ErrNotFound {
			return course.Course{}, errHttpNotFound
		}
		return course.Course{}, errors.Wrap(err, "finding course by ID")
	}
	return crs, nil
}
