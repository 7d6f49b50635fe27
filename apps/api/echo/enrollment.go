package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/inaciofernandocosta/ignite-corp-catalog-sub001/core/course"
	"github.com/inaciofernandocosta/ignite-corp-catalog-sub001/core/enrollment"
	"github.com/inaciofernandocosta/ignite-corp-catalog-sub001/core/user"
)

type enrollmentApi struct {
	svc       enrollment.Service
	courseSvc course.Service
	userSvc   user.Service
	registry  *enrollment.Registry
}

func registerEnrollmentAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc enrollment.Service,
	courseSvc course.Service,
	userSvc user.Service,
	registry *enrollment.Registry,
) {
	api := enrollmentApi{
		svc:       svc,
		courseSvc: courseSvc,
		userSvc:   userSvc,
		registry:  registry,
	}

	cg := g.Group("/courses", jwt)
	cg.GET("/:id/admission", api.admission)
	cg.POST("/:id/enroll", api.enroll)

	eg := g.Group("/enrollments", jwt)
	eg.GET("", api.query)
	eg.POST("/:id/approve", api.approve, adminMiddleware())
	eg.POST("/:id/reject", api.reject, adminMiddleware())
	eg.POST("/:id/cancel", api.cancel)
}

// AdmissionResponse is the gate status plus the caller-specific optimistic
// department check.
type AdmissionResponse struct {
	enrollment.GateStatus
	DepartmentAllowed bool `json:"department_allowed"`
}

// Handlers

func (api *enrollmentApi) admission(ctx echo.Context) error {
	crs, err := resolveCourse(ctx, api.courseSvc)
	if err != nil {
		return err
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	gate := api.registry.Gate(ctx.Request().Context(), crs.ID)
	return ctx.JSON(http.StatusOK, AdmissionResponse{
		GateStatus:        gate.Status(),
		DepartmentAllowed: gate.CheckDepartmentLimit(claims.Department),
	})
}

func (api *enrollmentApi) enroll(ctx echo.Context) error {
	crs, err := resolveCourse(ctx, api.courseSvc)
	if err != nil {
		return err
	}
	if !crs.IsActive {
		return errHttpNotFound
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	data := enrollment.NewEnrollment{
		CourseID:   crs.ID,
		UserID:     claims.Subject,
		Department: claims.Department,
	}
	if err := data.Validate(); err != nil {
		return err
	}

	gate := api.registry.Gate(ctx.Request().Context(), crs.ID)
	enr, err := gate.Enroll(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "enrolling")
	}
	return ctx.JSON(http.StatusCreated, enr)
}

func (api *enrollmentApi) query(ctx echo.Context) error {
	filter := new(enrollment.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []enrollment.Enrollment{})
	}
	filter.Clean()

	// non-admins only see their own enrollments
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	if !claims.IsAdmin {
		filter.UserID = claims.Subject
	}

	enrs, err := api.svc.Filter(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying enrollments")
	}
	if enrs == nil {
		enrs = []enrollment.Enrollment{}
	}
	return ctx.JSON(http.StatusOK, enrs)
}

func (api *enrollmentApi) approve(ctx echo.Context) error {
	enr, err := api.svc.Approve(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "approving enrollment")
	}
	return ctx.JSON(http.StatusOK, enr)
}

func (api *enrollmentApi) reject(ctx echo.Context) error {
	enr, err := api.svc.Reject(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "rejecting enrollment")
	}
	return ctx.JSON(http.StatusOK, enr)
}

// cancel is allowed for the enrollment's owner and for admins.
func (api *enrollmentApi) cancel(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	enr, err := api.svc.GetByID(reqCtx, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding enrollment")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	if !claims.IsAdmin && enr.UserID != claims.Subject {
		return errHttpNotFound
	}

	enr, err = api.svc.Cancel(reqCtx, enr.ID)
	if err != nil {
		return errors.Wrap(err, "cancelling enrollment")
	}
	return ctx.JSON(http.StatusOK, enr)
}
