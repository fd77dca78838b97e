package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tutorlink/backend/core/session"
)

type sessionApi struct {
	svc session.Service
}

func registerSessionAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc session.Service) {
	api := sessionApi{svc: svc}

	sg := g.Group("/sessions", jwt)

	sg.POST("", api.create, studentMiddleware())
	sg.GET("", api.query)
	sg.GET("/:id", api.retrieve)
	sg.PATCH("/:id/status", api.updateStatus)
	sg.POST("/:id/payment-option", api.setPaymentOption, studentMiddleware())
}

// Handlers

func (api *sessionApi) create(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data session.NewSession
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSession")
	}

	sess, warnings, err := api.svc.Create(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return err
	}
	if warnings == nil {
		warnings = []string{}
	}
	return ctx.JSON(http.StatusCreated, SessionResponse{Session: sess, Warnings: warnings})
}

// query lists the caller's sessions: the ones they booked as a student, or
// the ones booked with them as a tutor.
func (api *sessionApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	var details []session.Detail
	if claims.IsTutor {
		details, err = api.svc.QueryByTutor(ctx.Request().Context(), claims.Subject, ordering.Orderings...)
	} else {
		details, err = api.svc.QueryByStudent(ctx.Request().Context(), claims.Subject, ordering.Orderings...)
	}
	if err != nil {
		return errors.Wrap(err, "querying sessions")
	}
	if details == nil {
		details = []session.Detail{}
	}
	return ctx.JSON(http.StatusOK, details)
}

func (api *sessionApi) retrieve(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	sess, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"), claims.Subject)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sess)
}

func (api *sessionApi) updateStatus(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data StatusUpdateRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StatusUpdateRequest")
	}

	sess, err := api.svc.Transition(ctx.Request().Context(), ctx.Param("id"), claims.Subject, session.Status(data.Status))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sess)
}

func (api *sessionApi) setPaymentOption(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data PaymentOptionRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PaymentOptionRequest")
	}

	sess, err := api.svc.SetPaymentOption(ctx.Request().Context(), ctx.Param("id"), claims.Subject, session.PaymentOption(data.PaymentOption))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sess)
}

type (
	SessionResponse struct {
		Session  session.Session `json:"session"`
		Warnings []string        `json:"warnings"`
	}

	StatusUpdateRequest struct {
		Status string `json:"status"`
	}

	PaymentOptionRequest struct {
		PaymentOption string `json:"payment_option"`
	}
)
