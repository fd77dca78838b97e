package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tutorlink/backend/core/directory"
)

type directoryApi struct {
	svc directory.Service
}

func registerDirectoryAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc directory.Service) {
	api := directoryApi{svc: svc}

	tg := g.Group("/tutors")

	// browsing the directory does not require an account
	tg.GET("", api.search)
	tg.GET("/:id/portfolio", api.retrievePortfolio)

	// authed endpoints
	ag := tg.Group("", jwt)
	ag.GET("/me/portfolio", api.retrieveOwnPortfolio, tutorMiddleware())
	ag.PUT("/me/portfolio", api.upsertPortfolio, tutorMiddleware())
}

// Handlers

func (api *directoryApi) search(ctx echo.Context) error {
	var criteria directory.SearchCriteria
	if err := ctx.Bind(&criteria); err != nil {
		return errors.Wrap(err, "binding to SearchCriteria")
	}
	criteria.Clean()

	tutors, err := api.svc.Search(ctx.Request().Context(), criteria)
	if err != nil {
		return errors.Wrap(err, "searching tutors")
	}
	if tutors == nil {
		tutors = []directory.TutorProfile{}
	}
	return ctx.JSON(http.StatusOK, tutors)
}

func (api *directoryApi) retrievePortfolio(ctx echo.Context) error {
	pf, err := api.svc.GetPortfolio(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, pf)
}

func (api *directoryApi) retrieveOwnPortfolio(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	pf, err := api.svc.GetPortfolio(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, pf)
}

func (api *directoryApi) upsertPortfolio(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data directory.PortfolioInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PortfolioInput")
	}

	pf, err := api.svc.UpsertPortfolio(ctx.Request().Context(), claims.Subject, claims.Subject, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, pf)
}
