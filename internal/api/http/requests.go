package httpapi

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/i474232898/dashboard-data-aggregation/internal/dashboard"
	"github.com/i474232898/dashboard-data-aggregation/internal/news"
	"github.com/i474232898/dashboard-data-aggregation/internal/store"
	"github.com/i474232898/dashboard-data-aggregation/internal/weather"
)

const symbolRule = "required,max=12,printascii,excludesall= /"

type locationRequest struct {
	Location string `json:"location" validate:"max=100"`
}

type stockRequest struct {
	Symbol string `json:"symbol" validate:"required,max=12,printascii,excludesall= /"`
}

type stocksRequest struct {
	Symbols []string `json:"symbols" validate:"required,max=50,dive,required,max=12,printascii,excludesall= /"`
}

type categoriesRequest struct {
	Categories []string `json:"categories" validate:"required,dive,oneof=business entertainment general health science sports technology"`
}

type layoutRequest struct {
	Widgets []store.WidgetPosition `json:"widgets" validate:"required,dive"`
}

// searchBoxRequest updates the symbol search box. Active is optional so a
// keystroke does not have to restate focus.
type searchBoxRequest struct {
	Text   string `json:"text" validate:"max=100"`
	Active *bool  `json:"active"`
	Flush  bool   `json:"flush"`
}

// bindBody decodes the JSON body into req and validates it.
func bindBody(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}

// queryValue copies a query parameter out of the request buffer. Values end up
// in cache keys and producer closures that outlive the handler.
func queryValue(c *fiber.Ctx, key string) string {
	return utils.CopyString(c.Query(key))
}

func paramValue(c *fiber.Ctx, key string) string {
	return utils.CopyString(c.Params(key))
}

func normalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func refreshParam(c *fiber.Ctx) dashboard.Refresh {
	return dashboard.Refresh(c.QueryBool("refresh", false))
}

// parseWeatherQuery reads either ?location= or ?lat=&lon=. Neither means the
// selected location.
func parseWeatherQuery(c *fiber.Ctx) (weather.Query, error) {
	latStr, lonStr := c.Query("lat"), c.Query("lon")
	if latStr == "" && lonStr == "" {
		q := weather.ByName(queryValue(c, "location"))
		if err := validate.Var(q.Location, "max=100"); err != nil {
			return weather.Query{}, errors.New("location is too long")
		}
		return q, nil
	}
	if latStr == "" || lonStr == "" {
		return weather.Query{}, errors.New("lat and lon must be provided together")
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return weather.Query{}, errors.New("lat must be a number")
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return weather.Query{}, errors.New("lon must be a number")
	}

	q := weather.ByCoordinates(lat, lon)
	if err := validate.Struct(q); err != nil {
		return weather.Query{}, err
	}
	return q, nil
}

func parseHeadlinesQuery(c *fiber.Ctx) (news.HeadlinesQuery, error) {
	q := news.HeadlinesQuery{
		Category: strings.ToLower(strings.TrimSpace(queryValue(c, "category"))),
		Page:     c.QueryInt("page", 0),
		PageSize: c.QueryInt("pageSize", 0),
	}
	if err := validate.Struct(q); err != nil {
		return q, err
	}
	return q.Normalize(), nil
}

func parseNewsSearchQuery(c *fiber.Ctx) (news.SearchQuery, error) {
	q := news.SearchQuery{
		Q:        strings.TrimSpace(queryValue(c, "q")),
		Page:     c.QueryInt("page", 0),
		PageSize: c.QueryInt("pageSize", 0),
	}
	if err := validate.StructExcept(q, "Q"); err != nil {
		return q, err
	}
	return q.Normalize(), nil
}
