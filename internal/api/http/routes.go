package httpapi

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/dashboard-data-aggregation/internal/dashboard"
	"github.com/i474232898/dashboard-data-aggregation/internal/finance"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, d *dashboard.Dashboard) {
	v1 := app.Group("/api/v1")

	registerStateRoutes(v1, d)
	registerWidgetRoutes(v1, d)

	v1.Get("/overview", func(c *fiber.Ctx) error {
		return c.JSON(d.Overview(c.UserContext()))
	})
}

func registerStateRoutes(r fiber.Router, d *dashboard.Dashboard) {
	st := d.Store()

	r.Get("/state", func(c *fiber.Ctx) error {
		return c.JSON(st.State())
	})

	r.Put("/state/location", func(c *fiber.Ctx) error {
		var req locationRequest
		if err := bindBody(c, &req); err != nil {
			return err
		}
		st.SetSelectedLocation(strings.TrimSpace(req.Location))
		return c.JSON(st.State())
	})

	r.Post("/state/stocks", func(c *fiber.Ctx) error {
		var req stockRequest
		if err := bindBody(c, &req); err != nil {
			return err
		}
		st.AddSelectedStock(normalizeSymbol(req.Symbol))
		return c.Status(fiber.StatusCreated).JSON(st.State())
	})

	r.Put("/state/stocks", func(c *fiber.Ctx) error {
		var req stocksRequest
		if err := bindBody(c, &req); err != nil {
			return err
		}
		symbols := make([]string, 0, len(req.Symbols))
		for _, s := range req.Symbols {
			symbols = append(symbols, normalizeSymbol(s))
		}
		st.SetSelectedStocks(symbols)
		return c.JSON(st.State())
	})

	r.Delete("/state/stocks/:symbol", func(c *fiber.Ctx) error {
		symbol := normalizeSymbol(paramValue(c, "symbol"))
		if err := validate.Var(symbol, symbolRule); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid symbol")
		}
		st.RemoveSelectedStock(symbol)
		return c.JSON(st.State())
	})

	r.Post("/state/temperature-unit/toggle", func(c *fiber.Ctx) error {
		st.ToggleTemperatureUnit()
		return c.JSON(st.State())
	})

	r.Put("/state/news-categories", func(c *fiber.Ctx) error {
		var req categoriesRequest
		if err := bindBody(c, &req); err != nil {
			return err
		}
		st.SetSelectedNewsCategories(req.Categories)
		return c.JSON(st.State())
	})

	r.Put("/state/layout", func(c *fiber.Ctx) error {
		var req layoutRequest
		if err := bindBody(c, &req); err != nil {
			return err
		}
		st.UpdateWidgetPositions(req.Widgets)
		return c.JSON(st.State())
	})
}

func registerWidgetRoutes(r fiber.Router, d *dashboard.Dashboard) {
	r.Get("/weather/current", func(c *fiber.Ctx) error {
		q, err := parseWeatherQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.JSON(d.CurrentWeather(c.UserContext(), q, refreshParam(c)))
	})

	r.Get("/weather/forecast", func(c *fiber.Ctx) error {
		q, err := parseWeatherQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.JSON(d.Forecast(c.UserContext(), q, refreshParam(c)))
	})

	r.Get("/finance/watchlist", func(c *fiber.Ctx) error {
		return c.JSON(d.Watchlist(c.UserContext(), refreshParam(c)))
	})

	r.Get("/finance/chart", func(c *fiber.Ctx) error {
		interval, err := finance.ParseInterval(c.Query("interval"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		symbol := normalizeSymbol(queryValue(c, "symbol"))
		if symbol != "" {
			if err := validate.Var(symbol, symbolRule); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid symbol")
			}
		}
		return c.JSON(d.Chart(c.UserContext(), symbol, interval, refreshParam(c)))
	})

	box := d.SearchBox()

	r.Get("/finance/search", func(c *fiber.Ctx) error {
		return c.JSON(d.SymbolSearch(c.UserContext()))
	})

	r.Put("/finance/search", func(c *fiber.Ctx) error {
		var req searchBoxRequest
		if err := bindBody(c, &req); err != nil {
			return err
		}
		if req.Active != nil {
			box.SetActive(*req.Active)
		}
		box.Type(req.Text)
		if req.Flush {
			box.Flush()
		}
		return c.JSON(d.SymbolSearch(c.UserContext()))
	})

	r.Post("/finance/search/select", func(c *fiber.Ctx) error {
		var req stockRequest
		if err := bindBody(c, &req); err != nil {
			return err
		}
		box.Select(normalizeSymbol(req.Symbol))
		return c.JSON(d.Store().State())
	})

	r.Get("/news/headlines", func(c *fiber.Ctx) error {
		q, err := parseHeadlinesQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.JSON(d.Headlines(c.UserContext(), q, refreshParam(c)))
	})

	r.Get("/news/search", func(c *fiber.Ctx) error {
		q, err := parseNewsSearchQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.JSON(d.SearchNews(c.UserContext(), q, refreshParam(c)))
	})
}
