package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"hydro-dispatch/internal/api/models"
	"hydro-dispatch/internal/config"
	"hydro-dispatch/internal/herr"
	"hydro-dispatch/internal/priceload"
	"hydro-dispatch/internal/scenario"
)

// ScenarioHandler handles dispatch-scenario requests, grounded on the
// teacher's BacktestHandler: load config + price curve, run, shape the
// response.
type ScenarioHandler struct {
	cache *priceload.Cache
}

// NewScenarioHandler constructs a ScenarioHandler with its own price
// curve cache.
func NewScenarioHandler() *ScenarioHandler {
	return &ScenarioHandler{cache: priceload.NewCache(5 * time.Minute)}
}

// RunScenario handles POST /api/v1/scenario.
func (h *ScenarioHandler) RunScenario(c *gin.Context) {
	var req models.ScenarioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "INVALID_REQUEST", Message: err.Error()},
		})
		return
	}

	cfg, err := config.Load(req.ConfigPath)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "INVALID_CONFIG", Message: err.Error()},
		})
		return
	}

	sc, err := h.buildScenario(cfg, req.PriceFile, req.Options)
	if err != nil {
		c.JSON(statusFor(err), models.ErrorResponse{
			Error: models.ErrorDetail{Code: codeFor(err), Message: err.Error()},
		})
		return
	}

	if err := sc.Run(c.Request.Context()); err != nil {
		c.JSON(statusFor(err), models.ErrorResponse{
			Error: models.ErrorDetail{Code: codeFor(err), Message: err.Error()},
		})
		return
	}

	resp, err := h.buildResponse(sc)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "SCENARIO_ERROR", Message: err.Error()},
		})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CompareScenarios handles POST /api/v1/scenario/compare: runs the same
// underlyings against several constraint-config variations.
func (h *ScenarioHandler) CompareScenarios(c *gin.Context) {
	var req models.CompareScenarioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "INVALID_REQUEST", Message: err.Error()},
		})
		return
	}

	baseCfg, err := config.Load(req.ConfigPath)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "INVALID_CONFIG", Message: err.Error()},
		})
		return
	}

	rows, err := h.cache.Load(req.PriceFile)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "PRICE_LOAD_ERROR", Message: err.Error()},
		})
		return
	}
	underlyings := scenario.Underlyings{Time: priceload.Times(rows), Price: priceload.ToWattHourPrice(rows)}

	results := make([]models.ComparisonResult, 0, len(req.Variations))
	for _, v := range req.Variations {
		cfgCopy := *baseCfg
		cfg := &cfgCopy
		if v.ConstraintsExtra != "" {
			extra, err := config.Load(v.ConstraintsExtra)
			if err != nil {
				results = append(results, models.ComparisonResult{Name: v.Name, Error: err.Error()})
				continue
			}
			cfg.Constraints = extra.Constraints
		}

		plant, turbineIDs, err := cfg.BuildPlant()
		if err != nil {
			results = append(results, models.ComparisonResult{Name: v.Name, Error: err.Error()})
			continue
		}
		constraints, err := cfg.BuildConstraints(turbineIDs)
		if err != nil {
			results = append(results, models.ComparisonResult{Name: v.Name, Error: err.Error()})
			continue
		}

		sc, err := scenario.New(v.Name, plant, underlyings, constraints, optionsFrom(cfg, req.Options))
		if err != nil {
			results = append(results, models.ComparisonResult{Name: v.Name, Error: err.Error()})
			continue
		}
		if err := sc.Run(c.Request.Context()); err != nil {
			results = append(results, models.ComparisonResult{Name: v.Name, Error: err.Error()})
			continue
		}

		summary, err := h.buildSummary(sc)
		if err != nil {
			results = append(results, models.ComparisonResult{Name: v.Name, Error: err.Error()})
			continue
		}
		results = append(results, models.ComparisonResult{Name: v.Name, Summary: summary})
	}

	c.JSON(http.StatusOK, models.CompareScenarioResponse{Comparison: results})
}

func (h *ScenarioHandler) buildScenario(cfg *config.Config, priceFile string, opts models.ScenarioOptions) (*scenario.Scenario, error) {
	plant, turbineIDs, err := cfg.BuildPlant()
	if err != nil {
		return nil, err
	}
	constraints, err := cfg.BuildConstraints(turbineIDs)
	if err != nil {
		return nil, err
	}

	rows, err := h.cache.Load(priceFile)
	if err != nil {
		return nil, err
	}
	underlyings := scenario.Underlyings{Time: priceload.Times(rows), Price: priceload.ToWattHourPrice(rows)}

	return scenario.New(cfg.Plant.Name, plant, underlyings, constraints, optionsFrom(cfg, opts))
}

func optionsFrom(cfg *config.Config, opts models.ScenarioOptions) scenario.Options {
	out := scenario.Options{
		WaterValueEnd:     cfg.Scenario.WaterValueEnd,
		BasinLimitPenalty: cfg.Scenario.BasinLimitPenalty,
		Workers:           cfg.Scenario.Workers,
	}
	if opts.Workers > 0 {
		out.Workers = opts.Workers
	}
	if opts.WaterValueEnd != nil {
		out.WaterValueEnd = opts.WaterValueEnd
	}
	if opts.BasinLimitPenalty > 0 {
		out.BasinLimitPenalty = opts.BasinLimitPenalty
	}
	return out
}

func (h *ScenarioHandler) buildResponse(sc *scenario.Scenario) (models.ScenarioResponse, error) {
	summary, err := h.buildSummary(sc)
	if err != nil {
		return models.ScenarioResponse{}, err
	}

	rows, err := sc.Table()
	if err != nil {
		return models.ScenarioResponse{}, err
	}
	table := make([]models.TableRow, len(rows))
	for i, r := range rows {
		labels := make([]string, len(r.TurbineLabel))
		for j, l := range r.TurbineLabel {
			labels[j] = string(l)
		}
		table[i] = models.TableRow{
			Index:        i,
			Time:         r.Time,
			Price:        r.Price,
			TurbinePower: r.TurbinePowerW,
			TurbineLabel: labels,
			BasinVolume:  r.BasinVolume,
			Feasible:     r.Feasible,
		}
	}

	return models.ScenarioResponse{Status: "completed", Summary: summary, Table: table}, nil
}

func (h *ScenarioHandler) buildSummary(sc *scenario.Scenario) (models.ScenarioSummary, error) {
	value, err := sc.Valuation()
	if err != nil {
		return models.ScenarioSummary{}, err
	}
	timings, err := sc.Timings()
	if err != nil {
		return models.ScenarioSummary{}, err
	}
	rows, err := sc.Table()
	if err != nil {
		return models.ScenarioSummary{}, err
	}

	var infeasible int
	var window models.TimeWindow
	if len(rows) > 0 {
		window = models.TimeWindow{Start: rows[0].Time, End: rows[len(rows)-1].Time}
	}
	for _, r := range rows {
		if !r.Feasible {
			infeasible++
		}
	}

	return models.ScenarioSummary{
		ExpectedValue:      value,
		ScenarioWindow:     window,
		TotalSteps:         len(rows),
		InfeasibleSteps:    infeasible,
		BackwardInduction:  timings.BackwardInduction.String(),
		ForwardPropagation: timings.ForwardPropagation.String(),
	}, nil
}

// statusFor maps a herr error taxonomy value to an HTTP status code.
func statusFor(err error) int {
	var cfgErr *herr.ConfigError
	var shapeErr *herr.ShapeError
	var usageErr *herr.UsageError
	var cancelled *herr.Cancelled
	switch {
	case errors.As(err, &cfgErr), errors.As(err, &shapeErr), errors.As(err, &usageErr):
		return http.StatusBadRequest
	case errors.As(err, &cancelled):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

// codeFor maps a herr error taxonomy value to a response error code.
func codeFor(err error) string {
	var cfgErr *herr.ConfigError
	var shapeErr *herr.ShapeError
	var usageErr *herr.UsageError
	var cancelled *herr.Cancelled
	switch {
	case errors.As(err, &cfgErr):
		return "INVALID_CONFIG"
	case errors.As(err, &shapeErr):
		return "SHAPE_MISMATCH"
	case errors.As(err, &usageErr):
		return "USAGE_ERROR"
	case errors.As(err, &cancelled):
		return "CANCELLED"
	default:
		return "SCENARIO_ERROR"
	}
}
