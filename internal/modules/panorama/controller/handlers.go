package controller

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"sensorpanorama/internal/modules/panorama/axes"
	"sensorpanorama/internal/modules/panorama/chart"
	"sensorpanorama/internal/modules/panorama/kpi"
	"sensorpanorama/internal/modules/panorama/session"
	"sensorpanorama/internal/modules/panorama/types"
	"sensorpanorama/internal/modules/panorama/views"
	"sensorpanorama/internal/utils"
)

const maxBodyBytes = 1 << 16

// view is one evaluated request: the session, its query result and the
// dataset status it was computed from.
type view struct {
	session *session.Session
	result  session.Result
	status  kpi.Status
}

func (c *panoramaControllerImpl) evaluate(r *http.Request) (*view, error) {
	snap := c.store.Snapshot()
	s, err := sessionFromQuery(r, c.resolver, snap.Readings, c.now())
	if err != nil {
		return nil, err
	}
	res := s.Query(snap.Readings)
	return &view{
		session: s,
		result:  res,
		status:  kpi.StatusFor(res.Points, snap.Status.Message),
	}, nil
}

type seriesResponse struct {
	Mode       types.Mode              `json:"mode"`
	Interval   types.Interval          `json:"interval"`
	Custom     bool                    `json:"custom"`
	RangeLabel string                  `json:"rangeLabel"`
	Title      string                  `json:"title"`
	Status     kpi.Status              `json:"status"`
	Focus      int                     `json:"focus"`
	Points     []types.AggregatedPoint `json:"points"`
}

func (c *panoramaControllerImpl) handleSeries(w http.ResponseWriter, r *http.Request) {
	v, err := c.evaluate(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	s := v.session
	utils.WriteJSON(w, http.StatusOK, seriesResponse{
		Mode:       s.Mode,
		Interval:   v.result.Interval,
		Custom:     s.CustomRange != nil,
		RangeLabel: kpi.RangeLabel(v.result.Interval, s.Mode, s.CustomRange != nil),
		Title:      kpi.ChartTitle(s.Mode, len(v.result.Points)),
		Status:     v.status,
		Focus:      s.Focus,
		Points:     v.result.Points,
	})
}

func (c *panoramaControllerImpl) handleKPIs(w http.ResponseWriter, r *http.Request) {
	v, err := c.evaluate(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	utils.WriteJSON(w, http.StatusOK, kpi.Summaries(v.result.Points))
}

func (c *panoramaControllerImpl) handlePresets(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, session.Presets(c.resolver, c.now()))
}

func (c *panoramaControllerImpl) handleChart(w http.ResponseWriter, r *http.Request) {
	v, err := c.evaluate(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	opts := chart.Options{
		Title:   kpi.ChartTitle(v.session.Mode, len(v.result.Points)),
		Metrics: v.session.VisibleMetrics(),
		Ranges:  c.axes.Current(),
	}
	if s := r.URL.Query().Get("width"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= 4000 {
			opts.Width = n
		}
	}

	var buf bytes.Buffer
	if err := chart.RenderSVG(&buf, v.result.Points, opts); err != nil && !errors.Is(err, chart.ErrNotEnoughPoints) {
		c.logger.Error("chart render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render chart")
		return
	}
	utils.WriteBody(w, http.StatusOK, "image/svg+xml", buf.Bytes())
}

func (c *panoramaControllerImpl) handleGetAxes(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, c.axes.Current())
}

func (c *panoramaControllerImpl) handlePutAxis(w http.ResponseWriter, r *http.Request) {
	key := types.MetricKey(r.PathValue("metric"))
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	lo, hi, err := parseAxisUpdate(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ranges, err := c.axes.Set(key, lo, hi)
	switch {
	case errors.Is(err, axes.ErrUnknownMetric):
		utils.WriteError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, axes.ErrInvalidRange):
		utils.WriteError(w, http.StatusBadRequest, axes.InvalidRangeMessage)
		return
	case err != nil:
		c.logger.Error("axis update failed", "metric", key, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to update axis")
		return
	}
	utils.WriteJSON(w, http.StatusOK, ranges)
}

func (c *panoramaControllerImpl) handleResetAxes(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, c.axes.Reset())
}

func (c *panoramaControllerImpl) handleReload(w http.ResponseWriter, r *http.Request) {
	st := c.store.Load(r.Context(), c.loader)
	utils.WriteJSON(w, http.StatusOK, st)
}

func (c *panoramaControllerImpl) handleDashboard(w http.ResponseWriter, r *http.Request) {
	v, err := c.evaluate(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	data := c.dashboardData(v)

	var buf bytes.Buffer
	if err := views.RenderDashboard(&buf, data); err != nil {
		c.logger.Error("dashboard template render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render page")
		return
	}
	utils.WriteBody(w, http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func (c *panoramaControllerImpl) handleKPIsPartial(w http.ResponseWriter, r *http.Request) {
	v, err := c.evaluate(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	var buf bytes.Buffer
	if err := views.RenderKPIsPartial(&buf, c.dashboardData(v)); err != nil {
		c.logger.Error("kpi partial render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render")
		return
	}
	utils.WriteBody(w, http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func (c *panoramaControllerImpl) dashboardData(v *view) *views.DashboardData {
	s := v.session
	custom := s.CustomRange != nil
	points := v.result.Points
	state := stateQuery(s)
	noRange := with(with(state, "from", ""), "to", "")

	data := &views.DashboardData{
		StatusText:  v.status.Text,
		StatusError: v.status.Tone == kpi.ToneError,
		RangeLabel:  kpi.RangeLabel(v.result.Interval, s.Mode, custom),
		ChartTitle:  kpi.ChartTitle(s.Mode, len(points)),
		ChartURL:    href("/chart.svg", state),
		PrevURL:     href("/", with(noRange, "step", "-1")),
		NextURL:     href("/", with(noRange, "step", "1")),
		StepEnabled: !custom,
		Mode:        string(s.Mode),
		Anchor:      s.Anchor.Format(anchorLayout),
		MetricsCSV:  metricsCSV(s.Visible),
		PointCount:  len(points),
	}
	if custom {
		data.CustomFrom = s.CustomRange.Start.Format(customRangeLayout)
		data.CustomTo = s.CustomRange.End.Format(customRangeLayout)
	}

	for _, m := range types.Modes {
		data.Modes = append(data.Modes, views.Link{
			Label:  string(m),
			Href:   href("/", with(noRange, "mode", string(m))),
			Active: !custom && m == s.Mode,
		})
	}
	for _, p := range session.Presets(c.resolver, c.now()) {
		q := with(with(noRange, "anchor", ""), "preset", p.Key)
		data.Presets = append(data.Presets, views.Link{Label: p.Label, Href: href("/", with(q, "mode", ""))})
	}
	for _, m := range types.Metrics {
		toggled := *s
		toggled.Visible = append([]types.MetricKey(nil), s.Visible...)
		toggled.ToggleMetric(m.Key)
		data.Metrics = append(data.Metrics, views.Link{
			Label:  m.Label,
			Href:   href("/", with(state, "metrics", metricsCSV(toggled.Visible))),
			Active: s.IsVisible(m.Key),
		})
	}

	for _, sum := range kpi.Summaries(points) {
		metric, _ := types.LookupMetric(sum.Metric)
		data.KPIs = append(data.KPIs, views.KPICard{
			Label:   sum.Label,
			Unit:    sum.Unit,
			Color:   metric.Color,
			HasData: sum.HasData,
			Last:    sum.Last,
			Avg:     sum.Avg,
			Min:     sum.Min,
			Max:     sum.Max,
		})
	}

	ranges := c.axes.Current()
	for _, m := range types.Metrics {
		r := ranges[m.Key]
		data.Axes = append(data.Axes, views.AxisInput{Key: string(m.Key), Label: m.Label, Unit: m.Unit, Min: r.Min, Max: r.Max})
	}

	if len(points) > 0 {
		focus := s.Focus
		data.FocusLabel = kpi.FocusLabel(points[focus].Timestamp)
		data.FocusPrev = href("/", with(state, "focus", strconv.Itoa(max(focus-1, 0))))
		data.FocusNext = href("/", with(state, "focus", strconv.Itoa(min(focus+1, len(points)-1))))
	}
	return data
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.New("invalid JSON body")
	}
	return nil
}
