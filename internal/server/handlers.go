package server

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"account-explorer/internal/filter"
	"account-explorer/internal/metrics"
	"account-explorer/internal/models"
	"account-explorer/internal/table"
	"account-explorer/internal/view"
)

type option struct {
	Value    string
	Selected bool
}

type widget struct {
	Name      string
	Label     string
	Available bool
	Options   []option
}

type checkbox struct {
	Column  string
	Checked bool
}

type pageData struct {
	View         view.View
	Widgets      []widget
	Stakeholders []checkbox
	Density      bool
	MapData      template.JS
}

// widgets pairs each candidate list with the session's choices. Chosen values
// that dropped out of the candidates stay listed so the user can clear them.
func widgets(v view.View) []widget {
	out := make([]widget, 0, len(v.Candidates))
	for _, cs := range v.Candidates {
		chosen := map[string]bool{}
		for _, val := range v.Selection.Values(cs.Dimension) {
			chosen[val] = true
		}
		w := widget{Name: cs.Name, Label: cs.Label, Available: cs.Available}
		for _, val := range cs.Values {
			w.Options = append(w.Options, option{Value: val, Selected: chosen[val]})
			delete(chosen, val)
		}
		for _, val := range v.Selection.Values(cs.Dimension) {
			if chosen[val] {
				w.Options = append(w.Options, option{Value: val, Selected: true})
			}
		}
		out = append(out, w)
	}
	return out
}

func checkboxes(v view.View) []checkbox {
	checked := map[string]bool{}
	for _, c := range v.Selection.Stakeholders {
		checked[c] = true
	}
	out := make([]checkbox, 0, len(v.Stakeholders))
	for _, c := range v.Stakeholders {
		out = append(out, checkbox{Column: c, Checked: checked[c]})
	}
	return out
}

func (s *Server) handleIndex(c *gin.Context) {
	v, err := s.buildView(c, s.selection(c), "web", false)
	if err != nil {
		status := statusFor(err)
		s.logger.Error("dashboard unavailable", zap.Error(err))
		c.HTML(status, "error.html", gin.H{"Status": status, "Error": err.Error()})
		return
	}

	mapData, err := json.Marshal(v.Map)
	if err != nil {
		c.HTML(http.StatusInternalServerError, "error.html", gin.H{"Status": http.StatusInternalServerError, "Error": err.Error()})
		return
	}

	c.HTML(http.StatusOK, "index.html", pageData{
		View:         v,
		Widgets:      widgets(v),
		Stakeholders: checkboxes(v),
		Density:      v.Selection.Mode() == models.MapDensity,
		MapData:      template.JS(mapData),
	})
}

// handleIndexSubmit replaces the whole selection with the form contents: an
// HTML form omits empty multi-selects and unchecked boxes.
func (s *Server) handleIndexSubmit(c *gin.Context) {
	mode, err := models.ParseMapMode(c.PostForm("map_mode"))
	if err != nil {
		mode = models.MapPin
	}
	s.sessions.Update(s.sessionID(c), func(sel *models.FilterSelection) {
		for _, d := range models.Dimensions {
			sel.Set(d, c.PostFormArray(d.String()))
		}
		sel.Search = c.PostForm("search")
		sel.SetStakeholders(c.PostFormArray("stakeholder"))
		sel.MapMode = mode
	})
	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) handleIndexReset(c *gin.Context) {
	s.sessions.Reset(s.sessionID(c))
	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) handleView(c *gin.Context) {
	v, err := s.buildView(c, s.selection(c), "api", false)
	if err != nil {
		s.abortJSON(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (s *Server) handleCandidates(c *gin.Context) {
	dim, err := models.ParseDimension(c.Param("dimension"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}
	ds, err := s.loader.Load(c.Request.Context(), s.src)
	if err != nil {
		s.abortJSON(c, err)
		return
	}
	sel := s.selection(c)
	c.JSON(http.StatusOK, filter.CandidateSet{
		Dimension: dim,
		Name:      dim.String(),
		Label:     dim.Label(),
		Values:    filter.Candidates(ds, dim, sel),
		Available: ds.Schema.Has(dim),
	})
}

// selectionRequest is a partial update: absent fields keep their value.
type selectionRequest struct {
	Customers    *[]string `json:"customers"`
	SAMs         *[]string `json:"sams"`
	States       *[]string `json:"states"`
	Zips         *[]string `json:"zips"`
	Search       *string   `json:"search"`
	Stakeholders *[]string `json:"stakeholders"`
	MapMode      *string   `json:"map_mode"`
}

func (r selectionRequest) apply(sel *models.FilterSelection, mode models.MapMode) {
	dims := map[models.Dimension]*[]string{
		models.DimCustomer: r.Customers,
		models.DimSAM:      r.SAMs,
		models.DimState:    r.States,
		models.DimZip:      r.Zips,
	}
	for d, vals := range dims {
		if vals != nil {
			sel.Set(d, *vals)
		}
	}
	if r.Search != nil {
		sel.Search = *r.Search
	}
	if r.Stakeholders != nil {
		sel.SetStakeholders(*r.Stakeholders)
	}
	if r.MapMode != nil {
		sel.MapMode = mode
	}
}

func (s *Server) handleSelection(c *gin.Context) {
	var req selectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}
	var mode models.MapMode
	if req.MapMode != nil {
		m, err := models.ParseMapMode(*req.MapMode)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
			return
		}
		mode = m
	}

	sel := s.sessions.Update(s.sessionID(c), func(sel *models.FilterSelection) {
		req.apply(sel, mode)
	})
	c.JSON(http.StatusOK, gin.H{"ok": true, "selection": sel})
}

func (s *Server) handleReset(c *gin.Context) {
	id := s.sessionID(c)
	s.sessions.Reset(id)
	sel, _ := s.sessions.Get(id)
	c.JSON(http.StatusOK, gin.H{"ok": true, "selection": sel})
}

func (s *Server) handleReload(c *gin.Context) {
	s.loader.Invalidate(s.src)
	ds, err := s.loader.Load(c.Request.Context(), s.src)
	if err != nil {
		s.abortJSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "rows": ds.Len(), "columns": ds.Columns})
}

func (s *Server) exportTable(c *gin.Context) (table.Table, bool) {
	v, err := s.buildView(c, s.selection(c), "export", true)
	if err != nil {
		s.abortJSON(c, err)
		return table.Table{}, false
	}
	return v.Table, true
}

func attachment(c *gin.Context, name string) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
}

func (s *Server) handleExportCSV(c *gin.Context) {
	t, ok := s.exportTable(c)
	if !ok {
		return
	}
	data, err := table.CSVBytes(t)
	if err != nil {
		s.abortJSON(c, err)
		return
	}
	metrics.RecordExport("csv")
	attachment(c, table.CSVFileName)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

func (s *Server) handleExportXLSX(c *gin.Context) {
	t, ok := s.exportTable(c)
	if !ok {
		return
	}
	data, err := table.XLSXBytes(t)
	if err != nil {
		s.abortJSON(c, fmt.Errorf("write workbook: %w", err))
		return
	}
	metrics.RecordExport("xlsx")
	attachment(c, table.XLSXFileName)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
