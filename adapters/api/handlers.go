package api

import (
	"bytes"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"boxmeta/adapters/excel"
	"boxmeta/adapters/report"
	"boxmeta/app"
	domaincmp "boxmeta/domain/comparison"
	"boxmeta/domain/run"
	"boxmeta/internal/errors"
	"boxmeta/internal/estimation"
	"boxmeta/ports"

	"github.com/go-chi/render"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok", "version": app.CodeVersion})
}

// handleConvert accepts a JSON batch, a CSV sheet or an XLSX workbook and
// answers with the run report in the requested format.
func (a *App) handleConvert(w http.ResponseWriter, r *http.Request) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	var (
		src  ports.GroupSource
		opts *OptionsPayload
	)
	switch mediaType {
	case "", "application/json":
		var req ConvertRequest
		if err := a.decode(r, &req); err != nil {
			a.writeError(w, r, err)
			return
		}
		groups, err := req.RawGroups()
		if err != nil {
			a.writeError(w, r, err)
			return
		}
		src = ports.StaticSource{Groups: groups}
		opts = req.Options
	case "text/csv", xlsxContentType:
		data, err := a.readSheet(r, mediaType)
		if err != nil {
			a.writeError(w, r, err)
			return
		}
		src = ports.StaticSource{Groups: data.Groups, Warnings: data.Warnings}
		opts, err = a.optionsFromQuery(r)
		if err != nil {
			a.writeError(w, r, err)
			return
		}
	default:
		a.writeError(w, r, errors.Unsupported(mediaType))
		return
	}

	a.runAndRender(w, r, src, opts)
}

func (a *App) readSheet(r *http.Request, mediaType string) (*excel.BlockData, error) {
	if mediaType == "text/csv" {
		return excel.ReadCSV(r.Body, a.logger)
	}
	return excel.ReadXLSX(r.Body, a.logger)
}

// handleQuick converts inline comma-separated values
func (a *App) handleQuick(w http.ResponseWriter, r *http.Request) {
	var req QuickRequest
	if err := a.decode(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	groups, err := app.QuickGroups(req.QuickInput())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.runAndRender(w, r, ports.StaticSource{Groups: groups}, req.Options)
}

func (a *App) runAndRender(w http.ResponseWriter, r *http.Request, src ports.GroupSource, override *OptionsPayload) {
	opts, err := override.apply(a.opts)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	svc := app.NewConversionService(opts).WithLogger(a.logger)
	rep, err := svc.ConvertSource(r.Context(), src)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.metrics.ObserveReport(rep)
	a.writeReport(w, r, rep)
}

func (a *App) writeReport(w http.ResponseWriter, r *http.Request, rep *run.Report) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}
	renderer, err := report.New(format, a.language(r))
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := renderer.Render(&buf, rep); err != nil {
		a.writeError(w, r, errors.Wrap(err, "failed to render report"))
		return
	}
	w.Header().Set("Content-Type", renderer.ContentType())
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// handleCompare runs the comparison engine on two explicit samples
func (a *App) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req CompareRequest
	if err := a.decode(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	opts, err := req.Options.apply(a.opts)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	outcome := app.NewConversionService(opts).WithLogger(a.logger).Compare(req.First.Endpoint("first"), req.Second.Endpoint("second"))
	if outcome.Failure != nil {
		render.Status(r, statusFor(errors.GetCode(outcome.Failure), outcome.Failure))
	}
	render.JSON(w, r, outcome)
}

// handleTemplate serves a blank input template
func (a *App) handleTemplate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	cfg := excel.DefaultTemplateConfig().WithLanguage(a.language(r))
	if raw := q.Get("cases"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			a.writeError(w, r, errors.InvalidInput(fmt.Sprintf("cases must be an integer, got %q", raw)))
			return
		}
		cfg.Cases = n
	}

	fileType := strings.ToLower(q.Get("format"))
	if fileType == "" {
		fileType = "csv"
	}
	var buf bytes.Buffer
	if err := excel.WriteTemplateTo(&buf, fileType, cfg); err != nil {
		a.writeError(w, r, err)
		return
	}

	contentType := "text/csv; charset=utf-8"
	if fileType == "xlsx" {
		contentType = xlsxContentType
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="boxplot_template.%s"`, fileType))
	_, _ = buf.WriteTo(w)
}

// language picks the report language: ?lang=, then Accept-Language, then
// the server default
func (a *App) language(r *http.Request) string {
	if lang := r.URL.Query().Get("lang"); lang != "" {
		return lang
	}
	if accept := r.Header.Get("Accept-Language"); accept != "" {
		return accept
	}
	return a.config.Language
}

// decode reads a JSON body and validates it
func (a *App) decode(r *http.Request, v interface{}) error {
	if err := render.DecodeJSON(r.Body, v); err != nil {
		return errors.InvalidInput(fmt.Sprintf("invalid JSON body: %v", err))
	}
	if err := a.validate.Struct(v); err != nil {
		return errors.ValidationError(validationMessage(err))
	}
	return nil
}

// optionsFromQuery reads engine overrides for sheet uploads, which carry no
// JSON options block
func (a *App) optionsFromQuery(r *http.Request) (*OptionsPayload, error) {
	q := r.URL.Query()
	opts := &OptionsPayload{
		Mode:       q.Get("mode"),
		FiveNumber: q.Get("five_number"),
	}
	for key, dst := range map[string]**float64{
		"confidence":  &opts.ConfidenceLevel,
		"correlation": &opts.Correlation,
	} {
		raw := q.Get(key)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, errors.InvalidInput(fmt.Sprintf("%s must be a number, got %q", key, raw))
		}
		*dst = &v
	}
	if err := a.validate.Struct(opts); err != nil {
		return nil, errors.ValidationError(validationMessage(err))
	}
	return opts, nil
}

// apply overlays request options on the server defaults
func (o *OptionsPayload) apply(base app.ConversionOptions) (app.ConversionOptions, error) {
	if o == nil {
		return base, nil
	}
	opts := base
	if o.ConfidenceLevel != nil {
		opts.Comparison.ConfidenceLevel = *o.ConfidenceLevel
	}
	if o.Correlation != nil {
		opts.Comparison.Correlation = *o.Correlation
	}
	if o.Mode != "" {
		mode, err := domaincmp.ParseMode(o.Mode)
		if err != nil {
			return base, errors.InvalidInput(err.Error())
		}
		opts.Mode = mode
	}
	if o.FiveNumber != "" {
		variant, err := estimation.ParseFiveNumberVariant(o.FiveNumber)
		if err != nil {
			return base, errors.InvalidInput(err.Error())
		}
		opts.Formula.FiveNumber = variant
	}
	return opts, nil
}
