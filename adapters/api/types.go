package api

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"boxmeta/app"
	"boxmeta/domain/boxplot"
	domaincmp "boxmeta/domain/comparison"
	"boxmeta/domain/core"
	"boxmeta/internal/errors"
	"boxmeta/internal/i18n"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

// ConvertRequest is the JSON body of POST /api/convert
type ConvertRequest struct {
	Groups  []GroupPayload  `json:"groups" validate:"required,min=1,dive"`
	Options *OptionsPayload `json:"options,omitempty"`
}

// GroupPayload is one group of a JSON batch. An empty role is inferred from
// the label the same way sheet headers are read.
type GroupPayload struct {
	Label string        `json:"label" validate:"required"`
	Role  string        `json:"role,omitempty" validate:"omitempty,oneof=baseline intervention other"`
	Cases []CasePayload `json:"cases" validate:"required,min=1,dive"`
}

// CasePayload carries one case. Values are keyed by field name in either
// language ("q1", "Upper_Whisker", "样本量") and may be numbers or strings.
type CasePayload struct {
	Label  string                     `json:"label" validate:"required"`
	Values map[string]json.RawMessage `json:"values" validate:"required"`
}

// OptionsPayload overrides the server's engine settings for one request
type OptionsPayload struct {
	ConfidenceLevel *float64 `json:"confidence_level,omitempty" validate:"omitempty,gt=0,lt=1"`
	Correlation     *float64 `json:"correlation,omitempty" validate:"omitempty,gte=-1,lte=1"`
	Mode            string   `json:"mode,omitempty"`
	FiveNumber      string   `json:"five_number,omitempty"`
}

// QuickRequest is the JSON body of POST /api/quick
type QuickRequest struct {
	Q1           string          `json:"q1" validate:"required"`
	Q2           string          `json:"q2" validate:"required"`
	Q3           string          `json:"q3" validate:"required"`
	Lower        string          `json:"lower,omitempty"`
	Upper        string          `json:"upper,omitempty"`
	LowerOutlier string          `json:"lower_outlier,omitempty"`
	UpperOutlier string          `json:"upper_outlier,omitempty"`
	N1           int             `json:"n1" validate:"required,gt=0"`
	N2           int             `json:"n2,omitempty" validate:"gte=0"`
	Options      *OptionsPayload `json:"options,omitempty"`
}

// QuickInput converts the request for the quick builder
func (q QuickRequest) QuickInput() app.QuickInput {
	return app.QuickInput{
		Q1: q.Q1, Q2: q.Q2, Q3: q.Q3,
		Lower: q.Lower, Upper: q.Upper,
		LowerOutlier: q.LowerOutlier, UpperOutlier: q.UpperOutlier,
		N1: q.N1, N2: q.N2,
	}
}

// CompareRequest is the JSON body of POST /api/compare. The difference is
// first minus second.
type CompareRequest struct {
	First   SamplePayload   `json:"first" validate:"required"`
	Second  SamplePayload   `json:"second" validate:"required"`
	Options *OptionsPayload `json:"options,omitempty"`
}

// SamplePayload is one side of a comparison
type SamplePayload struct {
	Label string   `json:"label,omitempty"`
	Mean  *float64 `json:"mean" validate:"required"`
	SD    *float64 `json:"sd" validate:"required,gte=0"`
	N     int      `json:"n" validate:"required,gt=0"`
}

// Endpoint converts the payload; fallback names an unlabelled side
func (s SamplePayload) Endpoint(fallback string) domaincmp.Endpoint {
	label := s.Label
	if label == "" {
		label = fallback
	}
	ep := domaincmp.Endpoint{Group: core.GroupLabel(label), Case: "-", Sample: domaincmp.Sample{N: s.N}}
	if s.Mean != nil {
		ep.Mean = *s.Mean
	}
	if s.SD != nil {
		ep.SD = *s.SD
	}
	return ep
}

// RawGroups maps the payload to canonical raw groups
func (c ConvertRequest) RawGroups() ([]boxplot.RawGroup, error) {
	groups := make([]boxplot.RawGroup, 0, len(c.Groups))
	for _, g := range c.Groups {
		role, err := roleFor(g.Label, g.Role)
		if err != nil {
			return nil, err
		}
		group := boxplot.RawGroup{Label: core.GroupLabel(strings.TrimSpace(g.Label)), Role: role}
		seen := make(map[core.CaseLabel]bool, len(g.Cases))
		for _, cp := range g.Cases {
			label := core.CaseLabel(strings.TrimSpace(cp.Label))
			if seen[label] {
				return nil, errors.InvalidInput(fmt.Sprintf("case %s appears twice in group %s", label, group.Label))
			}
			seen[label] = true

			record, err := recordFrom(cp.Values)
			if err != nil {
				return nil, errors.InvalidInput(fmt.Sprintf("group %q case %q: %v", g.Label, cp.Label, err))
			}
			group.Cases = append(group.Cases, boxplot.RawCase{Label: label, Record: record})
		}
		groups = append(groups, group)
	}
	return groups, nil
}

// recordFrom maps keys in either language onto fields; two keys naming the
// same field are rejected
func recordFrom(values map[string]json.RawMessage) (boxplot.RawRecord, error) {
	record := make(boxplot.RawRecord, len(values))
	keys := make(map[boxplot.Field]string, len(values))
	for key, raw := range values {
		field, ok := boxplot.ParseField(key)
		if !ok {
			field, ok = i18n.ParseFieldLabel(key)
		}
		if !ok {
			return nil, fmt.Errorf("unknown field %q", key)
		}
		if prev, dup := keys[field]; dup {
			first, second := prev, key
			if second < first {
				first, second = second, first
			}
			return nil, fmt.Errorf("keys %q and %q both set %s", first, second, field)
		}
		keys[field] = key
		text, err := rawText(raw)
		if err != nil {
			return nil, fmt.Errorf("field %q: %v", key, err)
		}
		record[field] = text
	}
	return record, nil
}

// rawText keeps numbers verbatim and unquotes strings; null means absent
func rawText(raw json.RawMessage) (string, error) {
	trimmed := strings.TrimSpace(string(raw))
	switch {
	case trimmed == "null" || trimmed == "":
		return "", nil
	case strings.HasPrefix(trimmed, `"`):
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	if _, err := strconv.ParseFloat(trimmed, 64); err != nil {
		return "", fmt.Errorf("expected a number or string, got %s", trimmed)
	}
	return trimmed, nil
}

func roleFor(label, role string) (boxplot.GroupRole, error) {
	switch boxplot.GroupRole(strings.ToLower(strings.TrimSpace(role))) {
	case boxplot.RoleBaseline:
		return boxplot.RoleBaseline, nil
	case boxplot.RoleIntervention:
		return boxplot.RoleIntervention, nil
	case boxplot.RoleOther:
		return boxplot.RoleOther, nil
	case "":
		if inferred, ok := i18n.ParseGroupHeader(label); ok {
			return inferred, nil
		}
		return boxplot.RoleOther, nil
	}
	return "", errors.InvalidInput(fmt.Sprintf("group %q: unknown role %q", label, role))
}

// ErrorResponse is the body of every non-2xx answer
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (a *App) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	status := statusFor(code, err)
	if status >= http.StatusInternalServerError {
		a.logger.Error("[API] %s %s failed: %v", r.Method, r.URL.Path, err)
	} else {
		a.logger.Debug("[API] %s %s rejected: %v", r.Method, r.URL.Path, err)
	}

	msg := err.Error()
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		msg = appErr.Message
	}
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Code: code, Message: msg})
}

func statusFor(code string, err error) int {
	if core.IsValidationError(err) || core.IsComparisonError(err) {
		return http.StatusUnprocessableEntity
	}
	switch code {
	case errors.CodeInvalidInput, errors.CodeValidationError:
		return http.StatusBadRequest
	case errors.CodeUnsupported:
		return http.StatusUnsupportedMediaType
	case errors.CodeNotFound:
		return http.StatusNotFound
	}
	var maxErr *http.MaxBytesError
	if stderrors.As(err, &maxErr) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusInternalServerError
}

// validationMessage flattens validator errors into one line
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s failed %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}
