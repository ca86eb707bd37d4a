package api

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/warp/loan-insights/loan"
	"github.com/warp/loan-insights/pipeline"
)

// =============================================================================
// QUERY PARSING - ?start=&end=&reason=&reason=
// =============================================================================

const defaultPageLimit = 100

// FilterQuery is the query-string form of pipeline.FilterSpec.
//
// An absent reason parameter selects every reason (the control default).
// A present but empty one (?reason=) selects none.
type FilterQuery struct {
	Start   string   `json:"start" validate:"omitempty,datetime=2006-01-02"`
	End     string   `json:"end" validate:"omitempty,datetime=2006-01-02"`
	Reasons []string `json:"reason" validate:"dive,max=200"`

	reasonsGiven bool
}

// PageQuery selects a window of the explore table.
type PageQuery struct {
	Limit  int `json:"limit" validate:"gte=1,lte=1000"`
	Offset int `json:"offset" validate:"gte=0"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func parseFilterQuery(r *http.Request) FilterQuery {
	q := r.URL.Query()
	fq := FilterQuery{
		Start: strings.TrimSpace(q.Get("start")),
		End:   strings.TrimSpace(q.Get("end")),
	}
	values, given := q["reason"]
	fq.reasonsGiven = given
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			fq.Reasons = append(fq.Reasons, v)
		}
	}
	return fq
}

func parsePageQuery(r *http.Request) (PageQuery, error) {
	q := r.URL.Query()
	p := PageQuery{Limit: defaultPageLimit}
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return p, fmt.Errorf("limit: %w", err)
		}
		p.Limit = n
	}
	if s := q.Get("offset"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return p, fmt.Errorf("offset: %w", err)
		}
		p.Offset = n
	}
	return p, nil
}

// toSpec converts a validated query into a FilterSpec for base.
func (fq FilterQuery) toSpec(base *pipeline.Base) (pipeline.FilterSpec, error) {
	spec := base.DefaultFilter()
	if fq.reasonsGiven {
		spec.Reasons = loan.NewReasonSet(fq.Reasons...)
	}
	if fq.Start != "" {
		d, err := loan.ParseDate(loan.DefaultDateLayout, fq.Start)
		if err != nil {
			return spec, fmt.Errorf("start: %w", err)
		}
		spec.Start = &d
	}
	if fq.End != "" {
		d, err := loan.ParseDate(loan.DefaultDateLayout, fq.End)
		if err != nil {
			return spec, fmt.Errorf("end: %w", err)
		}
		spec.End = &d
	}
	return spec, nil
}

// validationDetails flattens validator errors into field -> rule.
func validationDetails(err error) any {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		details[fe.Field()] = fe.Tag()
	}
	return details
}
