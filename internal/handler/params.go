package handler

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/explore-events/internal/model"
)

const defaultPageSize = 10

// list collects a repeated or comma separated query parameter.
func list(q url.Values, key string) []string {
	var out []string
	for _, v := range q[key] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func optBool(q url.Values, key string) (*bool, error) {
	v := q.Get(key)
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, fmt.Errorf("%s must be a boolean", key)
	}
	return &b, nil
}

func optTime(q url.Values, key string) (*time.Time, error) {
	v := q.Get(key)
	if v == "" {
		return nil, nil
	}
	t, err := model.ParseDateTime(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return &t, nil
}

func intParam(q url.Values, key string, def int) (int, error) {
	v := q.Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return n, nil
}

func pageParams(q url.Values) (model.Page, error) {
	from, err := intParam(q, "from", 0)
	if err != nil {
		return model.Page{}, err
	}
	size, err := intParam(q, "size", defaultPageSize)
	if err != nil {
		return model.Page{}, err
	}
	return model.Page{From: from, Size: size}, nil
}

func publicFilter(q url.Values) (model.PublicFilter, error) {
	f := model.PublicFilter{
		Text:       q.Get("text"),
		Categories: list(q, "categories"),
		Sort:       model.SortOrder(strings.ToUpper(q.Get("sort"))),
	}
	var err error
	if f.Paid, err = optBool(q, "paid"); err != nil {
		return f, err
	}
	if f.RangeStart, err = optTime(q, "rangeStart"); err != nil {
		return f, err
	}
	if f.RangeEnd, err = optTime(q, "rangeEnd"); err != nil {
		return f, err
	}
	available, err := optBool(q, "onlyAvailable")
	if err != nil {
		return f, err
	}
	f.OnlyAvailable = available != nil && *available
	f.Page, err = pageParams(q)
	return f, err
}

func adminFilter(q url.Values) (model.AdminFilter, error) {
	f := model.AdminFilter{
		Users:      list(q, "users"),
		Categories: list(q, "categories"),
	}
	for _, s := range list(q, "states") {
		f.States = append(f.States, model.EventState(strings.ToUpper(s)))
	}
	var err error
	if f.RangeStart, err = optTime(q, "rangeStart"); err != nil {
		return f, err
	}
	if f.RangeEnd, err = optTime(q, "rangeEnd"); err != nil {
		return f, err
	}
	f.Page, err = pageParams(q)
	return f, err
}
