package upstream

import (
	"net/url"
	"strings"
)

// Filters - параметры запроса списка. Пустые значения не попадают в query.
type Filters map[string]string

func (f Filters) Values() url.Values {
	v := url.Values{}
	for key, value := range f {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		v.Set(key, value)
	}
	return v
}
