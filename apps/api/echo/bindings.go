package echoapi

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/parishdesk/parishdesk/core"
	"github.com/parishdesk/parishdesk/core/wizard"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

// Bind parses `?ordering=name,-created_at` into ascending/descending orderings.
func (ord *Ordering) Bind(ctx echo.Context) {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}

	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// stepParam reads the `:step` path param.
func stepParam(ctx echo.Context) (int, error) {
	id, err := strconv.Atoi(ctx.Param("step"))
	if err != nil || !wizard.ValidStep(id) {
		return 0, errors.WithStack(wizard.ErrUnknownStep)
	}
	return id, nil
}
