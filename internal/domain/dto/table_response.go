package dto

import (
	"math"

	"github.com/guttosm/tickerpulse/internal/domain/models"
)

// TableColumn is one named column of a serialized table. Missing cells are
// JSON null (NaN is not representable in JSON).
type TableColumn struct {
	Name   string     `json:"name" example:"AAPL"`
	Values []*float64 `json:"values"`
}

// TableResponse is the JSON shape of a price or returns table.
//
// Fields match the API contract and may differ from internal domain models;
// this keeps the API surface decoupled from business logic.
type TableResponse struct {
	Tickers   []string      `json:"tickers" example:"AAPL,MSFT"`
	Frequency string        `json:"frequency" example:"daily"`
	Index     []string      `json:"index"`
	Columns   []TableColumn `json:"columns"`
}

// NewTableResponse converts a models.Table into its transport shape.
func NewTableResponse(tickers []string, frequency string, t *models.Table) TableResponse {
	resp := TableResponse{
		Tickers:   tickers,
		Frequency: frequency,
		Columns:   []TableColumn{},
	}
	if t == nil {
		return resp
	}

	resp.Index = make([]string, len(t.Index))
	for i, d := range t.Index {
		resp.Index[i] = d.Format("2006-01-02")
	}
	for _, c := range t.Columns {
		if c.Kind != models.ColumnFloat {
			continue
		}
		vals := make([]*float64, len(c.Floats))
		for i, v := range c.Floats {
			if math.IsNaN(v) {
				continue
			}
			f := v
			vals[i] = &f
		}
		resp.Columns = append(resp.Columns, TableColumn{Name: c.Name, Values: vals})
	}
	return resp
}
