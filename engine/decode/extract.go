package decode

import (
	"errors"

	"github.com/WessleyAI/vincheck/engine/domain"
	"github.com/WessleyAI/vincheck/engine/vpic"
)

// vPIC variable ids read by Extract.
const (
	VarBodyClass    = 5
	VarEngineModel  = 18
	VarMake         = 26
	VarModel        = 28
	VarModelYear    = 29
	VarSeries       = 34
	VarPlantCountry = 75
	VarPlantState   = 76
	VarSeries2      = 109
	VarTrim         = 110
)

// ErrUnresolved means neither Make nor Model could be read from the result set.
var ErrUnresolved = errors.New("decode: make and model unresolved")

// TrimChain is the fallback order for Trim: named variables first, then ids.
var TrimChain = []Key{
	Name("Trim"),
	Name("Series"),
	Name("Series2"),
	Name("Trim2"),
	ID(VarTrim),
	ID(VarSeries),
	ID(VarSeries2),
}

// Extract normalizes a decode result set. Missing attributes become
// domain.NotAvailable; callers check Resolved before publishing.
func Extract(results []vpic.DecodeResult) domain.VehicleSummary {
	f := Fields(results)
	na := domain.NotAvailable
	return domain.VehicleSummary{
		Make:         f.Or(na, ID(VarMake)),
		Model:        f.Or(na, ID(VarModel)),
		ModelYear:    f.Or(na, ID(VarModelYear)),
		EngineModel:  f.Or(na, ID(VarEngineModel)),
		BodyClass:    f.Or(na, ID(VarBodyClass)),
		Trim:         f.Or(na, TrimChain...),
		PlantCountry: f.Or(na, ID(VarPlantCountry)),
		PlantState:   f.Or(na, ID(VarPlantState)),
	}
}

// Summarize extracts the summary and enforces that Make or Model resolved.
func Summarize(results []vpic.DecodeResult) (domain.VehicleSummary, error) {
	s := Extract(results)
	if !s.Resolved() {
		return domain.VehicleSummary{}, ErrUnresolved
	}
	return s, nil
}
