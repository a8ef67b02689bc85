// Package vectorutils is the vector index utility package
package vectorutils

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/probitylab/screener/pkg/vector"
	"github.com/probitylab/screener/pkg/vector/flat"
	"github.com/probitylab/screener/pkg/vector/sqlitevec"
)

type NewIndexOpts struct {
	Provider   string
	Dimensions int
	DBPath     string
	Logger     *zap.Logger
}

func NewIndex(o *NewIndexOpts) (vector.Index, error) {
	switch o.Provider {
	case "flat", "":
		return flat.NewIndex(o.Dimensions, o.Logger)
	case "sqlite-vec":
		return sqlitevec.NewIndex(sqlitevec.Config{
			DBPath:     o.DBPath,
			Dimensions: o.Dimensions,
		}, o.Logger)
	default:
		return nil, fmt.Errorf("unsupported vector index provider: %s", o.Provider)
	}
}
