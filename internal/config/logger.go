package config

import (
	"go.uber.org/zap"
)

// NewLogger returns the application logger. Debug selects zap's development
// console encoder, otherwise the production JSON encoder is used.
func NewLogger(debug bool) (*zap.SugaredLogger, error) {
	var (
		l   *zap.Logger
		err error
	)
	if debug {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}
