package config

import (
	"errors"

	"github.com/ezrec/frameunwind/translate"
)

var f = translate.From

var (
	ErrKeyUnknown     = errors.New(f("configuration key unknown"))
	ErrSourceConflict = errors.New(f("pid and snapshot are exclusive"))
	ErrValue          = errors.New(f("configuration value invalid"))
)
