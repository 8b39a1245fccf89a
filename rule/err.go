package rule

import (
	"errors"

	"github.com/ezrec/frameunwind/translate"
)

var f = translate.From

var (
	// Rule evaluation errors
	ErrUndefinedRegister = errors.New(f("undefined register"))
	ErrCFASelfReference  = errors.New(f("cfa rule references the cfa"))
	ErrRuleKind          = errors.New(f("rule kind invalid"))
)
