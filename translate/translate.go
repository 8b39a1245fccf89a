// Package translate renders user visible text through a message catalogue
// matched to the host locale.
package translate

import (
	"log"

	"github.com/jeandeaual/go-locale"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer *message.Printer

func init() {
	locales, err := locale.GetLocales()
	if err != nil {
		log.Printf("frameunwind: locale: %v", err)
	}

	if len(locales) == 0 {
		locales = []string{"en-US"}
	}

	printer = message.NewPrinter(message.MatchLanguage(locales...))
}

// SetLanguage pins the catalogue language, overriding the host locale.
// An unparsable tag leaves the current printer in place.
//
// Only text rendered after the call follows the new language. Sentinel
// errors are rendered once, at package init, so their text stays in the
// host locale. Errors carrying values, such as a faulting address, are
// rendered when Error is called and do follow it.
func SetLanguage(tag string) (err error) {
	lang, err := language.Parse(tag)
	if err != nil {
		return
	}

	printer = message.NewPrinter(lang)
	return
}

// From an en-US Sprintf() format, translate to string.
func From(key message.Reference, args ...any) string {
	return printer.Sprintf(key, args...)
}
