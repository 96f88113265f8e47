// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package translate renders user visible messages in the caller's locale.
package translate

import (
	"errors"
	"log"

	"github.com/jeandeaual/go-locale"

	"golang.org/x/text/message"
)

var printer *message.Printer

func init() {
	locales, err := locale.GetLocales()
	if err != nil {
		log.Printf("uvm: locale: %v", err)
	}

	Use(locales...)
}

// Use selects the message printer for the first supported language in
// langs, falling back to en-US.
func Use(langs ...string) {
	if len(langs) == 0 {
		langs = []string{"en-US"}
	}

	printer = message.NewPrinter(message.MatchLanguage(langs...))
}

// From an en-US Sprintf() format, translate to string.
func From(key message.Reference, args ...any) string {
	return printer.Sprintf(key, args...)
}

// Error creates a new error whose text is translated from an en-US key.
func Error(key message.Reference, args ...any) error {
	return errors.New(From(key, args...))
}
