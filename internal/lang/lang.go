// Package lang resolves user supplied language names and BCP 47 tags to the
// English language names used in prompts and menus.
package lang

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// ErrUnknown is returned for input that names no known language.
var ErrUnknown = errors.New("unknown language")

// Language is a resolved target language.
type Language struct {
	Tag  language.Tag
	Name string // English name of the base language, e.g. "Spanish"
}

// Native returns the language's name in itself, e.g. "español".
func (l Language) Native() string {
	return display.Self.Name(l.Tag)
}

func (l Language) String() string { return l.Name }

// Spanish, English and Portuguese are offered by default.
var (
	Spanish    = fromTag(language.Spanish)
	English    = fromTag(language.English)
	Portuguese = fromTag(language.Portuguese)
)

// Defaults returns the languages offered in menus.
func Defaults() []Language {
	return []Language{Spanish, English, Portuguese}
}

// known is searched when the input is a name rather than a tag.
var known = []language.Tag{
	language.Spanish, language.English, language.Portuguese,
	language.French, language.German, language.Italian,
	language.Dutch, language.Russian, language.Japanese,
	language.Korean, language.Chinese, language.Arabic,
	language.Hindi, language.Turkish, language.Polish,
	language.Swedish, language.Greek, language.Hebrew,
	language.Indonesian, language.Vietnamese, language.Thai,
	language.Ukrainian, language.Catalan,
}

// Resolve accepts a BCP 47 tag ("es", "pt-BR") or a language name in
// English or in the language itself ("Spanish", "español").
func Resolve(s string) (Language, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Language{}, fmt.Errorf("resolve language: %w", ErrUnknown)
	}

	if tag, err := language.Parse(s); err == nil && tag != language.Und {
		return fromTag(tag), nil
	}

	for _, tag := range known {
		l := fromTag(tag)
		if strings.EqualFold(s, l.Name) || strings.EqualFold(s, l.Native()) {
			return l, nil
		}
	}

	return Language{}, fmt.Errorf("resolve language %q: %w", s, ErrUnknown)
}

// MustResolve is Resolve for compile-time constants.
func MustResolve(s string) Language {
	l, err := Resolve(s)
	if err != nil {
		panic(err)
	}
	return l
}

func fromTag(tag language.Tag) Language {
	base, _ := tag.Base()
	return Language{
		Tag:  tag,
		Name: display.English.Languages().Name(language.Make(base.String())),
	}
}
