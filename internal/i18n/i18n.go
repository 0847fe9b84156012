// Package i18n renders the message identifiers signalled by the core into
// localized text.
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"github.com/aoideee/bookshelf/internal/data"
)

// Supported lists the languages with a full message table. The first entry
// is the fallback.
var Supported = []language.Tag{language.English, language.Russian}

var entries = map[language.Tag]map[data.MessageID]string{
	language.English: {
		data.MsgErrorTitle:  "Error",
		data.MsgValidation:  "Title and author must contain at least %d characters",
		data.MsgOK:          "OK",
		data.MsgSave:        "Save",
		data.MsgNotFound:    "The requested book could not be found",
		data.MsgSaveFailed:  "Your changes could not be saved",
		data.MsgServerError: "The server encountered a problem and could not process your request",
		data.MsgAddBook:     "Add book",
		data.MsgEditBook:    "Edit book",
		data.MsgBookList:    "Book list",
		data.MsgDeleted:     "Book successfully deleted",
	},
	language.Russian: {
		data.MsgErrorTitle:  "Ошибка",
		data.MsgValidation:  "Название и автор должны содержать минимум %d символа",
		data.MsgOK:          "OK",
		data.MsgSave:        "Сохранить",
		data.MsgNotFound:    "Книга не найдена",
		data.MsgSaveFailed:  "Не удалось сохранить изменения",
		data.MsgServerError: "Сервер не смог обработать запрос",
		data.MsgAddBook:     "Добавить книгу",
		data.MsgEditBook:    "Редактировать книгу",
		data.MsgBookList:    "Список книг",
		data.MsgDeleted:     "Книга удалена",
	},
}

// Translator resolves message identifiers for a negotiated language.
type Translator struct {
	catalog *catalog.Builder
	matcher language.Matcher
}

// New builds the message catalog for all Supported languages.
func New() (*Translator, error) {
	b := catalog.NewBuilder(catalog.Fallback(Supported[0]))
	for tag, msgs := range entries {
		for id, text := range msgs {
			if err := b.SetString(tag, string(id), text); err != nil {
				return nil, err
			}
		}
	}
	return &Translator{catalog: b, matcher: language.NewMatcher(Supported)}, nil
}

// Match picks the best supported language for an Accept-Language header
// value or a plain tag such as "ru". Unknown input falls back to English.
func (t *Translator) Match(accept string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(tags) == 0 {
		return Supported[0]
	}
	_, idx, _ := t.matcher.Match(tags...)
	return Supported[idx]
}

// Printer returns a Printer bound to the best match for accept.
func (t *Translator) Printer(accept string) *Printer {
	tag := t.Match(accept)
	return &Printer{tag: tag, p: message.NewPrinter(tag, message.Catalog(t.catalog))}
}

// Printer renders messages in one language.
type Printer struct {
	tag language.Tag
	p   *message.Printer
}

// Language returns the negotiated language tag.
func (p *Printer) Language() language.Tag { return p.tag }

// Text renders id. The validation message is filled in with MinLength.
func (p *Printer) Text(id data.MessageID) string {
	if id == data.MsgValidation {
		return p.p.Sprintf(string(id), data.MinLength)
	}
	return p.p.Sprintf(string(id))
}
