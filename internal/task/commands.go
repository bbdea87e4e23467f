package task

import (
	"strings"
	"unicode/utf8"

	"github.com/hitoshi/todolist/internal/model"
	"github.com/hitoshi/todolist/internal/security"
)

const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 2000
)

// CreateCommand はタスク作成の入力。
type CreateCommand struct {
	Title       string
	Description string
}

// Validate は前後の空白を除いたうえで必須項目・マークアップの有無・長さを検証する。
// 違反は*model.APIErrorで返す。それ以外の入力は書き換えない。
func (c *CreateCommand) Validate(d security.MarkupDetector) error {
	title, description, err := validateContent(d, c.Title, c.Description)
	if err != nil {
		return err
	}
	c.Title, c.Description = title, description
	return nil
}

// EditCommand はタスク編集の入力。タイトルと説明のみを変更できる。
type EditCommand struct {
	Title       string
	Description string
}

// Validate はCreateCommandと同じ規則で検証する。
func (c *EditCommand) Validate(d security.MarkupDetector) error {
	title, description, err := validateContent(d, c.Title, c.Description)
	if err != nil {
		return err
	}
	c.Title, c.Description = title, description
	return nil
}

func validateContent(d security.MarkupDetector, title, description string) (string, string, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)

	switch {
	case title == "":
		return "", "", model.NewInvalidTaskError("El título es obligatorio")
	case description == "":
		return "", "", model.NewInvalidTaskError("La descripción es obligatoria")
	case d.ContainsMarkup(title):
		return "", "", model.NewInvalidTaskError("No se permite HTML en el título")
	case d.ContainsMarkup(description):
		return "", "", model.NewInvalidTaskError("No se permite HTML en la descripción")
	case utf8.RuneCountInString(title) > MaxTitleLength:
		return "", "", model.NewInvalidTaskError("El título es demasiado largo")
	case utf8.RuneCountInString(description) > MaxDescriptionLength:
		return "", "", model.NewInvalidTaskError("La descripción es demasiado larga")
	}
	return title, description, nil
}
