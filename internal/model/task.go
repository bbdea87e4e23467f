package model

import "time"

// Task はユーザーが所有するタスクを表す。
// CompletedAtはCompletedがtrueのときに限り設定される。OwnerIDは作成後に変更されない。
type Task struct {
	ID          string
	OwnerID     string
	Title       string
	Description string
	Completed   bool
	CreatedAt   time.Time
	CompletedAt *time.Time
	UpdatedAt   time.Time
}
