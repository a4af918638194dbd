package domain

import (
	"strconv"
	"strings"
	"time"
)

// Question creation sources.
const (
	SourceDaily = "daily"
	SourceAdmin = "admin"
)

// GuessQuestion is one round of the guess game, derived once from a seed.
type GuessQuestion struct {
	ID          uint      `json:"id"          gorm:"primaryKey;autoIncrement"`
	SeedString  string    `json:"seed_string" gorm:"type:varchar(128);not null;uniqueIndex:ux_guess_questions_seed"`
	Word        string    `json:"word"        gorm:"type:varchar(128);not null;index"`
	Title       string    `json:"title"       gorm:"type:varchar(255);not null;index"`
	Description string    `json:"description" gorm:"type:text;not null"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName returns the database table name for GuessQuestion.
func (GuessQuestion) TableName() string { return "guess_questions" }

// GuessRecord stores one guessed character of a user for a question.
// Positions are rune indices, comma-separated.
type GuessRecord struct {
	ID               uint      `json:"-"                 gorm:"primaryKey;autoIncrement"`
	UserID           string    `json:"-"                 gorm:"type:char(36);not null;uniqueIndex:ux_guess_record,priority:1"`
	QuestionID       uint      `json:"-"                 gorm:"not null;uniqueIndex:ux_guess_record,priority:2;index"`
	Character        string    `json:"character"         gorm:"type:varchar(8);not null;uniqueIndex:ux_guess_record,priority:3"`
	IsInTitle        bool      `json:"is_in_title"       gorm:"not null;default:false"`
	IsInContent      bool      `json:"is_in_content"     gorm:"not null;default:false"`
	TitlePositions   string    `json:"position"          gorm:"type:text;not null;default:''"`
	ContentPositions string    `json:"content_position"  gorm:"type:text;not null;default:''"`
	CreatedAt        time.Time `json:"created_at"`

	Question GuessQuestion `json:"-" gorm:"foreignKey:QuestionID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for GuessRecord.
func (GuessRecord) TableName() string { return "guess_records" }

// GuessResult is the completion of a question by a user, written once.
type GuessResult struct {
	ID          uint      `json:"-"            gorm:"primaryKey;autoIncrement"`
	UserID      string    `json:"user_id"      gorm:"type:char(36);not null;uniqueIndex:ux_guess_result,priority:1"`
	QuestionID  uint      `json:"question_id"  gorm:"not null;uniqueIndex:ux_guess_result,priority:2;index:idx_guess_leaderboard,priority:1"`
	GuessCount  int       `json:"guess_count"  gorm:"not null;index:idx_guess_leaderboard,priority:2"`
	CompletedAt time.Time `json:"completed_at" gorm:"index:idx_guess_leaderboard,priority:3"`

	Question GuessQuestion `json:"-" gorm:"foreignKey:QuestionID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for GuessResult.
func (GuessResult) TableName() string { return "guess_results" }

// QuestionCreator records who caused a question to be generated.
// UserID is nil for admin-generated questions.
type QuestionCreator struct {
	ID         uint      `json:"-"           gorm:"primaryKey;autoIncrement"`
	QuestionID uint      `json:"question_id" gorm:"not null;uniqueIndex:ux_question_creator"`
	UserID     *string   `json:"user_id"     gorm:"type:char(36)"`
	Source     string    `json:"source"      gorm:"type:varchar(16);not null;check:source IN ('daily','admin')"`
	CreatedAt  time.Time `json:"created_at"`

	Question GuessQuestion `json:"-" gorm:"foreignKey:QuestionID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for QuestionCreator.
func (QuestionCreator) TableName() string { return "question_creators" }

// EncodePositions joins rune indices as "1,4,7".
func EncodePositions(ps []int) string {
	if len(ps) == 0 {
		return ""
	}
	parts := make([]string, len(ps))
	for i, p := range ps {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ",")
}

// DecodePositions parses the output of EncodePositions. Malformed parts are
// skipped; the result is never nil.
func DecodePositions(s string) []int {
	out := []int{}
	if s == "" {
		return out
	}
	for _, p := range strings.Split(s, ",") {
		if n, err := strconv.Atoi(strings.TrimSpace(p)); err == nil {
			out = append(out, n)
		}
	}
	return out
}
