// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the guess
// game: questions, per-character guess records, completions and the
// read models used by the leaderboard, history and admin listing.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Flint2004/infinite-crafting/internal/domain"
)

// LeaderboardRow is one completed player of a question.
type LeaderboardRow struct {
	Username    string    `json:"username"`
	GuessCount  int       `json:"guess_count"`
	CompletedAt time.Time `json:"completed_at"`
}

// HistoryRow is one question the user has played. Word and Title are only
// populated when the user completed the question.
type HistoryRow struct {
	ID          uint       `json:"id"`
	SeedString  string     `json:"seed_string"`
	Word        *string    `json:"word"`
	Title       *string    `json:"title"`
	GuessCount  *int       `json:"guess_count"`
	CompletedAt *time.Time `json:"completed_at"`
	Attempts    int64      `json:"attempts"`
}

// QuestionStats is a question with its player and completion counts.
type QuestionStats struct {
	domain.GuessQuestion `gorm:"embedded"`
	PlayerCount          int64 `json:"player_count"`
	CompletedCount       int64 `json:"completed_count"`
}

// GetQuestion fetches a question by id.
func GetQuestion(ctx context.Context, db *gorm.DB, id uint) (*domain.GuessQuestion, error) {
	var q domain.GuessQuestion
	if err := db.WithContext(ctx).Where("id = ?", id).First(&q).Error; err != nil {
		return nil, err
	}
	return &q, nil
}

// GetQuestionBySeed fetches a question by its seed string.
func GetQuestionBySeed(ctx context.Context, db *gorm.DB, seed string) (*domain.GuessQuestion, error) {
	var q domain.GuessQuestion
	if err := db.WithContext(ctx).Where("seed_string = ?", seed).First(&q).Error; err != nil {
		return nil, err
	}
	return &q, nil
}

// QuestionWordExists reports whether a question already uses word.
func QuestionWordExists(ctx context.Context, db *gorm.DB, word string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.GuessQuestion{}).Where("word = ?", word).Count(&n).Error
	return n > 0, err
}

// QuestionTitleExists reports whether a question already uses title.
func QuestionTitleExists(ctx context.Context, db *gorm.DB, title string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.GuessQuestion{}).Where("title = ?", title).Count(&n).Error
	return n > 0, err
}

// CreateQuestion inserts q and its creator record in one transaction.
// A taken seed surfaces as a unique-constraint error.
func CreateQuestion(ctx context.Context, db *gorm.DB, q *domain.GuessQuestion, userID *string, source string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if q.CreatedAt.IsZero() {
			q.CreatedAt = time.Now().UTC()
		}
		if err := tx.Create(q).Error; err != nil {
			return err
		}
		return tx.Create(&domain.QuestionCreator{
			QuestionID: q.ID,
			UserID:     userID,
			Source:     source,
			CreatedAt:  q.CreatedAt,
		}).Error
	})
}

// GetQuestionCreator returns who generated a question.
func GetQuestionCreator(ctx context.Context, db *gorm.DB, questionID uint) (*domain.QuestionCreator, error) {
	var c domain.QuestionCreator
	if err := db.WithContext(ctx).Where("question_id = ?", questionID).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// ListGuessRecords returns the user's guesses for a question, oldest first.
func ListGuessRecords(ctx context.Context, db *gorm.DB, userID string, questionID uint) ([]domain.GuessRecord, error) {
	var out []domain.GuessRecord
	err := db.WithContext(ctx).
		Where("user_id = ? AND question_id = ?", userID, questionID).
		Order("created_at asc, id asc").
		Find(&out).Error
	return out, err
}

// GetGuessRecord returns a single guessed character.
func GetGuessRecord(ctx context.Context, db *gorm.DB, userID string, questionID uint, character string) (*domain.GuessRecord, error) {
	var r domain.GuessRecord
	err := db.WithContext(ctx).
		Where("user_id = ? AND question_id = ? AND character = ?", userID, questionID, character).
		First(&r).Error
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// CreateGuessRecord inserts a guess. Repeating a character violates the
// (user_id, question_id, character) unique index.
func CreateGuessRecord(ctx context.Context, db *gorm.DB, r *domain.GuessRecord) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Omit(clause.Associations).Create(r).Error
}

// CountGuessRecords returns how many characters the user guessed.
func CountGuessRecords(ctx context.Context, db *gorm.DB, userID string, questionID uint) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.GuessRecord{}).
		Where("user_id = ? AND question_id = ?", userID, questionID).
		Count(&n).Error
	return n, err
}

// TitleHits returns the distinct characters the user found in the title.
func TitleHits(ctx context.Context, db *gorm.DB, userID string, questionID uint) ([]string, error) {
	var out []string
	err := db.WithContext(ctx).Model(&domain.GuessRecord{}).
		Distinct("character").
		Where("user_id = ? AND question_id = ? AND is_in_title = ?", userID, questionID, true).
		Pluck("character", &out).Error
	return out, err
}

// GetGuessResult returns the user's completion of a question.
func GetGuessResult(ctx context.Context, db *gorm.DB, userID string, questionID uint) (*domain.GuessResult, error) {
	var r domain.GuessResult
	err := db.WithContext(ctx).Where("user_id = ? AND question_id = ?", userID, questionID).First(&r).Error
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// CreateGuessResultOnce inserts the completion unless one exists already.
// It reports whether this call wrote the row.
func CreateGuessResultOnce(ctx context.Context, db *gorm.DB, r *domain.GuessResult) (bool, error) {
	if r.CompletedAt.IsZero() {
		r.CompletedAt = time.Now().UTC()
	}
	res := db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(r)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Leaderboard returns up to limit completions ordered by fewest guesses,
// then earliest completion.
func Leaderboard(ctx context.Context, db *gorm.DB, questionID uint, limit int) ([]LeaderboardRow, error) {
	out := []LeaderboardRow{}
	err := db.WithContext(ctx).
		Table("guess_results AS gr").
		Select("u.username, gr.guess_count, gr.completed_at").
		Joins("JOIN users u ON u.id = gr.user_id").
		Where("gr.question_id = ?", questionID).
		Order("gr.guess_count asc, gr.completed_at asc").
		Limit(limit).
		Scan(&out).Error
	return out, err
}

// History lists the questions the user has guessed on: completed ones first
// (latest completion first), then by question creation time.
func History(ctx context.Context, db *gorm.DB, userID string) ([]HistoryRow, error) {
	out := []HistoryRow{}
	err := db.WithContext(ctx).Raw(`
		SELECT gq.id, gq.seed_string,
		       CASE WHEN gr.id IS NOT NULL THEN gq.word ELSE NULL END AS word,
		       CASE WHEN gr.id IS NOT NULL THEN gq.title ELSE NULL END AS title,
		       gr.guess_count, gr.completed_at,
		       (SELECT COUNT(*) FROM guess_records r WHERE r.user_id = ? AND r.question_id = gq.id) AS attempts
		FROM guess_questions gq
		LEFT JOIN guess_results gr ON gr.question_id = gq.id AND gr.user_id = ?
		WHERE gq.id IN (SELECT DISTINCT question_id FROM guess_records WHERE user_id = ?)
		ORDER BY (gr.id IS NULL) ASC, gr.completed_at DESC, gq.created_at DESC, gq.id DESC`,
		userID, userID, userID).
		Scan(&out).Error
	return out, err
}

// CountQuestions returns the number of generated questions.
func CountQuestions(ctx context.Context, db *gorm.DB) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.GuessQuestion{}).Count(&n).Error
	return n, err
}

// ListQuestionStatsPage returns a page of questions, newest first, with
// player and completion counts.
func ListQuestionStatsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]QuestionStats, error) {
	out := []QuestionStats{}
	err := db.WithContext(ctx).
		Table("guess_questions AS gq").
		Select(`gq.*,
			(SELECT COUNT(DISTINCT r.user_id) FROM guess_records r WHERE r.question_id = gq.id) AS player_count,
			(SELECT COUNT(*) FROM guess_results s WHERE s.question_id = gq.id) AS completed_count`).
		Order("gq.created_at desc, gq.id desc").
		Offset(offset).
		Limit(limit).
		Scan(&out).Error
	return out, err
}
