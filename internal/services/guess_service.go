// Package services – GuessService
//
// This file implements the guess game: questions are derived once per seed
// (a generated word plus an encyclopedia title/description), shown masked,
// and revealed character by character. A user completes a question when
// every distinct CJK character of the title has been guessed; completion is
// recorded once.
//
// Only today's date (YYYY-MM-DD in the configured zone) generates on first
// access. Any other seed must be generated by an admin beforehand.
package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/Flint2004/infinite-crafting/internal/content"
	"github.com/Flint2004/infinite-crafting/internal/domain"
	"github.com/Flint2004/infinite-crafting/internal/repo"
	"github.com/Flint2004/infinite-crafting/internal/utils"
)

const (
	dateLayout       = "2006-01-02"
	leaderboardLimit = 10
)

// WordSource derives a unique word for a seed.
type WordSource interface {
	Generate(ctx context.Context, seed string) (string, error)
}

// PublicQuestion is a question as shown to a player. The original text and
// the word are only set once the player completed it.
type PublicQuestion struct {
	ID                  uint   `json:"id"`
	SeedString          string `json:"seedString"`
	Title               string `json:"title"`
	Description         string `json:"description"`
	Word                string `json:"word,omitempty"`
	OriginalTitle       string `json:"originalTitle,omitempty"`
	OriginalDescription string `json:"originalDescription,omitempty"`
}

// GuessOutcome tells where a character occurs. Positions are rune indices.
type GuessOutcome struct {
	Character        string `json:"character"`
	IsInTitle        bool   `json:"isInTitle"`
	TitlePositions   []int  `json:"titlePositions"`
	IsInContent      bool   `json:"isInContent"`
	ContentPositions []int  `json:"contentPositions"`
}

// GuessView is a stored guess.
type GuessView struct {
	GuessOutcome
	CreatedAt time.Time `json:"createdAt"`
}

// QuestionView is everything a player sees for a question.
type QuestionView struct {
	Question    PublicQuestion        `json:"question"`
	Guesses     []GuessView           `json:"guesses"`
	Leaderboard []repo.LeaderboardRow `json:"leaderboard"`
	IsCompleted bool                  `json:"isCompleted"`
}

// SubmitResult is the outcome of a single guess.
type SubmitResult struct {
	GuessOutcome
	IsCompleted bool `json:"isCompleted"`
}

// BatchResult is the outcome of a batch of guesses.
type BatchResult struct {
	Results     []GuessOutcome `json:"results"`
	IsCompleted bool           `json:"isCompleted"`
}

// GeneratedSeed is a seed generated by a batch.
type GeneratedSeed struct {
	SeedString string `json:"seedString"`
	Word       string `json:"word"`
	Title      string `json:"title"`
}

// FailedSeed is a seed whose generation failed.
type FailedSeed struct {
	SeedString string `json:"seedString"`
	Error      string `json:"error"`
}

// SkippedSeed is a seed that already had a question.
type SkippedSeed struct {
	SeedString string `json:"seedString"`
	Reason     string `json:"reason"`
}

// BatchGenerateReport summarizes an admin batch generation.
type BatchGenerateReport struct {
	Success []GeneratedSeed `json:"success"`
	Failed  []FailedSeed    `json:"failed"`
	Skipped []SkippedSeed   `json:"skipped"`
}

// Summary renders the report counts for the admin UI.
func (r *BatchGenerateReport) Summary() string {
	return fmt.Sprintf("批量生成完成：成功 %d，失败 %d，跳过 %d", len(r.Success), len(r.Failed), len(r.Skipped))
}

// GuessService runs the guess game.
type GuessService struct {
	DB       *gorm.DB
	Words    WordSource
	Content  content.Router
	Location *time.Location
	Now      func() time.Time

	flight singleflight.Group
}

type generated struct {
	question *domain.GuessQuestion
	created  bool
}

// Today returns today's seed in the configured zone.
func (s *GuessService) Today() string {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	loc := s.Location
	if loc == nil {
		loc = time.Local
	}
	return now().In(loc).Format(dateLayout)
}

// GetOrCreate returns the question for seed, generating it only when seed
// is today's date.
func (s *GuessService) GetOrCreate(ctx context.Context, seed, userID string) (*domain.GuessQuestion, error) {
	tr := otel.Tracer("services/GuessService")
	ctx, span := tr.Start(ctx, "GetOrCreate",
		trace.WithAttributes(
			attribute.String("guess.seed", seed),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	if strings.TrimSpace(seed) == "" {
		return nil, ErrInvalidSeed
	}
	q, err := repo.GetQuestionBySeed(ctx, s.DB, seed)
	if err == nil {
		return q, nil
	}
	if !repo.IsNotFound(err) {
		return nil, err
	}

	today := s.Today()
	if seed != today {
		return nil, fmt.Errorf("%w: only today's date (%s) is generated automatically, other seeds must be generated by an admin", ErrQuestionNotGenerated, today)
	}

	var creator *string
	if userID != "" {
		creator = &userID
	}
	res, err := s.create(ctx, seed, creator, domain.SourceDaily)
	if err != nil {
		return nil, err
	}
	return res.question, nil
}

// Generate creates the question for seed on behalf of an admin. When the
// seed is taken it returns the stored question together with
// ErrQuestionExists.
func (s *GuessService) Generate(ctx context.Context, seed string) (*domain.GuessQuestion, error) {
	tr := otel.Tracer("services/GuessService")
	ctx, span := tr.Start(ctx, "Generate", trace.WithAttributes(attribute.String("guess.seed", seed)))
	defer span.End()

	seed = strings.TrimSpace(seed)
	if seed == "" {
		return nil, ErrInvalidSeed
	}
	if q, err := repo.GetQuestionBySeed(ctx, s.DB, seed); err == nil {
		return q, ErrQuestionExists
	} else if !repo.IsNotFound(err) {
		return nil, err
	}

	res, err := s.create(ctx, seed, nil, domain.SourceAdmin)
	if err != nil {
		return nil, err
	}
	if !res.created {
		return res.question, ErrQuestionExists
	}
	return res.question, nil
}

// BatchGenerate generates every seed, collecting per-seed outcomes.
func (s *GuessService) BatchGenerate(ctx context.Context, seeds []string) *BatchGenerateReport {
	report := &BatchGenerateReport{
		Success: []GeneratedSeed{},
		Failed:  []FailedSeed{},
		Skipped: []SkippedSeed{},
	}
	for _, seed := range seeds {
		q, err := s.Generate(ctx, seed)
		switch {
		case err == nil:
			report.Success = append(report.Success, GeneratedSeed{SeedString: q.SeedString, Word: q.Word, Title: q.Title})
		case errors.Is(err, ErrQuestionExists):
			report.Skipped = append(report.Skipped, SkippedSeed{SeedString: seed, Reason: "题目已存在"})
		default:
			zerolog.Ctx(ctx).Warn().Err(err).Str("seed", seed).Msg("batch question generation failed")
			report.Failed = append(report.Failed, FailedSeed{SeedString: seed, Error: err.Error()})
		}
	}
	return report
}

// create coalesces concurrent generation of one seed.
func (s *GuessService) create(ctx context.Context, seed string, userID *string, source string) (*generated, error) {
	v, err, _ := s.flight.Do(seed, func() (any, error) {
		return s.generate(context.WithoutCancel(ctx), seed, userID, source)
	})
	if err != nil {
		return nil, err
	}
	return v.(*generated), nil
}

func (s *GuessService) generate(ctx context.Context, seed string, userID *string, source string) (*generated, error) {
	lg := zerolog.Ctx(ctx).With().Str("seed", seed).Str("source", source).Logger()

	if q, err := repo.GetQuestionBySeed(ctx, s.DB, seed); err == nil {
		return &generated{question: q}, nil
	} else if !repo.IsNotFound(err) {
		return nil, err
	}

	var (
		word string
		page *content.Content
		err  error
	)
	fetcher := s.Content.For(seed)
	if s.Content.IsSpecial(seed) {
		// The special source picks its own topic; its title is the word.
		page, err = fetcher.Fetch(ctx, "")
		if err != nil {
			return nil, err
		}
		word = page.Title
	} else {
		word, err = s.Words.Generate(ctx, seed)
		if err != nil {
			return nil, err
		}
		page, err = fetcher.Fetch(ctx, word)
		if err != nil {
			return nil, fmt.Errorf("fetch content for %q: %w", word, err)
		}
	}

	q := &domain.GuessQuestion{
		SeedString:  seed,
		Word:        word,
		Title:       page.Title,
		Description: page.Description,
	}
	if err := repo.CreateQuestion(ctx, s.DB, q, userID, source); err != nil {
		if repo.IsDuplicate(err) {
			stored, gerr := repo.GetQuestionBySeed(ctx, s.DB, seed)
			if gerr != nil {
				return nil, gerr
			}
			return &generated{question: stored}, nil
		}
		return nil, err
	}
	guessQuestionsGenerated.WithLabelValues(source).Inc()
	lg.Info().Uint("question_id", q.ID).Str("word", word).Msg("guess question generated")
	return &generated{question: q, created: true}, nil
}

// View builds the masked player view of q.
func (s *GuessService) View(ctx context.Context, q *domain.GuessQuestion, userID string) (*QuestionView, error) {
	records, err := repo.ListGuessRecords(ctx, s.DB, userID, q.ID)
	if err != nil {
		return nil, err
	}
	board, err := repo.Leaderboard(ctx, s.DB, q.ID, leaderboardLimit)
	if err != nil {
		return nil, err
	}
	completed := true
	if _, err := repo.GetGuessResult(ctx, s.DB, userID, q.ID); err != nil {
		if !repo.IsNotFound(err) {
			return nil, err
		}
		completed = false
	}

	view := &QuestionView{
		Question: PublicQuestion{
			ID:          q.ID,
			SeedString:  q.SeedString,
			Title:       utils.MaskText(q.Title),
			Description: utils.MaskText(q.Description),
		},
		Guesses:     make([]GuessView, 0, len(records)),
		Leaderboard: board,
		IsCompleted: completed,
	}
	if completed {
		view.Question.Word = q.Word
		view.Question.OriginalTitle = q.Title
		view.Question.OriginalDescription = q.Description
	}
	for _, r := range records {
		view.Guesses = append(view.Guesses, GuessView{GuessOutcome: outcomeFromRecord(r), CreatedAt: r.CreatedAt})
	}
	return view, nil
}

// Submit records one guessed character.
func (s *GuessService) Submit(ctx context.Context, userID string, questionID uint, character string) (*SubmitResult, error) {
	tr := otel.Tracer("services/GuessService")
	ctx, span := tr.Start(ctx, "Submit",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Int("guess.question_id", int(questionID)),
		),
	)
	defer span.End()

	if !utils.IsSingleRune(character) {
		return nil, ErrInvalidCharacter
	}
	q, err := s.question(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if _, err := repo.GetGuessRecord(ctx, s.DB, userID, q.ID, character); err == nil {
		return nil, ErrAlreadyGuessed
	} else if !repo.IsNotFound(err) {
		return nil, err
	}

	out := classify(q, character)
	if err := s.record(ctx, userID, q.ID, out); err != nil {
		if repo.IsDuplicate(err) {
			return nil, ErrAlreadyGuessed
		}
		return nil, err
	}

	completed, err := s.checkCompletion(ctx, userID, q)
	if err != nil {
		return nil, err
	}
	return &SubmitResult{GuessOutcome: out, IsCompleted: completed}, nil
}

// BatchSubmit records several characters. Entries that are not a single
// character are skipped; characters guessed before report their stored
// result.
func (s *GuessService) BatchSubmit(ctx context.Context, userID string, questionID uint, characters []string) (*BatchResult, error) {
	tr := otel.Tracer("services/GuessService")
	ctx, span := tr.Start(ctx, "BatchSubmit",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Int("guess.question_id", int(questionID)),
			attribute.Int("guess.batch_size", len(characters)),
		),
	)
	defer span.End()

	if len(characters) == 0 {
		return nil, ErrEmptyGuessBatch
	}
	q, err := s.question(ctx, questionID)
	if err != nil {
		return nil, err
	}
	records, err := repo.ListGuessRecords(ctx, s.DB, userID, q.ID)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]GuessOutcome, len(records))
	for _, r := range records {
		seen[r.Character] = outcomeFromRecord(r)
	}

	results := make([]GuessOutcome, 0, len(characters))
	for _, ch := range characters {
		if !utils.IsSingleRune(ch) {
			continue
		}
		if out, ok := seen[ch]; ok {
			results = append(results, out)
			continue
		}
		out := classify(q, ch)
		if err := s.record(ctx, userID, q.ID, out); err != nil {
			if !repo.IsDuplicate(err) {
				return nil, err
			}
			// Recorded by a concurrent request.
			r, gerr := repo.GetGuessRecord(ctx, s.DB, userID, q.ID, ch)
			if gerr != nil {
				return nil, gerr
			}
			out = outcomeFromRecord(*r)
		}
		seen[ch] = out
		results = append(results, out)
	}

	completed, err := s.checkCompletion(ctx, userID, q)
	if err != nil {
		return nil, err
	}
	return &BatchResult{Results: results, IsCompleted: completed}, nil
}

// History lists the questions userID has played.
func (s *GuessService) History(ctx context.Context, userID string) ([]repo.HistoryRow, error) {
	return repo.History(ctx, s.DB, userID)
}

// ListQuestions returns a page of questions with play statistics and the
// total count. Out-of-range paging falls back to the defaults.
func (s *GuessService) ListQuestions(ctx context.Context, page, pageSize int) ([]repo.QuestionStats, int64, error) {
	p := utils.NewPage(page, pageSize)

	total, err := repo.CountQuestions(ctx, s.DB)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []repo.QuestionStats{}, 0, nil
	}
	items, err := repo.ListQuestionStatsPage(ctx, s.DB, p.Offset(), p.Size)
	return items, total, err
}

func (s *GuessService) question(ctx context.Context, id uint) (*domain.GuessQuestion, error) {
	q, err := repo.GetQuestion(ctx, s.DB, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, err
	}
	return q, nil
}

func (s *GuessService) record(ctx context.Context, userID string, questionID uint, out GuessOutcome) error {
	err := repo.CreateGuessRecord(ctx, s.DB, &domain.GuessRecord{
		UserID:           userID,
		QuestionID:       questionID,
		Character:        out.Character,
		IsInTitle:        out.IsInTitle,
		IsInContent:      out.IsInContent,
		TitlePositions:   domain.EncodePositions(out.TitlePositions),
		ContentPositions: domain.EncodePositions(out.ContentPositions),
	})
	if err == nil {
		guessSubmissions.WithLabelValues(strconv.FormatBool(out.IsInTitle || out.IsInContent)).Inc()
	}
	return err
}

// checkCompletion reports whether every distinct CJK character of the
// title is guessed, writing the result row the first time it is.
func (s *GuessService) checkCompletion(ctx context.Context, userID string, q *domain.GuessQuestion) (bool, error) {
	hits, err := repo.TitleHits(ctx, s.DB, userID, q.ID)
	if err != nil {
		return false, err
	}
	guessed := make(map[string]struct{}, len(hits))
	for _, h := range hits {
		guessed[h] = struct{}{}
	}
	for _, ch := range utils.DistinctCJK(q.Title) {
		if _, ok := guessed[ch]; !ok {
			return false, nil
		}
	}

	count, err := repo.CountGuessRecords(ctx, s.DB, userID, q.ID)
	if err != nil {
		return false, err
	}
	wrote, err := repo.CreateGuessResultOnce(ctx, s.DB, &domain.GuessResult{
		UserID:     userID,
		QuestionID: q.ID,
		GuessCount: int(count),
	})
	if err != nil {
		return false, err
	}
	if wrote {
		zerolog.Ctx(ctx).Info().Str("user_id", userID).Uint("question_id", q.ID).Int64("guess_count", count).Msg("guess question completed")
	}
	return true, nil
}

func classify(q *domain.GuessQuestion, ch string) GuessOutcome {
	tp := utils.RunePositions(q.Title, ch)
	cp := utils.RunePositions(q.Description, ch)
	return GuessOutcome{
		Character:        ch,
		IsInTitle:        len(tp) > 0,
		TitlePositions:   tp,
		IsInContent:      len(cp) > 0,
		ContentPositions: cp,
	}
}

func outcomeFromRecord(r domain.GuessRecord) GuessOutcome {
	return GuessOutcome{
		Character:        r.Character,
		IsInTitle:        r.IsInTitle,
		TitlePositions:   domain.DecodePositions(r.TitlePositions),
		IsInContent:      r.IsInContent,
		ContentPositions: domain.DecodePositions(r.ContentPositions),
	}
}
