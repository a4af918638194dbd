// Package services – CraftService
//
// This file implements CraftService, which combines two elements into a
// result element. Results are memoized per canonical pair in the craft
// cache, so a pair is generated at most once; later requests read the cache.
//
// Concurrency: requests for the same uncached pair share one generation
// (singleflight keyed by the canonical pair). Name lookup and minting are
// serialized in-process so convergent names collapse onto one element; the
// unique index on the cache pair guards across processes, and a losing
// writer re-reads the winner's entry.
//
// Observability: Craft is OpenTelemetry-instrumented and every outcome is
// counted in craft_requests_total.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/Flint2004/infinite-crafting/internal/domain"
	"github.com/Flint2004/infinite-crafting/internal/llm"
	"github.com/Flint2004/infinite-crafting/internal/repo"
	"github.com/Flint2004/infinite-crafting/internal/search"
	"github.com/Flint2004/infinite-crafting/internal/utils"
)

// ExampleSource supplies the current few-shot example index.
type ExampleSource interface {
	Examples() search.Index
}

// CraftResult is the outcome of a craft. IsNew is true only for the request
// that minted the element.
type CraftResult struct {
	Element *domain.Element
	IsNew   bool
}

// CraftService crafts elements with memoization.
type CraftService struct {
	DB        *gorm.DB
	Generator llm.Generator
	Examples  ExampleSource

	Mode         domain.LanguageMode
	OrderMatters bool
	FewShotLimit int
	PromptRules  string
	Temperature  float64
	MaxTokens    int

	flight singleflight.Group
	mintMu sync.Mutex
}

// candidate is a validated generation result.
type candidate struct {
	NameCN string `json:"name_cn"`
	NameEN string `json:"name_en"`
	Emoji  string `json:"emoji"`
}

type flightResult struct {
	element *domain.Element
	minted  bool
}

var errCacheRace = errors.New("craft cache entry written concurrently")

// Craft combines firstID and secondID for user.
func (s *CraftService) Craft(ctx context.Context, user *domain.User, firstID, secondID string) (*CraftResult, error) {
	tr := otel.Tracer("services/CraftService")
	ctx, span := tr.Start(ctx, "Craft",
		trace.WithAttributes(
			attribute.String("user.id", user.ID),
			attribute.String("craft.first_id", firstID),
			attribute.String("craft.second_id", secondID),
		),
	)
	defer span.End()

	firstID, secondID = strings.TrimSpace(firstID), strings.TrimSpace(secondID)
	if firstID == "" || secondID == "" {
		return nil, ErrMissingElementIDs
	}

	inputs, err := repo.GetElementsByID(ctx, s.DB, firstID, secondID)
	if err != nil {
		return nil, err
	}
	first, ok1 := inputs[firstID]
	second, ok2 := inputs[secondID]
	if !ok1 || !ok2 {
		return nil, ErrElementNotFound
	}

	pair := domain.NewPair(firstID, secondID, s.OrderMatters)

	if el, err := s.cached(ctx, pair); err != nil {
		return nil, err
	} else if el != nil {
		craftRequests.WithLabelValues(outcomeCacheHit).Inc()
		span.SetAttributes(attribute.String("craft.outcome", outcomeCacheHit))
		return s.finish(ctx, user, el, false)
	}

	// Only the caller whose function runs is the leader of the flight.
	leader := false
	v, err, _ := s.flight.Do(pair.Key(), func() (any, error) {
		leader = true
		return s.generateAndStore(context.WithoutCancel(ctx), user, pair, first, second)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	res := v.(*flightResult)
	return s.finish(ctx, user, res.element, leader && res.minted)
}

// finish records the element in the user's discovered set.
func (s *CraftService) finish(ctx context.Context, user *domain.User, el *domain.Element, isNew bool) (*CraftResult, error) {
	if err := repo.AddUserElement(ctx, s.DB, user.ID, el.ID); err != nil {
		return nil, err
	}
	return &CraftResult{Element: el, IsNew: isNew}, nil
}

// cached returns the cached result for pair, or nil on a miss.
func (s *CraftService) cached(ctx context.Context, pair domain.Pair) (*domain.Element, error) {
	entry, err := repo.FindCraftEntry(ctx, s.DB, pair, !s.OrderMatters)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	el, err := repo.GetElement(ctx, s.DB, entry.ResultElementID)
	if err != nil {
		if repo.IsNotFound(err) {
			// Dangling entry; a miss. The mint transaction replaces the row.
			return nil, nil
		}
		return nil, err
	}
	return el, nil
}

func (s *CraftService) generateAndStore(ctx context.Context, user *domain.User, pair domain.Pair, first, second domain.Element) (*flightResult, error) {
	lg := zerolog.Ctx(ctx).With().Str("first_id", first.ID).Str("second_id", second.ID).Logger()

	// A previous flight may have finished between our lookup and now.
	if el, err := s.cached(ctx, pair); err != nil {
		return nil, err
	} else if el != nil {
		craftRequests.WithLabelValues(outcomeCacheHit).Inc()
		return &flightResult{element: el}, nil
	}

	cand, err := s.generate(ctx, first, second)
	if err != nil {
		craftRequests.WithLabelValues(outcomeFailed).Inc()
		lg.Warn().Err(err).Msg("craft generation failed")
		return nil, err
	}

	s.mintMu.Lock()
	defer s.mintMu.Unlock()

	var res flightResult
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := repo.FindElementByName(ctx, tx, s.Mode, cand.NameCN, cand.NameEN)
		switch {
		case err == nil:
			res.element = existing
		case repo.IsNotFound(err):
			el, err := s.mint(ctx, tx, user, pair, cand)
			if err != nil {
				return err
			}
			res.element, res.minted = el, true
		default:
			return err
		}

		if n, err := repo.DeleteDanglingCraftEntries(ctx, tx, pair, !s.OrderMatters); err != nil {
			return err
		} else if n > 0 {
			lg.Warn().Int64("rows", n).Msg("replacing craft cache entry with missing result")
		}
		if _, err := repo.CreateCraftEntry(ctx, tx, pair, res.element.ID); err != nil {
			if repo.IsDuplicate(err) {
				return errCacheRace
			}
			return err
		}
		return nil
	})
	if errors.Is(err, errCacheRace) {
		lg.Info().Msg("craft cache written by another writer; using its result")
		el, cerr := s.cached(ctx, pair)
		if cerr != nil {
			return nil, cerr
		}
		if el == nil {
			return nil, ErrCraftFailed
		}
		craftRequests.WithLabelValues(outcomeCacheHit).Inc()
		return &flightResult{element: el}, nil
	}
	if err != nil {
		craftRequests.WithLabelValues(outcomeFailed).Inc()
		return nil, err
	}

	if res.minted {
		craftRequests.WithLabelValues(outcomeGenerated).Inc()
		lg.Info().Str("element_id", res.element.ID).Msg("element minted")
	} else {
		craftRequests.WithLabelValues(outcomeReused).Inc()
	}
	return &res, nil
}

// mint inserts a new element and its first-discovery record.
func (s *CraftService) mint(ctx context.Context, tx *gorm.DB, user *domain.User, pair domain.Pair, cand *candidate) (*domain.Element, error) {
	uid := user.ID
	el := &domain.Element{
		ID:             uuid.NewString(),
		NameCN:         cand.NameCN,
		NameEN:         cand.NameEN,
		Emoji:          cand.Emoji,
		DiscovererID:   &uid,
		DiscovererName: user.Username,
		DiscoveredAt:   time.Now().UTC(),
	}
	if err := repo.CreateElement(ctx, tx, el); err != nil {
		return nil, err
	}

	// Savepoint so a duplicate credit does not abort the outer transaction.
	err := tx.Transaction(func(sp *gorm.DB) error {
		return repo.CreateFirstDiscovery(ctx, sp, &domain.FirstDiscovery{
			ElementID:       el.ID,
			FirstElementID:  pair.First,
			SecondElementID: pair.Second,
			UserID:          user.ID,
			Username:        user.Username,
			DiscoveredAt:    el.DiscoveredAt,
		})
	})
	if err != nil {
		if !repo.IsDuplicate(err) {
			return nil, err
		}
		zerolog.Ctx(ctx).Warn().Str("element_id", el.ID).Msg("first discovery already recorded")
	}
	return el, nil
}

// generate calls the model and validates its answer.
func (s *CraftService) generate(ctx context.Context, first, second domain.Element) (*candidate, error) {
	tr := otel.Tracer("services/CraftService")
	ctx, span := tr.Start(ctx, "generate")
	defer span.End()

	start := time.Now()
	text, err := s.Generator.Generate(ctx, s.buildRequest(first, second))
	craftGenerationSeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: %w", ErrCraftFailed, err)
	}
	return parseCandidate(text, s.Mode, first, second)
}

func (s *CraftService) buildRequest(first, second domain.Element) llm.Request {
	system := craftSystemPrompt(s.Mode, first, second)
	if s.PromptRules != "" {
		system += "\n\n" + s.PromptRules
	}

	var msgs []llm.Message
	if s.Examples != nil && s.FewShotLimit > 0 {
		if idx := s.Examples.Examples(); idx != nil {
			query := first.DisplayName(s.Mode) + " " + second.DisplayName(s.Mode)
			for _, r := range idx.TopK(query, s.FewShotLimit) {
				msgs = append(msgs,
					llm.Message{Role: llm.RoleUser, Content: craftUserPrompt(r.Example.First, r.Example.Second)},
					llm.Message{Role: llm.RoleAssistant, Content: exampleAnswer(s.Mode, r.Example)},
				)
			}
		}
	}
	msgs = append(msgs, llm.Message{
		Role:    llm.RoleUser,
		Content: craftUserPrompt(first.DisplayName(s.Mode), second.DisplayName(s.Mode)),
	})

	return llm.Request{
		System:      system,
		Messages:    msgs,
		JSON:        true,
		Temperature: s.Temperature,
		MaxTokens:   s.MaxTokens,
	}
}

func craftSystemPrompt(mode domain.LanguageMode, first, second domain.Element) string {
	var forbidden []string
	for _, el := range []domain.Element{first, second} {
		if mode.UsesCN() && el.NameCN != "" {
			forbidden = append(forbidden, `"`+el.NameCN+`"`)
		}
		if mode.UsesEN() && el.NameEN != "" {
			forbidden = append(forbidden, `"`+el.NameEN+`"`)
		}
	}

	var fields, sample string
	switch mode {
	case domain.LanguageCN:
		fields = "name_cn（中文名）和emoji（一个合适的表情符号）两个字段"
		sample = `{"name_cn": "蒸汽", "emoji": "💨"}`
	case domain.LanguageEN:
		fields = "name_en（英文名）和emoji（一个合适的表情符号）两个字段"
		sample = `{"name_en": "Steam", "emoji": "💨"}`
	default:
		fields = "name_cn（中文名）、name_en（英文翻译）和emoji（一个合适的表情符号）三个字段"
		sample = `{"name_cn": "蒸汽", "name_en": "Steam", "emoji": "💨"}`
	}

	return "你是一个帮助人们通过组合两个元素来创造新事物的助手。" +
		"最重要的规则是：你的答案中绝对不能包含" + strings.Join(forbidden, "、") + "。" +
		"答案必须是一个名词。" +
		"两个元素的顺序不重要，它们同等重要。" +
		"答案必须与两个元素都相关，可以是两个元素的组合产物，或者是它们相互作用的结果。" +
		"答案可以是：物体、材料、人物、动物、职业、食物、地点、情感、事件、概念、自然现象、交通工具、科技、建筑、植物等任何名词。" +
		"请严格按照JSON格式回答，包含" + fields + "。" +
		"示例格式：" + sample
}

func craftUserPrompt(first, second string) string {
	return "请告诉我如果组合“" + first + "”和“" + second + "”会产生什么？答案必须与两个元素都相关，且不能包含原词。直接返回JSON格式的答案。"
}

func exampleAnswer(mode domain.LanguageMode, ex search.Example) string {
	c := candidate{Emoji: ex.Emoji}
	if mode.UsesCN() {
		c.NameCN = ex.ResultCN
	}
	if mode.UsesEN() {
		c.NameEN = ex.ResultEN
	}
	b, _ := json.Marshal(struct {
		NameCN string `json:"name_cn,omitempty"`
		NameEN string `json:"name_en,omitempty"`
		Emoji  string `json:"emoji"`
	}(c))
	return string(b)
}

// parseCandidate decodes and validates a model answer. Any shape problem is
// ErrCraftFailed so the pair stays uncached.
func parseCandidate(text string, mode domain.LanguageMode, first, second domain.Element) (*candidate, error) {
	raw, err := llm.ExtractJSON(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCraftFailed, err)
	}
	var fields map[string]any
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, fmt.Errorf("%w: malformed json", ErrCraftFailed)
	}
	str := func(k string) string {
		v, _ := fields[k].(string)
		return utils.NormalizeName(v)
	}

	c := &candidate{}
	if mode.UsesCN() {
		if c.NameCN = str("name_cn"); c.NameCN == "" {
			return nil, fmt.Errorf("%w: missing name_cn", ErrCraftFailed)
		}
	}
	if mode.UsesEN() {
		if c.NameEN = str("name_en"); c.NameEN == "" {
			return nil, fmt.Errorf("%w: missing name_en", ErrCraftFailed)
		}
		if strings.ToLower(c.NameEN) == c.NameEN {
			c.NameEN = utils.TitleEnglish(c.NameEN)
		}
	}

	for _, in := range []domain.Element{first, second} {
		if mode.UsesCN() && in.NameCN != "" && strings.Contains(c.NameCN, in.NameCN) {
			return nil, fmt.Errorf("%w: result contains input name %q", ErrCraftFailed, in.NameCN)
		}
		if mode.UsesEN() && in.NameEN != "" && strings.Contains(strings.ToLower(c.NameEN), strings.ToLower(in.NameEN)) {
			return nil, fmt.Errorf("%w: result contains input name %q", ErrCraftFailed, in.NameEN)
		}
	}

	c.Emoji = utils.FirstEmoji(str("emoji"))
	if c.Emoji == "" {
		c.Emoji = utils.FirstEmoji(c.NameCN + " " + c.NameEN)
	}
	if c.Emoji == "" {
		c.Emoji = domain.DefaultEmoji
	}
	return c, nil
}
