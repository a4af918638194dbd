package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/Flint2004/infinite-crafting/internal/llm"
	"github.com/Flint2004/infinite-crafting/internal/repo"
	"github.com/Flint2004/infinite-crafting/internal/utils"
)

const (
	hanziMin = 0x4E00
	hanziMax = 0x9FFF

	wordTemperature = 0.8
	wordMaxTokens   = 50
)

// SeedHanzi derives four CJK characters from the SHA-256 of seed. They are
// the association hint given to the model.
func SeedHanzi(seed string) string {
	sum := sha256.Sum256([]byte(seed))
	h := hex.EncodeToString(sum[:])
	var b strings.Builder
	for i := 0; i < 16; i += 4 {
		n, _ := strconv.ParseUint(h[i:i+4], 16, 32)
		b.WriteRune(rune(hanziMin + n%(hanziMax-hanziMin)))
	}
	return b.String()
}

// WordGenerator asks the model for an encyclopedia term and retries until
// the term is not used by any stored question.
type WordGenerator struct {
	DB        *gorm.DB
	Generator llm.Generator
	Retries   int
}

// Generate returns a word unused by existing questions.
func (w *WordGenerator) Generate(ctx context.Context, seed string) (string, error) {
	lg := zerolog.Ctx(ctx).With().Str("seed", seed).Logger()
	retries := w.Retries
	if retries < 1 {
		retries = 1
	}
	hint := SeedHanzi(seed)

	var exclude []string
	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		word, err := w.ask(ctx, hint, exclude)
		if err != nil {
			lastErr = err
			lg.Warn().Err(err).Int("attempt", attempt).Msg("word generation failed")
			continue
		}
		taken, err := repo.QuestionWordExists(ctx, w.DB, word)
		if err != nil {
			return "", err
		}
		if !taken {
			lg.Info().Str("word", word).Int("attempt", attempt).Msg("word generated")
			return word, nil
		}
		lg.Info().Str("word", word).Int("attempt", attempt).Msg("word already used, retrying")
		exclude = append(exclude, word)
	}
	if lastErr != nil {
		return "", fmt.Errorf("%w: %w", ErrWordGeneration, lastErr)
	}
	return "", ErrWordGeneration
}

func (w *WordGenerator) ask(ctx context.Context, hint string, exclude []string) (string, error) {
	out, err := w.Generator.Generate(ctx, llm.Request{
		System:      wordSystemPrompt(exclude),
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: "参考这些汉字：" + hint + "\n请生成一个合适的百科词条（纯中文，2-6个字）："}},
		Temperature: wordTemperature,
		MaxTokens:   wordMaxTokens,
	})
	if err != nil {
		return "", err
	}
	word := utils.FirstCJKRun(out)
	if word == "" {
		return "", errors.New("model reply contains no Chinese term")
	}
	return word, nil
}

func wordSystemPrompt(exclude []string) string {
	var b strings.Builder
	b.WriteString("你是一个百科词条生成器。你需要根据提供的汉字联想，生成一个真实存在的、在百度百科中可以找到的常见词汇或概念。\n")
	b.WriteString("要求：\n")
	b.WriteString("1. 生成的词汇必须是真实存在的、常见的词条\n")
	b.WriteString("2. 必须是纯中文（2-6个字）\n")
	b.WriteString("3. 尽可能与提供的汉字有某种联系（谐音、字形、意义相关等）\n")
	b.WriteString("4. 只返回词汇本身，不要任何解释\n")
	b.WriteString("5. 优先选择日常生活中常见的事物、概念或名词")
	if len(exclude) > 0 {
		b.WriteString("\n注意：以下词汇已被使用，请不要生成：")
		b.WriteString(strings.Join(exclude, "、"))
	}
	return b.String()
}
