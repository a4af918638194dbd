// Package services – PresetService
//
// This file implements PresetService, which seeds base elements and canned
// recipes from a preset file (JSON, or YAML for .yaml/.yml) and maintains the
// few-shot example snapshot used by CraftService. The snapshot is immutable
// and swapped atomically on every load.
//
// Reload is destructive: craft cache, discovery credits, non-base elements and
// discovered-set rows pointing at them are deleted before reseeding, all in
// one transaction.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/Flint2004/infinite-crafting/internal/domain"
	"github.com/Flint2004/infinite-crafting/internal/repo"
	"github.com/Flint2004/infinite-crafting/internal/search"
	"github.com/Flint2004/infinite-crafting/internal/utils"
)

// PresetElement describes an element in a preset file.
type PresetElement struct {
	ID     string `json:"id,omitempty"   yaml:"id,omitempty"`
	NameCN string `json:"name_cn"        yaml:"name_cn"`
	NameEN string `json:"name_en"        yaml:"name_en"`
	Emoji  string `json:"emoji"          yaml:"emoji"`
}

// PresetRecipe is a canned craft. First and Second reference an element id
// or an active-mode name.
type PresetRecipe struct {
	First   string        `json:"first"   yaml:"first"`
	Second  string        `json:"second"  yaml:"second"`
	Result  PresetElement `json:"result"  yaml:"result"`
	Example bool          `json:"example" yaml:"example"`
}

// PresetFile is the on-disk preset document.
type PresetFile struct {
	BaseElements []PresetElement `json:"baseElements" yaml:"baseElements"`
	Recipes      []PresetRecipe  `json:"recipes"      yaml:"recipes"`
}

// LoadStats summarizes a load.
type LoadStats struct {
	BaseElements int `json:"baseElements"`
	Recipes      int `json:"recipes"`
	Skipped      int `json:"skipped"`
	Examples     int `json:"examples"`
}

// DefaultBaseElements is the base set used when no preset supplies one.
func DefaultBaseElements() []PresetElement {
	return []PresetElement{
		{ID: "base_metal", NameCN: "金", NameEN: "Metal", Emoji: "⚙️"},
		{ID: "base_wood", NameCN: "木", NameEN: "Wood", Emoji: "🌲"},
		{ID: "base_water", NameCN: "水", NameEN: "Water", Emoji: "💧"},
		{ID: "base_fire", NameCN: "火", NameEN: "Fire", Emoji: "🔥"},
		{ID: "base_earth", NameCN: "土", NameEN: "Earth", Emoji: "🌍"},
	}
}

// ReadPresetFile decodes path. A missing file returns (nil, nil).
func ReadPresetFile(path string) (*PresetFile, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var pf PresetFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &pf)
	default:
		err = json.Unmarshal(b, &pf)
	}
	if err != nil {
		return nil, fmt.Errorf("decode preset %s: %w", path, err)
	}
	return &pf, nil
}

type exampleSnapshot struct {
	index search.Index
}

// PresetService loads presets and owns the few-shot snapshot.
type PresetService struct {
	DB           *gorm.DB
	Path         string
	Mode         domain.LanguageMode
	OrderMatters bool

	mu       sync.Mutex // serializes Load/Reload
	examples atomic.Pointer[exampleSnapshot]
}

// Examples returns the current few-shot index (never nil).
func (s *PresetService) Examples() search.Index {
	if snap := s.examples.Load(); snap != nil {
		return snap.index
	}
	return search.NewExampleIndex(nil)
}

// Load seeds base elements and recipes. It is idempotent.
func (s *PresetService) Load(ctx context.Context) (*LoadStats, error) {
	tr := otel.Tracer("services/PresetService")
	ctx, span := tr.Start(ctx, "Load", trace.WithAttributes(attribute.String("preset.path", s.Path)))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	pf, err := ReadPresetFile(s.Path)
	if err != nil {
		return nil, err
	}
	var stats *LoadStats
	var examples []search.Example
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stats, examples, err = s.seed(ctx, tx, pf)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.examples.Store(&exampleSnapshot{index: search.NewExampleIndex(examples)})
	return stats, nil
}

// Reload wipes crafted state and loads presets again, atomically.
func (s *PresetService) Reload(ctx context.Context) (*LoadStats, error) {
	tr := otel.Tracer("services/PresetService")
	ctx, span := tr.Start(ctx, "Reload", trace.WithAttributes(attribute.String("preset.path", s.Path)))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	pf, err := ReadPresetFile(s.Path)
	if err != nil {
		return nil, err
	}
	var stats *LoadStats
	var examples []search.Example
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.ResetCraftState(ctx, tx); err != nil {
			return err
		}
		stats, examples, err = s.seed(ctx, tx, pf)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.examples.Store(&exampleSnapshot{index: search.NewExampleIndex(examples)})
	zerolog.Ctx(ctx).Info().
		Int("base_elements", stats.BaseElements).
		Int("recipes", stats.Recipes).
		Int("skipped", stats.Skipped).
		Msg("presets reloaded")
	return stats, nil
}

func (s *PresetService) seed(ctx context.Context, tx *gorm.DB, pf *PresetFile) (*LoadStats, []search.Example, error) {
	lg := zerolog.Ctx(ctx)
	stats := &LoadStats{}

	base := DefaultBaseElements()
	var recipes []PresetRecipe
	if pf != nil {
		if len(pf.BaseElements) > 0 {
			base = pf.BaseElements
		}
		recipes = pf.Recipes
	}

	for _, pe := range base {
		el := presetElement(pe, s.Mode)
		if el.ID == "" || (el.NameCN == "" && el.NameEN == "") {
			lg.Warn().Str("id", pe.ID).Msg("preset base element skipped: missing id or name")
			stats.Skipped++
			continue
		}
		if !strings.HasPrefix(el.ID, domain.BaseIDPrefix) {
			el.ID = domain.BaseIDPrefix + el.ID
		}
		if err := repo.UpsertBaseElement(ctx, tx, el); err != nil {
			return nil, nil, fmt.Errorf("seed base element %s: %w", el.ID, err)
		}
		stats.BaseElements++
	}

	var examples []search.Example
	for _, rc := range recipes {
		first, err := s.resolveInput(ctx, tx, rc.First)
		if err != nil {
			return nil, nil, err
		}
		second, err := s.resolveInput(ctx, tx, rc.Second)
		if err != nil {
			return nil, nil, err
		}
		if first == nil || second == nil {
			lg.Warn().Str("first", rc.First).Str("second", rc.Second).Msg("preset recipe skipped: input element missing")
			stats.Skipped++
			continue
		}

		result, err := s.ensureResult(ctx, tx, rc.Result)
		if err != nil {
			return nil, nil, err
		}
		if result == nil {
			lg.Warn().Str("first", rc.First).Str("second", rc.Second).Msg("preset recipe skipped: result has no name")
			stats.Skipped++
			continue
		}

		pair := domain.NewPair(first.ID, second.ID, s.OrderMatters)
		if _, err := repo.FindCraftEntry(ctx, tx, pair, !s.OrderMatters); repo.IsNotFound(err) {
			if _, err := repo.CreateCraftEntry(ctx, tx, pair, result.ID); err != nil {
				return nil, nil, fmt.Errorf("seed recipe %s+%s: %w", first.ID, second.ID, err)
			}
		} else if err != nil {
			return nil, nil, err
		}
		stats.Recipes++

		if rc.Example {
			examples = append(examples, search.Example{
				First:    first.DisplayName(s.Mode),
				Second:   second.DisplayName(s.Mode),
				ResultCN: result.NameCN,
				ResultEN: result.NameEN,
				Emoji:    result.Emoji,
			})
		}
	}
	stats.Examples = len(examples)
	return stats, examples, nil
}

// resolveInput finds a recipe input by id or name; nil when absent.
func (s *PresetService) resolveInput(ctx context.Context, tx *gorm.DB, ref string) (*domain.Element, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, nil
	}
	el, err := repo.FindElementByRef(ctx, tx, s.Mode, ref)
	if repo.IsNotFound(err) {
		return nil, nil
	}
	return el, err
}

// ensureResult returns the recipe result, creating it when needed.
func (s *PresetService) ensureResult(ctx context.Context, tx *gorm.DB, pe PresetElement) (*domain.Element, error) {
	want := presetElement(pe, s.Mode)
	if (s.Mode.UsesCN() && want.NameCN == "") || (s.Mode.UsesEN() && want.NameEN == "") {
		return nil, nil
	}

	if want.ID != "" {
		el, err := repo.GetElement(ctx, tx, want.ID)
		if err == nil {
			return el, nil
		}
		if !repo.IsNotFound(err) {
			return nil, err
		}
	}
	el, err := repo.FindElementByName(ctx, tx, s.Mode, want.NameCN, want.NameEN)
	if err == nil {
		return el, nil
	}
	if !repo.IsNotFound(err) {
		return nil, err
	}

	if want.ID == "" {
		want.ID = "preset_" + uuid.NewString()
	}
	want.DiscovererName = domain.SystemDiscoverer
	if err := repo.CreateElement(ctx, tx, want); err != nil {
		return nil, fmt.Errorf("seed result %s: %w", want.ID, err)
	}
	return want, nil
}

// presetElement normalizes pe; names inactive under mode are blanked.
func presetElement(pe PresetElement, mode domain.LanguageMode) *domain.Element {
	emoji := utils.FirstEmoji(pe.Emoji)
	if emoji == "" {
		emoji = domain.DefaultEmoji
	}
	el := &domain.Element{
		ID:    strings.TrimSpace(pe.ID),
		Emoji: emoji,
	}
	if mode.UsesCN() {
		el.NameCN = utils.NormalizeName(pe.NameCN)
	}
	if mode.UsesEN() {
		el.NameEN = utils.NormalizeName(pe.NameEN)
	}
	return el
}
