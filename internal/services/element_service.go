// Package services – ElementService
//
// Read-side operations over elements: the base set, a user's discovered set
// and per-element discovery details.
package services

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/Flint2004/infinite-crafting/internal/domain"
	"github.com/Flint2004/infinite-crafting/internal/repo"
)

// ElementRef is the compact form of an element embedded in discovery details.
type ElementRef struct {
	ID     string `json:"id"`
	NameCN string `json:"name_cn"`
	NameEN string `json:"name_en"`
	Emoji  string `json:"emoji"`
}

// Discovery describes who first minted an element and from which inputs.
// An input that no longer exists is reported as nil.
type Discovery struct {
	FirstElement  *ElementRef `json:"firstElement"`
	SecondElement *ElementRef `json:"secondElement"`
	UserID        string      `json:"userId"`
	Username      string      `json:"username"`
	DiscoveredAt  time.Time   `json:"discoveredAt"`
}

// ElementDetails is an element plus its discovery credit, if any.
type ElementDetails struct {
	Element   *domain.Element `json:"element"`
	Discovery *Discovery      `json:"discovery"`
}

// ElementService serves element lookups.
type ElementService struct {
	DB *gorm.DB
}

// Base returns the seeded base elements.
func (s *ElementService) Base(ctx context.Context) ([]domain.Element, error) {
	out, err := repo.ListBaseElements(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Element{}
	}
	return out, nil
}

// Discovered returns the elements userID has obtained, newest first.
func (s *ElementService) Discovered(ctx context.Context, userID string) ([]domain.Element, error) {
	out, err := repo.ListUserElements(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Element{}
	}
	return out, nil
}

// DiscoveredStats returns the size of the user's discovered set and the time
// of its newest entry, for conditional responses.
func (s *ElementService) DiscoveredStats(ctx context.Context, userID string) (int64, *time.Time, error) {
	return repo.DiscoveredStats(ctx, s.DB, userID)
}

// Details returns the element with its first-discovery credit. Base elements
// and elements whose credit was wiped carry a nil Discovery.
func (s *ElementService) Details(ctx context.Context, id string) (*ElementDetails, error) {
	ctx, span := otel.Tracer("services/elements").Start(ctx, "Details",
		trace.WithAttributes(attribute.String("element.id", id)))
	defer span.End()

	el, err := repo.GetElement(ctx, s.DB, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrElementNotFound
		}
		return nil, err
	}
	out := &ElementDetails{Element: el}

	fd, err := repo.GetFirstDiscovery(ctx, s.DB, id)
	switch {
	case repo.IsNotFound(err):
		return out, nil
	case err != nil:
		return nil, err
	}

	inputs, err := repo.GetElementsByID(ctx, s.DB, fd.FirstElementID, fd.SecondElementID)
	if err != nil {
		return nil, err
	}
	out.Discovery = &Discovery{
		FirstElement:  refOf(inputs, fd.FirstElementID),
		SecondElement: refOf(inputs, fd.SecondElementID),
		UserID:        fd.UserID,
		Username:      fd.Username,
		DiscoveredAt:  fd.DiscoveredAt,
	}
	return out, nil
}

func refOf(m map[string]domain.Element, id string) *ElementRef {
	e, ok := m[id]
	if !ok {
		return nil
	}
	return &ElementRef{ID: e.ID, NameCN: e.NameCN, NameEN: e.NameEN, Emoji: e.Emoji}
}
