package travel

import (
	"context"
	"strings"
	"time"

	"github.com/Domenick1991/travelbook/internal/domain"
	"github.com/Domenick1991/travelbook/internal/repository"
	"github.com/Domenick1991/travelbook/internal/service/booking"
	"github.com/google/uuid"
)

type TravelUseCase interface {
	Search(ctx context.Context, filters domain.TravelSearchFilters) ([]domain.TravelOption, error)
	GetByTravelID(ctx context.Context, travelID string) (*domain.TravelOption, error)
	Similar(ctx context.Context, travelID string, limit int) ([]domain.TravelOption, error)
	Cities(ctx context.Context, query string) ([]string, error)
	Create(ctx context.Context, option *domain.TravelOption) error
}

type TravelService struct {
	repo  repository.TravelRepository
	cache booking.Cache
	now   func() time.Time
}

func NewTravelService(repo repository.TravelRepository, cache booking.Cache) *TravelService {
	return &TravelService{repo: repo, cache: cache, now: time.Now}
}

// Search validates the filter combination before touching the data layer.
// The unfiltered browse query is served from cache when possible; filtered
// searches always read fresh availability.
func (s *TravelService) Search(ctx context.Context, filters domain.TravelSearchFilters) ([]domain.TravelOption, error) {
	if err := filters.Validate(s.now()); err != nil {
		return nil, err
	}

	cacheable := filters.Empty() && filters.Limit == 0
	if cacheable && s.cache != nil {
		if cached, err := s.cache.GetCatalog(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	options, err := s.repo.Search(ctx, filters)
	if err != nil {
		return nil, err
	}
	if cacheable && s.cache != nil {
		_ = s.cache.SetCatalog(ctx, options)
	}
	return options, nil
}

func (s *TravelService) GetByTravelID(ctx context.Context, travelID string) (*domain.TravelOption, error) {
	return s.repo.GetByTravelID(ctx, travelID)
}

func (s *TravelService) Similar(ctx context.Context, travelID string, limit int) ([]domain.TravelOption, error) {
	if limit <= 0 {
		limit = 5
	}
	return s.repo.Similar(ctx, travelID, limit)
}

func (s *TravelService) Cities(ctx context.Context, query string) ([]string, error) {
	query = strings.TrimSpace(query)
	if len(query) < 2 {
		return []string{}, nil
	}
	return s.repo.Cities(ctx, query)
}

func (s *TravelService) Create(ctx context.Context, option *domain.TravelOption) error {
	if option.TravelID == "" {
		option.TravelID = "TR" + strings.ToUpper(uuid.NewString()[:8])
	}
	if err := option.Validate(s.now()); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, option); err != nil {
		return err
	}
	if s.cache != nil {
		_ = s.cache.InvalidateCatalog(ctx)
	}
	return nil
}

var _ TravelUseCase = (*TravelService)(nil)
