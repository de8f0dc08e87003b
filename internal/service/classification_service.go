package service

import (
	"context"
	"fmt"
	"time"

	"github.com/andresuchdata/demandcast/internal/cache"
	"github.com/andresuchdata/demandcast/internal/classifier"
	"github.com/andresuchdata/demandcast/internal/domain"
	"github.com/andresuchdata/demandcast/internal/repository"
	"github.com/rs/zerolog/log"
)

// ClassificationService computes and caches SKU classifications. The cache is
// read-through: a miss triggers a full recompute, and the fresh result
// supersedes whatever was stored before.
type ClassificationService struct {
	classifier   *classifier.Classifier
	catalog      repository.CatalogRepository
	cache        cache.ClassificationCache
	lookbackDays int
}

func NewClassificationService(cls *classifier.Classifier, catalog repository.CatalogRepository, c cache.ClassificationCache, lookbackDays int) *ClassificationService {
	if lookbackDays <= 0 {
		lookbackDays = 90
	}
	return &ClassificationService{
		classifier:   cls,
		catalog:      catalog,
		cache:        c,
		lookbackDays: lookbackDays,
	}
}

// GetClassification returns the classification for one item, recomputing it
// when the cache has no fresh entry. Cache failures degrade to a recompute,
// never to an error.
func (s *ClassificationService) GetClassification(ctx context.Context, itemID string) (*domain.SKUClassification, error) {
	if cached, ok, err := s.cache.Get(ctx, itemID); err != nil {
		log.Warn().Err(err).Str("item_id", itemID).Msg("classification cache read failed")
	} else if ok {
		return cached, nil
	}

	classification, err := s.compute(ctx, itemID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, classification); err != nil {
		log.Warn().Err(err).Str("item_id", itemID).Msg("classification cache write failed")
	}
	return classification, nil
}

// Invalidate drops the cached classification for one item.
func (s *ClassificationService) Invalidate(ctx context.Context, itemID string) error {
	return s.cache.Invalidate(ctx, itemID)
}

func (s *ClassificationService) compute(ctx context.Context, itemID string) (*domain.SKUClassification, error) {
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -s.lookbackDays)

	// ABC needs the whole portfolio's contributions, not just this item.
	contributions, err := s.catalog.GetContributions(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("load contributions: %w", err)
	}
	abcClasses := s.classifier.RankABC(contributions)

	abc, ok := abcClasses[itemID]
	if !ok {
		abc = domain.ABCClassC
	}

	history, err := s.catalog.GetHistory(ctx, itemID, start, end)
	if err != nil {
		return nil, fmt.Errorf("load history for %s: %w", itemID, err)
	}

	classification := s.classifier.Classify(itemID, history, abc)
	return &classification, nil
}
