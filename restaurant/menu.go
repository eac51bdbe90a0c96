package restaurant

import (
	"context"
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/ray-remotestate/tableside/events"
	"github.com/ray-remotestate/tableside/models"
)

//go:embed menu_seed.yaml
var menuSeed []byte

// DefaultMenu is the built-in menu used when no remote menu is available.
func DefaultMenu() ([]models.MenuItem, error) {
	var items []models.MenuItem
	if err := yaml.Unmarshal(menuSeed, &items); err != nil {
		return nil, fmt.Errorf("parsing default menu: %w", err)
	}
	return items, nil
}

type MenuFilter struct {
	Category      string
	AvailableOnly bool
}

// Menu lists items grouped by category in display order, then by name.
func (s *Service) Menu(ctx context.Context, f MenuFilter) []models.MenuItem {
	all := s.store.Menu.Load(ctx)
	out := make([]models.MenuItem, 0, len(all))
	for _, it := range all {
		if f.Category != "" && !strings.EqualFold(it.Category, f.Category) {
			continue
		}
		if f.AvailableOnly && !it.Available {
			continue
		}
		out = append(out, it)
	}
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := models.CategoryRank(out[i].Category), models.CategoryRank(out[j].Category)
		if ri != rj {
			return ri < rj
		}
		return out[i].Name < out[j].Name
	})
	return out
}

type MenuItemRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Image       string  `json:"image"`
	Category    string  `json:"category"`
	Available   *bool   `json:"available"`
}

func (s *Service) AddMenuItem(ctx context.Context, req MenuItemRequest) (models.MenuItem, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return models.MenuItem{}, invalid("Item name is required")
	}
	if req.Price <= 0 {
		return models.MenuItem{}, invalid("Valid price is required")
	}
	category := strings.TrimSpace(req.Category)
	if category == "" {
		category = models.DefaultCategory
	}
	if !models.IsMenuCategory(category) {
		return models.MenuItem{}, invalid("Unknown category: %s", category)
	}
	available := true
	if req.Available != nil {
		available = *req.Available
	}

	item := models.MenuItem{
		ID:          uuid.NewString(),
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Price:       req.Price,
		Image:       strings.TrimSpace(req.Image),
		Category:    category,
		Available:   available,
	}
	item = s.store.Menu.Add(ctx, item)

	s.log.WithFields(logrus.Fields{"item_id": item.ID, "name": item.Name}).Info("menu item added")
	s.notifier.Publish(ctx, events.MenuUpdated, item)
	return item, nil
}

func (s *Service) SetMenuAvailability(ctx context.Context, id string, available bool) (models.MenuItem, error) {
	if !s.store.Menu.Update(ctx, id, models.Patch{"available": available}) {
		return models.MenuItem{}, notFound("Menu item not found")
	}
	for _, it := range s.store.Menu.Load(ctx) {
		if it.ID == id {
			s.notifier.Publish(ctx, events.MenuUpdated, it)
			return it, nil
		}
	}
	return models.MenuItem{}, notFound("Menu item not found")
}

func (s *Service) DeleteMenuItem(ctx context.Context, id string) error {
	if !s.store.Menu.Delete(ctx, id) {
		return notFound("Menu item not found")
	}
	s.log.WithField("item_id", id).Info("menu item deleted")
	s.notifier.Publish(ctx, events.MenuItemDeleted, map[string]string{"item_id": id})
	return nil
}

type MenuStats struct {
	Total       int            `json:"total_items"`
	Available   int            `json:"available_items"`
	Unavailable int            `json:"unavailable_items"`
	Categories  map[string]int `json:"categories"`
	Source      string         `json:"source"`
}

func (s *Service) MenuStats(ctx context.Context) MenuStats {
	stats := MenuStats{Categories: map[string]int{}, Source: s.store.Menu.Mode()}
	for _, it := range s.store.Menu.Load(ctx) {
		stats.Total++
		if it.Available {
			stats.Available++
		} else {
			stats.Unavailable++
		}
		stats.Categories[it.Category]++
	}
	return stats
}
