package hierarchy

import (
	"strconv"
	"strings"

	"github.com/Kawdoor/aizer/internal/models"
)

// SearchResult separates "no search in progress" from "searched, found nothing":
// a blank term yields IsSearching=false, any other term IsSearching=true.
type SearchResult struct {
	Term        string             `json:"term"`
	IsSearching bool               `json:"isSearching"`
	Spaces      []models.Space     `json:"spaces"`
	Inventories []models.Inventory `json:"inventories"`
	Items       []models.Item      `json:"items"`
}

func (r SearchResult) Empty() bool {
	return len(r.Spaces) == 0 && len(r.Inventories) == 0 && len(r.Items) == 0
}

// Search does a case-insensitive substring match. Spaces and inventories match
// on name or description; items also match on color and on the decimal text of
// price and quantity, so "19" finds a price of 19.99 and a quantity of 19.
func (s *Snapshot) Search(term string) SearchResult {
	result := SearchResult{
		Term:        term,
		Spaces:      []models.Space{},
		Inventories: []models.Inventory{},
		Items:       []models.Item{},
	}

	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return result
	}
	result.IsSearching = true

	for _, sp := range s.Spaces {
		if contains(sp.Name, needle) || containsPtr(sp.Description, needle) {
			result.Spaces = append(result.Spaces, sp)
		}
	}
	for _, inv := range s.Inventories {
		if contains(inv.Name, needle) || containsPtr(inv.Description, needle) {
			result.Inventories = append(result.Inventories, inv)
		}
	}
	for _, item := range s.Items {
		if itemMatches(item, needle) {
			result.Items = append(result.Items, item)
		}
	}
	return result
}

func itemMatches(item models.Item, needle string) bool {
	if contains(item.Name, needle) || containsPtr(item.Description, needle) || containsPtr(item.Color, needle) {
		return true
	}
	if item.Price != nil && strings.Contains(item.Price.String(), needle) {
		return true
	}
	return strings.Contains(strconv.Itoa(item.Quantity), needle)
}

func contains(value, needle string) bool {
	return strings.Contains(strings.ToLower(value), needle)
}

func containsPtr(value *string, needle string) bool {
	return value != nil && contains(*value, needle)
}
