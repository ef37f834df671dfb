package hierarchy

import "testing"

func TestSearchEmptinessDistinction(t *testing.T) {
	g := garageSnapshot()

	for _, term := range []string{"", "   ", "\t\n"} {
		res := g.snap.Search(term)
		if res.IsSearching {
			t.Fatalf("expected %q not to count as searching", term)
		}
		if !res.Empty() {
			t.Fatalf("expected empty results for %q, got %+v", term, res)
		}
		if res.Spaces == nil || res.Inventories == nil || res.Items == nil {
			t.Fatalf("expected non-nil empty lists for %q", term)
		}
	}

	res := g.snap.Search("xyz-no-match")
	if !res.IsSearching {
		t.Fatal("expected a real term to count as searching")
	}
	if !res.Empty() {
		t.Fatalf("expected no matches, got %+v", res)
	}
}

func TestSearchMatching(t *testing.T) {
	g := garageSnapshot()

	testCases := []struct {
		name            string
		term            string
		wantSpaces      []string
		wantInventories []string
		wantItems       []string
	}{
		{name: "price substring", term: "19", wantItems: []string{"Lamp", "Drill"}},
		{name: "price with decimals", term: "9.9", wantItems: []string{"Lamp"}},
		{name: "quantity", term: "2", wantItems: []string{"Rake"}},
		{name: "case-insensitive name", term: "sHeLf", wantInventories: []string{"Shelf B", "Shelf A"}},
		{name: "space description", term: "NORTH", wantSpaces: []string{"Garage"}},
		{name: "inventory description", term: "metal", wantInventories: []string{"Toolbox"}},
		{name: "item color", term: "brass", wantItems: []string{"Lamp"}},
		{name: "surrounding whitespace is ignored", term: "  attic ", wantSpaces: []string{"Attic"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res := g.snap.Search(tc.term)
			if !res.IsSearching {
				t.Fatal("expected searching flag")
			}
			if got := spaceNames(res.Spaces); !equalStrings(got, orEmpty(tc.wantSpaces)) {
				t.Fatalf("spaces: expected %v, got %v", tc.wantSpaces, got)
			}
			if got := inventoryNames(res.Inventories); !equalStrings(got, orEmpty(tc.wantInventories)) {
				t.Fatalf("inventories: expected %v, got %v", tc.wantInventories, got)
			}
			if got := itemNames(res.Items); !equalStrings(got, orEmpty(tc.wantItems)) {
				t.Fatalf("items: expected %v, got %v", tc.wantItems, got)
			}
		})
	}
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
