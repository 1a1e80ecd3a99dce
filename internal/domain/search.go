package domain

import "fmt"

// SearchMode selects how a query is matched against the catalog.
type SearchMode int

const (
	ModeName SearchMode = iota + 1
	ModeCategory
	ModeSex
	ModeStyle
)

var modeLabels = map[SearchMode]string{
	ModeName:     "Search name",
	ModeCategory: "Filter Category",
	ModeSex:      "Filter Sex",
	ModeStyle:    "Search Style",
}

var modeNames = map[string]SearchMode{
	"name":     ModeName,
	"category": ModeCategory,
	"sex":      ModeSex,
	"style":    ModeStyle,
}

func (m SearchMode) Valid() bool {
	_, ok := modeLabels[m]
	return ok
}

// Label is the prefix written to the search log.
func (m SearchMode) Label() string {
	if l, ok := modeLabels[m]; ok {
		return l
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

func (m SearchMode) String() string {
	for name, mode := range modeNames {
		if mode == m {
			return name
		}
	}
	return m.Label()
}

// ParseSearchMode maps a CLI name (name|category|sex|style) to a mode.
func ParseSearchMode(s string) (SearchMode, error) {
	if m, ok := modeNames[s]; ok {
		return m, nil
	}
	return 0, Invalid("mode", "must be one of name, category, sex, style")
}

// LogQuery is the literal text stored in searchlog.search_query.
func (m SearchMode) LogQuery(query string) string {
	return m.Label() + ": " + query
}

type SearchRequest struct {
	Mode   SearchMode
	Query  string
	TopK   int
	UserID int64
}

// SearchHit is a ranked search result. Score is only meaningful for ModeStyle.
type SearchHit struct {
	Product Product
	Rank    int
	Score   float32
}
