package pdfops

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ParsePageRanges parses a "1, 3-5" style page selection into a sorted,
// deduplicated list of 1-based page numbers. maxPage bounds the selection
// when positive; pass 0 to skip the upper-bound check (exclusion lists
// parsed before the document is opened).
func ParsePageRanges(selection string, maxPage int) ([]int, error) {
	selection = strings.TrimSpace(selection)
	if selection == "" {
		return nil, fmt.Errorf("empty page selection")
	}

	seen := make(map[int]bool)
	for _, token := range strings.Split(selection, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			return nil, fmt.Errorf("empty entry in page selection %q", selection)
		}

		if lo, hi, ok := strings.Cut(token, "-"); ok {
			start, err := parsePageNumber(lo, maxPage)
			if err != nil {
				return nil, err
			}
			end, err := parsePageNumber(hi, maxPage)
			if err != nil {
				return nil, err
			}
			if start > end {
				return nil, fmt.Errorf("backwards range %q", token)
			}
			for p := start; p <= end; p++ {
				seen[p] = true
			}
			continue
		}

		p, err := parsePageNumber(token, maxPage)
		if err != nil {
			return nil, err
		}
		seen[p] = true
	}

	pages := make([]int, 0, len(seen))
	for p := range seen {
		pages = append(pages, p)
	}
	sort.Ints(pages)
	return pages, nil
}

func parsePageNumber(s string, maxPage int) (int, error) {
	s = strings.TrimSpace(s)
	p, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid page number %q", s)
	}
	if p < 1 {
		return 0, fmt.Errorf("page numbers start at 1, got %d", p)
	}
	if maxPage > 0 && p > maxPage {
		return 0, fmt.Errorf("page %d out of range (document has %d pages)", p, maxPage)
	}
	return p, nil
}

// pageStrings renders pages for pdfcpu's page-selection parameter.
func pageStrings(pages []int) []string {
	out := make([]string, len(pages))
	for i, p := range pages {
		out[i] = strconv.Itoa(p)
	}
	return out
}
