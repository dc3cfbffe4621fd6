// Package cfb extracts ChannelFireball pro grades from saved exports and
// keeps them in a name-keyed ratings file.
package cfb

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	parenthetical = regexp.MustCompile(`\s*\([^)]+\)`)
	ratingField   = regexp.MustCompile(`"(name|ratingLabel)":\s*"([^"]+)"`)
)

// CleanName strips parenthetical suffixes such as "(Showcase)" and surrounding space.
func CleanName(name string) string {
	return strings.TrimSpace(parenthetical.ReplaceAllString(name, ""))
}

// ExtractHTML reads a saved ratings page. The page embeds its data as JSON in
// script tags; every "name" is paired with the next "ratingLabel". Labels that
// are not numeric (letter grades, "N/A") are skipped. When a cleaned name shows
// up more than once the highest rating is kept.
func ExtractHTML(r io.Reader) (Grades, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read HTML: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var text strings.Builder
	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		text.WriteString(s.Text())
		text.WriteByte('\n')
	})

	body := text.String()
	if strings.TrimSpace(body) == "" {
		body = string(raw)
	}

	return scanRatings(body), nil
}

func scanRatings(text string) Grades {
	grades := Grades{}
	current := ""

	for _, m := range ratingField.FindAllStringSubmatch(text, -1) {
		field, value := m[1], m[2]
		if field == "name" {
			current = CleanName(value)
			continue
		}
		if current == "" {
			continue
		}

		if rating, err := strconv.ParseFloat(value, 64); err == nil {
			grades.keepMax(current, rating)
		}
		current = ""
	}

	return grades
}

type jsonExport struct {
	Cards *[]struct {
		Name      string   `json:"name"`
		LSVRating *float64 `json:"lsv_rating"`
	} `json:"cards"`
}

// ExtractJSON reads a `{"cards":[{"name":..,"lsv_rating":..}]}` export.
// Entries without a name or rating are skipped; duplicates keep the highest rating.
func ExtractJSON(r io.Reader) (Grades, error) {
	var export jsonExport
	if err := json.NewDecoder(r).Decode(&export); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	if export.Cards == nil {
		return nil, fmt.Errorf("'cards' key not found in JSON")
	}

	grades := Grades{}
	for _, card := range *export.Cards {
		name := CleanName(card.Name)
		if name == "" || card.LSVRating == nil {
			continue
		}
		grades.keepMax(name, *card.LSVRating)
	}

	return grades, nil
}
