package logreader

import (
	"regexp"
	"strconv"
	"strings"
)

// EventKind distinguishes the draft lines we care about.
type EventKind int

const (
	// EventJoin carries the expansion of a newly joined draft event.
	EventJoin EventKind = iota + 1
	// EventPack carries the pack currently on offer.
	EventPack
)

// DraftEvent is one recognized line of the client log.
type DraftEvent struct {
	Kind       EventKind
	Expansion  string
	Pack       []string
	PickNumber int
	Picked     []string
}

var (
	eventNamePattern  = regexp.MustCompile(`(?i)"InternalEventName":\s*"(?:PremierDraft|QuickDraft|TradDraft)_([A-Z0-9]+)_`)
	draftPackPattern  = regexp.MustCompile(`"DraftPack":\s*\[(.*?)\]`)
	pickedPattern     = regexp.MustCompile(`"PickedCards":\s*\[(.*?)\]`)
	pickNumberPattern = regexp.MustCompile(`"PickNumber":\s*(\d+)`)
)

// ParseLine recognizes event joins and pack notifications. Other lines are ignored.
func ParseLine(line string) (*DraftEvent, bool) {
	if m := eventNamePattern.FindStringSubmatch(line); m != nil {
		return &DraftEvent{Kind: EventJoin, Expansion: strings.ToUpper(m[1])}, true
	}

	if !strings.Contains(line, "Draft.Notify") && !strings.Contains(line, "DraftPack") {
		return nil, false
	}

	pack := draftPackPattern.FindStringSubmatch(line)
	if pack == nil {
		return nil, false
	}

	event := &DraftEvent{Kind: EventPack, Pack: splitIDs(pack[1]), Picked: []string{}}
	if m := pickedPattern.FindStringSubmatch(line); m != nil {
		event.Picked = splitIDs(m[1])
	}
	if m := pickNumberPattern.FindStringSubmatch(line); m != nil {
		event.PickNumber, _ = strconv.Atoi(m[1])
	}
	return event, true
}

// splitIDs turns `"1", 2, "3"` into [1 2 3], dropping blanks.
func splitIDs(list string) []string {
	ids := []string{}
	for _, part := range strings.Split(list, ",") {
		id := strings.Trim(strings.TrimSpace(part), `"`)
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
