// Package simulate synthesizes play boosters and writes them to the client
// log as draft events, so a log watcher can be exercised without the game.
package simulate

import (
	"math/rand"
	"sort"
	"strings"

	"github.com/ramonehamilton/arena-overlay/internal/mtga/cards/artifact"
)

// Rarity buckets.
const (
	Common   = "common"
	Uncommon = "uncommon"
	Rare     = "rare"
	Mythic   = "mythic"
)

// Slot odds. Each threshold is compared against a uniform roll in [0, 1).
const (
	MythicChance = 0.14 // rare slot upgrades to mythic, about 1 in 7

	WildcardMythic   = 0.02
	WildcardRare     = 0.21
	WildcardUncommon = 0.79

	FoilMythic   = 0.01
	FoilRare     = 0.05
	FoilUncommon = 0.25
)

// Buckets groups artifact IDs by rarity. Unknown rarities count as common.
// IDs are sorted so a seeded generator gives repeatable packs.
type Buckets map[string][]string

// BucketByRarity splits an artifact into rarity buckets.
func BucketByRarity(art artifact.Artifact) Buckets {
	b := Buckets{Common: {}, Uncommon: {}, Rare: {}, Mythic: {}}
	for id, stat := range art {
		r := strings.ToLower(stat.Rarity)
		if _, ok := b[r]; !ok {
			r = Common
		}
		b[r] = append(b[r], id)
	}
	for _, ids := range b {
		sort.Strings(ids)
	}
	return b
}

// pick draws up to count distinct IDs from a bucket. An empty bucket contributes nothing.
func (b Buckets) pick(rng *rand.Rand, rarity string, count int) []string {
	ids := b[rarity]
	if len(ids) == 0 {
		return nil
	}
	count = min(count, len(ids))
	picked := make([]string, 0, count)
	for _, i := range rng.Perm(len(ids))[:count] {
		picked = append(picked, ids[i])
	}
	return picked
}

func tiered(roll, mythic, rare, uncommon float64) string {
	switch {
	case roll < mythic:
		return Mythic
	case roll < rare:
		return Rare
	case roll < uncommon:
		return Uncommon
	default:
		return Common
	}
}

// Booster assembles a fourteen-card play booster:
// rare or mythic, three uncommons, six commons, a wildcard, a foil,
// a land slot and a final slot (both commons). The result is shuffled.
func Booster(b Buckets, rng *rand.Rand) []string {
	var pack []string

	if rng.Float64() < MythicChance && len(b[Mythic]) > 0 {
		pack = append(pack, b.pick(rng, Mythic, 1)...)
	} else {
		pack = append(pack, b.pick(rng, Rare, 1)...)
	}

	pack = append(pack, b.pick(rng, Uncommon, 3)...)
	pack = append(pack, b.pick(rng, Common, 6)...)

	pack = append(pack, b.pick(rng, tiered(rng.Float64(), WildcardMythic, WildcardRare, WildcardUncommon), 1)...)
	pack = append(pack, b.pick(rng, tiered(rng.Float64(), FoilMythic, FoilRare, FoilUncommon), 1)...)

	// Land slot, then the final slot.
	pack = append(pack, b.pick(rng, Common, 1)...)
	pack = append(pack, b.pick(rng, Common, 1)...)

	rng.Shuffle(len(pack), func(i, j int) { pack[i], pack[j] = pack[j], pack[i] })
	return pack
}
