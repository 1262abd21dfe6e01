// Package names generates short human-readable identifiers in
// "adjective-noun" form. Given the same inputs the same name comes back,
// so log lines from one run correlate without passing IDs around.
package names

import (
	"hash/fnv"
	"math/rand"
	"strings"
)

var adjectives = []string{
	"able", "agile", "amber", "ample", "avid", "bold", "brave", "bright",
	"brisk", "calm", "civil", "clean", "clear", "clever", "crisp", "daring",
	"deep", "eager", "early", "easy", "fair", "fast", "fine", "firm",
	"fleet", "fond", "free", "fresh", "gentle", "glad", "golden", "grand",
	"great", "green", "handy", "happy", "hardy", "hearty", "humble", "ideal",
	"jolly", "keen", "kind", "large", "light", "lively", "loyal", "lucid",
	"lucky", "merry", "mighty", "modern", "neat", "noble", "novel", "open",
	"plain", "polite", "proud", "pure", "quick", "quiet", "rapid", "rare",
	"ready", "rich", "robust", "rosy", "royal", "sage", "sharp", "shiny",
	"silent", "sleek", "smart", "smooth", "snug", "solid", "sound", "spry",
	"stable", "steady", "stout", "sturdy", "sunny", "swift", "tidy", "tough",
	"trusty", "upbeat", "valid", "vast", "vivid", "warm", "wise", "witty",
	"worthy", "young", "zesty",
}

var nouns = []string{
	"anchor", "arch", "badge", "banner", "basin", "beacon", "bell", "birch",
	"bloom", "bluff", "breeze", "bridge", "brook", "canyon", "cedar", "cliff",
	"cloud", "coast", "comet", "coral", "cove", "crane", "creek", "crest",
	"dawn", "delta", "dune", "ember", "falcon", "fern", "field", "fjord",
	"flame", "forest", "forge", "fox", "garden", "gate", "glacier", "glade",
	"grove", "harbor", "haven", "hawk", "heron", "hill", "island", "lagoon",
	"lake", "lantern", "ledge", "lily", "lynx", "maple", "marsh", "meadow",
	"mesa", "mist", "moon", "moss", "oak", "oasis", "orbit", "osprey",
	"otter", "peak", "pebble", "pine", "plateau", "pond", "prairie", "quartz",
	"raven", "reef", "ridge", "river", "sail", "shore", "sky", "slope",
	"sparrow", "spring", "spruce", "star", "stone", "stream", "summit", "tide",
	"trail", "tree", "tundra", "valley", "vista", "wave", "willow", "wind",
	"wolf", "wren",
}

// Generate returns a deterministic adjective-noun name derived from the
// given parts. With no parts the name is random.
func Generate(parts ...string) string {
	var seed int64
	if len(parts) == 0 {
		seed = rand.Int63()
	} else {
		h := fnv.New64a()
		for _, p := range parts {
			h.Write([]byte(p))
			h.Write([]byte{0})
		}
		seed = int64(h.Sum64())
	}

	r := rand.New(rand.NewSource(seed))
	return strings.Join([]string{
		adjectives[r.Intn(len(adjectives))],
		nouns[r.Intn(len(nouns))],
	}, "-")
}
