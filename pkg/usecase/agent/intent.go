package agent

import (
	"strings"

	"github.com/m-mizutani/parlaplate/pkg/model"
)

// The local intent signal is computed without the model: the model's own
// claim to need menu access is necessary but never sufficient. These
// vocabularies are matched case-insensitively as substrings against the
// current message plus the last three turns.
var (
	foodIntentTerms = []string{
		"acıktım", "aç", "yemek", "yiyecek", "lezzet", "tat", "menü",
		"et", "tavuk", "balık", "sebze", "salata", "çorba", "tatlı",
		"pizza", "burger", "pasta", "döner", "kebab", "pilav",
		"kahvaltı", "öğle", "akşam", "atıştırmalık",
		"vegetarian", "vegan", "gluten", "spicy", "mild", "sweet",
		"salty", "crispy", "grilled", "fried", "soup", "salad",
	}

	delegationPhrases = []string{
		"sen seç", "sana kalmış", "öner", "tavsiye", "istediğin",
		"up to you", "you choose", "recommend", "suggest",
	}
)

// historyWindow is how many trailing turns participate in the scan
const historyWindow = 3

// detectIntent reports whether the user expressed clear food intent. A
// delegation phrase alone is sufficient even without any food term.
func detectIntent(history []model.Turn, message string) bool {
	var b strings.Builder
	b.WriteString(strings.ToLower(message))

	start := len(history) - historyWindow
	if start < 0 {
		start = 0
	}
	for _, turn := range history[start:] {
		b.WriteString(" ")
		b.WriteString(strings.ToLower(turn.Content))
	}

	text := b.String()

	for _, phrase := range delegationPhrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	for _, term := range foodIntentTerms {
		if strings.Contains(text, term) {
			return true
		}
	}

	return false
}
