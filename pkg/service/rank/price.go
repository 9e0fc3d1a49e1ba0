package rank

import (
	"regexp"
	"strconv"

	"github.com/m-mizutani/parlaplate/pkg/model"
)

// Price bucket thresholds in menu currency units. Hand-tuned with no
// locale basis; kept as variables so deployments can adjust them.
var (
	PriceLowMax    = 20.0
	PriceMediumMax = 50.0
)

var priceTokenRe = regexp.MustCompile(`\d+(?:\.\d+)?`)

// PriceBucket classifies a price string such as "15.99 TL" or "$12.50"
// by its first numeric token. Returns false when no number is found.
func PriceBucket(price string) (model.PriceLevel, bool) {
	token := priceTokenRe.FindString(price)
	if token == "" {
		return "", false
	}

	value, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return "", false
	}

	switch {
	case value < PriceLowMax:
		return model.PriceLevelLow, true
	case value < PriceMediumMax:
		return model.PriceLevelMedium, true
	default:
		return model.PriceLevelHigh, true
	}
}
