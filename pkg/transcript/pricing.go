package transcript

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ModelPricing contains pricing per million tokens.
// Uses 5-minute cache pricing per Anthropic's pricing page.
type ModelPricing struct {
	Input      decimal.Decimal // Per million input tokens
	Output     decimal.Decimal // Per million output tokens
	CacheWrite decimal.Decimal // Per million cache creation tokens
	CacheRead  decimal.Decimal // Per million cache read tokens
}

type familyPricing struct {
	family  string
	pricing ModelPricing
}

// modelPricingTable contains pricing for all model families, ordered
// most-specific first so "opus-4-5" wins over "opus-4".
// Source: https://www.anthropic.com/pricing
var modelPricingTable = []familyPricing{
	{"opus-4-5", ModelPricing{
		Input:      decimal.NewFromFloat(5),
		Output:     decimal.NewFromFloat(25),
		CacheWrite: decimal.NewFromFloat(6.25),
		CacheRead:  decimal.NewFromFloat(0.50),
	}},
	{"opus-4-1", ModelPricing{
		Input:      decimal.NewFromFloat(15),
		Output:     decimal.NewFromFloat(75),
		CacheWrite: decimal.NewFromFloat(18.75),
		CacheRead:  decimal.NewFromFloat(1.50),
	}},
	{"opus-4", ModelPricing{
		Input:      decimal.NewFromFloat(15),
		Output:     decimal.NewFromFloat(75),
		CacheWrite: decimal.NewFromFloat(18.75),
		CacheRead:  decimal.NewFromFloat(1.50),
	}},
	{"sonnet-4-5", ModelPricing{
		Input:      decimal.NewFromFloat(3),
		Output:     decimal.NewFromFloat(15),
		CacheWrite: decimal.NewFromFloat(3.75),
		CacheRead:  decimal.NewFromFloat(0.30),
	}},
	{"sonnet-4", ModelPricing{
		Input:      decimal.NewFromFloat(3),
		Output:     decimal.NewFromFloat(15),
		CacheWrite: decimal.NewFromFloat(3.75),
		CacheRead:  decimal.NewFromFloat(0.30),
	}},
	{"sonnet-3-7", ModelPricing{
		Input:      decimal.NewFromFloat(3),
		Output:     decimal.NewFromFloat(15),
		CacheWrite: decimal.NewFromFloat(3.75),
		CacheRead:  decimal.NewFromFloat(0.30),
	}},
	{"haiku-4-5", ModelPricing{
		Input:      decimal.NewFromFloat(1),
		Output:     decimal.NewFromFloat(5),
		CacheWrite: decimal.NewFromFloat(1.25),
		CacheRead:  decimal.NewFromFloat(0.10),
	}},
	{"haiku-3-5", ModelPricing{
		Input:      decimal.NewFromFloat(0.80),
		Output:     decimal.NewFromFloat(4),
		CacheWrite: decimal.NewFromFloat(1.00),
		CacheRead:  decimal.NewFromFloat(0.08),
	}},
}

// defaultPricing is used when the model id matches no known family
// (conservative middle-tier rates)
var defaultPricing = ModelPricing{
	Input:      decimal.NewFromFloat(3),
	Output:     decimal.NewFromFloat(15),
	CacheWrite: decimal.NewFromFloat(3.75),
	CacheRead:  decimal.NewFromFloat(0.30),
}

var million = decimal.NewFromInt(1_000_000)

// PricingForModel maps a full model id (e.g. "claude-sonnet-4-5-20250929")
// to its family pricing
func PricingForModel(model string) ModelPricing {
	for _, fp := range modelPricingTable {
		if strings.Contains(model, fp.family) {
			return fp.pricing
		}
	}
	return defaultPricing
}

// CostFor computes the USD cost of one usage record under the given model
func CostFor(model string, usage *TokenUsage) decimal.Decimal {
	if usage == nil {
		return decimal.Zero
	}
	p := PricingForModel(model)
	cost := decimal.NewFromInt(usage.InputTokens).Mul(p.Input)
	cost = cost.Add(decimal.NewFromInt(usage.OutputTokens).Mul(p.Output))
	cost = cost.Add(decimal.NewFromInt(usage.CacheCreationInputTokens).Mul(p.CacheWrite))
	cost = cost.Add(decimal.NewFromInt(usage.CacheReadInputTokens).Mul(p.CacheRead))
	return cost.Div(million)
}
