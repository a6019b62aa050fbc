package router

import "math"

// ModelPricing is the USD price per 1K tokens for one model.
type ModelPricing struct {
	InputPerKTok  float64
	OutputPerKTok float64
}

// Static pricing table. llama3 runs self-hosted, so it bills at zero.
var pricing = map[string]ModelPricing{
	ModelGPT35Turbo:    {InputPerKTok: 0.0015, OutputPerKTok: 0.002},
	ModelClaudeInstant: {InputPerKTok: 0.0008, OutputPerKTok: 0.0024},
	ModelClaude2:       {InputPerKTok: 0.008, OutputPerKTok: 0.024},
	ModelGeminiFlash:   {InputPerKTok: 0.000075, OutputPerKTok: 0.0003},
	ModelLlama3:        {InputPerKTok: 0, OutputPerKTok: 0},
}

// Pricing returns the price entry for a model.
func Pricing(model string) (ModelPricing, bool) {
	p, ok := pricing[model]
	return p, ok
}

// Cost computes the USD cost of one completion at full float64 precision.
// Rounding happens only at presentation time (RoundUSD); accumulating
// pre-rounded values would compound the rounding error across requests.
func Cost(model string, inputTokens, outputTokens int64) float64 {
	p, ok := pricing[model]
	if !ok {
		return 0
	}
	return float64(inputTokens)*p.InputPerKTok/1000 + float64(outputTokens)*p.OutputPerKTok/1000
}

// RoundUSD rounds an amount to the currency's minor unit (cents).
func RoundUSD(amount float64) float64 {
	return math.Round(amount*100) / 100
}
