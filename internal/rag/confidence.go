package rag

// Documented confidence thresholds: answers below Low had no usable
// curriculum support, answers above Supported were grounded in at
// least one well-matching passage.
const (
	LowConfidenceThreshold       = 0.3
	SupportedConfidenceThreshold = 0.5
)

const noPassageConfidence = 0.15

// confidence derives the answer reliability estimate. It is monotonic
// non-decreasing in the top retrieval score and in passage count, and
// strictly lower when a fallback backend answered, all else equal.
func confidence(topScore float64, passages int, usedFallback bool, penalty float64) float64 {
	var c float64
	if passages == 0 {
		c = noPassageConfidence
	} else {
		n := passages
		if n > 5 {
			n = 5
		}
		c = 0.35 + 0.40*topScore + 0.05*float64(n)
		if c > 0.95 {
			c = 0.95
		}
	}
	if usedFallback {
		c -= penalty
	}
	if c < 0 {
		c = 0
	}
	return c
}
