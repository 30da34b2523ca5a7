package extract

import "careeros/collector-service/internal/model"

// Confidence scores extraction completeness on a 0–100 scale.
//
// The weighting favours the two mandatory fields (title and company, up to
// 70 combined) over optional enrichment (location and description, up to
// 30): a record without the mandatory pair is unusable regardless of how
// rich the rest is.
func Confidence(title, company, location, description string) int {
	confidence := 0

	if n := len(title); n >= 3 && n <= 200 {
		confidence += 30
		if n >= 10 {
			confidence += 5
		}
	}

	if n := len(company); n >= 2 && n <= 100 {
		confidence += 30
		if n >= 3 {
			confidence += 5
		}
	}

	if n := len(location); n >= 2 && n <= 100 && location != model.LocationNotSpecified {
		confidence += 15
	}

	if n := len(description); n >= 100 {
		confidence += 15
		if n >= 500 {
			confidence += 5
		}
	}

	if confidence > 100 {
		confidence = 100
	}
	return confidence
}
