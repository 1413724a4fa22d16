package wizard

import (
	"fmt"

	json "github.com/goccy/go-json"
)

// DecodeInput parses a JSON body as the input type for step.
func DecodeInput(step Step, raw []byte) (Input, error) {
	switch step {
	case StepContact:
		return decode[Contact](step, raw)
	case StepPersonal:
		return decode[Personal](step, raw)
	case StepTrip:
		return decode[Trip](step, raw)
	case StepTripType:
		return decode[Activities](step, raw)
	case StepCoverage:
		return decode[Coverage](step, raw)
	case StepHealth:
		return decode[Health](step, raw)
	case StepCheckout:
		return decode[Checkout](step, raw)
	}

	return nil, fmt.Errorf("unknown step %d", step)
}

func decode[T Input](step Step, raw []byte) (Input, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decoding %s input: %w", step, err)
	}

	return v, nil
}
