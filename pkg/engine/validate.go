package engine

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/ndanaka/chatflow/pkg/flow"
	"github.com/ndanaka/chatflow/pkg/variables"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	urlPattern   = regexp.MustCompile(`^(https?://)?[^\s/$.?#]+\.[^\s]*$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9().\- ]+$`)
)

// validateReply checks a raw user reply against the awaited input block and
// returns the normalized value to store. A non-nil ValidationError keeps the
// cursor in place so the client can retry.
func validateReply(b *flow.InputBlock, input string, defs []flow.Variable, bindings variables.Bindings) (string, *ValidationError) {
	value := strings.TrimSpace(input)
	if value == "" && b.Type != flow.BlockPaymentInput {
		return "", &ValidationError{Message: "empty reply"}
	}

	switch b.Type {
	case flow.BlockTextInput, flow.BlockDateInput, flow.BlockFileInput, flow.BlockPaymentInput:
		return value, nil

	case flow.BlockNumberInput:
		return validateNumber(value, b.Options)

	case flow.BlockEmailInput:
		if !emailPattern.MatchString(value) {
			return "", &ValidationError{Message: "invalid email address"}
		}
		return value, nil

	case flow.BlockURLInput:
		if !urlPattern.MatchString(value) {
			return "", &ValidationError{Message: "invalid url"}
		}
		return value, nil

	case flow.BlockPhoneInput:
		digits := 0
		for _, r := range value {
			if r >= '0' && r <= '9' {
				digits++
			}
		}
		if digits < 6 || !phonePattern.MatchString(value) {
			return "", &ValidationError{Message: "invalid phone number"}
		}
		return value, nil

	case flow.BlockRatingInput:
		return validateRating(value, b.Options)

	case flow.BlockChoiceInput:
		return validateChoice(value, b, defs, bindings)

	default:
		return value, nil
	}
}

func validateNumber(value string, opts flow.InputOptions) (string, *ValidationError) {
	n, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return "", &ValidationError{Message: "not a number"}
	}
	if opts.Min != nil && n < *opts.Min {
		return "", &ValidationError{Message: fmt.Sprintf("number below minimum %v", *opts.Min)}
	}
	if opts.Max != nil && n > *opts.Max {
		return "", &ValidationError{Message: fmt.Sprintf("number above maximum %v", *opts.Max)}
	}
	if opts.Step != nil && *opts.Step > 0 {
		base := 0.0
		if opts.Min != nil {
			base = *opts.Min
		}
		ratio := (n - base) / *opts.Step
		if math.Abs(ratio-math.Round(ratio)) > 1e-9 {
			return "", &ValidationError{Message: fmt.Sprintf("number not aligned to step %v", *opts.Step)}
		}
	}
	return value, nil
}

func validateRating(value string, opts flow.InputOptions) (string, *ValidationError) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return "", &ValidationError{Message: "rating must be a whole number"}
	}
	length := opts.Length
	if length <= 0 {
		length = 10
	}
	if n < 0 || n > length {
		return "", &ValidationError{Message: fmt.Sprintf("rating out of range 0..%d", length)}
	}
	return value, nil
}

// validateChoice matches the reply against the block's items. Single choice
// requires exactly one matching item; multiple choice accepts a comma
// separated list and normalizes it to the matched item contents.
func validateChoice(value string, b *flow.InputBlock, defs []flow.Variable, bindings variables.Bindings) (string, *ValidationError) {
	contents := make([]string, len(b.Items))
	for i, item := range b.Items {
		contents[i] = variables.Substitute(item.Content, defs, bindings)
	}

	if !b.Options.IsMultipleChoice {
		for _, content := range contents {
			if content == value {
				return content, nil
			}
		}
		return "", &ValidationError{Message: "reply does not match any choice"}
	}

	var matched []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		found := false
		for _, content := range contents {
			if content == part {
				matched = append(matched, content)
				found = true
				break
			}
		}
		if !found {
			return "", &ValidationError{Message: fmt.Sprintf("%q does not match any choice", part)}
		}
	}
	if len(matched) == 0 {
		return "", &ValidationError{Message: "reply does not match any choice"}
	}
	return strings.Join(matched, ", "), nil
}
