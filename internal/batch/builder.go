package batch

import (
	"strings"

	"github.com/thedavidhackett/draft-two/internal/apperr"
	"github.com/thedavidhackett/draft-two/internal/workitem"
)

// BuildOptions carries the model and sampling parameters shared by every request.
type BuildOptions struct {
	Model       string
	Temperature *float64
}

// Build turns work items into batch requests. instructions become the system
// message; context (optional, e.g. incident metadata) is prepended to every
// item's payload in the user message.
func Build(items []workitem.Item, instructions, context string, opts BuildOptions) ([]Request, error) {
	if len(items) == 0 {
		return nil, apperr.New(apperr.CodeValidation, "no work items to submit").
			WithHint("Make sure the input folder contains eligible files")
	}
	if opts.Model == "" {
		return nil, apperr.New(apperr.CodeValidation, "model is required")
	}

	seen := make(map[workitem.Key]string, len(items))
	requests := make([]Request, 0, len(items))

	for _, item := range items {
		if err := item.Key.Validate(); err != nil {
			return nil, err
		}
		if prev, dup := seen[item.Key]; dup {
			return nil, apperr.Newf(apperr.CodeValidation,
				"duplicate correlation key %q (from %q and %q)", item.Key, prev, item.Path).
				WithHint("Rename one of the input files so every base name is unique")
		}
		seen[item.Key] = item.Path

		requests = append(requests, Request{
			CustomID:    item.Key,
			Model:       opts.Model,
			Messages:    composeMessages(instructions, context, item.Payload),
			Temperature: opts.Temperature,
		})
	}

	return requests, nil
}

func composeMessages(instructions, context, payload string) []Message {
	var messages []Message
	if strings.TrimSpace(instructions) != "" {
		messages = append(messages, Message{Role: "system", Content: instructions})
	}

	user := payload
	if strings.TrimSpace(context) != "" {
		user = strings.TrimRight(context, "\n") + "\n\n" + payload
	}
	return append(messages, Message{Role: "user", Content: user})
}
