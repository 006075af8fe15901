package metadata

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/thedavidhackett/draft-two/internal/apperr"
)

// Form asks for the incident metadata on a line-oriented terminal.
type Form struct {
	in  *bufio.Reader
	out io.Writer
	now func() time.Time
}

func NewForm(in io.Reader, out io.Writer, now func() time.Time) *Form {
	if now == nil {
		now = time.Now
	}
	return &Form{in: bufio.NewReader(in), out: out, now: now}
}

// Ask prompts for every field, re-prompting on invalid answers.
func (f *Form) Ask(ctx context.Context) (Metadata, error) {
	fmt.Fprintln(f.out, "Please provide the following information for the incident report.")

	var m Metadata
	var err error

	today := f.now().Format(DateLayout)
	m.IncidentDate, err = f.ask(ctx, fmt.Sprintf("Enter the incident date (YYYY-MM-DD, default: %s): ", today),
		"Invalid date. Please use the YYYY-MM-DD format.",
		func(s string) (string, bool) {
			if s == "" {
				return today, true
			}
			if _, err := time.Parse(DateLayout, s); err != nil {
				return "", false
			}
			return s, true
		})
	if err != nil {
		return Metadata{}, err
	}

	if m.IncidentType, err = f.choose(ctx, "Select the incident type:", IncidentTypes); err != nil {
		return Metadata{}, err
	}
	if m.ChargeSeverity, err = f.choose(ctx, "Select the charge severity:", ChargeSeverities); err != nil {
		return Metadata{}, err
	}

	arrest, err := f.ask(ctx, "\nWas an arrest made? (yes/no): ", "Invalid input. Please enter 'yes' or 'no'.",
		func(s string) (string, bool) {
			switch strings.ToLower(s) {
			case "yes", "y":
				return "yes", true
			case "no", "n":
				return "no", true
			}
			return "", false
		})
	if err != nil {
		return Metadata{}, err
	}
	m.ArrestMade = arrest == "yes"

	return m, nil
}

func (f *Form) choose(ctx context.Context, prompt string, options []string) (string, error) {
	fmt.Fprintf(f.out, "\n%s\n", prompt)
	for i, o := range options {
		fmt.Fprintf(f.out, "%d. %s\n", i+1, o)
	}

	return f.ask(ctx, "Enter the number of your choice: ",
		fmt.Sprintf("Invalid input. Please enter a number between 1 and %d.", len(options)),
		func(s string) (string, bool) {
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 || n > len(options) {
				return "", false
			}
			return options[n-1], true
		})
}

func (f *Form) ask(ctx context.Context, prompt, invalid string, parse func(string) (string, bool)) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		fmt.Fprint(f.out, prompt)

		line, err := f.in.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			if errors.Is(err, io.EOF) {
				return "", apperr.New(apperr.CodeValidation, "metadata input ended before the form was complete").
					WithHint("Run the metadata command in an interactive terminal")
			}
			return "", fmt.Errorf("read answer: %w", err)
		}

		if v, ok := parse(strings.TrimSpace(line)); ok {
			return v, nil
		}
		fmt.Fprintln(f.out, invalid)
	}
}
