package seed

import (
	"fmt"

	"github.com/MrSnakeDoc/varlink/internal/domain"
)

// MapLinks converts seed entries to link inputs, in file order. Entries
// missing a name or url are skipped and returned as problems.
func MapLinks(file File) ([]domain.LinkInput, []error) {
	inputs := make([]domain.LinkInput, 0, len(file))
	var problems []error

	for i, e := range file {
		in := domain.LinkInput{
			Name:      e.Name,
			URL:       e.URL,
			Variables: domain.NormalizeVariables(e.Variables),
		}
		if err := in.Validate(); err != nil {
			problems = append(problems, fmt.Errorf("entry %d (%q): %w", i+1, e.Name, err))
			continue
		}
		inputs = append(inputs, in)
	}

	return inputs, problems
}
