package stage

import (
	"fmt"
	"strings"

	"github.com/aretw0/brokerdesk/pkg/domain"
)

// ValidationError lists every problem found in a stage table.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("found %d errors:\n- %s", len(e.Problems), strings.Join(e.Problems, "\n- "))
}

// Validate checks for duplicate ids, broken links and stages unreachable from entry.
// It returns nil or a *ValidationError.
func Validate(entry domain.Stage, configs []domain.StageConfig) error {
	var problems []string

	if len(configs) == 0 {
		return &ValidationError{Problems: []string{"pipeline has no stages"}}
	}

	known := make(map[domain.Stage]domain.StageConfig, len(configs))
	for _, c := range configs {
		if c.ID == "" {
			problems = append(problems, "stage with empty id")
			continue
		}
		if _, dup := known[c.ID]; dup {
			problems = append(problems, fmt.Sprintf("duplicate stage '%s'", c.ID))
			continue
		}
		known[c.ID] = c
	}

	for _, c := range configs {
		for _, to := range c.AllowedTransitions {
			if _, ok := known[to]; !ok {
				problems = append(problems, fmt.Sprintf("stage '%s' allows unknown destination '%s'", c.ID, to))
			}
		}
	}

	if _, ok := known[entry]; !ok {
		problems = append(problems, fmt.Sprintf("entry stage '%s' not found", entry))
		return &ValidationError{Problems: problems}
	}

	// Crawler
	visited := map[domain.Stage]bool{}
	queue := []domain.Stage{entry}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if visited[current] {
			continue
		}
		visited[current] = true

		c, ok := known[current]
		if !ok {
			continue // reported above as a broken link
		}
		for _, to := range c.AllowedTransitions {
			if !visited[to] {
				queue = append(queue, to)
			}
		}
	}

	for _, c := range configs {
		if c.ID != "" && !visited[c.ID] {
			problems = append(problems, fmt.Sprintf("stage '%s' is unreachable from '%s'", c.ID, entry))
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
