package main

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"

	"github.com/opencover/hyfd/internal/fdio"
	"github.com/opencover/hyfd/internal/mincover"
)

var (
	flagInput  string
	flagOutput string

	validate = validator.New()

	rootCmd = &cobra.Command{
		Use:   "mincover",
		Short: "Reduce a discovered FD list to its minimal cover",
		Long: `mincover reads a JSON FD list written by hyfd, reduces it to an
equivalent cover with no redundant FD and no redundant RHS attribute, and
writes the result back out in the same format.`,
		RunE: runMinCover,
	}
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagInput, "input", "fds.json", "path to the FD list to reduce")
	pf.StringVar(&flagOutput, "output", "fds.min.json", "path to write the minimal cover to")
}

// fdListInput wraps a decoded FD list purely so go-playground/validator/v10
// can check that it holds at least one entry before internal/mincover runs
// (SPEC_FULL.md §4.8). fdio.Pair carries no validation tags, so the LHS and
// RHS of each entry are not checked.
type fdListInput struct {
	Pairs []fdio.Pair `validate:"required,min=1,dive"`
}

func runMinCover(cmd *cobra.Command, args []string) error {
	pairs, err := fdio.ReadPairs(flagInput)
	if err != nil {
		return err
	}

	if err := validate.Struct(fdListInput{Pairs: pairs}); err != nil {
		return fmt.Errorf("mincover: %s is not a valid FD list: %w", flagInput, err)
	}

	reduced := reduce(pairs)

	if err := fdio.WriteAtomic(flagOutput, reduced); err != nil {
		return err
	}

	fmt.Printf("mincover: reduced %d FD entries to %d\n", len(pairs), len(reduced))
	return nil
}

// reduce regroups pairs (one LHS, single-attribute RHS per entry, fdio's
// on-disk form) into mincover.FD values (one LHS, multi-attribute RHS,
// internal/mincover's working form), runs the minimal-cover reduction, and
// splits the result back into pairs.
func reduce(pairs []fdio.Pair) []fdio.Pair {
	byLHS := make(map[string][]int)
	order := make(map[string][]int)
	var keys []string

	for _, p := range pairs {
		key := lhsKey(p.LHS)
		if _, ok := byLHS[key]; !ok {
			keys = append(keys, key)
			order[key] = p.LHS
		}
		byLHS[key] = append(byLHS[key], p.RHS[0])
	}

	fds := make([]mincover.FD, 0, len(keys))
	for _, key := range keys {
		fds = append(fds, mincover.FD{LHS: order[key], RHS: byLHS[key]})
	}

	reduced := mincover.MinimalCover(fds)

	var out []fdio.Pair
	for _, fd := range reduced {
		for _, r := range fd.RHS {
			out = append(out, fdio.Pair{LHS: fd.LHS, RHS: []int{r}})
		}
	}
	return out
}

func lhsKey(lhs []int) string {
	key := fmt.Sprint(lhs)
	return key
}
