// Command poolutil checks and previews question pool files.
package main

import (
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"solo-persona/backend/internal/models"
	"solo-persona/backend/internal/quiz"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "poolutil",
		Short:         "Validate and sample quiz question pools",
		SilenceUsage: true,
	}
	root.SetOut(out)
	root.SetErr(out)
	root.AddCommand(newValidateCmd(), newSampleCmd())
	return root
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file...]",
		Short: "Validate pool files (the embedded pool when none are given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{""}
			}

			failed := 0
			for _, path := range args {
				name := path
				if name == "" {
					name = "<embedded>"
				}
				pool, err := quiz.LoadPool(path)
				if err != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "FAIL %s: %v\n", name, err)
					failed++
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "ok   %s: version %d, %d questions\n", name, pool.Version, pool.Len())
			}
			if failed > 0 {
				return fmt.Errorf("%d pool file(s) invalid", failed)
			}
			return nil
		},
	}
}

func newSampleCmd() *cobra.Command {
	var (
		file string
		n    int
		seed int64
	)
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Draw one session's questions and print them with the all-first-option totals",
		RunE: func(cmd *cobra.Command, _ []string) error {
			pool, err := quiz.LoadPool(file)
			if err != nil {
				return err
			}
			if seed == 0 {
				seed = time.Now().UnixNano()
			}
			questions, err := quiz.Sample(pool.Questions, n, rand.New(rand.NewSource(seed)))
			if err != nil {
				return err
			}

			first := make([]models.Option, len(questions))
			for i, q := range questions {
				first[i] = q.Options[0]
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(map[string]any{
				"seed":              seed,
				"questions":         questions,
				"firstOptionTotals": models.Sum(first...),
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "pool file (embedded pool when empty)")
	cmd.Flags().IntVarP(&n, "count", "n", 7, "questions per session")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (time-based when 0)")
	return cmd
}
