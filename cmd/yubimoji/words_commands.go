package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ayusman/yubimoji/internal/store"
)

func newWordsCommand(ctx *commandContext) *cobra.Command {
	wordsCmd := &cobra.Command{
		Use:   "words",
		Short: "Manage the two-sign dictionary",
	}

	wordsCmd.AddCommand(newWordsListCommand(ctx))
	wordsCmd.AddCommand(newWordsAddCommand(ctx))
	wordsCmd.AddCommand(newWordsRemoveCommand(ctx))
	wordsCmd.AddCommand(newWordsSeedCommand(ctx))

	return wordsCmd
}

func newWordsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List dictionary words",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				words, err := st.Words().List()
				if err != nil {
					return fmt.Errorf("list words: %w", err)
				}
				out := cmd.OutOrStdout()
				if len(words) == 0 {
					fmt.Fprintln(out, "Dictionary is empty; run `yubimoji words seed` to load the defaults")
					return nil
				}
				tbl := newTable("Reading", "Word", "Added")
				for _, w := range words {
					tbl.row(w.Reading, w.Word, w.CreatedAt.Format("2006-01-02 15:04"))
				}
				tbl.render(out)
				fmt.Fprintf(out, "%d words\n", len(words))
				return nil
			})
		},
	}
}

func newWordsAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add READING WORD",
		Short: "Add a word keyed by a two-sign reading",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withWriteLock(func(st *store.Store) error {
				w := &store.Word{Reading: args[0], Word: args[1]}
				if err := st.Words().Create(w); err != nil {
					return fmt.Errorf("add word: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s → %s\n", w.Reading, w.Word)
				return nil
			})
		},
	}
}

func newWordsRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "remove READING",
		Aliases: []string{"rm"},
		Short:   "Remove the word for a reading",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withWriteLock(func(st *store.Store) error {
				if err := st.Words().Delete(args[0]); err != nil {
					if errors.Is(err, store.ErrNotFound) {
						return fmt.Errorf("no word for reading %q", args[0])
					}
					return fmt.Errorf("remove word: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
				return nil
			})
		},
	}
}

func newWordsSeedCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the built-in words that are missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withWriteLock(func(st *store.Store) error {
				added, err := st.Words().SeedDefaults()
				if err != nil {
					return fmt.Errorf("seed words: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d words\n", added)
				return nil
			})
		},
	}
}
