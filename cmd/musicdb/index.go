package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Print the alphabetic artist index",
	Long: `Build and print the alphabetic artist index: artists bucketed under
the upper-cased first letter of their name, the way the API layer serves
them.`,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	store, err := openStore(false)
	if err != nil {
		return err
	}
	defer store.Close()

	index, err := store.BuildIndex()
	if err != nil {
		return fmt.Errorf("failed to build index: %w", err)
	}

	letters := make([]string, 0, len(index))
	for letter := range index {
		letters = append(letters, letter)
	}
	sort.Strings(letters)

	for _, letter := range letters {
		fmt.Println(letter)
		for _, entry := range index[letter] {
			artist := entry["artist"]
			fmt.Printf("  %v  %v\n", artist["id"], artist["name"])
		}
	}
	return nil
}
