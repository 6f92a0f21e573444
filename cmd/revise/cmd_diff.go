// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianRevise/services/text_buddy/diff"
)

var diffStats bool

var diffCmd = &cobra.Command{
	Use:   "diff <original> <modified>",
	Short: "Show the line-level diff between two files",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDiff(args[0], args[1])
	},
}

func init() {
	diffCmd.Flags().BoolVar(&diffStats, "stats", false, "print change counts after the diff")
}

func runDiff(originalPath, modifiedPath string) error {
	original, err := os.ReadFile(originalPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", originalPath, err)
	}
	modified, err := os.ReadFile(modifiedPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", modifiedPath, err)
	}

	result := diff.Compute(string(original), string(modified))
	mods := diff.ToModifications(result)
	if len(mods) == 0 {
		fmt.Println("files are identical")
		return nil
	}

	rendered, err := diff.RenderUnified(originalPath, modifiedPath, mods)
	if err != nil {
		return fmt.Errorf("render diff: %w", err)
	}
	fmt.Print(rendered)

	if diffStats {
		fmt.Printf("\n%d added, %d deleted, %d modified\n",
			result.Additions, result.Deletions, result.Modifications)
	}
	return nil
}
