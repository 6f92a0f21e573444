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
	"runtime"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianRevise/services/text_buddy"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the revise version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("revise %s (%s/%s)\n",
			text_buddy.ServiceVersion, runtime.GOOS, runtime.GOARCH)
	},
}
