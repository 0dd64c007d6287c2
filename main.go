// Copyright 2025 The Shopmap Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/jcodagnone/shopmap/cmd"
)

var Version = "development"

func main() {
	cmd.Execute(Version)
}
