// Copyright 2025 The Shopmap Authors
// SPDX-License-Identifier: Apache-2.0

package textutils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLowerAsciiFolding(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Hello World", "hello world"},
		{"  Spaces  ", "spaces"},
		{"Áéíóú", "aeiou"},
		{"München", "munchen"},
		{"Crème Brûlée", "creme brulee"},
		{"", ""},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, LowerASCIIFolding(tc.input))
		})
	}
}

func TestContainsFolded(t *testing.T) {
	tests := []struct {
		name      string
		needle    string
		haystacks []string
		want      bool
	}{
		{"empty needle matches", "", []string{"anything"}, true},
		{"blank needle matches", "   ", nil, true},
		{"case insensitive", "BERLIN", []string{"Berlin"}, true},
		{"accent insensitive", "zurich", []string{"Zürich"}, true},
		{"accented needle", "Zür", []string{"ZURICH"}, true},
		{"second haystack", "de", []string{"Acme", "Germany DE"}, true},
		{"no match", "paris", []string{"Berlin", "Germany"}, false},
		{"no haystacks", "x", nil, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ContainsFolded(tc.needle, tc.haystacks...))
		})
	}
}

func TestCollapseSpaces(t *testing.T) {
	assert.Equal(t, "a b c", CollapseSpaces("  a \n b\t\tc "))
	assert.Empty(t, CollapseSpaces(" \t "))
}

func TestFormatInt(t *testing.T) {
	tests := []struct {
		input    int64
		expected string
	}{
		{0, "0"},
		{1, "1"},
		{123, "123"},
		{1234, "1,234"},
		{123456, "123,456"},
		{1234567, "1,234,567"},
		{-1, "-1"},
		{-1234, "-1,234"},
		{-1234567, "-1,234,567"},
	}

	for _, tc := range tests {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, FormatInt(tc.input))
		})
	}
}
