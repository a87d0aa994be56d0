// Copyright (c) 2025 Jeremy Hahn
//
// SPDX-License-Identifier: Apache-2.0

package wipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemeRepo_PassSequences(t *testing.T) {
	repo := NewSchemeRepo()

	expected := map[string][]Pass{
		"zero":     {Fill(0x00)},
		"one":      {Fill(0xFF)},
		"random":   {Random()},
		"random2x": {Random(), Random()},
		"gost":     {Fill(0x00), Random()},
		"dod":      {Fill(0x00), Fill(0xFF), Random()},
		"vsitr": {
			Fill(0x00), Fill(0xFF),
			Fill(0x00), Fill(0xFF),
			Fill(0x00), Fill(0xFF),
			Random(),
		},
	}

	all := repo.All()
	require.Len(t, all, len(expected))

	for key, passes := range expected {
		s, ok := repo.Find(key)
		require.True(t, ok, "scheme %q missing", key)
		assert.Equal(t, key, s.Name)
		assert.Equal(t, passes, s.Passes)
	}
}

func TestSchemeRepo_FindUnknown(t *testing.T) {
	repo := NewSchemeRepo()

	_, ok := repo.Find("gutmann")
	assert.False(t, ok)
}

func TestSchemeRepo_DefaultExists(t *testing.T) {
	repo := NewSchemeRepo()

	s, ok := repo.Find(DefaultScheme)
	require.True(t, ok)
	assert.Equal(t, []Pass{Random(), Random()}, s.Passes)
}

func TestSchemeRepo_Explain(t *testing.T) {
	repo := NewSchemeRepo()

	explanation := repo.Explain()
	for _, key := range repo.Keys() {
		assert.Contains(t, explanation, key)
	}
	assert.Contains(t, explanation, "(default)")
	assert.Contains(t, explanation, "fill 0x00")
	assert.Contains(t, explanation, "random")
}
