// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package review

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReviewType(t *testing.T) {
	rt, err := ParseReviewType("critic")
	require.NoError(t, err)
	assert.Equal(t, Critic, rt)
	assert.Equal(t, "critic", rt.Slug())

	rt, err = ParseReviewType(" Audience ")
	require.NoError(t, err)
	assert.Equal(t, Audience, rt)

	_, err = ParseReviewType("fans")
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "review type", verr.Field)
	assert.Contains(t, err.Error(), "Audience, Critic")
}

func TestParseReplaceType(t *testing.T) {
	rt, err := ParseReplaceType("Actors")
	require.NoError(t, err)
	assert.Equal(t, ReplaceActors, rt)
	assert.Equal(t, "actors", rt.String())

	_, err = ParseReplaceType("directors")
	assert.Error(t, err)
}

func TestParseAnalysisType(t *testing.T) {
	a, err := ParseAnalysisType("EMOTION")
	require.NoError(t, err)
	assert.Equal(t, Emotion, a)
	assert.Equal(t, "Emotion", a.Title())

	_, err = ParseAnalysisType("topics")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"sentiment", "emotion", "argument", "aspects"}, verr.Allowed)
}

func TestGroupByMovie(t *testing.T) {
	reviews := []Review{
		{RowID: "0", MovieID: "m2", Title: "Heat"},
		{RowID: "1", MovieID: "m1", Title: "Alien"},
		{RowID: "2", MovieID: "m2", Title: "Heat (1995)"},
		{RowID: "3", MovieID: "m3", Title: "Up"},
	}

	groups := GroupByMovie(reviews)
	require.Len(t, groups, 3)
	assert.Equal(t, "m2", groups[0].MovieID)
	assert.Equal(t, "Heat", groups[0].Title)
	assert.Equal(t, []string{"0", "2"}, []string{groups[0].Reviews[0].RowID, groups[0].Reviews[1].RowID})
	assert.Equal(t, "m1", groups[1].MovieID)
	assert.Equal(t, "m3", groups[2].MovieID)

	assert.Empty(t, GroupByMovie(nil))
}
