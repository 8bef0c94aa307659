// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package review

// Group is every review of one movie, in input order.
type Group struct {
	MovieID string
	Title   string
	Reviews []Review
}

// GroupByMovie groups reviews by MovieID. Groups appear in the order their
// movie is first seen, and each group's title comes from its first review.
func GroupByMovie(reviews []Review) []Group {
	index := make(map[string]int)
	var groups []Group
	for _, r := range reviews {
		i, ok := index[r.MovieID]
		if !ok {
			i = len(groups)
			index[r.MovieID] = i
			groups = append(groups, Group{MovieID: r.MovieID, Title: r.Title})
		}
		groups[i].Reviews = append(groups[i].Reviews, r)
	}
	return groups
}
