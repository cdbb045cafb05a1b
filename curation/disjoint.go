// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package curation

// disjointSet is a union-find over the indices 0..n-1, with path
// compression and union by size.
type disjointSet struct {
	parent []int
	sizes  []int
}

func newDisjointSet(n int) *disjointSet {
	ds := &disjointSet{
		parent: make([]int, n),
		sizes:  make([]int, n),
	}

	for i := range n {
		ds.parent[i] = i
		ds.sizes[i] = 1
	}

	return ds
}

// find returns the root of the set containing i.
func (ds *disjointSet) find(i int) int {
	root := i
	for ds.parent[root] != root {
		root = ds.parent[root]
	}

	for ds.parent[i] != root {
		next := ds.parent[i]
		ds.parent[i] = root
		i = next
	}

	return root
}

// union merges the sets containing i and j. The larger set's root becomes
// the root of the merged set; on ties the smaller index wins.
func (ds *disjointSet) union(i, j int) {
	ri, rj := ds.find(i), ds.find(j)
	if ri == rj {
		return
	}

	if ds.sizes[ri] < ds.sizes[rj] || (ds.sizes[ri] == ds.sizes[rj] && rj < ri) {
		ri, rj = rj, ri
	}

	ds.parent[rj] = ri
	ds.sizes[ri] += ds.sizes[rj]
}

// size returns the number of elements in the set containing i.
func (ds *disjointSet) size(i int) int {
	return ds.sizes[ds.find(i)]
}

// groups returns the sets as lists of indices. Lists are ordered by their
// smallest index and their members are ascending.
func (ds *disjointSet) groups() [][]int {
	order := make(map[int]int)

	var result [][]int

	for i := range ds.parent {
		root := ds.find(i)

		pos, ok := order[root]
		if !ok {
			pos = len(result)
			order[root] = pos

			result = append(result, make([]int, 0, ds.sizes[root]))
		}

		result[pos] = append(result[pos], i)
	}

	return result
}
