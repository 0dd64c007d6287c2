// Copyright 2025 The Shopmap Authors
// SPDX-License-Identifier: Apache-2.0

package shops

import (
	"fmt"
	"sort"

	"github.com/jcodagnone/shopmap/spatial"
	"github.com/uber/h3-go/v4"
)

// MaxClusterResolution is the finest H3 resolution used for clusters.
const MaxClusterResolution = 9

// Cluster is the set of located shops falling in one H3 cell.
type Cluster struct {
	Cell   string        `json:"cell"`
	Count  int           `json:"count"`
	Center spatial.Point `json:"center"`
	Rows   []int         `json:"rows"`
}

// ResolutionForZoom maps a web map zoom level (0..18) to an H3 resolution.
func ResolutionForZoom(zoom int) int {
	res := zoom / 2
	if res < 0 {
		return 0
	}

	if res > MaxClusterResolution {
		return MaxClusterResolution
	}

	return res
}

// ClusterShops aggregates the located shops into H3 cells at the given
// resolution, most populated cells first. Unlocated shops are ignored.
func ClusterShops(shops []*Shop, resolution int) ([]Cluster, error) {
	if resolution < 0 || resolution > MaxClusterResolution {
		return nil, fmt.Errorf("h3 resolution %d out of range 0..%d", resolution, MaxClusterResolution)
	}

	byCell := make(map[h3.Cell]*Cluster)
	points := make(map[h3.Cell][]spatial.Point)

	var cells []h3.Cell

	for _, s := range shops {
		if !s.Located() {
			continue
		}

		cell, err := h3.LatLngToCell(h3.NewLatLng(s.Point.Lat, s.Point.Lng), resolution)
		if err != nil {
			return nil, fmt.Errorf("error converting row %d to h3 cell at res %d: %w", s.Row, resolution, err)
		}

		c, ok := byCell[cell]
		if !ok {
			c = &Cluster{Cell: cell.String()}
			byCell[cell] = c
			cells = append(cells, cell)
		}

		c.Count++
		c.Rows = append(c.Rows, s.Row)
		points[cell] = append(points[cell], *s.Point)
	}

	clusters := make([]Cluster, 0, len(cells))

	for _, cell := range cells {
		c := byCell[cell]
		c.Center, _ = spatial.Centroid(points[cell])
		clusters = append(clusters, *c)
	}

	sort.SliceStable(clusters, func(i, j int) bool {
		if clusters[i].Count != clusters[j].Count {
			return clusters[i].Count > clusters[j].Count
		}

		return clusters[i].Cell < clusters[j].Cell
	})

	return clusters, nil
}
