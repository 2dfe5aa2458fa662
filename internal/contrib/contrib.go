// Package contrib derives the contribution heat-map from project creation
// timestamps. Project ids are unix-millisecond strings, so each project
// contributes one unit to its UTC creation day.
package contrib

import (
	"strconv"
	"time"

	"github.com/starford/gitfolio/internal/models"
)

// levelColors is the 5-step intensity scale, level 0 (empty) to 4.
var levelColors = [5]string{"#161b22", "#0e4429", "#006d32", "#26a641", "#39d353"}

// weeks is the number of grid columns; 53 covers a year starting on the
// Sunday at or before its first day.
const weeks = 53

const dayFormat = "2006-01-02"

// Cell is one day square in the heat-map.
type Cell struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
	Level int    `json:"level"`
	Color string `json:"color"`
}

// Activity is the aggregated heat-map: 53 week columns of 7 days each plus
// the total contribution count for the window.
type Activity struct {
	Weeks [][]Cell `json:"weeks"`
	Total int      `json:"total"`
}

// Aggregate buckets project creation dates into a 53x7 grid covering the
// year up to asOf. Projects whose id is not a numeric timestamp (static
// seed entries) are skipped. The output is fully determined by asOf and the
// project set.
func Aggregate(projects []models.Project, asOf time.Time) Activity {
	asOf = asOf.UTC()
	windowStart := asOf.AddDate(-1, 0, 0)

	counts := make(map[string]int)
	total := 0
	for _, p := range projects {
		ms, err := strconv.ParseInt(p.ID, 10, 64)
		if err != nil {
			continue
		}
		created := time.UnixMilli(ms).UTC()
		if created.Before(windowStart) || created.After(asOf) {
			continue
		}
		counts[created.Format(dayFormat)]++
		total++
	}

	// Align the first column to the Sunday at or before the window start.
	start := time.Date(windowStart.Year(), windowStart.Month(), windowStart.Day(), 0, 0, 0, 0, time.UTC)
	start = start.AddDate(0, 0, -int(start.Weekday()))

	grid := make([][]Cell, weeks)
	for w := 0; w < weeks; w++ {
		col := make([]Cell, 7)
		for d := 0; d < 7; d++ {
			day := start.AddDate(0, 0, w*7+d)
			date := day.Format(dayFormat)
			count := counts[date]
			level := count
			if level > 4 {
				level = 4
			}
			col[d] = Cell{Date: date, Count: count, Level: level, Color: levelColors[level]}
		}
		grid[w] = col
	}
	return Activity{Weeks: grid, Total: total}
}
