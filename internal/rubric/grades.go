package rubric

import "sort"

// Incomplete is the grade of rows whose comments mention "incomplete".
const Incomplete = "I"

// Threshold is the minimum total for a letter grade.
type Threshold struct {
	Letter string  `json:"letter"`
	Min    float64 `json:"min"`
}

// DefaultThresholds are ordered from the best letter down and end with F at 0.
func DefaultThresholds() []Threshold {
	return []Threshold{
		{"A+", 97}, {"A", 93}, {"A-", 90},
		{"B+", 87}, {"B", 83}, {"B-", 80},
		{"C+", 77}, {"C", 73}, {"C-", 70},
		{"D+", 67}, {"D", 60},
		{"F", 0},
	}
}

// AssignGrades sets Grade on every row: Incomplete for incomplete rows,
// otherwise the first letter whose minimum the total reaches. A total below
// every threshold leaves the grade empty.
func AssignGrades(rows []Row, thresholds []Threshold) {
	for i := range rows {
		rows[i].Grade = ""
		if rows[i].Incomplete {
			rows[i].Grade = Incomplete
			continue
		}
		for _, t := range thresholds {
			if rows[i].TotalPoints >= t.Min {
				rows[i].Grade = t.Letter
				break
			}
		}
	}
}

type Bucket struct {
	Letter string `json:"letter"`
	Count  int    `json:"count"`
}

// Distribution counts rows per letter, in threshold order followed by
// Incomplete. Letters nobody received are reported with zero.
func Distribution(rows []Row, thresholds []Threshold) []Bucket {
	counts := make(map[string]int, len(thresholds)+1)
	for _, r := range rows {
		counts[r.Grade]++
	}
	out := make([]Bucket, 0, len(thresholds)+1)
	for _, t := range thresholds {
		out = append(out, Bucket{Letter: t.Letter, Count: counts[t.Letter]})
	}
	return append(out, Bucket{Letter: Incomplete, Count: counts[Incomplete]})
}

// SortByTotal orders rows by total points, then student name.
func SortByTotal(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].TotalPoints != rows[j].TotalPoints {
			return rows[i].TotalPoints < rows[j].TotalPoints
		}
		return rows[i].Student < rows[j].Student
	})
}
