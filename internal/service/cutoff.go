package service

import (
	"fmt"
	"strconv"

	"github.com/kgadmissions/enquiry-api/internal/models"
)

// ComputeCutoff derives the engineering admission cutoff from the three
// 12th standard marks: maths/accountancy counted in full, physics/economics
// and chemistry/commerce at half weight. Blank or non-numeric marks count
// as zero.
func ComputeCutoff(mathsAccs, phyEco, cheComm string) string {
	m := parseMark(mathsAccs)
	p := parseMark(phyEco)
	c := parseMark(cheComm)
	return fmt.Sprintf("%.2f", m+p/2+c/2)
}

// ApplyCutoff recomputes the cutoff for the given marks and writes it back
// only when the value actually changed. When all three inputs are blank or
// zero no computation happens and the stored cutoff stays blank.
func ApplyCutoff(marks *models.MarksTwelfth) {
	if parseMark(marks.MathsAccs) == 0 && parseMark(marks.PhyEco) == 0 && parseMark(marks.CheComm) == 0 {
		return
	}
	cutoff := ComputeCutoff(marks.MathsAccs, marks.PhyEco, marks.CheComm)
	if cutoff != marks.Cutoff {
		marks.Cutoff = cutoff
	}
}

func parseMark(raw string) float64 {
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return value
}
