package pdf

import (
	"bytes"
	"fmt"

	"quiz-tutor/internal/domain"

	"github.com/go-pdf/fpdf"
)

const (
	pageWidth   = 210.0
	marginLeft  = 15.0
	marginRight = 15.0
	lineHeight  = 6.0
)

// ReportRenderer renders quiz reports as A4 PDF documents using the core Helvetica fonts.
type ReportRenderer struct{}

func NewReportRenderer() *ReportRenderer {
	return &ReportRenderer{}
}

// RenderReport lays out one block per question: question text, the submitted answer, the
// correct answer and the verdict, followed by a score line.
func (r *ReportRenderer) RenderReport(quizID string, records []domain.ResultRecord) ([]byte, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetMargins(marginLeft, 15, marginRight)
	doc.SetAutoPageBreak(true, 15)
	doc.SetTitle(fmt.Sprintf("Quiz report %s", quizID), true)
	tr := doc.UnicodeTranslatorFromDescriptor("")
	width := pageWidth - marginLeft - marginRight

	doc.AddPage()

	topic := ""
	if len(records) > 0 {
		topic = records[0].Topic
	}
	doc.SetFont("Helvetica", "B", 16)
	doc.MultiCell(width, 9, tr("Quiz report: "+topic), "", "L", false)
	doc.SetFont("Helvetica", "", 9)
	doc.SetTextColor(110, 110, 110)
	doc.CellFormat(width, lineHeight, tr("Quiz ID: "+quizID), "", 1, "L", false, 0, "")
	doc.SetTextColor(0, 0, 0)
	doc.Ln(4)

	correct := 0
	for i, rec := range records {
		if rec.IsCorrect {
			correct++
		}

		doc.SetFont("Helvetica", "B", 11)
		doc.MultiCell(width, lineHeight, tr(fmt.Sprintf("%d. %s", i+1, rec.Question)), "", "L", false)

		answer := rec.UserAnswer
		if answer == "" {
			answer = "(no answer)"
		}
		doc.SetFont("Helvetica", "", 10)
		doc.CellFormat(width, lineHeight, tr("Your answer: "+answer), "", 1, "L", false, 0, "")
		doc.CellFormat(width, lineHeight, tr("Correct answer: "+rec.CorrectAnswer), "", 1, "L", false, 0, "")

		verdict := "Incorrect"
		doc.SetTextColor(180, 30, 30)
		if rec.IsCorrect {
			verdict = "Correct"
			doc.SetTextColor(20, 130, 50)
		}
		doc.SetFont("Helvetica", "B", 10)
		doc.CellFormat(width, lineHeight, verdict, "", 1, "L", false, 0, "")
		doc.SetTextColor(0, 0, 0)
		doc.Ln(3)
	}

	doc.SetFont("Helvetica", "B", 12)
	doc.CellFormat(width, 8, fmt.Sprintf("Score: %d / %d", correct, len(records)), "T", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render PDF for quiz %s: %w", quizID, err)
	}
	return buf.Bytes(), nil
}

var _ domain.ReportRenderer = (*ReportRenderer)(nil)
