package infra

// pdf.go renders the purchase slip handed to the supplier when an
// administrator approves a purchase request: request id, ingredient,
// quantity, urgency, requester and approver. The file is written to
// storagePath/purchase_{id}.pdf.

import (
	"fmt"
	"os"
	"path/filepath"

	"schoolfood/internal/model"

	"github.com/go-pdf/fpdf"
)

// SlipParties carries the display names printed on the slip.
type SlipParties struct {
	Requester string
	Approver  string
}

// GeneratePurchaseSlipPDF writes the slip and returns its path.
func GeneratePurchaseSlipPDF(req *model.PurchaseRequest, parties SlipParties, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}
	filePath := filepath.Join(storagePath, fmt.Sprintf("purchase_%s.pdf", req.ID))

	// A6 portrait is plenty for one line item.
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: 105, Ht: 148},
	})
	pdf.SetMargins(8, 8, 8)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 16

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(contentW, 8, "School Cafeteria", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, "Purchase slip", "", 1, "C", false, 0, "")
	pdf.Ln(3)
	pdf.Line(8, pdf.GetY(), pageW-8, pdf.GetY())
	pdf.Ln(3)

	// ── Body ─────────────────────────────────────────────────────────────────
	labelW := contentW * 0.38
	valueW := contentW - labelW
	row := func(label, value string) {
		pdf.SetFont("Helvetica", "B", 8)
		pdf.CellFormat(labelW, 6, label, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 8)
		pdf.CellFormat(valueW, 6, value, "", 1, "L", false, 0, "")
	}

	row("Request", req.ID.String()[:8])
	row("Ingredient", req.IngredientName)
	row("Quantity", fmt.Sprintf("%s %s", req.Quantity.String(), req.Unit))
	row("Urgency", req.Urgency)
	row("Requested by", parties.Requester)
	row("Approved by", parties.Approver)
	if req.ApprovedAt != nil {
		row("Approved at", req.ApprovedAt.UTC().Format("2006-01-02 15:04 UTC"))
	}
	if req.Notes != "" {
		pdf.Ln(2)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.MultiCell(contentW, 5, req.Notes, "", "L", false)
	}

	// ── Footer ────────────────────────────────────────────────────────────────
	pdf.Ln(6)
	pdf.Line(8, pdf.GetY(), pageW-8, pdf.GetY())
	pdf.Ln(2)
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW, 4, "Signature on delivery", "", 1, "R", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return filePath, nil
}
