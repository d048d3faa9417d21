package services

import (
	"context"
	"os"
	"testing"
	"time"

	"e_mairie_go/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPDFOptions(t *testing.T) {
	opts := DefaultPDFOptions()
	assert.Equal(t, "portrait", opts.PageOrientation)
	assert.Equal(t, "A4", opts.PageSize)
	assert.Equal(t, 42, opts.MarginTop)

	w, h := opts.paperSize()
	assert.InDelta(t, 8.27, w, 0.001)
	assert.InDelta(t, 11.69, h, 0.001)

	opts.PageOrientation = "landscape"
	w, h = opts.paperSize()
	assert.InDelta(t, 11.69, w, 0.001)
	assert.InDelta(t, 8.27, h, 0.001)
}

func TestRenderReceiptHTML(t *testing.T) {
	mairie := &models.Mairie{Name: "Mairie de Yaoundé 1er", Region: "Centre", PrimaryColor: "#123456"}
	request := &models.CivilRequest{
		ReferenceNumber:    "NAIS-2026-00007",
		TrackingToken:      "5f0c8a2e-8f3b-4d6c-9a51-3a7d2b1c0e99",
		Variant:            models.VariantBirth,
		Status:             models.RequestStatusPending,
		RequesterLastName:  "Mbarga",
		RequesterFirstName: "<b>Paul</b>",
		RequesterPhone:     "699000000",
		Birth: &models.BirthDetails{
			SubjectLastName:   "Mbarga",
			SubjectFirstNames: "Junior",
		},
	}
	request.CreatedAt = time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC)

	html, err := RenderReceiptHTML(mairie, request, "https://yaounde1.example.cm/")
	require.NoError(t, err)

	assert.Contains(t, html, "<!DOCTYPE html>")
	assert.Contains(t, html, "NAIS-2026-00007")
	assert.Contains(t, html, "Mairie de Yaoundé 1er")
	assert.Contains(t, html, "#123456")
	assert.Contains(t, html, "02/03/2026")
	assert.Contains(t, html, "https://yaounde1.example.cm/etat-civil/suivi/5f0c8a2e-8f3b-4d6c-9a51-3a7d2b1c0e99/")
	assert.NotContains(t, html, "<b>Paul</b>")
}

func TestGenerateReceiptPDFSmoke(t *testing.T) {
	chromePath := os.Getenv("CHROME_PATH")
	if chromePath == "" {
		t.Skip("Skipping PDF generation test: CHROME_PATH not set")
	}

	opts := DefaultPDFOptions()
	opts.ChromePath = chromePath
	request := &models.CivilRequest{ReferenceNumber: "DEC-2026-00001", Variant: models.VariantDeath, Status: models.RequestStatusPending}

	pdf, err := GenerateReceiptPDF(context.Background(), &models.Mairie{Name: "Mairie test"}, request, "http://localhost", opts)
	if err != nil {
		t.Skipf("Skipping: Chrome unavailable: %v", err)
	}
	require.NotEmpty(t, pdf)
	assert.Equal(t, "%PDF-", string(pdf[:5]))
}
