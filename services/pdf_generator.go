package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"e_mairie_go/models"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// PDFOptions contains options for PDF generation
type PDFOptions struct {
	PageOrientation string // portrait, landscape
	PageSize        string // A4, letter
	MarginTop       int    // points (72 = 1 inch)
	MarginBottom    int
	MarginLeft      int
	MarginRight     int
	ChromePath      string // headless-shell binary, empty for the default lookup
	Timeout         time.Duration
}

// DefaultPDFOptions returns A4 portrait with 1.5cm margins
func DefaultPDFOptions() PDFOptions {
	return PDFOptions{
		PageOrientation: "portrait",
		PageSize:        "A4",
		MarginTop:       42,
		MarginBottom:    42,
		MarginLeft:      42,
		MarginRight:     42,
		Timeout:         30 * time.Second,
	}
}

func (o PDFOptions) paperSize() (float64, float64) {
	width, height := 8.27, 11.69
	if o.PageSize == "letter" {
		width, height = 8.5, 11.0
	}
	if o.PageOrientation == "landscape" {
		width, height = height, width
	}
	return width, height
}

// GeneratePDF renders HTML content to PDF using headless Chrome
func GeneratePDF(ctx context.Context, htmlContent string, options PDFOptions) ([]byte, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.DisableGPU,
	)
	if options.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(options.ChromePath))
	}
	if options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, options.Timeout)
		defer cancel()
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	paperWidth, paperHeight := options.paperSize()
	var pdfBuf []byte
	err := chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, htmlContent).Do(ctx)
		}),
		chromedp.Sleep(100*time.Millisecond),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPaperWidth(paperWidth).
				WithPaperHeight(paperHeight).
				WithMarginTop(float64(options.MarginTop) / 72.0).
				WithMarginBottom(float64(options.MarginBottom) / 72.0).
				WithMarginLeft(float64(options.MarginLeft) / 72.0).
				WithMarginRight(float64(options.MarginRight) / 72.0).
				WithPrintBackground(true).
				WithDisplayHeaderFooter(false).
				Do(ctx)
			if err != nil {
				return err
			}
			pdfBuf = buf
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return pdfBuf, nil
}

var receiptTemplate = template.Must(template.New("receipt").Parse(`<!DOCTYPE html>
<html lang="fr">
<head>
<meta charset="utf-8">
<title>Récépissé {{.Request.ReferenceNumber}}</title>
<style>
body { font-family: "Helvetica", Arial, sans-serif; font-size: 12pt; color: #111827; }
header { border-bottom: 3px solid {{.Color}}; padding-bottom: 8px; margin-bottom: 24px; }
h1 { font-size: 18pt; margin: 0; color: {{.Color}}; }
h2 { font-size: 14pt; margin: 24px 0 8px; }
table { width: 100%; border-collapse: collapse; }
td { padding: 6px 4px; border-bottom: 1px solid #E5E7EB; vertical-align: top; }
td.label { width: 40%; color: #4B5563; }
.reference { font-size: 16pt; font-weight: bold; letter-spacing: 1px; }
footer { margin-top: 32px; font-size: 9pt; color: #6B7280; }
</style>
</head>
<body>
<header>
<h1>{{.Mairie.Name}}</h1>
<div>République du Cameroun{{if .Mairie.Region}} · Région {{.Mairie.Region}}{{end}}</div>
{{if .Mairie.Address}}<div>{{.Mairie.Address}}</div>{{end}}
</header>
<h2>Récépissé de dépôt : {{.VariantLabel}}</h2>
<p class="reference">{{.Request.ReferenceNumber}}</p>
<table>
<tr><td class="label">Demandeur</td><td>{{.Request.RequesterName}}</td></tr>
<tr><td class="label">Téléphone</td><td>{{.Request.RequesterPhone}}</td></tr>
<tr><td class="label">Objet</td><td>{{.Subject}}</td></tr>
<tr><td class="label">Déposée le</td><td>{{.SubmittedAt}}</td></tr>
<tr><td class="label">Statut</td><td>{{.StatusLabel}}</td></tr>
</table>
<p>Conservez ce récépissé. Le suivi de votre demande est disponible à l'adresse :<br>{{.TrackingURL}}</p>
<footer>Document généré le {{.GeneratedAt}}{{if .Mairie.Phone}} · Tél. {{.Mairie.Phone}}{{end}}</footer>
</body>
</html>`))

// RenderReceiptHTML renders the deposit receipt of a civil request
func RenderReceiptHTML(mairie *models.Mairie, request *models.CivilRequest, baseURL string) (string, error) {
	color := mairie.PrimaryColor
	if color == "" {
		color = "#1E40AF"
	}
	subject := ""
	if d := request.Details(); d != nil {
		subject = d.Subject()
	}
	var buf bytes.Buffer
	err := receiptTemplate.Execute(&buf, map[string]interface{}{
		"Mairie":       mairie,
		"Request":      request,
		"Color":        template.CSS(color),
		"VariantLabel": request.Variant.Label(),
		"Subject":      subject,
		"StatusLabel":  models.RequestStatusLabel(request.Status),
		"SubmittedAt":  request.CreatedAt.Format("02/01/2006 à 15:04"),
		"GeneratedAt":  time.Now().Format("02/01/2006 à 15:04"),
		"TrackingURL":  RequestTrackingURL(baseURL, request.TrackingToken),
	})
	if err != nil {
		return "", fmt.Errorf("failed to render receipt: %w", err)
	}
	return buf.String(), nil
}

// GenerateReceiptPDF renders the receipt of a civil request to PDF
func GenerateReceiptPDF(ctx context.Context, mairie *models.Mairie, request *models.CivilRequest, baseURL string, options PDFOptions) ([]byte, error) {
	html, err := RenderReceiptHTML(mairie, request, baseURL)
	if err != nil {
		return nil, err
	}
	return GeneratePDF(ctx, html, options)
}
