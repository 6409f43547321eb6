package report

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"playlistscanner/internal/model"
)

// Размеры A4 и разметка страницы, мм
const (
	pageWidth       = 210.0
	pageHeight      = 297.0
	coverWidth      = 60.0
	playlistCoverW  = 30.0
	playlistCoverX  = 170.0
	entriesPerPage  = 3
	backgroundImage = "background"
)

var spotifyGreen = [3]int{29, 185, 84}

// pdfWriter собирает документ отчета
type pdfWriter struct {
	pdf        *fpdf.Fpdf
	images     *imageLoader
	registered map[string]bool
	background []byte
	createdAt  time.Time
}

func newPDFWriter(images *imageLoader, background []byte, createdAt time.Time) *pdfWriter {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 15)
	pdf.SetTitle("Playlist Scanner Report", true)
	pdf.SetCreator("playlistscanner", true)

	return &pdfWriter{
		pdf:        pdf,
		images:     images,
		registered: make(map[string]bool),
		background: background,
		createdAt:  createdAt,
	}
}

// write рисует все записи результата и возвращает PDF
func (w *pdfWriter) write(ctx context.Context, result *model.ScanResult) ([]byte, error) {
	entries := result.OrderedEntries()
	if len(entries) == 0 {
		w.writeNotFound(result.Summary().Headline)
	}
	for _, entry := range entries {
		w.writeEntry(ctx, entry)
	}

	var buf bytes.Buffer
	if err := w.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (w *pdfWriter) addPage() {
	w.pdf.AddPage()
	if len(w.background) > 0 && w.register(backgroundImage, w.background) {
		w.pdf.ImageOptions(backgroundImage, 0, 0, pageWidth, pageHeight, false,
			fpdf.ImageOptions{ImageType: "JPG"}, 0, "")
	}
}

// register добавляет JPEG в документ один раз
func (w *pdfWriter) register(name string, data []byte) bool {
	if w.registered[name] {
		return true
	}
	w.pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: "JPG"}, bytes.NewReader(data))
	if w.pdf.Err() {
		// битое изображение не должно ломать документ
		w.pdf.ClearError()
		return false
	}
	w.registered[name] = true
	return true
}

func (w *pdfWriter) setColor(c [3]int) {
	w.pdf.SetTextColor(c[0], c[1], c[2])
}

func (w *pdfWriter) writeNotFound(headline string) {
	w.addPage()
	w.pdf.SetFont("Arial", "B", 22)
	w.setColor(spotifyGreen)
	w.pdf.MultiCell(0, 15, pdfText(headline), "", "C", false)
	w.writeCreatedAt()
}

func (w *pdfWriter) writeCreatedAt() {
	w.pdf.SetTextColor(255, 255, 255)
	w.pdf.SetFont("Arial", "", 14)
	w.pdf.CellFormat(0, 10, pdfText("Erstellt am: "+w.createdAt.Format("02.01.2006 – 15:04:05")), "", 1, "C", false, 0, "")
}

func (w *pdfWriter) writeEntry(ctx context.Context, entry *model.AggregateEntry) {
	pdf := w.pdf
	track := entry.Track
	w.addPage()

	name := track.Name
	if name == "" {
		name = "Unbekannt"
	}
	pdf.SetFont("Arial", "B", 22)
	w.setColor(spotifyGreen)
	pdf.MultiCell(0, 15, pdfText(name+" by "+track.ArtistNames()), "", "C", false)
	w.writeCreatedAt()

	pdf.SetFont("Arial", "", 12)
	if details := track.Details(); len(details) > 0 {
		pdf.Ln(5)
		pdf.MultiCell(0, 8, pdfText(strings.Join(details, " | ")), "", "C", false)
	}
	pdf.Ln(10)

	if track.CoverURL == "" {
		pdf.Ln(10)
	} else if img, err := w.images.Load(ctx, track.CoverURL); err == nil && w.register(track.CoverURL, img) {
		pdf.Ln(5)
		pdf.ImageOptions(track.CoverURL, (pageWidth-coverWidth)/2, pdf.GetY(), coverWidth, 0, false,
			fpdf.ImageOptions{ImageType: "JPG"}, 0, "")
		pdf.Ln(65)
	}

	names := make(map[string]struct{}, len(entry.Playlists))
	for _, pl := range entry.Playlists {
		names[pl.Name] = struct{}{}
	}
	pdf.SetFont("Arial", "", 13)
	pdf.SetTextColor(255, 255, 255)
	pdf.MultiCell(0, 8, pdfText(fmt.Sprintf("Der Track wurde in %d Playlist(s) gefunden. Insgesamt %d Platzierungen.",
		len(names), len(entry.Playlists))), "", "", false)
	pdf.Ln(5)

	for i, pl := range entry.DistinctPlaylists() {
		if i > 0 && i%entriesPerPage == 0 {
			w.addPage()
		}
		w.writePlaylist(ctx, pl)
	}
}

func (w *pdfWriter) writePlaylist(ctx context.Context, pl model.PlaylistMatch) {
	pdf := w.pdf

	pdf.SetFillColor(spotifyGreen[0], spotifyGreen[1], spotifyGreen[2])
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Arial", "B", 13)
	pdf.CellFormat(0, 10, pdfText("Playlist: "+pl.Name), "", 1, "", true, 0, "")

	pdf.SetFont("Arial", "", 12)
	pdf.CellFormat(0, 8, pdfText(fmt.Sprintf("Kurator: %s – Follower: %s – Position: %d",
		pl.OwnerText(), pl.FollowersText(), pl.Position)), "", 1, "", false, 0, "")

	if pl.Description != "" {
		pdf.SetFont("Arial", "", 11)
		pdf.MultiCell(0, 7, pdfText(pl.Description), "", "", false)
	}
	if pl.URL != "" {
		w.setColor(spotifyGreen)
		pdf.CellFormat(0, 8, pdfText(pl.URL), "", 1, "", false, 0, pl.URL)
		pdf.SetTextColor(255, 255, 255)
	}

	if pl.Cover != "" {
		if img, err := w.images.Load(ctx, pl.Cover); err == nil && w.register(pl.Cover, img) {
			pdf.ImageOptions(pl.Cover, playlistCoverX, pdf.GetY()-25, playlistCoverW, 0, false,
				fpdf.ImageOptions{ImageType: "JPG"}, 0, "")
		}
	}

	pdf.Ln(6)
	left, _, right, _ := pdf.GetMargins()
	pdf.SetDrawColor(spotifyGreen[0], spotifyGreen[1], spotifyGreen[2])
	pdf.SetLineWidth(0.8)
	pdf.Line(left, pdf.GetY(), pageWidth-right, pdf.GetY())
	pdf.Ln(4)
}
