// Package ticketpdf は支払い済み予約の乗車券PDFを生成する
package ticketpdf

import (
	"bytes"
	"fmt"
	"io"

	"github.com/phpdave11/gofpdf"

	"github.com/sanosuguru/go-train-ticket-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/domain/trip"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/domain/user"
)

const displayLayout = "2006-01-02 15:04"

// Ticket は乗車券に印字する内容
type Ticket struct {
	Reservation *reservation.Reservation
	Trip        *trip.Trip
	Passenger   *user.User
}

// Render は乗車券PDFを w に書き出す。標準フォントは日本語を描画できないためラベルは英語
func Render(w io.Writer, t Ticket) error {
	pdf := gofpdf.New("P", "mm", "A5", "")
	pdf.SetTitle("Train ticket "+t.Reservation.ID, false)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "TRAIN TICKET")
	pdf.Ln(12)

	way := "One way"
	if t.Trip.TwoWay {
		way = "Round trip"
	}
	child := "No"
	if t.Reservation.HasChild {
		child = "Yes"
	}

	rows := [][2]string{
		{"Reservation", t.Reservation.ID},
		{"From", t.Trip.DepartureCity},
		{"To", t.Trip.ArrivalCity},
		{"Departure", t.Trip.DepartureAt.Format(displayLayout)},
		{"Arrival", t.Trip.ArrivalAt.Format(displayLayout)},
		{"Type", way},
		{"Tickets", fmt.Sprintf("%d", t.Reservation.TicketNumbers)},
		{"With child", child},
		{"Total", fmt.Sprintf("%.2f", t.Reservation.SumPrice)},
	}
	if t.Passenger != nil {
		rows = append([][2]string{{"Passenger", t.Passenger.FirstName + " " + t.Passenger.LastName}}, rows...)
	}

	for _, row := range rows {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(35, 7, row[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(0, 7, tr(row[1]), "", 1, "L", false, 0, "")
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.MultiCell(0, 5, "Valid only for the trip above. Please present this ticket on boarding.", "", "", false)

	return pdf.Output(w)
}

// RenderBytes は Render の結果をバイト列で返す
func RenderBytes(t Ticket) ([]byte, error) {
	var buf bytes.Buffer
	if err := Render(&buf, t); err != nil {
		return nil, fmt.Errorf("乗車券の生成に失敗: %w", err)
	}
	return buf.Bytes(), nil
}
