package admin

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"

	"hallbook/internal/seats"
)

// exportHeader matches the spreadsheet the organizing committee works from
var exportHeader = []string{
	"Table", "Seat", "Category", "ID", "Name", "Member", "Vegan",
	"Status", "Price", "Ref No", "Date", "Time",
}

// ExportCSV renders every seat with attendee and payment metadata as CSV,
// ordered by table then seat number.
func (s *service) ExportCSV(ctx context.Context) ([]byte, error) {
	snapshot, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]seats.Seat, 0, len(snapshot))
	for _, seat := range snapshot {
		rows = append(rows, seat)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TableID != rows[j].TableID {
			return rows[i].TableID < rows[j].TableID
		}
		return rows[i].SeatNumber < rows[j].SeatNumber
	})

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		return nil, fmt.Errorf("failed to write export header: %w", err)
	}

	for i := range rows {
		if err := w.Write(exportRow(&rows[i], s.cfg.Hall.MemberDiscount)); err != nil {
			return nil, fmt.Errorf("failed to write export row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush export: %w", err)
	}
	return buf.Bytes(), nil
}

func exportRow(seat *seats.Seat, discount float64) []string {
	row := []string{
		strconv.Itoa(seat.TableID),
		strconv.Itoa(seat.SeatNumber),
		"", "", "", "", "",
		seat.Status.String(),
		strconv.FormatFloat(seat.PayablePrice(discount), 'f', 2, 64),
		"", "", "",
	}
	if seat.Details != nil {
		row[2] = seat.Details.Category.String()
		row[3] = seat.Details.IdentityNo
		row[4] = seat.Details.Name
		row[5] = yesNo(seat.Details.Member)
		row[6] = yesNo(seat.Details.Vegan)
	}
	if seat.Payment != nil {
		row[9] = seat.Payment.RefNo
		row[10] = seat.Payment.Date
		row[11] = seat.Payment.Time
	}
	return row
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
