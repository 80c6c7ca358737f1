// Package export writes the admin order view as an Excel workbook.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"rmc-erp/internal/entity"
)

// SheetName is the worksheet holding the order rows.
const SheetName = "Orders"

var header = []interface{}{
	"Order ID", "Customer ID", "Grade", "Quantity (m3)", "Total Price", "Status",
	"Delivery Date", "Approved At", "Production Date", "Plant", "Priority",
	"Dispatch", "ETA", "Transit Mixer", "Driver", "Shift", "Address",
}

func dateTimeCell(d *entity.DateTime) string {
	if !d.IsSet() {
		return ""
	}
	return d.Format(entity.LocalLayout)
}

func dateCell(d *entity.Date) string {
	if !d.IsSet() {
		return ""
	}
	return d.Format(entity.DateLayout)
}

func row(o entity.Order) []interface{} {
	return []interface{}{
		o.OrderID, o.UserID, o.Grade, o.Quantity, o.TotalPrice, string(o.Status),
		dateTimeCell(o.DeliveryDate), dateTimeCell(o.ApprovedAt), dateCell(o.ProductionDate),
		o.PlantAllocation, o.PriorityLevel,
		dateTimeCell(o.DispatchDateTime), dateTimeCell(o.ExpectedArrivalTime),
		o.TransitMixerNumber, o.DriverName, o.DriverShift, o.Address,
	}
}

// WriteOrders renders orders as an xlsx workbook with a bold header row.
func WriteOrders(w io.Writer, orders []entity.Order) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	if err := f.SetRowStyle(SheetName, 1, 1, bold); err != nil {
		return fmt.Errorf("apply header style: %w", err)
	}

	for i, o := range orders {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := row(o)
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("write order %s: %w", o.OrderID, err)
		}
	}
	if err := f.SetColWidth(SheetName, "A", "Q", 16); err != nil {
		return fmt.Errorf("column width: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
