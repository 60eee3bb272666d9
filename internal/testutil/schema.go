package testutil

// ShipmentColumns is the column schema of the sample shipment workbook.
func ShipmentColumns() []string {
	return []string{"Ref #", "Ship Date", "Status", "Published Cost"}
}

// WideShipmentColumns adds location, alternate cost and date columns.
func WideShipmentColumns() []string {
	return []string{
		"Ref #", "AWB No", "Ship Date", "Created At", "Status",
		"Origin City", "Destination City", "Published Cost", "Discounted Cost",
	}
}
