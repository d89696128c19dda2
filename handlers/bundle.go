// File: slotify/handlers/bundle.go
package handlers

// HandlerBundle groups all endpoint handlers into one struct so the route
// registrar takes a single dependency.
type HandlerBundle struct {
	Catalog      *CatalogHandler
	Availability *AvailabilityHandler
	Booking      *BookingHandler
	Admin        *AdminHandler
}
