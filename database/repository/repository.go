package repository

import (
	bookingRepo "slotify/database/repository/booking"
	catalogRepo "slotify/database/repository/catalog"
	sequenceRepo "slotify/database/repository/sequence"
	settingsRepo "slotify/database/repository/settings"
)

// Re-export the CatalogRepository interface and constructor.
type CatalogRepository = catalogRepo.Repository

var NewMongoCatalogRepo = catalogRepo.NewMongoCatalogRepo

// Re-export the BookingRepository interface and constructor.
type BookingRepository = bookingRepo.Repository

var NewMongoBookingRepo = bookingRepo.NewMongoBookingRepo

// Re-export the SettingsRepository interface and constructor.
type SettingsRepository = settingsRepo.Repository

var NewMongoSettingsRepo = settingsRepo.NewMongoSettingsRepo

// Re-export the sequence constructor.
var NewMongoSequenceRepo = sequenceRepo.NewMongoSequenceRepo
