package handlers

const (
	msgAskAvailabilityDetails = "I can check availability for you. Which date would you like, and for how many people?"
	msgAskAvailabilityDate    = "Which date would you like me to check for %d people?"
	msgAskAvailabilityParty   = "How many people should I check availability for on %s?"
	msgSlotsAvailable         = "On %s, the following times are available for %d people: %s. Which time would you like to book?"
	msgNoTables               = "Sorry, there are no tables available for that date."
	msgNoTablesTimeOfDay      = "Sorry, there are no tables available in the %s on that date."
	msgAvailabilityFailed     = "Sorry, I couldn't retrieve availability at the moment."

	msgBookNeedsAvailability = "Let's check availability first. Which date would you like, and for how many people? Then you can pick one of the available times."
	msgBookNeedsTime         = "Which of the available times would you like to book for %d people on %s?"
	msgBooked                = "Your table for %d on %s at %s is booked. Your booking reference is %s."
	msgBookFailed            = "Sorry, I couldn't complete that booking. The time may no longer be available, so please check availability and try again."

	msgAskReference     = "Could you give me your booking reference?"
	msgBookingDetails   = "Booking %s is %s for %d people on %s at %s."
	msgBookingCancelled = "Booking %s for %s at %s has been cancelled."
	msgNotFoundSuffix   = " Please check the reference and try again."
	msgCheckFailed      = "Sorry, I couldn't retrieve that booking at the moment."
	msgAskModifyRef     = "Which booking would you like to change? Please give me the booking reference."
	msgAskModifyFields  = "What would you like to change about booking %s? I can update the date, time or party size."
	msgCapacityExceeded = "Sorry, the %s slot on %s can seat at most %d people, so I can't change the party size to %d."
	msgVerifyFailed     = "Sorry, I couldn't verify availability for the new party size, so booking %s has not been changed."
	msgModified         = "Booking %s has been updated: %s."
	msgModifyFailed     = "Sorry, I couldn't update that booking at the moment."
	msgAskCancelRef     = "Which booking would you like to cancel? Please give me the booking reference."
	msgCancelled        = "Booking %s has been cancelled."
	msgCancelFailed     = "Sorry, I couldn't cancel that booking at the moment."
)
