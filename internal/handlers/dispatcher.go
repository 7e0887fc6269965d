package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/avvvet/tablebuddy/internal/memory"
	"github.com/avvvet/tablebuddy/internal/metrics"
	"github.com/avvvet/tablebuddy/internal/models"
	"github.com/avvvet/tablebuddy/internal/prompts"
	"github.com/avvvet/tablebuddy/internal/reservation"
)

// Classifier maps an utterance to an intent. Implementations must not fail;
// they degrade to models.IntentUnknown instead.
type Classifier interface {
	Classify(ctx context.Context, utterance string, today time.Time) models.IntentResult
}

// Turn is the outcome of one dispatched utterance.
type Turn struct {
	Intent models.Intent
	Reply  string
}

// Dispatcher runs one chat turn: classify, merge entities with the session's
// dialogue context, call the reservation backend and render a reply.
type Dispatcher struct {
	classifier Classifier
	api        reservation.API
	logger     *zap.Logger
	metrics    *metrics.Metrics
	now        func() time.Time
}

// NewDispatcher creates a new turn dispatcher
func NewDispatcher(classifier Classifier, api reservation.API, logger *zap.Logger, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{
		classifier: classifier,
		api:        api,
		logger:     logger,
		metrics:    m,
		now:        time.Now,
	}
}

// HandleTurn always returns reply text. Session.Context is only changed by
// turns that gathered or consumed booking details.
func (d *Dispatcher) HandleTurn(ctx context.Context, sess *memory.Session, utterance string) Turn {
	result := d.classifier.Classify(ctx, utterance, d.now())
	log := d.logger.With(zap.String("session_id", sess.ID), zap.String("intent", string(result.Intent)))
	d.metrics.ObserveTurn(string(result.Intent))

	var reply string
	switch result.Intent {
	case models.IntentCheckAvailability:
		reply = d.checkAvailability(ctx, log, sess, result.Entities)
	case models.IntentBookReservation:
		reply = d.bookReservation(ctx, log, sess, result.Entities)
	case models.IntentCheckBooking:
		reply = d.checkBooking(ctx, log, sess, result.Entities)
	case models.IntentModifyBooking:
		reply = d.modifyBooking(ctx, log, sess, result.Entities)
	case models.IntentCancelBooking:
		reply = d.cancelBooking(ctx, log, sess, result.Entities)
	default:
		reply = prompts.FallbackMessage
	}

	log.Info("turn dispatched", zap.Any("context", sess.Context))
	return Turn{Intent: result.Intent, Reply: reply}
}

func (d *Dispatcher) checkAvailability(ctx context.Context, log *zap.Logger, sess *memory.Session, e models.Entities) string {
	switch {
	case e.Date == "" && e.PartySize == 0:
		return msgAskAvailabilityDetails
	case e.Date == "":
		return fmt.Sprintf(msgAskAvailabilityDate, e.PartySize)
	case e.PartySize == 0:
		return fmt.Sprintf(msgAskAvailabilityParty, e.Date)
	}

	sess.Context.Date = e.Date
	sess.Context.PartySize = e.PartySize

	slots, err := d.api.SearchAvailability(ctx, e.Date, e.PartySize)
	if err != nil {
		log.Error("availability search failed", zap.Error(err))
		return msgAvailabilityFailed
	}

	times := AvailableTimes(slots, e.TimeOfDay)
	if len(times) == 0 {
		if e.TimeOfDay != "" {
			return fmt.Sprintf(msgNoTablesTimeOfDay, e.TimeOfDay)
		}
		return msgNoTables
	}

	display := make([]string, 0, len(times))
	for _, t := range times {
		display = append(display, models.DisplayTime(t))
	}
	return fmt.Sprintf(msgSlotsAvailable, e.Date, e.PartySize, strings.Join(display, ", "))
}

func (d *Dispatcher) bookReservation(ctx context.Context, log *zap.Logger, sess *memory.Session, e models.Entities) string {
	dc := sess.Context
	if dc.Date == "" || dc.PartySize == 0 {
		return msgBookNeedsAvailability
	}
	if e.Time == "" {
		return fmt.Sprintf(msgBookNeedsTime, dc.PartySize, dc.Date)
	}

	ref, err := d.api.CreateBooking(ctx, dc.Date, e.Time, dc.PartySize)
	if err != nil {
		log.Error("booking failed", zap.Error(err))
		return msgBookFailed
	}

	sess.Context.Clear()
	log.Info("booking created", zap.String("booking_reference", ref))
	return fmt.Sprintf(msgBooked, dc.PartySize, dc.Date, models.DisplayTime(e.Time), ref)
}

func (d *Dispatcher) checkBooking(ctx context.Context, log *zap.Logger, sess *memory.Session, e models.Entities) string {
	if e.BookingReference == "" {
		return msgAskReference
	}

	booking, err := d.api.GetBooking(ctx, e.BookingReference)
	if errors.Is(err, reservation.ErrBookingNotFound) {
		return reservation.NotFoundMessage + msgNotFoundSuffix
	}
	if err != nil {
		log.Error("booking lookup failed", zap.Error(err))
		return msgCheckFailed
	}

	sess.Context.BookingReference = e.BookingReference

	if booking.Status == models.BookingStatusCancelled {
		return fmt.Sprintf(msgBookingCancelled, e.BookingReference, booking.VisitDate, models.DisplayTime(booking.VisitTime))
	}
	return fmt.Sprintf(msgBookingDetails, e.BookingReference, booking.Status, booking.PartySize,
		booking.VisitDate, models.DisplayTime(booking.VisitTime))
}

func (d *Dispatcher) modifyBooking(ctx context.Context, log *zap.Logger, sess *memory.Session, e models.Entities) string {
	ref := resolveReference(e, sess.Context)
	if ref == "" {
		return msgAskModifyRef
	}

	update := models.BookingUpdate{Date: e.Date, Time: e.Time, PartySize: e.PartySize}
	if update.IsEmpty() {
		return fmt.Sprintf(msgAskModifyFields, ref)
	}

	if update.PartySize > 0 {
		if reply, ok := d.checkCapacity(ctx, log, ref, update); !ok {
			return reply
		}
	}

	if _, err := d.api.UpdateBooking(ctx, ref, update); err != nil {
		log.Error("booking update failed", zap.Error(err), zap.String("booking_reference", ref))
		return msgModifyFailed
	}

	sess.Context.Clear()
	return fmt.Sprintf(msgModified, ref, describeUpdate(update))
}

// checkCapacity verifies the new party size fits the slot the booking will
// occupy after the update. It returns a rejection reply when it does not.
func (d *Dispatcher) checkCapacity(ctx context.Context, log *zap.Logger, ref string, update models.BookingUpdate) (string, bool) {
	current, err := d.api.GetBooking(ctx, ref)
	if errors.Is(err, reservation.ErrBookingNotFound) {
		return reservation.NotFoundMessage + msgNotFoundSuffix, false
	}
	if err != nil {
		log.Error("capacity check: booking lookup failed", zap.Error(err))
		return fmt.Sprintf(msgVerifyFailed, ref), false
	}

	date := current.VisitDate
	if update.Date != "" {
		date = update.Date
	}
	visitTime := current.VisitTime
	if update.Time != "" {
		visitTime = update.Time
	}

	slots, err := d.api.SearchAvailability(ctx, date, update.PartySize)
	if err != nil {
		log.Error("capacity check: availability search failed", zap.Error(err))
		return fmt.Sprintf(msgVerifyFailed, ref), false
	}

	slot, found := findSlot(slots, visitTime)
	if !found {
		log.Warn("capacity check: slot not found", zap.String("date", date), zap.String("time", visitTime))
		return fmt.Sprintf(msgVerifyFailed, ref), false
	}
	if update.PartySize > slot.MaxPartySize {
		return fmt.Sprintf(msgCapacityExceeded, models.DisplayTime(slot.Time), date, slot.MaxPartySize, update.PartySize), false
	}
	return "", true
}

func (d *Dispatcher) cancelBooking(ctx context.Context, log *zap.Logger, sess *memory.Session, e models.Entities) string {
	ref := resolveReference(e, sess.Context)
	if ref == "" {
		return msgAskCancelRef
	}

	if _, err := d.api.CancelBooking(ctx, ref); err != nil {
		log.Error("cancellation failed", zap.Error(err), zap.String("booking_reference", ref))
		return msgCancelFailed
	}

	sess.Context.Clear()
	return fmt.Sprintf(msgCancelled, ref)
}

func resolveReference(e models.Entities, dc models.DialogueContext) string {
	if e.BookingReference != "" {
		return e.BookingReference
	}
	return dc.BookingReference
}
