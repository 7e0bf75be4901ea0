package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	renthouse "github.com/IbrahimGhasia/Decentralized-Renting-House-Backend"
	"github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/property"
	"github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/types"
)

// Handler serves the rental ledger over HTTP.
type Handler struct {
	engine *renthouse.RentHouse
}

// NewHandler creates a Handler driving the given engine.
func NewHandler(engine *renthouse.RentHouse) *Handler {
	return &Handler{engine: engine}
}

// ==================== Request / response bodies ====================

type moneyBody struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func (m moneyBody) toMoney() types.Money {
	return types.Money{Amount: m.Amount, Currency: m.Currency}
}

type listPropertyRequest struct {
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	PricePerNight moneyBody `json:"price_per_night"`
}

type listPropertyResponse struct {
	PropertyID int64 `json:"property_id"`
}

type bookPropertyRequest struct {
	PropertyID int64     `json:"property_id"`
	Checkin    int64     `json:"checkin"`
	Checkout   int64     `json:"checkout"`
	AmountSent moneyBody `json:"amount_sent"`
}

type bookPropertyResponse struct {
	BookingID int64 `json:"booking_id"`
}

type withdrawRequest struct {
	Count int `json:"count"`
}

type withdrawResponse struct {
	Amount types.Money `json:"amount"`
}

type statsResponse struct {
	Properties int64 `json:"properties"`
	Bookings   int64 `json:"bookings"`
}

// ==================== Property handlers ====================

// ListProperty handles POST /properties.
func (h *Handler) ListProperty(w http.ResponseWriter, r *http.Request) {
	var req listPropertyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	propID, err := h.engine.ListProperty(r.Context(),
		CallerFromContext(r.Context()), req.Name, req.Description, req.PricePerNight.toMoney())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, listPropertyResponse{PropertyID: propID})
}

// GetProperty handles GET /properties/{propertyID}.
func (h *Handler) GetProperty(w http.ResponseWriter, r *http.Request) {
	propID, ok := pathID(w, r, "propertyID")
	if !ok {
		return
	}

	p, err := h.engine.GetProperty(r.Context(), propID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ListProperties handles GET /properties.
func (h *Handler) ListProperties(w http.ResponseWriter, r *http.Request) {
	opts := property.ListOpts{
		Owner:      r.URL.Query().Get("owner"),
		ActiveOnly: r.URL.Query().Get("active") == "true",
	}
	var ok bool
	if opts.Limit, ok = queryCount(w, r, "limit"); !ok {
		return
	}
	if opts.Offset, ok = queryCount(w, r, "offset"); !ok {
		return
	}

	props, err := h.engine.ListProperties(r.Context(), opts)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, props)
}

// DeactivateProperty handles POST /properties/{propertyID}/deactivate.
func (h *Handler) DeactivateProperty(w http.ResponseWriter, r *http.Request) {
	propID, ok := pathID(w, r, "propertyID")
	if !ok {
		return
	}

	err := h.engine.DeactivateProperty(r.Context(), CallerFromContext(r.Context()), propID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ==================== Booking handlers ====================

// BookProperty handles POST /bookings.
func (h *Handler) BookProperty(w http.ResponseWriter, r *http.Request) {
	var req bookPropertyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	bookingID, err := h.engine.BookProperty(r.Context(),
		CallerFromContext(r.Context()), req.PropertyID, req.Checkin, req.Checkout, req.AmountSent.toMoney())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, bookPropertyResponse{BookingID: bookingID})
}

// GetBooking handles GET /bookings/{bookingID}.
func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	bookingID, ok := pathID(w, r, "bookingID")
	if !ok {
		return
	}

	b, err := h.engine.GetBooking(r.Context(), bookingID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// UnsettledBookings handles GET /properties/{propertyID}/bookings/unsettled.
func (h *Handler) UnsettledBookings(w http.ResponseWriter, r *http.Request) {
	propID, ok := pathID(w, r, "propertyID")
	if !ok {
		return
	}

	bookings, err := h.engine.UnsettledBookings(r.Context(), propID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bookings)
}

// ==================== Escrow handlers ====================

// EscrowBalance handles GET /properties/{propertyID}/escrow.
func (h *Handler) EscrowBalance(w http.ResponseWriter, r *http.Request) {
	propID, ok := pathID(w, r, "propertyID")
	if !ok {
		return
	}

	balance, err := h.engine.EscrowBalance(r.Context(), propID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]types.Money{"balance": balance})
}

// Withdraw handles POST /properties/{propertyID}/withdrawals.
func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	propID, ok := pathID(w, r, "propertyID")
	if !ok {
		return
	}

	var req withdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	total, err := h.engine.Withdraw(r.Context(), CallerFromContext(r.Context()), propID, req.Count)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, withdrawResponse{Amount: total})
}

// Receipts handles GET /properties/{propertyID}/receipts.
func (h *Handler) Receipts(w http.ResponseWriter, r *http.Request) {
	propID, ok := pathID(w, r, "propertyID")
	if !ok {
		return
	}

	receipts, err := h.engine.Receipts(r.Context(), propID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, receipts)
}

// ==================== Misc handlers ====================

// Stats handles GET /stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	props, err := h.engine.PropertyCount(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	bookings, err := h.engine.BookingCount(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{Properties: props, Bookings: bookings})
}

// ==================== Helpers ====================

// queryCount parses a non-negative integer query parameter, writing a
// 400 when the value is present but not a valid count.
func queryCount(w http.ResponseWriter, r *http.Request, param string) (int, bool) {
	v := r.URL.Query().Get(param)
	if v == "" {
		return 0, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		writeError(w, http.StatusBadRequest, "invalid "+param)
		return 0, false
	}
	return n, true
}

func pathID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	v, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || v <= 0 {
		writeError(w, http.StatusBadRequest, "invalid "+param)
		return 0, false
	}
	return v, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck // headers already sent
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps ledger errors onto HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	var status int
	switch {
	case renthouse.IsNotFound(err):
		status = http.StatusNotFound
	case renthouse.IsAccessDenied(err):
		status = http.StatusForbidden
	case errors.Is(err, renthouse.ErrInsufficientPayment),
		errors.Is(err, renthouse.ErrExcessPayment):
		status = http.StatusPaymentRequired
	case errors.Is(err, renthouse.ErrDateRangeConflict),
		errors.Is(err, renthouse.ErrPropertyNotActive),
		errors.Is(err, renthouse.ErrNothingToWithdraw):
		status = http.StatusConflict
	case errors.Is(err, renthouse.ErrInvalidDateRange),
		errors.Is(err, renthouse.ErrInvalidPrice),
		errors.Is(err, renthouse.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, renthouse.ErrTransferFailed):
		status = http.StatusBadGateway
	default:
		var verr renthouse.ValidationError
		if errors.As(err, &verr) {
			status = http.StatusBadRequest
		} else {
			status = http.StatusInternalServerError
		}
	}
	writeError(w, status, err.Error())
}
