package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/mcclellann/hoaLedger/internal/logger"
	"github.com/mcclellann/hoaLedger/pkg/aging"
	"github.com/mcclellann/hoaLedger/pkg/assessment"
	"github.com/mcclellann/hoaLedger/pkg/budgetcsv"
	"github.com/mcclellann/hoaLedger/pkg/ledger"
	"github.com/mcclellann/hoaLedger/pkg/models"
	"github.com/mcclellann/hoaLedger/pkg/reporting"
	"github.com/mcclellann/hoaLedger/pkg/store"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var errBadRequest = errors.New("bad request")

// Server holds the ledger and the storage it runs on.
type Server struct {
	ledger  *ledger.Ledger
	storage store.Storage
	loader  *reporting.Loader
	log     zerolog.Logger
	now     func() time.Time

	// Applied to new budgets that do not send a percentage. Unset leaves the
	// budget on models.DefaultCommonAreaPercentage.
	defaultCommonAreaPct decimal.NullDecimal
}

func NewServer(s store.Storage) *Server {
	return &Server{
		ledger:  ledger.NewLedger(s),
		storage: s,
		loader:  reporting.NewLoader(s),
		log:     logger.WithComponent("api"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Routes registers every handler on a new router.
func (s *Server) Routes() *mux.Router {
	router := mux.NewRouter()
	router.Use(s.requestLogger)

	router.HandleFunc("/units", s.listUnitsHandler).Methods("GET")
	router.HandleFunc("/units", s.createUnitHandler).Methods("POST")
	router.HandleFunc("/units/{id}", s.getUnitHandler).Methods("GET")
	router.HandleFunc("/units/{id}/statement", s.unitStatementHandler).Methods("GET")

	router.HandleFunc("/budgets", s.listBudgetsHandler).Methods("GET")
	router.HandleFunc("/budgets", s.createBudgetHandler).Methods("POST")
	router.HandleFunc("/budgets/import", s.importBudgetHandler).Methods("POST")
	router.HandleFunc("/budgets/{id}", s.getBudgetHandler).Methods("GET")
	router.HandleFunc("/budgets/{id}", s.deleteBudgetHandler).Methods("DELETE")
	router.HandleFunc("/budgets/{id}/lines", s.replaceLinesHandler).Methods("PUT")
	router.HandleFunc("/budgets/{id}/assessments", s.assessmentsHandler).Methods("GET")
	router.HandleFunc("/budgets/{id}/csv", s.exportBudgetHandler).Methods("GET")
	router.HandleFunc("/budgets/{id}/invoices", s.generateInvoicesHandler).Methods("POST")

	router.HandleFunc("/invoices", s.listInvoicesHandler).Methods("GET")
	router.HandleFunc("/invoices", s.createInvoiceHandler).Methods("POST")
	router.HandleFunc("/invoices/{id}", s.getInvoiceHandler).Methods("GET")
	router.HandleFunc("/invoices/{id}", s.deleteInvoiceHandler).Methods("DELETE")
	router.HandleFunc("/invoices/{id}/payments", s.listPaymentsHandler).Methods("GET")
	router.HandleFunc("/invoices/{id}/payments", s.recordPaymentHandler).Methods("POST")
	router.HandleFunc("/invoices/{id}/cancel", s.cancelInvoiceHandler).Methods("POST")

	router.HandleFunc("/reports/aging", s.agingReportHandler).Methods("GET")
	router.HandleFunc("/reports/delinquency", s.delinquencyReportHandler).Methods("GET")
	router.HandleFunc("/reports/collections", s.collectionsReportHandler).Methods("GET")
	router.HandleFunc("/reports/variance", s.varianceReportHandler).Methods("POST")
	router.HandleFunc("/reports/progress", s.progressReportHandler).Methods("GET")
	router.HandleFunc("/reports/trends", s.trendsReportHandler).Methods("GET")

	return router
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r)

		log := logger.WithRequestID(requestID)
		log.Info().Str("method", r.Method).Str("path", r.URL.Path).Dur("duration", time.Since(start)).Msg("Request handled")
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto status codes. Anything unrecognized is
// logged and reported as a 500.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var verr *budgetcsv.ValidationError
	switch {
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	case errors.Is(err, ledger.ErrInvoiceNotPayable), errors.Is(err, ledger.ErrInvoiceHasPayments):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, errBadRequest),
		errors.Is(err, ledger.ErrNonPositivePayment),
		errors.Is(err, ledger.ErrInvalidPaymentMethod),
		errors.Is(err, ledger.ErrInvalidInvoice),
		errors.Is(err, assessment.ErrNegativeBudget),
		errors.Is(err, assessment.ErrInvalidCommonAreaPercentage),
		errors.Is(err, assessment.ErrNegativeSquareFeet),
		errors.Is(err, reporting.ErrInvalidElapsedMonths),
		errors.As(err, &verr):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		s.log.Error().Err(err).Msg("Request failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid id", errBadRequest)
	}
	return id, nil
}

// queryDate reads a YYYY-MM-DD query parameter, falling back to today.
func (s *Server) queryDate(r *http.Request, key string) (time.Time, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return s.now().Truncate(24 * time.Hour), nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be YYYY-MM-DD", errBadRequest, key)
	}
	return t, nil
}

// Units

func (s *Server) listUnitsHandler(w http.ResponseWriter, r *http.Request) {
	units, err := s.storage.ListUnits(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, units)
}

func (s *Server) createUnitHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UnitNumber string          `json:"unit_number"`
		Address    string          `json:"address"`
		SquareFeet decimal.Decimal `json:"square_feet"`
	}
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.UnitNumber == "" {
		s.writeError(w, fmt.Errorf("%w: unit_number is required", errBadRequest))
		return
	}
	if req.SquareFeet.IsNegative() {
		s.writeError(w, assessment.ErrNegativeSquareFeet)
		return
	}

	unit := &models.Unit{
		ID:         uuid.New(),
		UnitNumber: req.UnitNumber,
		Address:    req.Address,
		SquareFeet: req.SquareFeet,
		CreatedAt:  s.now(),
	}
	if err := s.storage.CreateUnit(r.Context(), unit); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, unit)
}

func (s *Server) getUnitHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	unit, err := s.storage.GetUnit(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, unit)
}

func (s *Server) unitStatementHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if _, err := s.storage.GetUnit(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	invoices, err := s.storage.ListInvoices(r.Context(), store.InvoiceFilter{UnitID: &id})
	if err != nil {
		s.writeError(w, err)
		return
	}
	payments, err := s.storage.ListPayments(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reporting.BuildUnitStatement(id, invoices, payments))
}

// Budgets

type budgetRequest struct {
	Name                 string              `json:"name"`
	FiscalYear           int                 `json:"fiscal_year"`
	CommonAreaPercentage decimal.NullDecimal `json:"common_area_percentage"`
	Lines                []models.BudgetLine `json:"lines"`
}

func validateLines(lines []models.BudgetLine) error {
	for _, l := range lines {
		if l.CategoryName == "" {
			return fmt.Errorf("%w: category_name is required", errBadRequest)
		}
		for _, m := range l.Months {
			if m.IsNegative() {
				return fmt.Errorf("%w: %s has a negative monthly amount", errBadRequest, l.CategoryName)
			}
		}
	}
	return nil
}

func (s *Server) newBudget(name string, year int, pct decimal.NullDecimal, lines []models.BudgetLine) (*models.Budget, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", errBadRequest)
	}
	if !pct.Valid {
		pct = s.defaultCommonAreaPct
	}
	if pct.Valid && (pct.Decimal.IsNegative() || pct.Decimal.GreaterThan(decimal.NewFromInt(100))) {
		return nil, assessment.ErrInvalidCommonAreaPercentage
	}
	if err := validateLines(lines); err != nil {
		return nil, err
	}
	now := s.now()
	return &models.Budget{
		ID:                   uuid.New(),
		Name:                 name,
		FiscalYear:           year,
		CommonAreaPercentage: pct,
		Lines:                lines,
		CreatedAt:            now,
		UpdatedAt:            now,
	}, nil
}

func (s *Server) listBudgetsHandler(w http.ResponseWriter, r *http.Request) {
	budgets, err := s.storage.ListBudgets(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, budgets)
}

func (s *Server) createBudgetHandler(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	budget, err := s.newBudget(req.Name, req.FiscalYear, req.CommonAreaPercentage, req.Lines)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.storage.CreateBudget(r.Context(), budget); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, budget)
}

func (s *Server) getBudgetHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	budget, err := s.storage.GetBudget(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, budget)
}

func (s *Server) deleteBudgetHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.storage.DeleteBudget(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) replaceLinesHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var lines []models.BudgetLine
	if err := decode(r, &lines); err != nil {
		s.writeError(w, err)
		return
	}
	if err := validateLines(lines); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.storage.ReplaceBudgetLines(r.Context(), id, lines); err != nil {
		s.writeError(w, err)
		return
	}
	budget, err := s.storage.GetBudget(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, budget)
}

func (s *Server) assessmentsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	budget, err := s.storage.GetBudget(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	units, err := s.storage.ListUnits(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	assessments, validation, err := assessment.ForBudget(budget, units)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !validation.IsValid {
		s.log.Warn().Str("budget_id", id.String()).Str("difference", validation.Difference.StringFixed(2)).Msg("Assessment total drifts from budget beyond tolerance")
	}
	byCategory, err := assessment.CalculateAssessmentByCategory(budget.Lines, units, assessment.TotalSquareFeet(units), budget.EffectiveCommonAreaPercentage())
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"budget_id":   budget.ID,
		"total":       budget.Total(),
		"assessments": assessments,
		"validation":  validation,
		"by_category": byCategory,
	})
}

func (s *Server) exportBudgetHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	budget, err := s.storage.GetBudget(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("budget-%d.csv", budget.FiscalYear)))
	io.WriteString(w, budgetcsv.ExportBudgetCSV(budget.Lines, budget.Name, s.now()))
}

func (s *Server) importBudgetHandler(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	year, err := strconv.Atoi(r.URL.Query().Get("fiscal_year"))
	if err != nil {
		s.writeError(w, fmt.Errorf("%w: fiscal_year must be a number", errBadRequest))
		return
	}
	var pct decimal.NullDecimal
	if v := r.URL.Query().Get("common_area_pct"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			s.writeError(w, fmt.Errorf("%w: common_area_pct must be a number", errBadRequest))
			return
		}
		pct = decimal.NewNullDecimal(d)
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeError(w, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	rows, err := budgetcsv.ParseBudgetCSV(string(body))
	if err != nil {
		s.writeError(w, err)
		return
	}
	validation := budgetcsv.ValidateBudgetImport(rows)
	if !validation.IsValid {
		writeJSON(w, http.StatusBadRequest, validation)
		return
	}

	budget, err := s.newBudget(name, year, pct, budgetcsv.ToBudgetLines(rows))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.storage.CreateBudget(r.Context(), budget); err != nil {
		s.writeError(w, err)
		return
	}
	for _, warning := range validation.Warnings {
		s.log.Warn().Str("budget_id", budget.ID.String()).Msg(warning)
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"budget":   budget,
		"warnings": validation.Warnings,
	})
}

func (s *Server) generateInvoicesHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req struct {
		IssueDate time.Time `json:"issue_date"`
		DueDate   time.Time `json:"due_date"`
	}
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	run, err := s.ledger.GenerateAssessmentInvoices(r.Context(), id, req.IssueDate, req.DueDate)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, run)
}

// Invoices

type invoiceResponse struct {
	*models.Invoice
	Balance ledger.Reconciliation `json:"balance"`
}

func (s *Server) listInvoicesHandler(w http.ResponseWriter, r *http.Request) {
	var filter store.InvoiceFilter
	q := r.URL.Query()
	if v := q.Get("unit_id"); v != "" {
		unitID, err := uuid.Parse(v)
		if err != nil {
			s.writeError(w, fmt.Errorf("%w: invalid unit_id", errBadRequest))
			return
		}
		filter.UnitID = &unitID
	}
	for _, st := range q["status"] {
		filter.Statuses = append(filter.Statuses, models.InvoiceStatus(st))
	}
	filter.IncludeDeleted = q.Get("include_deleted") == "true"

	invoices, err := s.storage.ListInvoices(r.Context(), filter)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, invoices)
}

func (s *Server) createInvoiceHandler(w http.ResponseWriter, r *http.Request) {
	var req ledger.NewInvoice
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	inv, err := s.ledger.CreateInvoice(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, inv)
}

func (s *Server) getInvoiceHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	rec, err := s.ledger.GetInvoiceBalance(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	inv, err := s.ledger.GetInvoice(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, invoiceResponse{Invoice: inv, Balance: rec})
}

func (s *Server) deleteInvoiceHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.ledger.DeleteInvoice(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) cancelInvoiceHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.ledger.CancelInvoice(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listPaymentsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if _, err := s.storage.GetInvoice(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	payments, err := s.storage.GetPaymentsForInvoice(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payments)
}

func (s *Server) recordPaymentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req ledger.NewPayment
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	req.InvoiceID = id

	payment, rec, err := s.ledger.RecordPayment(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"payment": payment,
		"balance": rec,
	})
}

// Reports

func (s *Server) agingReportHandler(w http.ResponseWriter, r *http.Request) {
	asOf, err := s.queryDate(r, "as_of")
	if err != nil {
		s.writeError(w, err)
		return
	}
	ds, err := s.loader.Load(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, aging.BuildAgingReport(ds.Units, ds.Invoices, ds.Payments, asOf))
}

func (s *Server) delinquencyReportHandler(w http.ResponseWriter, r *http.Request) {
	asOf, err := s.queryDate(r, "as_of")
	if err != nil {
		s.writeError(w, err)
		return
	}
	ds, err := s.loader.Load(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, aging.BuildDelinquencyReport(ds.Units, ds.Invoices, ds.Payments, asOf))
}

func (s *Server) collectionsReportHandler(w http.ResponseWriter, r *http.Request) {
	ds, err := s.loader.Load(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"summary":   ds.Collections(),
		"by_method": ds.CollectionsByMethod(),
	})
}

func (s *Server) varianceReportHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BudgetID uuid.UUID           `json:"budget_id"`
		Expenses []reporting.Expense `json:"expenses"`
	}
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	budget, err := s.storage.GetBudget(r.Context(), req.BudgetID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reporting.CalculateBudgetVariance(budget.Lines, req.Expenses))
}

func (s *Server) progressReportHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	budgetID, err := uuid.Parse(q.Get("budget_id"))
	if err != nil {
		s.writeError(w, fmt.Errorf("%w: invalid budget_id", errBadRequest))
		return
	}
	actual, err := decimal.NewFromString(q.Get("actual"))
	if err != nil {
		s.writeError(w, fmt.Errorf("%w: actual must be a number", errBadRequest))
		return
	}
	elapsed := int(s.now().Month())
	if v := q.Get("elapsed_months"); v != "" {
		if elapsed, err = strconv.Atoi(v); err != nil {
			s.writeError(w, fmt.Errorf("%w: elapsed_months must be a number", errBadRequest))
			return
		}
	}

	budget, err := s.storage.GetBudget(r.Context(), budgetID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	progress, err := reporting.CalculateBudgetProgress(budget.Total(), actual, elapsed)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

func (s *Server) trendsReportHandler(w http.ResponseWriter, r *http.Request) {
	budgets, err := s.storage.ListBudgets(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	// Actual spend is not recorded, so only the budget side of each trend is served.
	type trend struct {
		Year          int             `json:"year"`
		BudgetAmount  decimal.Decimal `json:"budget_amount"`
		PercentChange decimal.Decimal `json:"percent_change"`
	}
	trends := reporting.CalculateBudgetTrends(reporting.BudgetYears(budgets), nil)
	out := make([]trend, 0, len(trends))
	for _, t := range trends {
		out = append(out, trend{Year: t.Year, BudgetAmount: t.BudgetAmount, PercentChange: t.PercentChange})
	}
	writeJSON(w, http.StatusOK, out)
}
