package repository

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"travel-ledger/internal/apperrors"
	"travel-ledger/internal/domain"
)

var maxMarginPercent = decimal.NewFromInt(100)

// Validator checks entity invariants that do not depend on other rows.
// Referential checks are done by each store against its own data.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return &Validator{validate: v}
}

// Struct runs the struct-tag rules and converts the first failure into a
// VALIDATION error.
func (v *Validator) Struct(op string, s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return apperrors.Validation(op, fieldPath(fe), describe(fe))
	}
	return apperrors.Validation(op, "", err.Error())
}

// fieldPath drops the root struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "must not be empty"
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "len":
		return fmt.Sprintf("must have length %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be >= %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be <= %s", fe.Param())
	case "uuid":
		return "must be a UUID"
	case "email":
		return "must be an email address"
	case "datetime":
		return fmt.Sprintf("must match layout %s", fe.Param())
	case "alpha", "uppercase":
		return "must be an uppercase ISO currency code"
	}
	return fmt.Sprintf("failed %q rule", fe.Tag())
}

func (v *Validator) Package(op string, pkg *domain.Package) error {
	if err := v.Struct(op, pkg); err != nil {
		return err
	}
	if pkg.StartDate.After(pkg.EndDate) {
		return apperrors.Validation(op, "start_date", "must not be after end_date")
	}
	if pkg.TargetMarginPercent.IsNegative() || pkg.TargetMarginPercent.GreaterThan(maxMarginPercent) {
		return apperrors.Validation(op, "target_margin_percent", "must be within [0,100]")
	}
	return nil
}

// PackageTransition enforces the forward-only status lifecycle.
func (v *Validator) PackageTransition(op string, from, to domain.PackageStatus) error {
	if !from.CanTransitionTo(to) {
		return apperrors.Validation(op, "status", fmt.Sprintf("cannot move from %s back to %s", from, to))
	}
	return nil
}

func (v *Validator) Invoice(op string, inv *domain.Invoice) error {
	if err := v.Struct(op, inv); err != nil {
		return err
	}
	if inv.Amount != nil && inv.Amount.IsNegative() {
		return apperrors.Validation(op, "amount", "must be >= 0")
	}
	switch inv.Type {
	case domain.InvoiceExpense:
		if inv.CustomerID != nil {
			return apperrors.Validation(op, "customer_id", "expense invoices relate to a supplier, not a customer")
		}
	case domain.InvoiceIncome:
		if inv.SupplierID != nil {
			return apperrors.Validation(op, "supplier_id", "income invoices relate to a customer, not a supplier")
		}
	}
	if inv.Extracted != nil {
		return v.extracted(op, inv.Extracted)
	}
	return nil
}

func (v *Validator) extracted(op string, e *domain.ExtractedData) error {
	if e.Amount != nil && e.Amount.IsNegative() {
		return apperrors.Validation(op, "extracted_data.amount", "must be >= 0")
	}
	if e.VATAmount != nil && e.VATAmount.IsNegative() {
		return apperrors.Validation(op, "extracted_data.vat_amount", "must be >= 0")
	}
	if e.Category != nil && !e.Category.Valid() {
		return apperrors.Validation(op, "extracted_data.category", "unknown category")
	}
	return nil
}

// ExtractedData validates extractor output on its own.
func (v *Validator) ExtractedData(op string, e *domain.ExtractedData) error {
	if err := v.Struct(op, e); err != nil {
		return err
	}
	return v.extracted(op, e)
}

func (v *Validator) Transaction(op string, tx *domain.BankTransaction) error {
	if err := v.Struct(op, tx); err != nil {
		return err
	}
	if tx.Status == domain.TransactionIgnored && tx.NeedsInvoice {
		return apperrors.Validation(op, "needs_invoice", "ignored transactions cannot need an invoice")
	}
	return nil
}

func (v *Validator) Match(op string, m *domain.Match) error {
	if err := v.Struct(op, m); err != nil {
		return err
	}
	if m.Status == domain.MatchConfirmed && m.MatchedAt == nil {
		return apperrors.Validation(op, "matched_at", "confirmed matches carry a matched_at time")
	}
	return nil
}

// MatchUpdate rejects changes to a match's identity fields.
func (v *Validator) MatchUpdate(op string, old, next *domain.Match) error {
	if err := v.Match(op, next); err != nil {
		return err
	}
	switch {
	case old.InvoiceID != next.InvoiceID:
		return apperrors.Validation(op, "invoice_id", "is immutable")
	case old.TransactionID != next.TransactionID:
		return apperrors.Validation(op, "transaction_id", "is immutable")
	case !old.CreatedAt.Equal(next.CreatedAt):
		return apperrors.Validation(op, "created_at", "is immutable")
	}
	return nil
}

func (v *Validator) ExportLog(op string, log *domain.ExportLog) error {
	return v.Struct(op, log)
}
