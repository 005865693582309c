package handler

import "github.com/gin-gonic/gin"

// Handlers bundles the route handlers mounted under /api/v1.
type Handlers struct {
	Periods        *PeriodHandler
	Packages       *PackageHandler
	Parties        *PartyHandler
	Invoices       *InvoiceHandler
	Transactions   *TransactionHandler
	Reconciliation *ReconciliationHandler
	Exports        *ExportHandler
}

func RegisterRoutes(v1 *gin.RouterGroup, h Handlers) {
	periods := v1.Group("/periods")
	{
		periods.GET("", h.Periods.ResolvePeriod)
		periods.GET("/previous", h.Periods.PreviousPeriod)
		periods.GET("/next", h.Periods.NextPeriod)
		periods.GET("/available", h.Periods.AvailablePeriods)
	}

	packages := v1.Group("/packages")
	{
		packages.POST("", h.Packages.CreatePackage)
		packages.GET("", h.Packages.ListPackages)
		packages.GET("/:id", h.Packages.GetPackage)
		packages.PUT("/:id", h.Packages.UpdatePackage)
		packages.POST("/:id/status", h.Packages.AdvancePackageStatus)
		packages.GET("/:id/summary", h.Packages.GetPackageSummary)
	}

	suppliers := v1.Group("/suppliers")
	{
		suppliers.POST("", h.Parties.CreateSupplier)
		suppliers.GET("", h.Parties.ListSuppliers)
		suppliers.GET("/:id", h.Parties.GetSupplier)
	}

	customers := v1.Group("/customers")
	{
		customers.POST("", h.Parties.CreateCustomer)
		customers.GET("", h.Parties.ListCustomers)
		customers.GET("/:id", h.Parties.GetCustomer)
	}

	invoices := v1.Group("/invoices")
	{
		invoices.POST("", h.Invoices.CreateInvoice)
		invoices.GET("", h.Invoices.ListInvoices)
		invoices.GET("/:id", h.Invoices.GetInvoice)
		invoices.PUT("/:id", h.Invoices.UpdateInvoice)
		invoices.PUT("/:id/extraction", h.Invoices.AttachExtraction)
	}

	transactions := v1.Group("/transactions")
	{
		transactions.POST("", h.Transactions.CreateTransaction)
		transactions.POST("/import", h.Transactions.ImportTransactions)
		transactions.GET("", h.Transactions.ListTransactions)
		transactions.GET("/:id", h.Transactions.GetTransaction)
		transactions.POST("/:id/ignore", h.Transactions.IgnoreTransaction)
		transactions.PUT("/:id/package", h.Transactions.AssignPackage)
	}

	matches := v1.Group("/matches")
	{
		matches.POST("", h.Reconciliation.ProposeMatch)
		matches.GET("", h.Reconciliation.ListMatches)
		matches.GET("/suggestions", h.Reconciliation.SuggestMatches)
		matches.POST("/suggestions/propose", h.Reconciliation.ProposeSuggestions)
		matches.GET("/:id", h.Reconciliation.GetMatch)
		matches.POST("/:id/confirm", h.Reconciliation.ConfirmMatch)
		matches.POST("/:id/reject", h.Reconciliation.RejectMatch)
	}

	exports := v1.Group("/exports")
	{
		exports.POST("", h.Exports.RecordExport)
		exports.GET("", h.Exports.ListExports)
	}
}
